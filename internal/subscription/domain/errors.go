package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUsageKey      = errors.New("invalid_usage_key")
	ErrInvalidSubscription  = errors.New("invalid_subscription")
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrMissingSKU           = errors.New("subscription_missing_sku")
	ErrInvalidPayload       = errors.New("invalid_subscription_payload")
)

// MissingOfferingError is returned when a SKU lookup finds no offering.
type MissingOfferingError struct {
	SKU string
}

func (e *MissingOfferingError) Error() string {
	return fmt.Sprintf("Sku %s not found in Offering", e.SKU)
}

// IsMissingOffering reports whether err carries a MissingOfferingError.
func IsMissingOffering(err error) bool {
	var target *MissingOfferingError
	return errors.As(err, &target)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/tally/internal/subscription/domain"
	"go.uber.org/zap"
)

// terminationTolerance decides which status message TerminateSubscription
// returns. It never changes the stored end date.
const terminationTolerance = 30 * time.Second

// TerminateSubscription ends the active version of subscriptionID at
// terminationDate and returns a status message for the caller.
func (s *Service) TerminateSubscription(ctx context.Context, subscriptionID string, terminationDate time.Time) (string, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	sub, err := s.repo.FindActiveBySubscriptionID(ctx, s.db, subscriptionID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", domain.ErrSubscriptionNotFound
	}
	log := s.log.With(zap.String("subscription_id", subscriptionID), zap.String("sku", sub.SKU))

	productName, err := s.productName(ctx, sub)
	if err != nil {
		return "", err
	}
	tag := s.profile.TagForOfferingProductName(productName)
	if !s.profile.IsProductPAYGEligible(tag) {
		log.Info("terminating subscription that is not PAYG eligible", zap.String("product_tag", tag))
	}

	end := terminationDate
	sub.EndDate = &end
	if err := s.repo.Save(ctx, s.db, sub); err != nil {
		return "", err
	}

	now := s.clock.Now()
	delta := now.Sub(terminationDate)
	if delta < 0 {
		delta = -delta
	}
	if delta > terminationTolerance {
		log.Warn("termination date out of range", zap.Time("termination_date", terminationDate))
		return fmt.Sprintf("Subscription %s terminated at %s with out of range termination date %s.",
			subscriptionID, now.Format(time.RFC3339), terminationDate.Format(time.RFC3339)), nil
	}
	return fmt.Sprintf("Subscription %s terminated at %s.", subscriptionID, terminationDate.Format(time.RFC3339)), nil
}

func (s *Service) productName(ctx context.Context, sub *domain.Subscription) (string, error) {
	if sub.Offering != nil && sub.Offering.ProductName != "" {
		return sub.Offering.ProductName, nil
	}
	name, ok, err := s.offeringRepo.FindProductNameBySKU(ctx, s.db, sub.SKU)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &domain.MissingOfferingError{SKU: sub.SKU}
	}
	return name, nil
}

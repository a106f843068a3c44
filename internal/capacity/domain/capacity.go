package domain

import (
	"context"
	"errors"

	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
)

// TopicCapacityReconcile carries ReconcileCapacityByOfferingTask payloads.
const TopicCapacityReconcile = "capacity-reconcile"

// DefaultPageSize bounds one page of offering reconciliation.
const DefaultPageSize = 100

// ReconcileCapacityByOfferingTask is a cursor over the subscriptions of a SKU.
type ReconcileCapacityByOfferingTask struct {
	SKU    string `json:"sku"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// Changes counts the child rows touched by one reconciliation.
type Changes struct {
	MeasurementsAdded   int
	MeasurementsUpdated int
	MeasurementsRemoved int
	ProductIDsAdded     int
	ProductIDsRemoved   int
}

func (c Changes) Empty() bool {
	return c == Changes{}
}

func (c Changes) Add(other Changes) Changes {
	return Changes{
		MeasurementsAdded:   c.MeasurementsAdded + other.MeasurementsAdded,
		MeasurementsUpdated: c.MeasurementsUpdated + other.MeasurementsUpdated,
		MeasurementsRemoved: c.MeasurementsRemoved + other.MeasurementsRemoved,
		ProductIDsAdded:     c.ProductIDsAdded + other.ProductIDsAdded,
		ProductIDsRemoved:   c.ProductIDsRemoved + other.ProductIDsRemoved,
	}
}

// PageResult describes one processed page of an offering reconciliation.
type PageResult struct {
	SKU       string
	Processed int
	Updated   int
	Changes   Changes
	// NextOffset is set when a follow-up page was enqueued.
	NextOffset *int
}

// Denylist suppresses capacity for matching SKUs.
type Denylist interface {
	ProductIDMatches(sku string) bool
}

type Service interface {
	subscriptiondomain.CapacityReconciler
	ReconcileCapacityForOffering(ctx context.Context, sku string, offset, limit int) (PageResult, error)
	EnqueueReconcileCapacityForOffering(ctx context.Context, sku string) error
}

var ErrInvalidTask = errors.New("invalid_capacity_task")

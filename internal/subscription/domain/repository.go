package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindActiveBySubscriptionID returns the version active now, or nil.
	FindActiveBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*Subscription, error)
	FindByOrgID(ctx context.Context, db *gorm.DB, orgID string) ([]Subscription, error)
	FindByCriteria(ctx context.Context, db *gorm.DB, criteria Criteria) ([]Subscription, error)
	// FindByOfferingSKU returns one page ordered by subscription id and
	// whether more rows follow.
	FindByOfferingSKU(ctx context.Context, db *gorm.DB, sku string, offset, limit int) ([]Subscription, bool, error)
	// Save persists the row together with its measurements and product ids.
	Save(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	SaveAll(ctx context.Context, db *gorm.DB, subscriptions []*Subscription) error
	DeleteAll(ctx context.Context, db *gorm.DB, subscriptions []Subscription) error
}

type OrgConfigRepository interface {
	FindSyncEnabledOrgIDs(ctx context.Context, db *gorm.DB) ([]string, error)
	Save(ctx context.Context, db *gorm.DB, cfg *OrgConfig) error
}

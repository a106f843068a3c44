package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/tally/internal/clock"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	clock clock.Clock
}

func Provide(c clock.Clock) domain.Repository {
	return &repo{clock: c}
}

var (
	childPreloads = []option.QueryOption{
		option.WithPreload("Offering"),
		option.WithPreload("Measurements"),
		option.WithPreload("ProductIDs"),
	}
	versionOrder = []option.QueryOption{
		option.WithSortBy("subscription_id", "asc"),
		option.WithSortBy("start_date", "asc"),
	}
)

func withChildren(db *gorm.DB) *gorm.DB {
	return option.Apply(db, childPreloads...)
}

func (r *repo) FindActiveBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*domain.Subscription, error) {
	now := r.clock.Now().UTC()
	var items []domain.Subscription
	err := withChildren(db.WithContext(ctx)).
		Where("subscription_id = ?", strings.TrimSpace(subscriptionID)).
		Where("start_date <= ?", now).
		Where("(end_date IS NULL OR end_date > ?)", now).
		Order("start_date DESC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) FindByOrgID(ctx context.Context, db *gorm.DB, orgID string) ([]domain.Subscription, error) {
	var items []domain.Subscription
	stmt := withChildren(db.WithContext(ctx)).Where("org_id = ?", orgID)
	err := option.Apply(stmt, versionOrder...).Find(&items).Error
	return items, err
}

func (r *repo) FindByCriteria(ctx context.Context, db *gorm.DB, c domain.Criteria) ([]domain.Subscription, error) {
	stmt := withChildren(db.WithContext(ctx)).
		Model(&domain.Subscription{}).
		Select("subscriptions.*").
		Joins("JOIN offerings ON offerings.sku = subscriptions.sku")

	switch {
	case c.OrgID != "":
		stmt = stmt.Where("subscriptions.org_id = ?", c.OrgID)
	case c.AccountNumber != "":
		stmt = stmt.Where("subscriptions.account_number = ?", c.AccountNumber)
	}
	if len(c.ProductNames) > 0 {
		stmt = stmt.Where("offerings.product_name IN ?", c.ProductNames)
	}
	if c.ServiceLevel != "" {
		stmt = stmt.Where("offerings.service_level = ?", c.ServiceLevel)
	}
	if c.Usage != "" {
		stmt = stmt.Where("offerings.usage = ?", c.Usage)
	}
	if provider, ok := c.BillingProvider.Value(); ok {
		stmt = stmt.Where("subscriptions.billing_provider = ?", provider)
	}
	if account, ok := c.BillingAccountID.Value(); ok {
		stmt = stmt.Where("subscriptions.billing_account_id = ?", account)
	}
	if !c.RangeEnd.IsZero() {
		stmt = stmt.Where("subscriptions.start_date <= ?", c.RangeEnd.UTC())
	}
	if !c.RangeStart.IsZero() {
		stmt = stmt.Where("(subscriptions.end_date IS NULL OR subscriptions.end_date >= ?)", c.RangeStart.UTC())
	}

	var items []domain.Subscription
	err := stmt.Order("subscriptions.subscription_id ASC").Order("subscriptions.start_date ASC").Find(&items).Error
	return items, err
}

func (r *repo) FindByOfferingSKU(ctx context.Context, db *gorm.DB, sku string, offset, limit int) ([]domain.Subscription, bool, error) {
	var items []domain.Subscription
	fetch := limit
	if fetch > 0 {
		fetch++
	}
	stmt := withChildren(db.WithContext(ctx)).Where("sku = ?", sku)
	stmt = option.Apply(stmt, append(versionOrder, option.ApplyOffsetLimit(offset, fetch))...)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, false, err
	}
	items, more := option.NextPage(items, limit)
	return items, more, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.save(tx, subscription)
	})
}

func (r *repo) SaveAll(ctx context.Context, db *gorm.DB, subscriptions []*domain.Subscription) error {
	if len(subscriptions) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sub := range subscriptions {
			if err := r.save(tx, sub); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) save(tx *gorm.DB, sub *domain.Subscription) error {
	if sub == nil || sub.ID == 0 {
		return domain.ErrInvalidSubscription
	}
	sub.StartDate = sub.StartDate.UTC()
	if sub.EndDate != nil {
		end := sub.EndDate.UTC()
		sub.EndDate = &end
	}
	if err := tx.Omit(clause.Associations).Save(sub).Error; err != nil {
		return err
	}
	if err := r.syncMeasurements(tx, sub); err != nil {
		return err
	}
	return r.syncProductIDs(tx, sub)
}

func (r *repo) syncMeasurements(tx *gorm.DB, sub *domain.Subscription) error {
	var current []domain.SubscriptionMeasurement
	if err := tx.Where("subscription_version_id = ?", sub.ID).Find(&current).Error; err != nil {
		return err
	}

	target := make(map[offeringdomain.CapacityKey]struct{}, len(sub.Measurements))
	for i := range sub.Measurements {
		sub.Measurements[i].SubscriptionVersionID = sub.ID
		target[sub.Measurements[i].Key()] = struct{}{}
	}

	for _, m := range current {
		if _, keep := target[m.Key()]; keep {
			continue
		}
		err := tx.Where("subscription_version_id = ? AND measurement_type = ? AND metric_id = ?",
			sub.ID, m.MeasurementType, m.MetricID).
			Delete(&domain.SubscriptionMeasurement{}).Error
		if err != nil {
			return err
		}
	}

	if len(sub.Measurements) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscription_version_id"}, {Name: "measurement_type"}, {Name: "metric_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&sub.Measurements).Error
}

func (r *repo) syncProductIDs(tx *gorm.DB, sub *domain.Subscription) error {
	target := make([]string, 0, len(sub.ProductIDs))
	for i := range sub.ProductIDs {
		sub.ProductIDs[i].SubscriptionVersionID = sub.ID
		target = append(target, sub.ProductIDs[i].ProductID)
	}

	stale := tx.Where("subscription_version_id = ?", sub.ID)
	if len(target) > 0 {
		stale = stale.Where("product_id NOT IN ?", target)
	}
	if err := stale.Delete(&domain.SubscriptionProductID{}).Error; err != nil {
		return err
	}

	if len(sub.ProductIDs) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub.ProductIDs).Error
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB, subscriptions []domain.Subscription) error {
	ids := lo.FilterMap(subscriptions, func(s domain.Subscription, _ int) (snowflake.ID, bool) {
		return s.ID, s.ID != 0
	})
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subscription_version_id IN ?", ids).Delete(&domain.SubscriptionMeasurement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subscription_version_id IN ?", ids).Delete(&domain.SubscriptionProductID{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&domain.Subscription{}).Error
	})
}

type orgConfigRepo struct {
	clock clock.Clock
}

func ProvideOrgConfig(c clock.Clock) domain.OrgConfigRepository {
	return &orgConfigRepo{clock: c}
}

func (r *orgConfigRepo) FindSyncEnabledOrgIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.OrgConfig{}).
		Where("sync_enabled = ?", true).
		Order("org_id ASC").
		Pluck("org_id", &ids).Error
	return ids, err
}

func (r *orgConfigRepo) Save(ctx context.Context, db *gorm.DB, cfg *domain.OrgConfig) error {
	now := r.clock.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sync_enabled", "updated_at"}),
		}).
		Create(cfg).Error
}

package service

import (
	"context"

	"github.com/smallbiznis/tally/internal/entitlement"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type repoMock struct {
	mock.Mock
}

func (m *repoMock) FindActiveBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*domain.Subscription, error) {
	args := m.Called(ctx, db, subscriptionID)
	if s := args.Get(0); s != nil {
		return s.(*domain.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *repoMock) FindByOrgID(ctx context.Context, db *gorm.DB, orgID string) ([]domain.Subscription, error) {
	args := m.Called(ctx, db, orgID)
	if s := args.Get(0); s != nil {
		return s.([]domain.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *repoMock) FindByCriteria(ctx context.Context, db *gorm.DB, criteria domain.Criteria) ([]domain.Subscription, error) {
	args := m.Called(ctx, db, criteria)
	if s := args.Get(0); s != nil {
		return s.([]domain.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *repoMock) FindByOfferingSKU(ctx context.Context, db *gorm.DB, sku string, offset, limit int) ([]domain.Subscription, bool, error) {
	args := m.Called(ctx, db, sku, offset, limit)
	if s := args.Get(0); s != nil {
		return s.([]domain.Subscription), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *repoMock) Save(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return m.Called(ctx, db, subscription).Error(0)
}

func (m *repoMock) SaveAll(ctx context.Context, db *gorm.DB, subscriptions []*domain.Subscription) error {
	return m.Called(ctx, db, subscriptions).Error(0)
}

func (m *repoMock) DeleteAll(ctx context.Context, db *gorm.DB, subscriptions []domain.Subscription) error {
	return m.Called(ctx, db, subscriptions).Error(0)
}

type orgConfigRepoMock struct {
	mock.Mock
}

func (m *orgConfigRepoMock) FindSyncEnabledOrgIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	args := m.Called(ctx, db)
	if s := args.Get(0); s != nil {
		return s.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *orgConfigRepoMock) Save(ctx context.Context, db *gorm.DB, cfg *domain.OrgConfig) error {
	return m.Called(ctx, db, cfg).Error(0)
}

type offeringRepoMock struct {
	mock.Mock
}

func (m *offeringRepoMock) GetBySKU(ctx context.Context, db *gorm.DB, sku string) (*offeringdomain.Offering, error) {
	args := m.Called(ctx, db, sku)
	if o := args.Get(0); o != nil {
		return o.(*offeringdomain.Offering), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *offeringRepoMock) ExistsBySKU(ctx context.Context, db *gorm.DB, sku string) (bool, error) {
	args := m.Called(ctx, db, sku)
	return args.Bool(0), args.Error(1)
}

func (m *offeringRepoMock) FindProductNameBySKU(ctx context.Context, db *gorm.DB, sku string) (string, bool, error) {
	args := m.Called(ctx, db, sku)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *offeringRepoMock) Save(ctx context.Context, db *gorm.DB, offering *offeringdomain.Offering) error {
	return m.Called(ctx, db, offering).Error(0)
}

type offeringSyncMock struct {
	mock.Mock
}

func (m *offeringSyncMock) SyncOffering(ctx context.Context, sku string) offeringdomain.SyncResult {
	return m.Called(ctx, sku).Get(0).(offeringdomain.SyncResult)
}

type capacityMock struct {
	mock.Mock
}

func (m *capacityMock) ReconcileCapacityForSubscription(ctx context.Context, subscription *domain.Subscription) error {
	return m.Called(ctx, subscription).Error(0)
}

type remoteMock struct {
	mock.Mock
}

func (m *remoteMock) GetSubscriptionByID(ctx context.Context, id string) (*entitlement.Subscription, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*entitlement.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *remoteMock) GetSubscriptionBySubscriptionNumber(ctx context.Context, number string) (*entitlement.Subscription, error) {
	args := m.Called(ctx, number)
	if s := args.Get(0); s != nil {
		return s.(*entitlement.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *remoteMock) GetSubscriptionsByOrgID(ctx context.Context, orgID string) ([]entitlement.Subscription, error) {
	args := m.Called(ctx, orgID)
	if s := args.Get(0); s != nil {
		return s.([]entitlement.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

type denylistMock struct {
	mock.Mock
}

func (m *denylistMock) ProductIDMatches(sku string) bool {
	return m.Called(sku).Bool(0)
}

type profileMock struct {
	mock.Mock
}

func (m *profileMock) OfferingProductNamesForTag(tag string) []string {
	args := m.Called(tag)
	if s := args.Get(0); s != nil {
		return s.([]string)
	}
	return nil
}

func (m *profileMock) TagForOfferingProductName(name string) string {
	return m.Called(name).String(0)
}

func (m *profileMock) IsProductPAYGEligible(tag string) bool {
	return m.Called(tag).Bool(0)
}

func (m *profileMock) TagsForEngineeringIDs(ids []int) []string {
	args := m.Called(ids)
	if s := args.Get(0); s != nil {
		return s.([]string)
	}
	return nil
}

func (m *profileMock) MetricQueryKey(tag string) string {
	return m.Called(tag).String(0)
}

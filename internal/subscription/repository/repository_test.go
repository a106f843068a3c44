package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/clock"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (domain.Repository, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t,
		&offeringdomain.Offering{},
		&domain.Subscription{},
		&domain.SubscriptionMeasurement{},
		&domain.SubscriptionProductID{},
		&domain.OrgConfig{},
	)
	return Provide(clock.NewFakeClock(now)), db
}

func timePtr(t time.Time) *time.Time { return &t }

func newSub(id int64, subID, sku string, start time.Time) *domain.Subscription {
	return &domain.Subscription{
		ID:             snowflake.ID(id),
		OrgID:          "org123",
		SubscriptionID: subID,
		SKU:            sku,
		Quantity:       4,
		StartDate:      start,
		EndDate:        timePtr(start.AddDate(0, 1, 0)),
	}
}

func TestSaveSyncsChildren(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	sub := newSub(1, "456", "MCT3718", now.AddDate(0, 0, -1))
	sub.Measurements = []domain.SubscriptionMeasurement{
		{MeasurementType: offeringdomain.MeasurementTypePhysical, MetricID: offeringdomain.MetricCores, Value: 40},
		{MeasurementType: offeringdomain.MeasurementTypeHypervisor, MetricID: offeringdomain.MetricCores, Value: 80},
	}
	sub.ProductIDs = []domain.SubscriptionProductID{{ProductID: "RHEL"}, {ProductID: "RHEL Workstation"}}
	require.NoError(t, r.Save(ctx, db, sub))

	sub.Measurements = []domain.SubscriptionMeasurement{
		{MeasurementType: offeringdomain.MeasurementTypePhysical, MetricID: offeringdomain.MetricCores, Value: 50},
	}
	sub.ProductIDs = []domain.SubscriptionProductID{{ProductID: "RHEL"}}
	require.NoError(t, r.Save(ctx, db, sub))

	found, err := r.FindActiveBySubscriptionID(ctx, db, "456")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Measurements, 1)
	assert.Equal(t, float64(50), found.Measurements[0].Value)
	require.Len(t, found.ProductIDs, 1)
	assert.Equal(t, "RHEL", found.ProductIDs[0].ProductID)

	sub.ProductIDs = nil
	sub.Measurements = nil
	require.NoError(t, r.Save(ctx, db, sub))
	found, err = r.FindActiveBySubscriptionID(ctx, db, "456")
	require.NoError(t, err)
	assert.Empty(t, found.Measurements)
	assert.Empty(t, found.ProductIDs)
}

func TestSaveRequiresID(t *testing.T) {
	r, db := setup(t)
	err := r.Save(context.Background(), db, &domain.Subscription{SubscriptionID: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscription)
}

func TestVersionKeyIsScopedToOrg(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	start := now.AddDate(0, 0, -1)
	require.NoError(t, r.Save(ctx, db, newSub(1, "456", "MCT3718", start)))

	other := newSub(2, "456", "MCT3718", start)
	other.OrgID = "org999"
	require.NoError(t, r.Save(ctx, db, other))

	assert.Error(t, r.Save(ctx, db, newSub(3, "456", "MCT3718", start)))

	var count int64
	require.NoError(t, db.Model(&domain.Subscription{}).Where("subscription_id = ?", "456").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFindActiveBySubscriptionIDPicksCurrentVersion(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	old := newSub(1, "456", "MCT3718", now.AddDate(0, -2, 0))
	old.EndDate = timePtr(now.AddDate(0, 0, -3))
	current := newSub(2, "456", "MCT3718", now.AddDate(0, 0, -3))
	future := newSub(3, "456", "MCT3718", now.AddDate(0, 0, 3))
	require.NoError(t, r.SaveAll(ctx, db, []*domain.Subscription{old, current, future}))

	found, err := r.FindActiveBySubscriptionID(ctx, db, "456")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, snowflake.ID(2), found.ID)

	missing, err := r.FindActiveBySubscriptionID(ctx, db, "999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindByOfferingSKUPages(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	for i, id := range []string{"1", "2", "3"} {
		require.NoError(t, r.Save(ctx, db, newSub(int64(i+1), id, "MCT3718", now)))
	}
	require.NoError(t, r.Save(ctx, db, newSub(10, "4", "OTHER", now)))

	page, more, err := r.FindByOfferingSKU(ctx, db, "MCT3718", 0, 2)
	require.NoError(t, err)
	assert.True(t, more)
	require.Len(t, page, 2)
	assert.Equal(t, "1", page[0].SubscriptionID)

	page, more, err = r.FindByOfferingSKU(ctx, db, "MCT3718", 2, 2)
	require.NoError(t, err)
	assert.False(t, more)
	require.Len(t, page, 1)
	assert.Equal(t, "3", page[0].SubscriptionID)
}

func TestFindByCriteria(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	require.NoError(t, db.Create(&offeringdomain.Offering{SKU: "OCP", ProductName: "OpenShift Container Platform", ServiceLevel: "Premium", Usage: "Production"}).Error)
	require.NoError(t, db.Create(&offeringdomain.Offering{SKU: "RHEL", ProductName: "RHEL Server", ServiceLevel: "Premium", Usage: "Production"}).Error)

	match := newSub(1, "1", "OCP", now.AddDate(0, 0, -7))
	match.BillingProvider = domain.BillingProviderRedHat
	match.BillingProviderID = "abc"
	wrongProduct := newSub(2, "2", "RHEL", now.AddDate(0, 0, -7))
	otherOrg := newSub(3, "3", "OCP", now.AddDate(0, 0, -7))
	otherOrg.OrgID = "org999"
	require.NoError(t, r.SaveAll(ctx, db, []*domain.Subscription{match, wrongProduct, otherOrg}))

	found, err := r.FindByCriteria(ctx, db, domain.Criteria{
		OrgID:            "org123",
		ProductNames:     []string{"OpenShift Container Platform"},
		ServiceLevel:     "Premium",
		Usage:            "Production",
		BillingProvider:  domain.Exactly(domain.BillingProviderRedHat),
		BillingAccountID: domain.Any[string](),
		RangeStart:       now.AddDate(0, 0, -1),
		RangeEnd:         now,
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "abc", found[0].BillingProviderID)
	require.NotNil(t, found[0].Offering)
	assert.Equal(t, "OpenShift Container Platform", found[0].Offering.ProductName)

	found, err = r.FindByCriteria(ctx, db, domain.Criteria{
		OrgID:           "org123",
		ProductNames:    []string{"OpenShift Container Platform"},
		BillingProvider: domain.Exactly(domain.BillingProviderAWS),
	})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	a := newSub(1, "1", "MCT3718", now)
	a.ProductIDs = []domain.SubscriptionProductID{{ProductID: "RHEL"}}
	b := newSub(2, "2", "MCT3718", now)
	require.NoError(t, r.SaveAll(ctx, db, []*domain.Subscription{a, b}))

	require.NoError(t, r.DeleteAll(ctx, db, nil))
	require.NoError(t, r.DeleteAll(ctx, db, []domain.Subscription{*a}))

	remaining, err := r.FindByOrgID(ctx, db, "org123")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2", remaining[0].SubscriptionID)

	var orphans int64
	require.NoError(t, db.Model(&domain.SubscriptionProductID{}).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestOrgConfigRepository(t *testing.T) {
	ctx := context.Background()
	_, db := setup(t)
	r := ProvideOrgConfig(clock.NewFakeClock(now))

	require.NoError(t, r.Save(ctx, db, &domain.OrgConfig{OrgID: "org2", SyncEnabled: true}))
	require.NoError(t, r.Save(ctx, db, &domain.OrgConfig{OrgID: "org1", SyncEnabled: true}))
	require.NoError(t, r.Save(ctx, db, &domain.OrgConfig{OrgID: "org3", SyncEnabled: false}))
	require.NoError(t, r.Save(ctx, db, &domain.OrgConfig{OrgID: "org2", SyncEnabled: false}))

	ids, err := r.FindSyncEnabledOrgIDs(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"org1"}, ids)

	var stored domain.OrgConfig
	require.NoError(t, db.First(&stored, "org_id = ?", "org2").Error)
	assert.True(t, stored.UpdatedAt.Equal(now))
}

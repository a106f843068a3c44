package service

import (
	"testing"
	"time"

	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
)

func TestFromRemoteBillingReferences(t *testing.T) {
	tests := []struct {
		name       string
		refs       map[string]entitlement.ExternalReference
		provider   domain.BillingProvider
		providerID string
		accountID  string
	}{
		{name: "none", provider: domain.BillingProviderEmpty},
		{
			name:       "ibm",
			refs:       map[string]entitlement.ExternalReference{entitlement.IBMMarketplace: {SubscriptionID: "ibm-1", AccountID: "acct"}},
			provider:   domain.BillingProviderRedHat,
			providerID: "ibm-1",
			accountID:  "acct",
		},
		{
			name:       "aws",
			refs:       map[string]entitlement.ExternalReference{entitlement.AWSMarketplace: {ProductCode: "p", CustomerID: "c", SellerAccount: "s", CustomerAccountID: "b"}},
			provider:   domain.BillingProviderAWS,
			providerID: "p;c;s",
			accountID:  "b",
		},
		{
			name:       "azure",
			refs:       map[string]entitlement.ExternalReference{entitlement.AzureMarketplace: {SubscriptionGUID: "guid", CustomerID: "tenant"}},
			provider:   domain.BillingProviderAzure,
			providerID: "guid",
			accountID:  "tenant",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := createDto(42, 2)
			dto.ExternalReferences = tt.refs
			sub := FromRemote(dto)
			assert.Equal(t, tt.provider, sub.BillingProvider)
			assert.Equal(t, tt.providerID, sub.BillingProviderID)
			assert.Equal(t, tt.accountID, sub.BillingAccountID)
			assert.Equal(t, tt.refs != nil, hasMarketplaceReference(dto))
		})
	}
}

func TestFromRemoteFields(t *testing.T) {
	dto := createDto(42, 2)
	dto.OracleAccountNumber = 777
	sub := FromRemote(dto)
	assert.Equal(t, "42", sub.SubscriptionID)
	assert.Equal(t, "1234", sub.OrgID)
	assert.Equal(t, "777", sub.AccountNumber)
	assert.Equal(t, "123", sub.SubscriptionNumber)
	assert.Equal(t, int64(2), sub.Quantity)
	assert.Equal(t, now, sub.StartDate)
	assert.Equal(t, now.AddDate(0, 0, 30), *sub.EndDate)
	assert.Zero(t, sub.ID)
	assert.Empty(t, sub.SKU)

	assert.Empty(t, FromRemote(entitlement.Subscription{}).SubscriptionID)
}

func TestExtractSKUUsesTopLevelProduct(t *testing.T) {
	parent := int64(1)
	dto := entitlement.Subscription{SubscriptionProducts: []entitlement.SubscriptionProduct{
		{SKU: "child", ParentSubscriptionProductID: &parent},
		{SKU: " parent "},
	}}
	assert.Equal(t, "parent", ExtractSKU(dto))
	assert.Empty(t, ExtractSKU(entitlement.Subscription{}))
}

func TestInSyncWindow(t *testing.T) {
	dto := createDto(1, 1)
	assert.True(t, inSyncWindow(dto, now))

	dto.EffectiveEndDate = millis(now.AddDate(0, -2, 0))
	assert.False(t, inSyncWindow(dto, now))

	dto = createDto(1, 1)
	dto.EffectiveStartDate = millis(now.AddDate(0, 2, 0))
	assert.False(t, inSyncWindow(dto, now))

	dto = createDto(1, 1)
	dto.EffectiveEndDate = nil
	assert.False(t, inSyncWindow(dto, now))
}

func TestEnrichIncoming(t *testing.T) {
	existing := &domain.Subscription{SubscriptionID: "1", BillingProvider: domain.BillingProviderAWS, BillingProviderID: "e", BillingAccountID: "ea"}
	remote := &domain.Subscription{SubscriptionID: "2", BillingProvider: domain.BillingProviderAzure, BillingProviderID: "r", BillingAccountID: "ra"}

	got := enrichIncoming(domain.Subscription{Quantity: 3}, existing, remote)
	assert.Equal(t, "1", got.SubscriptionID)
	assert.Equal(t, "ea", got.BillingAccountID)
	assert.Equal(t, int64(3), got.Quantity)

	got = enrichIncoming(domain.Subscription{}, nil, remote)
	assert.Equal(t, "2", got.SubscriptionID)
	assert.Equal(t, domain.BillingProviderAzure, got.BillingProvider)

	got = enrichIncoming(domain.Subscription{SubscriptionID: "9"}, existing, remote)
	assert.Equal(t, "9", got.SubscriptionID)
	assert.Empty(t, got.BillingProviderID)

	assert.Equal(t, domain.Subscription{}, enrichIncoming(domain.Subscription{}, nil, nil))
}

func TestApplyBillingChanges(t *testing.T) {
	end := now.Add(time.Hour)
	existing := &domain.Subscription{BillingAccountID: "a", EndDate: &end}

	assert.False(t, applyBillingChanges(existing, domain.Subscription{BillingAccountID: "a"}))
	assert.False(t, applyBillingChanges(existing, domain.Subscription{EndDate: &end}))

	later := end.Add(time.Hour)
	assert.True(t, applyBillingChanges(existing, domain.Subscription{BillingAccountID: "b", EndDate: &later}))
	assert.Equal(t, "b", existing.BillingAccountID)
	assert.Equal(t, later, *existing.EndDate)
}

func TestCurrentVersion(t *testing.T) {
	ended := now.Add(-time.Hour)
	exact := &domain.Subscription{ID: 1, StartDate: now.AddDate(0, 0, -3), EndDate: &ended}
	replacement := &domain.Subscription{ID: 2, StartDate: ended}
	older := &domain.Subscription{ID: 3, StartDate: now.AddDate(0, 0, -9)}

	assert.Same(t, replacement, currentVersion(exact, []*domain.Subscription{older, exact, replacement}, now))
	assert.Same(t, exact, currentVersion(exact, []*domain.Subscription{older, exact}, now))
	assert.Nil(t, currentVersion(nil, []*domain.Subscription{replacement}, now))

	open := &domain.Subscription{ID: 4, StartDate: now}
	assert.Same(t, open, currentVersion(open, []*domain.Subscription{replacement}, now))
}

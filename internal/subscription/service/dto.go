package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/subscription/domain"
)

// syncWindow bounds how far from now an upstream subscription may start or
// end and still be synced.
const syncWindow = 2

// FromRemote converts an upstream subscription. The result has no ID, SKU
// or children.
func FromRemote(dto entitlement.Subscription) domain.Subscription {
	sub := domain.Subscription{
		SubscriptionNumber: strings.TrimSpace(dto.SubscriptionNumber),
		Quantity:           dto.Quantity,
	}
	if dto.ID != 0 {
		sub.SubscriptionID = strconv.FormatInt(dto.ID, 10)
	}
	if dto.WebCustomerID != 0 {
		sub.OrgID = strconv.FormatInt(dto.WebCustomerID, 10)
	}
	if dto.OracleAccountNumber != 0 {
		sub.AccountNumber = strconv.FormatInt(dto.OracleAccountNumber, 10)
	}
	if dto.EffectiveStartDate != nil {
		sub.StartDate = clock.FromMillis(*dto.EffectiveStartDate)
	}
	if dto.EffectiveEndDate != nil {
		end := clock.FromMillis(*dto.EffectiveEndDate)
		sub.EndDate = &end
	}
	sub.BillingProvider, sub.BillingProviderID, sub.BillingAccountID = billingFromReferences(dto.ExternalReferences)
	return sub
}

// ExtractSKU returns the SKU of the top level product.
func ExtractSKU(dto entitlement.Subscription) string {
	for _, p := range dto.SubscriptionProducts {
		if p.ParentSubscriptionProductID == nil {
			return strings.TrimSpace(p.SKU)
		}
	}
	return ""
}

func billingFromReferences(refs map[string]entitlement.ExternalReference) (domain.BillingProvider, string, string) {
	if ref, ok := refs[entitlement.IBMMarketplace]; ok {
		return domain.BillingProviderRedHat, ref.SubscriptionID, firstNonEmpty(ref.CustomerAccountID, ref.AccountID)
	}
	if ref, ok := refs[entitlement.AWSMarketplace]; ok {
		id := ""
		if ref.ProductCode != "" || ref.CustomerID != "" || ref.SellerAccount != "" {
			id = strings.Join([]string{ref.ProductCode, ref.CustomerID, ref.SellerAccount}, ";")
		}
		return domain.BillingProviderAWS, id, firstNonEmpty(ref.CustomerAccountID, ref.AccountID)
	}
	if ref, ok := refs[entitlement.AzureMarketplace]; ok {
		return domain.BillingProviderAzure, ref.SubscriptionGUID, firstNonEmpty(ref.CustomerAccountID, ref.AccountID, ref.CustomerID)
	}
	return domain.BillingProviderEmpty, "", ""
}

// hasMarketplaceReference reports whether dto is billed through a marketplace.
func hasMarketplaceReference(dto entitlement.Subscription) bool {
	for _, key := range []string{entitlement.IBMMarketplace, entitlement.AWSMarketplace, entitlement.AzureMarketplace} {
		if _, ok := dto.ExternalReferences[key]; ok {
			return true
		}
	}
	return false
}

// inSyncWindow rejects entries with missing dates and entries that ended or
// start more than two months away from now.
func inSyncWindow(dto entitlement.Subscription, now time.Time) bool {
	if dto.EffectiveStartDate == nil || dto.EffectiveEndDate == nil {
		return false
	}
	start := clock.FromMillis(*dto.EffectiveStartDate)
	end := clock.FromMillis(*dto.EffectiveEndDate)
	return end.After(now.AddDate(0, -syncWindow, 0)) && start.Before(now.AddDate(0, syncWindow, 0))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

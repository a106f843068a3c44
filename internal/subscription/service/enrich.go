package service

import "github.com/smallbiznis/tally/internal/subscription/domain"

// enrichIncoming fills the subscription id and billing fields of incoming
// when upstream sent it without a subscription id. existing wins over remote.
// incoming is returned unchanged when it already has an id.
func enrichIncoming(incoming domain.Subscription, existing, remote *domain.Subscription) domain.Subscription {
	if incoming.SubscriptionID != "" {
		return incoming
	}
	source := existing
	if source == nil {
		source = remote
	}
	if source == nil {
		return incoming
	}

	out := incoming
	out.SubscriptionID = source.SubscriptionID
	out.BillingProvider = source.BillingProvider
	out.BillingProviderID = source.BillingProviderID
	out.BillingAccountID = source.BillingAccountID
	return out
}

// needsRemoteEnrichment reports whether enrichIncoming must be given an
// upstream lookup by subscription number.
func needsRemoteEnrichment(incoming domain.Subscription, existing *domain.Subscription) bool {
	return incoming.SubscriptionID == "" && existing == nil && incoming.SubscriptionNumber != ""
}

// applyBillingChanges copies non-empty billing fields and account number that
// differ from existing. It reports whether anything changed.
func applyBillingChanges(existing *domain.Subscription, incoming domain.Subscription) bool {
	changed := false
	if incoming.BillingProvider != domain.BillingProviderEmpty && incoming.BillingProvider != existing.BillingProvider {
		existing.BillingProvider = incoming.BillingProvider
		changed = true
	}
	if incoming.BillingProviderID != "" && incoming.BillingProviderID != existing.BillingProviderID {
		existing.BillingProviderID = incoming.BillingProviderID
		changed = true
	}
	if incoming.BillingAccountID != "" && incoming.BillingAccountID != existing.BillingAccountID {
		existing.BillingAccountID = incoming.BillingAccountID
		changed = true
	}
	if incoming.AccountNumber != "" && incoming.AccountNumber != existing.AccountNumber {
		existing.AccountNumber = incoming.AccountNumber
		changed = true
	}
	if incoming.SubscriptionNumber != "" && incoming.SubscriptionNumber != existing.SubscriptionNumber {
		existing.SubscriptionNumber = incoming.SubscriptionNumber
		changed = true
	}
	if incoming.EndDate != nil && (existing.EndDate == nil || !incoming.EndDate.Equal(*existing.EndDate)) {
		end := *incoming.EndDate
		existing.EndDate = &end
		changed = true
	}
	return changed
}

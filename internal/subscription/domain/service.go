package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/tally/internal/entitlement"
)

// TopicSubscriptionSync carries SyncSubscriptionsTask payloads.
const TopicSubscriptionSync = "subscription-sync"

type SyncSubscriptionsTask struct {
	OrgID string `json:"orgId"`
}

type SyncOutcome string

const (
	SyncOutcomeDenylisted         SyncOutcome = "denylisted"
	SyncOutcomeOfferingSyncFailed SyncOutcome = "offering_sync_failed"
	SyncOutcomeCreated            SyncOutcome = "created"
	SyncOutcomeUpdated            SyncOutcome = "updated"
	SyncOutcomeVersioned          SyncOutcome = "versioned"
	SyncOutcomeSkipped            SyncOutcome = "skipped"
)

// ReconcileReport summarizes one organization pass.
type ReconcileReport struct {
	OrgID    string
	Fetched  int
	Skipped  int
	Outcomes map[SyncOutcome]int
	Deleted  int
}

type Service interface {
	SyncSubscription(ctx context.Context, sku string, incoming Subscription, existing *Subscription) (SyncOutcome, error)
	SyncSubscriptionByID(ctx context.Context, subscriptionID string) (SyncOutcome, error)
	ReconcileSubscriptionsWithSubscriptionService(ctx context.Context, orgID string, paygOnly bool) (ReconcileReport, error)
	ForceSyncSubscriptionsForOrg(ctx context.Context, orgID string, paygOnly bool) (ReconcileReport, error)
	SyncAllSubscriptionsForAllOrgs(ctx context.Context) (int, error)
	TerminateSubscription(ctx context.Context, subscriptionID string, terminationDate time.Time) (string, error)
	FindSubscriptionsAndSyncIfNeeded(ctx context.Context, accountNumber, orgID string, key UsageKey, rangeStart, rangeEnd time.Time, paygOnly bool) ([]Subscription, error)
	SaveSubscriptions(ctx context.Context, payload []byte, reconcileCapacity bool) ([]Subscription, error)
	FindProductTags(ctx context.Context, sku string) ([]string, error)
}

// CapacityReconciler recomputes measurements and product ids in place.
// The caller persists the subscription.
type CapacityReconciler interface {
	ReconcileCapacityForSubscription(ctx context.Context, subscription *Subscription) error
}

// RemoteService is the upstream subscription API.
type RemoteService interface {
	GetSubscriptionByID(ctx context.Context, id string) (*entitlement.Subscription, error)
	GetSubscriptionBySubscriptionNumber(ctx context.Context, number string) (*entitlement.Subscription, error)
	GetSubscriptionsByOrgID(ctx context.Context, orgID string) ([]entitlement.Subscription, error)
}

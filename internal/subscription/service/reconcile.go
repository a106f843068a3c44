package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/tally/internal/subscription/domain"
	"go.uber.org/zap"
)

// ReconcileSubscriptionsWithSubscriptionService syncs every upstream
// subscription of orgID and deletes local rows upstream no longer has.
// With paygOnly only marketplace billed subscriptions are synced.
func (s *Service) ReconcileSubscriptionsWithSubscriptionService(ctx context.Context, orgID string, paygOnly bool) (domain.ReconcileReport, error) {
	orgID = strings.TrimSpace(orgID)
	report := domain.ReconcileReport{OrgID: orgID, Outcomes: map[domain.SyncOutcome]int{}}
	if orgID == "" {
		return report, domain.ErrInvalidOrganization
	}
	log := s.log.With(zap.String("org_id", orgID), zap.Bool("payg_only", paygOnly))

	remote, err := s.remote.GetSubscriptionsByOrgID(ctx, orgID)
	if err != nil {
		return report, err
	}
	report.Fetched = len(remote)

	local, err := s.repo.FindByOrgID(ctx, s.db, orgID)
	if err != nil {
		return report, err
	}
	byKey := make(map[domain.VersionKey]*domain.Subscription, len(local))
	byID := make(map[string][]*domain.Subscription, len(local))
	for i := range local {
		sub := &local[i]
		byKey[sub.VersionKey()] = sub
		byID[sub.SubscriptionID] = append(byID[sub.SubscriptionID], sub)
	}

	now := s.clock.Now().UTC()
	present := map[domain.VersionKey]bool{}
	var errs []error
	for _, dto := range remote {
		if !inSyncWindow(dto, now) {
			report.Skipped++
			log.Debug("skipping upstream subscription outside sync window",
				zap.Int64("subscription_id", dto.ID),
				zap.Int64p("effective_start", dto.EffectiveStartDate),
				zap.Int64p("effective_end", dto.EffectiveEndDate),
			)
			continue
		}

		sku := ExtractSKU(dto)
		incoming := FromRemote(dto)
		if s.denylist.ProductIDMatches(sku) {
			report.Outcomes[domain.SyncOutcomeDenylisted]++
			s.metrics.IncSyncOutcome(string(domain.SyncOutcomeDenylisted))
			continue
		}
		present[incoming.VersionKey()] = true

		if paygOnly && !hasMarketplaceReference(dto) {
			continue
		}

		existing := currentVersion(byKey[incoming.VersionKey()], byID[incoming.SubscriptionID], now)
		outcome, err := s.syncAllowed(ctx, sku, incoming, existing)
		if err != nil {
			log.Error("subscription sync failed", zap.String("subscription_id", incoming.SubscriptionID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		report.Outcomes[outcome]++
	}

	stale := staleVersions(local, present)
	if err := s.repo.DeleteAll(ctx, s.db, stale); err != nil {
		return report, err
	}
	report.Deleted = len(stale)
	s.metrics.AddStaleDeleted(len(stale))

	log.Info("organization subscriptions reconciled",
		zap.Int("fetched", report.Fetched),
		zap.Int("skipped", report.Skipped),
		zap.Int("deleted", report.Deleted),
	)
	return report, errors.Join(errs...)
}

// ForceSyncSubscriptionsForOrg runs the organization reconciliation inline.
func (s *Service) ForceSyncSubscriptionsForOrg(ctx context.Context, orgID string, paygOnly bool) (domain.ReconcileReport, error) {
	return s.ReconcileSubscriptionsWithSubscriptionService(ctx, orgID, paygOnly)
}

// SyncAllSubscriptionsForAllOrgs enqueues one sync task per sync enabled
// organization and returns how many were sent.
func (s *Service) SyncAllSubscriptionsForAllOrgs(ctx context.Context) (int, error) {
	orgIDs, err := s.orgConfigRepo.FindSyncEnabledOrgIDs(ctx, s.db)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, orgID := range orgIDs {
		if err := s.queue.Send(ctx, domain.TopicSubscriptionSync, domain.SyncSubscriptionsTask{OrgID: orgID}); err != nil {
			return sent, err
		}
		sent++
	}
	s.log.Info("queued subscription sync for organizations", zap.Int("count", sent))
	return sent, nil
}

// currentVersion returns the local row an upstream entry should be compared
// with. A row superseded by a quantity change hands over to the version that
// replaced it.
func currentVersion(exact *domain.Subscription, versions []*domain.Subscription, now time.Time) *domain.Subscription {
	if exact == nil || exact.EndDate == nil || exact.EndDate.After(now) {
		return exact
	}
	var latest *domain.Subscription
	for _, v := range versions {
		if v.StartDate.Before(*exact.EndDate) {
			continue
		}
		if latest == nil || v.StartDate.After(latest.StartDate) {
			latest = v
		}
	}
	if latest == nil {
		return exact
	}
	return latest
}

// staleVersions returns the local rows with no upstream counterpart. A row
// is kept when its (subscription id, start) is present upstream, or when it
// starts exactly where a kept row of the same subscription ended. The second
// rule keeps the versions a quantity change created.
func staleVersions(local []domain.Subscription, present map[domain.VersionKey]bool) []domain.Subscription {
	kept := make([]bool, len(local))
	ends := map[domain.VersionKey]bool{}
	keep := func(i int) {
		kept[i] = true
		if end := local[i].EndDate; end != nil {
			ends[domain.VersionKey{SubscriptionID: local[i].SubscriptionID, StartMillis: end.UnixMilli()}] = true
		}
	}
	for i := range local {
		if present[local[i].VersionKey()] {
			keep(i)
		}
	}
	for changed := true; changed; {
		changed = false
		for i := range local {
			if !kept[i] && ends[local[i].VersionKey()] {
				keep(i)
				changed = true
			}
		}
	}

	stale := make([]domain.Subscription, 0)
	for i, sub := range local {
		if !kept[i] {
			stale = append(stale, sub)
		}
	}
	return stale
}

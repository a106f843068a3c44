package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/tally/internal/entitlement"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"go.uber.org/zap"
)

// SyncSubscription applies one upstream subscription to the local store.
// existing is the local row paired with incoming, if any.
func (s *Service) SyncSubscription(ctx context.Context, sku string, incoming domain.Subscription, existing *domain.Subscription) (domain.SyncOutcome, error) {
	sku = strings.TrimSpace(sku)
	if s.denylist.ProductIDMatches(sku) {
		s.log.Debug("sku denylisted, skipping subscription",
			zap.String("sku", sku),
			zap.String("subscription_id", incoming.SubscriptionID),
		)
		s.metrics.IncSyncOutcome(string(domain.SyncOutcomeDenylisted))
		return domain.SyncOutcomeDenylisted, nil
	}
	return s.syncAllowed(ctx, sku, incoming, existing)
}

func (s *Service) syncAllowed(ctx context.Context, sku string, incoming domain.Subscription, existing *domain.Subscription) (domain.SyncOutcome, error) {
	outcome, err := s.sync(ctx, sku, incoming, existing)
	if err != nil {
		return outcome, err
	}
	s.metrics.IncSyncOutcome(string(outcome))
	return outcome, nil
}

func (s *Service) sync(ctx context.Context, sku string, incoming domain.Subscription, existing *domain.Subscription) (domain.SyncOutcome, error) {
	if sku == "" {
		return "", domain.ErrMissingSKU
	}
	log := s.log.With(zap.String("sku", sku), zap.String("subscription_id", incoming.SubscriptionID))

	exists, err := s.offeringRepo.ExistsBySKU(ctx, s.db, sku)
	if err != nil {
		return "", err
	}
	if !exists {
		result := s.offeringSync.SyncOffering(ctx, sku)
		if result == offeringdomain.SyncFailed {
			log.Warn("offering sync failed, subscription not synced")
			return domain.SyncOutcomeOfferingSyncFailed, nil
		}
		log.Debug("offering synced before subscription", zap.String("result", string(result)))
	}

	var remote *domain.Subscription
	if needsRemoteEnrichment(incoming, existing) {
		remote, err = s.lookupBySubscriptionNumber(ctx, incoming.SubscriptionNumber)
		if err != nil {
			return "", err
		}
	}
	incoming = enrichIncoming(incoming, existing, remote)
	incoming.SKU = sku
	incoming.Offering = nil
	incoming.Measurements = nil
	incoming.ProductIDs = nil

	if existing == nil {
		if incoming.ID == 0 {
			incoming.ID = s.genID.Generate()
		}
		if err := s.reconcileAndSave(ctx, &incoming); err != nil {
			return "", err
		}
		log.Info("subscription created")
		return domain.SyncOutcomeCreated, nil
	}

	if existing.Quantity != incoming.Quantity {
		return s.newVersion(ctx, existing, incoming)
	}

	changed := applyBillingChanges(existing, incoming)
	if err := s.capacity.ReconcileCapacityForSubscription(ctx, existing); err != nil {
		return "", err
	}
	if err := s.capacity.ReconcileCapacityForSubscription(ctx, &incoming); err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, s.db, existing); err != nil {
		return "", err
	}
	if !changed {
		return domain.SyncOutcomeSkipped, nil
	}
	log.Info("subscription updated")
	return domain.SyncOutcomeUpdated, nil
}

// newVersion ends existing now and starts a row carrying the new quantity.
func (s *Service) newVersion(ctx context.Context, existing *domain.Subscription, incoming domain.Subscription) (domain.SyncOutcome, error) {
	now := s.clock.Now().UTC()

	existing.EndDate = &now
	if err := s.reconcileAndSave(ctx, existing); err != nil {
		return "", err
	}

	next := incoming
	next.ID = s.genID.Generate()
	next.StartDate = now
	if next.AccountNumber == "" {
		next.AccountNumber = existing.AccountNumber
	}
	if err := s.reconcileAndSave(ctx, &next); err != nil {
		return "", err
	}

	s.log.Info("subscription quantity changed, new version created",
		zap.String("subscription_id", next.SubscriptionID),
		zap.Int64("previous_quantity", existing.Quantity),
		zap.Int64("quantity", next.Quantity),
	)
	return domain.SyncOutcomeVersioned, nil
}

func (s *Service) reconcileAndSave(ctx context.Context, sub *domain.Subscription) error {
	if err := s.capacity.ReconcileCapacityForSubscription(ctx, sub); err != nil {
		return err
	}
	return s.repo.Save(ctx, s.db, sub)
}

func (s *Service) lookupBySubscriptionNumber(ctx context.Context, number string) (*domain.Subscription, error) {
	dto, err := s.remote.GetSubscriptionBySubscriptionNumber(ctx, number)
	if errors.Is(err, entitlement.ErrNotFound) {
		s.log.Warn("subscription number not found upstream", zap.String("subscription_number", number))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup subscription number %s: %w", number, err)
	}
	sub := FromRemote(*dto)
	return &sub, nil
}

// SyncSubscriptionByID fetches one subscription upstream and syncs it
// against its active local version.
func (s *Service) SyncSubscriptionByID(ctx context.Context, subscriptionID string) (domain.SyncOutcome, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return "", domain.ErrInvalidSubscription
	}
	dto, err := s.remote.GetSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return "", domain.ErrSubscriptionNotFound
		}
		return "", err
	}

	sku := ExtractSKU(*dto)
	if sku == "" {
		return "", domain.ErrMissingSKU
	}
	incoming := FromRemote(*dto)
	existing, err := s.repo.FindActiveBySubscriptionID(ctx, s.db, incoming.SubscriptionID)
	if err != nil {
		return "", err
	}
	return s.SyncSubscription(ctx, sku, incoming, existing)
}

package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/pkg/db"
	"go.uber.org/zap"
)

// SaveSubscriptions stores a JSON array of upstream subscriptions as new
// rows. Capacity is reconciled only when reconcileCapacity is set. Versions
// that are already stored are skipped.
func (s *Service) SaveSubscriptions(ctx context.Context, payload []byte, reconcileCapacity bool) ([]domain.Subscription, error) {
	var dtos []entitlement.Subscription
	if err := json.Unmarshal(payload, &dtos); err != nil {
		return nil, errors.Join(domain.ErrInvalidPayload, err)
	}

	saved := make([]domain.Subscription, 0, len(dtos))
	for _, dto := range dtos {
		sub := FromRemote(dto)
		sub.SKU = ExtractSKU(dto)
		if sub.SKU == "" {
			return saved, domain.ErrMissingSKU
		}
		sub.ID = s.genID.Generate()
		if reconcileCapacity {
			if err := s.capacity.ReconcileCapacityForSubscription(ctx, &sub); err != nil {
				return saved, err
			}
		}
		if err := s.repo.Save(ctx, s.db, &sub); err != nil {
			if db.IsDuplicateKeyErr(err) {
				s.log.Warn("subscription version already stored, skipping",
					zap.String("subscription_id", sub.SubscriptionID),
					zap.Time("start_date", sub.StartDate),
				)
				continue
			}
			return saved, err
		}
		saved = append(saved, sub)
	}
	s.log.Info("subscriptions imported", zap.Int("count", len(saved)), zap.Bool("reconcile_capacity", reconcileCapacity))
	return saved, nil
}

// FindProductTags resolves the product tag for sku. A product name without
// a tag yields an empty list.
func (s *Service) FindProductTags(ctx context.Context, sku string) ([]string, error) {
	name, ok, err := s.offeringRepo.FindProductNameBySKU(ctx, s.db, sku)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.MissingOfferingError{SKU: sku}
	}
	tag := s.profile.TagForOfferingProductName(name)
	if tag == "" {
		return nil, nil
	}
	return []string{tag}, nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/tally/internal/capacity/domain"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	SubscriptionRepo subscriptiondomain.Repository
	OfferingRepo     offeringdomain.Repository
	Denylist         domain.Denylist
	Extractor        *ProductExtractor
	Queue            taskqueue.Queue
	Config           Config           `optional:"true"`
	Metrics          *metrics.Metrics `optional:"true"`
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	subscriptionRepo subscriptiondomain.Repository
	offeringRepo     offeringdomain.Repository
	denylist         domain.Denylist
	extractor        *ProductExtractor
	queue            taskqueue.Queue
	cfg              Config
	metrics          *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("capacity.service"),
		subscriptionRepo: p.SubscriptionRepo,
		offeringRepo:     p.OfferingRepo,
		denylist:         p.Denylist,
		extractor:        p.Extractor,
		queue:            p.Queue,
		cfg:              p.Config.withDefaults(),
		metrics:          p.Metrics,
	}
}

// ReconcileCapacityForSubscription brings the measurements and product ids of
// sub in line with its offering. The caller persists sub.
func (s *Service) ReconcileCapacityForSubscription(ctx context.Context, sub *subscriptiondomain.Subscription) error {
	if sub == nil {
		return subscriptiondomain.ErrInvalidSubscription
	}
	offering, err := s.offeringFor(ctx, sub)
	if err != nil {
		return err
	}

	changes := s.reconcile(sub, offering)
	if !changes.Empty() {
		s.log.Debug("subscription capacity changed",
			zap.String("subscription_id", sub.SubscriptionID),
			zap.String("sku", sub.SKU),
			zap.Int("measurements_added", changes.MeasurementsAdded),
			zap.Int("measurements_updated", changes.MeasurementsUpdated),
			zap.Int("measurements_removed", changes.MeasurementsRemoved),
			zap.Int("product_ids_added", changes.ProductIDsAdded),
			zap.Int("product_ids_removed", changes.ProductIDsRemoved),
		)
	}
	return nil
}

// Reconcile applies the capacity of offering to sub and reports what changed.
func (s *Service) Reconcile(sub *subscriptiondomain.Subscription, offering *offeringdomain.Offering) domain.Changes {
	return s.reconcile(sub, offering)
}

func (s *Service) reconcile(sub *subscriptiondomain.Subscription, offering *offeringdomain.Offering) domain.Changes {
	changes := applyTarget(sub, s.targetFor(sub, offering))
	s.metrics.AddMeasurementChanges(metrics.MeasurementAdded, changes.MeasurementsAdded)
	s.metrics.AddMeasurementChanges(metrics.MeasurementUpdated, changes.MeasurementsUpdated)
	s.metrics.AddMeasurementChanges(metrics.MeasurementRemoved, changes.MeasurementsRemoved)
	return changes
}

func (s *Service) offeringFor(ctx context.Context, sub *subscriptiondomain.Subscription) (*offeringdomain.Offering, error) {
	if sub.Offering != nil && sub.Offering.SKU == sub.SKU {
		return sub.Offering, nil
	}
	offering, err := s.offeringRepo.GetBySKU(ctx, s.db, sub.SKU)
	if err != nil {
		return nil, err
	}
	if offering == nil {
		return nil, &subscriptiondomain.MissingOfferingError{SKU: sub.SKU}
	}
	sub.Offering = offering
	return offering, nil
}

// ReconcileCapacityForOffering reconciles one page of the subscriptions of sku
// and enqueues the next page when more rows remain.
func (s *Service) ReconcileCapacityForOffering(ctx context.Context, sku string, offset, limit int) (domain.PageResult, error) {
	sku = strings.TrimSpace(sku)
	result := domain.PageResult{SKU: sku}
	if sku == "" {
		return result, offeringdomain.ErrInvalidSKU
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	log := s.log.With(zap.String("sku", sku), zap.Int("offset", offset), zap.Int("limit", limit))

	offering, err := s.offeringRepo.GetBySKU(ctx, s.db, sku)
	if err != nil {
		return result, err
	}
	if offering == nil {
		log.Warn("offering not found, skipping capacity reconciliation")
		return result, nil
	}

	page, hasMore, err := s.subscriptionRepo.FindByOfferingSKU(ctx, s.db, sku, offset, limit)
	if err != nil {
		return result, err
	}

	changed := make([]*subscriptiondomain.Subscription, 0, len(page))
	for i := range page {
		sub := &page[i]
		sub.Offering = offering
		changes := s.reconcile(sub, offering)
		result.Processed++
		if changes.Empty() {
			continue
		}
		result.Changes = result.Changes.Add(changes)
		changed = append(changed, sub)
	}

	if len(changed) > 0 {
		if err := s.subscriptionRepo.SaveAll(ctx, s.db, changed); err != nil {
			return result, err
		}
	}
	result.Updated = len(changed)

	if hasMore {
		next := offset + limit
		if err := s.queue.Send(ctx, domain.TopicCapacityReconcile, domain.ReconcileCapacityByOfferingTask{
			SKU:    sku,
			Offset: next,
			Limit:  limit,
		}); err != nil {
			return result, err
		}
		result.NextOffset = &next
	}

	log.Info("capacity page reconciled",
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated),
		zap.Bool("has_more", hasMore),
	)
	return result, nil
}

// EnqueueReconcileCapacityForOffering schedules the first page for sku.
func (s *Service) EnqueueReconcileCapacityForOffering(ctx context.Context, sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return offeringdomain.ErrInvalidSKU
	}
	if s.queue == nil {
		return errors.New("capacity queue not configured")
	}
	return s.queue.Send(ctx, domain.TopicCapacityReconcile, domain.ReconcileCapacityByOfferingTask{
		SKU:    sku,
		Offset: 0,
		Limit:  s.cfg.PageSize,
	})
}

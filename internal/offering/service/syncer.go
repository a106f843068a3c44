package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	"github.com/smallbiznis/tally/internal/offering/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CatalogSource fetches offerings from the upstream catalog.
type CatalogSource interface {
	GetOffering(ctx context.Context, sku string) (*entitlement.Offering, error)
}

type Syncer struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	source  CatalogSource
	enqueue domain.CapacityEnqueuer
	metrics *metrics.Metrics
}

type SyncerParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Source   CatalogSource
	Enqueuer domain.CapacityEnqueuer
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewSyncer(p SyncerParams) *Syncer {
	return &Syncer{
		db:      p.DB,
		log:     p.Log.Named("offering.syncer"),
		clock:   p.Clock,
		repo:    p.Repo,
		source:  p.Source,
		enqueue: p.Enqueuer,
		metrics: p.Metrics,
	}
}

// SyncOffering stores the upstream version of sku when it differs from the
// local row, then schedules capacity reconciliation for its subscriptions.
func (s *Syncer) SyncOffering(ctx context.Context, sku string) domain.SyncResult {
	result := s.sync(ctx, strings.TrimSpace(sku))
	s.metrics.IncOfferingSync(string(result))
	return result
}

func (s *Syncer) sync(ctx context.Context, sku string) domain.SyncResult {
	log := s.log.With(zap.String("sku", sku))
	if sku == "" {
		log.Warn("offering sync requested without sku")
		return domain.SyncFailed
	}

	remote, err := s.source.GetOffering(ctx, sku)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			log.Warn("offering not found upstream")
		} else {
			log.Error("fetch offering failed", zap.Error(err))
		}
		return domain.SyncFailed
	}

	incoming := FromRemote(*remote)
	incoming.SKU = sku

	existing, err := s.repo.GetBySKU(ctx, s.db, sku)
	if err != nil {
		log.Error("load offering failed", zap.Error(err))
		return domain.SyncFailed
	}
	if existing != nil && existing.SameAs(incoming) {
		log.Debug("offering unchanged")
		return domain.SyncSkippedMatching
	}

	incoming.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, s.db, &incoming); err != nil {
		log.Error("save offering failed", zap.Error(err))
		return domain.SyncFailed
	}

	if err := s.enqueue.EnqueueReconcileCapacityForOffering(ctx, sku); err != nil {
		log.Warn("enqueue capacity reconciliation failed", zap.Error(err))
	}

	log.Info("offering synced", zap.Bool("created", existing == nil))
	return domain.SyncSuccess
}

// FromRemote converts an upstream offering to the stored model.
func FromRemote(o entitlement.Offering) domain.Offering {
	out := domain.Offering{
		SKU:               strings.TrimSpace(o.SKU),
		ProductName:       strings.TrimSpace(o.ProductName),
		Description:       o.Description,
		ProductIDs:        datatypes.JSONSlice[int](append([]int(nil), o.EngProductIDs...)),
		ServiceLevel:      o.ServiceLevel,
		Usage:             o.Usage,
		Cores:             o.Cores,
		Sockets:           o.Sockets,
		HypervisorCores:   o.HypervisorCores,
		HypervisorSockets: o.HypervisorSockets,
	}
	if len(o.Metrics) > 0 {
		out.Metrics = datatypes.NewJSONType(o.Metrics)
	}
	return out
}

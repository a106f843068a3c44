package retention

import (
	"context"
	"time"

	meteringdomain "github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Policy  *Policy
	Events  meteringdomain.Repository
	Config  Config           `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	policy  *Policy
	events  meteringdomain.Repository
	cfg     Config
	metrics *metrics.Metrics
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:      p.DB,
		log:     p.Log.Named("retention.worker"),
		policy:  p.Policy,
		events:  p.Events,
		cfg:     p.Config.withDefaults(),
		metrics: p.Metrics,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("usage event purge failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce deletes usage events older than the cutoff and returns how many
// were removed.
func (w *Worker) RunOnce(parentCtx context.Context) (int64, error) {
	cutoff, ok := w.policy.CutoffDate()
	if !ok {
		w.log.Debug("no retention duration configured, skipping purge")
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	deleted, err := w.events.DeleteOlderThan(ctx, w.db, cutoff)
	if err != nil {
		return 0, err
	}
	w.metrics.AddEventsPurged(deleted)
	if deleted > 0 {
		w.log.Info("usage events purged", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/internal/metering/promql"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	"github.com/smallbiznis/tally/internal/tagprofile"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Backend domain.Backend
	Builder *promql.Builder
	Profile tagprofile.Lookup
	Queue   taskqueue.Queue
	Config  Config           `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	backend domain.Backend
	builder *promql.Builder
	profile tagprofile.Lookup
	queue   taskqueue.Queue
	cfg     Config
	metrics *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("metering.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		backend: p.Backend,
		builder: p.Builder,
		profile: p.Profile,
		queue:   p.Queue,
		cfg:     p.Config.withDefaults(),
		metrics: p.Metrics,
	}
}

// CollectMetrics queries metricKind usage of accountID between the hours
// containing start and end and saves one event per sample, in batches of
// EventBatchSize.
func (s *Service) CollectMetrics(ctx context.Context, accountID, metricKind string, start, end time.Time) (int, error) {
	accountID = strings.TrimSpace(accountID)
	metricKind = strings.TrimSpace(metricKind)
	if accountID == "" {
		return 0, domain.ErrInvalidAccount
	}
	if metricKind == "" {
		return 0, domain.ErrInvalidMetricKind
	}
	start = clock.StartOfHour(start.UTC())
	end = clock.StartOfHour(end.UTC())
	if end.Before(start) {
		return 0, domain.ErrInvalidWindow
	}
	log := s.log.With(
		zap.String("account_id", accountID),
		zap.String("metric_kind", metricKind),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	query, err := s.builder.Build(promql.Descriptor{
		QueryKey:   s.profile.MetricQueryKey(metricKind),
		AccountID:  accountID,
		MetricKind: metricKind,
		Params:     s.cfg.QueryParams,
	})
	if err != nil {
		return 0, err
	}

	result, err := s.backend.QueryRange(ctx, query, start, end, s.cfg.Step)
	if err != nil {
		s.metrics.IncMeteringError(metricKind)
		return 0, fmt.Errorf("query %s metrics: %w", metricKind, err)
	}
	if result.Status == domain.StatusError {
		s.metrics.IncMeteringError(metricKind)
		return 0, &domain.MeteringError{MetricKind: metricKind, Message: result.Error}
	}

	saved := 0
	batch := make([]domain.UsageEvent, 0, s.cfg.EventBatchSize)
	flush := func() error {
		if err := s.repo.SaveAll(ctx, s.db, batch); err != nil {
			return err
		}
		saved += len(batch)
		s.metrics.AddEventsSaved(metricKind, len(batch))
		batch = make([]domain.UsageEvent, 0, s.cfg.EventBatchSize)
		return nil
	}

	for _, series := range result.Series {
		clusterID := series.Labels[domain.LabelClusterID]
		serviceLevel := series.Labels[domain.LabelServiceLevel]
		labels := datatypes.JSONMap{}
		for k, v := range series.Labels {
			labels[k] = v
		}
		for _, sample := range series.Samples {
			batch = append(batch, domain.UsageEvent{
				ID:           s.genID.Generate(),
				AccountID:    accountID,
				ClusterID:    clusterID,
				ServiceLevel: serviceLevel,
				MetricKind:   metricKind,
				OccurredAt:   sample.Time.UTC(),
				Value:        sample.Value,
				Labels:       labels,
			})
			if len(batch) >= s.cfg.EventBatchSize {
				log.Info("saving usage events", zap.Int("count", len(batch)))
				if err := flush(); err != nil {
					return saved, err
				}
			}
		}
	}
	if len(batch) > 0 {
		log.Info("saving remaining usage events", zap.Int("count", len(batch)))
		if err := flush(); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

func (s *Service) EnqueueCollectMetrics(ctx context.Context, task domain.MeteringTask) error {
	if strings.TrimSpace(task.AccountID) == "" {
		return domain.ErrInvalidAccount
	}
	if strings.TrimSpace(task.MetricKind) == "" {
		return domain.ErrInvalidMetricKind
	}
	return s.queue.Send(ctx, domain.TopicMetering, task)
}

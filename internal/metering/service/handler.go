package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	"go.uber.org/zap"
)

// Handler consumes metering tasks.
type Handler struct {
	svc domain.Service
	log *zap.Logger
}

func NewHandler(svc domain.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log.Named("metering.handler")}
}

func (h *Handler) Topic() string { return domain.TopicMetering }

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var task domain.MeteringTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return fmt.Errorf("%w: %w", metrics.ErrDecode, err)
	}
	if task.AccountID == "" {
		return errors.Join(metrics.ErrDecode, domain.ErrInvalidAccount)
	}
	if task.MetricKind == "" {
		return errors.Join(metrics.ErrDecode, domain.ErrInvalidMetricKind)
	}
	saved, err := h.svc.CollectMetrics(ctx, task.AccountID, task.MetricKind, task.Start, task.End)
	if err != nil {
		return err
	}
	h.log.Debug("metering task done", zap.String("account_id", task.AccountID), zap.Int("saved", saved))
	return nil
}

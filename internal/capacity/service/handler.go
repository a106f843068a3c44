package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smallbiznis/tally/internal/capacity/domain"
	"github.com/smallbiznis/tally/internal/observability/metrics"
)

// Handler consumes capacity-reconcile tasks.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Topic() string { return domain.TopicCapacityReconcile }

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var task domain.ReconcileCapacityByOfferingTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return fmt.Errorf("%w: %w", metrics.ErrDecode, err)
	}
	if task.SKU == "" {
		return errors.Join(metrics.ErrDecode, domain.ErrInvalidTask)
	}
	_, err := h.svc.ReconcileCapacityForOffering(ctx, task.SKU, task.Offset, task.Limit)
	return err
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/tally/internal/observability/metrics"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// orgSyncLockTTL bounds how long one worker holds an organization.
const orgSyncLockTTL = 15 * time.Minute

type HandlerParams struct {
	fx.In

	Service domain.Service
	Log     *zap.Logger
	Locker  *taskqueue.Locker `optional:"true"`
}

// Handler consumes subscription-sync tasks.
type Handler struct {
	svc    domain.Service
	log    *zap.Logger
	locker *taskqueue.Locker
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{svc: p.Service, log: p.Log.Named("subscription.handler"), locker: p.Locker}
}

func (h *Handler) Topic() string { return domain.TopicSubscriptionSync }

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var task domain.SyncSubscriptionsTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return fmt.Errorf("%w: %w", metrics.ErrDecode, err)
	}
	orgID := strings.TrimSpace(task.OrgID)
	if orgID == "" {
		return errors.Join(metrics.ErrDecode, domain.ErrInvalidOrganization)
	}

	if h.locker != nil {
		lockKey := "subscription-sync:" + orgID
		token, ok, err := h.locker.TryLock(ctx, lockKey, orgSyncLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			h.log.Info("organization sync already running, skipping task", zap.String("org_id", orgID))
			return nil
		}
		defer func() {
			if err := h.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
				h.log.Warn("release org sync lock failed", zap.String("org_id", orgID), zap.Error(err))
			}
		}()
	}

	_, err := h.svc.ReconcileSubscriptionsWithSubscriptionService(ctx, orgID, false)
	return err
}

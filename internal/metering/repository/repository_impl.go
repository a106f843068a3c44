package repository

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) SaveAll(ctx context.Context, db *gorm.DB, events []domain.UsageEvent) error {
	return repository.ProvideStore[domain.UsageEvent](db).BatchCreate(ctx, events, len(events))
}

func (r *repo) DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	return repository.ProvideStore[domain.UsageEvent](db).DeleteWhere(ctx, "occurred_at < ?", cutoff.UTC())
}

func (r *repo) CountByAccount(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, nil
	}
	return repository.ProvideStore[domain.UsageEvent](db).Count(ctx, &domain.UsageEvent{AccountID: accountID})
}

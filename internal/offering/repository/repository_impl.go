package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/pkg/db/option"
	"github.com/smallbiznis/tally/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) GetBySKU(ctx context.Context, db *gorm.DB, sku string) (*domain.Offering, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, nil
	}
	return repository.ProvideStore[domain.Offering](db).FindOne(ctx, &domain.Offering{SKU: sku})
}

func (r *repo) ExistsBySKU(ctx context.Context, db *gorm.DB, sku string) (bool, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return false, nil
	}
	return repository.ProvideStore[domain.Offering](db).Exists(ctx, &domain.Offering{SKU: sku})
}

func (r *repo) FindProductNameBySKU(ctx context.Context, db *gorm.DB, sku string) (string, bool, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", false, nil
	}
	found, err := repository.ProvideStore[domain.Offering](db).
		FindOne(ctx, &domain.Offering{SKU: sku}, option.WithSelect("sku", "product_name"))
	if err != nil || found == nil {
		return "", false, err
	}
	return found.ProductName, true, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, offering *domain.Offering) error {
	return repository.ProvideStore[domain.Offering](db).Upsert(ctx, offering, "sku")
}

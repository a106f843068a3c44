package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/tally/internal/subscription/domain"
	"go.uber.org/zap"
)

// FindSubscriptionsAndSyncIfNeeded returns the subscriptions covering key in
// the given range. When none are stored and the org is known, the org is
// reconciled once and the query repeated. See WithSyncMemo for chains of calls.
func (s *Service) FindSubscriptionsAndSyncIfNeeded(
	ctx context.Context,
	accountNumber string,
	orgID string,
	key domain.UsageKey,
	rangeStart time.Time,
	rangeEnd time.Time,
	paygOnly bool,
) ([]domain.Subscription, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	accountNumber = strings.TrimSpace(accountNumber)
	orgID = strings.TrimSpace(orgID)
	log := s.log.With(zap.String("org_id", orgID), zap.String("account_number", accountNumber), zap.String("product_tag", key.ProductTag))

	names := s.profile.OfferingProductNamesForTag(key.ProductTag)
	if len(names) == 0 {
		log.Warn("no offering product names for tag")
		return []domain.Subscription{}, nil
	}
	serviceLevel, _ := key.ServiceLevel.Value()
	usage, _ := key.Usage.Value()
	criteria := domain.Criteria{
		OrgID:            orgID,
		AccountNumber:    accountNumber,
		ProductNames:     names,
		ServiceLevel:     serviceLevel,
		Usage:            usage,
		BillingProvider:  key.BillingProvider,
		BillingAccountID: key.BillingAccountID,
		RangeStart:       rangeStart,
		RangeEnd:         rangeEnd,
	}

	result, err := s.repo.FindByCriteria(ctx, s.db, criteria)
	if err != nil {
		return nil, err
	}
	if len(result) > 0 {
		return result, nil
	}

	identity := "org:" + orgID
	switch {
	case orgID == "":
		log.Warn("no subscriptions found and no org id to sync")
	case !claim(ctx, identity):
		log.Debug("organization already synced in this lookup chain")
	default:
		_, err, shared := s.orgSync.Do(identity, func() (any, error) {
			return s.ReconcileSubscriptionsWithSubscriptionService(ctx, orgID, paygOnly)
		})
		if err != nil {
			return nil, err
		}
		log.Debug("organization synced for lookup", zap.Bool("shared", shared))
	}

	return s.repo.FindByCriteria(ctx, s.db, criteria)
}

package service

import (
	"sort"

	"github.com/samber/lo"
	"github.com/smallbiznis/tally/internal/capacity/domain"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
)

// target is the capacity a subscription should carry for its offering.
type target struct {
	measurements map[offeringdomain.CapacityKey]float64
	productIDs   []string
}

func (s *Service) targetFor(sub *subscriptiondomain.Subscription, offering *offeringdomain.Offering) target {
	if s.denylist != nil && s.denylist.ProductIDMatches(offering.SKU) {
		return target{}
	}

	measurements := map[offeringdomain.CapacityKey]float64{}
	for key, capacity := range offering.Capacities() {
		value := float64(sub.Quantity) * float64(capacity)
		if value == 0 {
			continue
		}
		measurements[key] = value
	}
	return target{
		measurements: measurements,
		productIDs:   s.extractor.Products(offering.ProductIDs),
	}
}

// applyTarget rewrites the children of sub so they equal t. Children already
// matching t are left untouched.
func applyTarget(sub *subscriptiondomain.Subscription, t target) domain.Changes {
	var changes domain.Changes

	kept := make([]subscriptiondomain.SubscriptionMeasurement, 0, len(t.measurements))
	seen := map[offeringdomain.CapacityKey]bool{}
	for _, m := range sub.Measurements {
		key := m.Key()
		want, ok := t.measurements[key]
		if !ok || seen[key] {
			changes.MeasurementsRemoved++
			continue
		}
		seen[key] = true
		if m.Value != want {
			m.Value = want
			changes.MeasurementsUpdated++
		}
		kept = append(kept, m)
	}

	missing := lo.Filter(lo.Keys(t.measurements), func(key offeringdomain.CapacityKey, _ int) bool {
		return !seen[key]
	})
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].MeasurementType != missing[j].MeasurementType {
			return missing[i].MeasurementType > missing[j].MeasurementType
		}
		return missing[i].MetricID < missing[j].MetricID
	})
	for _, key := range missing {
		kept = append(kept, subscriptiondomain.SubscriptionMeasurement{
			SubscriptionVersionID: sub.ID,
			MeasurementType:       key.MeasurementType,
			MetricID:              key.MetricID,
			Value:                 t.measurements[key],
		})
		changes.MeasurementsAdded++
	}
	sub.Measurements = kept

	current := lo.Map(sub.ProductIDs, func(p subscriptiondomain.SubscriptionProductID, _ int) string {
		return p.ProductID
	})
	toRemove, toAdd := lo.Difference(lo.Uniq(current), t.productIDs)
	changes.ProductIDsRemoved = len(toRemove) + (len(current) - len(lo.Uniq(current)))
	changes.ProductIDsAdded = len(toAdd)
	if changes.ProductIDsAdded > 0 || changes.ProductIDsRemoved > 0 {
		products := make([]subscriptiondomain.SubscriptionProductID, 0, len(t.productIDs))
		for _, tag := range t.productIDs {
			products = append(products, subscriptiondomain.SubscriptionProductID{
				SubscriptionVersionID: sub.ID,
				ProductID:             tag,
			})
		}
		sub.ProductIDs = products
	}

	if len(sub.Measurements) == 0 {
		sub.Measurements = nil
	}
	if len(sub.ProductIDs) == 0 {
		sub.ProductIDs = nil
	}
	return changes
}

package domain

import "time"

// Match is either a concrete value or a wildcard. Wildcards are only valid
// in query filters that allow them.
type Match[T comparable] struct {
	value T
	any   bool
}

func Exactly[T comparable](v T) Match[T] {
	return Match[T]{value: v}
}

func Any[T comparable]() Match[T] {
	return Match[T]{any: true}
}

func (m Match[T]) IsAny() bool { return m.any }

// Value returns the concrete value and false for wildcards.
func (m Match[T]) Value() (T, bool) {
	return m.value, !m.any
}

// Matches reports whether v satisfies m.
func (m Match[T]) Matches(v T) bool {
	return m.any || m.value == v
}

// UsageKey identifies the subscriptions that cover a usage calculation.
type UsageKey struct {
	ProductTag       string
	ServiceLevel     Match[string]
	Usage            Match[string]
	BillingProvider  Match[BillingProvider]
	BillingAccountID Match[string]
}

// Validate rejects wildcard service level or usage.
func (k UsageKey) Validate() error {
	if k.ServiceLevel.IsAny() || k.Usage.IsAny() {
		return ErrInvalidUsageKey
	}
	return nil
}

// Criteria is the repository query for FindByCriteria.
type Criteria struct {
	OrgID            string
	AccountNumber    string
	ProductNames     []string
	ServiceLevel     string
	Usage            string
	BillingProvider  Match[BillingProvider]
	BillingAccountID Match[string]
	// Subscriptions must overlap [RangeStart, RangeEnd].
	RangeStart time.Time
	RangeEnd   time.Time
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
)

type BillingProvider string

const (
	BillingProviderEmpty  BillingProvider = ""
	BillingProviderRedHat BillingProvider = "red hat"
	BillingProviderAWS    BillingProvider = "aws"
	BillingProviderAzure  BillingProvider = "azure"
)

// Subscription is one time-bounded version of an upstream subscription.
// A quantity change ends the current version and starts a new one.
type Subscription struct {
	ID                 snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrgID              string          `json:"org_id" gorm:"type:varchar(64);not null;index:ix_subscriptions_org_id;uniqueIndex:ux_subscriptions_version,priority:1"`
	SubscriptionID     string          `json:"subscription_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_subscriptions_version,priority:2"`
	SubscriptionNumber string          `json:"subscription_number" gorm:"type:varchar(64)"`
	AccountNumber      string          `json:"account_number" gorm:"type:varchar(64);index:ix_subscriptions_account_number"`
	SKU                string          `json:"sku" gorm:"column:sku;type:varchar(255);not null;index:ix_subscriptions_sku"`
	Quantity           int64           `json:"quantity" gorm:"not null"`
	StartDate          time.Time       `json:"start_date" gorm:"not null;uniqueIndex:ux_subscriptions_version,priority:3"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	BillingProvider    BillingProvider `json:"billing_provider" gorm:"type:varchar(32)"`
	BillingProviderID  string          `json:"billing_provider_id" gorm:"type:text"`
	BillingAccountID   string          `json:"billing_account_id" gorm:"type:varchar(255)"`

	Offering     *offeringdomain.Offering  `json:"offering,omitempty" gorm:"foreignKey:SKU;references:SKU"`
	Measurements []SubscriptionMeasurement `json:"measurements,omitempty" gorm:"foreignKey:SubscriptionVersionID;constraint:OnDelete:CASCADE"`
	ProductIDs   []SubscriptionProductID   `json:"product_ids,omitempty" gorm:"foreignKey:SubscriptionVersionID;constraint:OnDelete:CASCADE"`
}

func (Subscription) TableName() string { return "subscriptions" }

// ActiveAt reports whether t falls inside [StartDate, EndDate).
func (s Subscription) ActiveAt(t time.Time) bool {
	if t.Before(s.StartDate) {
		return false
	}
	return s.EndDate == nil || t.Before(*s.EndDate)
}

// VersionKey pairs local rows with upstream entries of one organization.
// The stored version key also carries OrgID.
func (s Subscription) VersionKey() VersionKey {
	return VersionKey{SubscriptionID: s.SubscriptionID, StartMillis: s.StartDate.UnixMilli()}
}

type VersionKey struct {
	SubscriptionID string
	StartMillis    int64
}

// SubscriptionMeasurement is a capacity derived from quantity and offering.
type SubscriptionMeasurement struct {
	SubscriptionVersionID snowflake.ID                   `json:"-" gorm:"primaryKey;autoIncrement:false"`
	MeasurementType       offeringdomain.MeasurementType `json:"measurement_type" gorm:"primaryKey;type:varchar(32)"`
	MetricID              string                         `json:"metric_id" gorm:"primaryKey;type:varchar(64)"`
	Value                 float64                        `json:"value" gorm:"not null"`
}

func (SubscriptionMeasurement) TableName() string { return "subscription_measurements" }

// Key returns the measurement dimension.
func (m SubscriptionMeasurement) Key() offeringdomain.CapacityKey {
	return offeringdomain.CapacityKey{MeasurementType: m.MeasurementType, MetricID: m.MetricID}
}

// SubscriptionProductID is a product tag resolved from the offering.
type SubscriptionProductID struct {
	SubscriptionVersionID snowflake.ID `json:"-" gorm:"primaryKey;autoIncrement:false"`
	ProductID             string       `json:"product_id" gorm:"primaryKey;type:varchar(255)"`
}

func (SubscriptionProductID) TableName() string { return "subscription_product_ids" }

// OrgConfig marks which organizations take part in scheduled syncs.
type OrgConfig struct {
	OrgID       string    `json:"org_id" gorm:"primaryKey;type:varchar(64)"`
	SyncEnabled bool      `json:"sync_enabled" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (OrgConfig) TableName() string { return "org_configs" }

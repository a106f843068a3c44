// Package domain holds the usage event model and the metering contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageEvent is one metered sample. Events are append only.
type UsageEvent struct {
	ID           snowflake.ID      `gorm:"primaryKey;autoIncrement:false"`
	AccountID    string            `gorm:"type:varchar(64);not null;index:idx_usage_events_account_ts"`
	ClusterID    string            `gorm:"type:varchar(255);not null"`
	ServiceLevel string            `gorm:"type:varchar(64);not null"`
	MetricKind   string            `gorm:"type:varchar(128);not null"`
	OccurredAt   time.Time         `gorm:"not null;index:idx_usage_events_account_ts;index"`
	Value        float64           `gorm:"not null"`
	Labels       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time         `gorm:"not null"`
}

func (UsageEvent) TableName() string { return "usage_events" }

// Label names read from each returned series.
const (
	LabelClusterID    = "_id"
	LabelServiceLevel = "support"
)

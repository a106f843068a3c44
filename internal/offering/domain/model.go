package domain

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

type MeasurementType string

const (
	MeasurementTypePhysical   MeasurementType = "PHYSICAL"
	MeasurementTypeHypervisor MeasurementType = "HYPERVISOR"
)

const (
	MetricCores   = "CORES"
	MetricSockets = "SOCKETS"
)

// Offering is the catalog entry that defines per unit capacity for a SKU.
type Offering struct {
	SKU               string                             `json:"sku" gorm:"column:sku;primaryKey;type:varchar(255)"`
	ProductName       string                             `json:"product_name" gorm:"type:text"`
	Description       string                             `json:"description" gorm:"type:text"`
	ProductIDs        datatypes.JSONSlice[int]           `json:"product_ids" gorm:"column:product_ids;type:jsonb"`
	ServiceLevel      string                             `json:"service_level" gorm:"type:varchar(64)"`
	Usage             string                             `json:"usage" gorm:"type:varchar(64)"`
	Cores             *int                               `json:"cores,omitempty"`
	Sockets           *int                               `json:"sockets,omitempty"`
	HypervisorCores   *int                               `json:"hypervisor_cores,omitempty"`
	HypervisorSockets *int                               `json:"hypervisor_sockets,omitempty"`
	Metrics           datatypes.JSONType[map[string]int] `json:"metrics" gorm:"column:metrics;type:jsonb"`
	UpdatedAt         time.Time                          `json:"updated_at"`
}

func (Offering) TableName() string { return "offerings" }

// CapacityKey identifies one capacity dimension of an offering.
type CapacityKey struct {
	MeasurementType MeasurementType
	MetricID        string
}

// Capacities returns every defined, non-zero capacity keyed by dimension.
// Additional metrics are PHYSICAL capacities.
func (o Offering) Capacities() map[CapacityKey]int {
	out := map[CapacityKey]int{}
	put := func(t MeasurementType, metric string, v *int) {
		if v != nil && *v != 0 {
			out[CapacityKey{MeasurementType: t, MetricID: metric}] = *v
		}
	}
	put(MeasurementTypePhysical, MetricCores, o.Cores)
	put(MeasurementTypePhysical, MetricSockets, o.Sockets)
	put(MeasurementTypeHypervisor, MetricCores, o.HypervisorCores)
	put(MeasurementTypeHypervisor, MetricSockets, o.HypervisorSockets)
	for metric, v := range o.Metrics.Data() {
		if _, taken := out[CapacityKey{MeasurementType: MeasurementTypePhysical, MetricID: metric}]; taken {
			continue
		}
		v := v
		put(MeasurementTypePhysical, metric, &v)
	}
	return out
}

// SameAs reports whether two offerings carry the same catalog data. UpdatedAt
// is ignored.
func (o Offering) SameAs(other Offering) bool {
	if o.SKU != other.SKU ||
		o.ProductName != other.ProductName ||
		o.Description != other.Description ||
		o.ServiceLevel != other.ServiceLevel ||
		o.Usage != other.Usage ||
		!sameInt(o.Cores, other.Cores) ||
		!sameInt(o.Sockets, other.Sockets) ||
		!sameInt(o.HypervisorCores, other.HypervisorCores) ||
		!sameInt(o.HypervisorSockets, other.HypervisorSockets) {
		return false
	}
	if !sameIDs(o.ProductIDs, other.ProductIDs) {
		return false
	}
	a, b := o.Metrics.Data(), other.Metrics.Data()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func intPtr(v int) *int { return &v }

func TestCapacitiesSkipsNilAndZero(t *testing.T) {
	o := Offering{
		Cores:           intPtr(42),
		Sockets:         intPtr(0),
		HypervisorCores: intPtr(43),
		Metrics:         datatypes.NewJSONType(map[string]int{"INSTANCE_HOURS": 2, "EMPTY": 0}),
	}

	assert.Equal(t, map[CapacityKey]int{
		{MeasurementType: MeasurementTypePhysical, MetricID: MetricCores}:      42,
		{MeasurementType: MeasurementTypeHypervisor, MetricID: MetricCores}:    43,
		{MeasurementType: MeasurementTypePhysical, MetricID: "INSTANCE_HOURS"}: 2,
	}, o.Capacities())
}

func TestCapacitiesNamedFieldWinsOverMetric(t *testing.T) {
	o := Offering{
		Cores:   intPtr(4),
		Metrics: datatypes.NewJSONType(map[string]int{MetricCores: 8}),
	}
	assert.Equal(t, 4, o.Capacities()[CapacityKey{MeasurementType: MeasurementTypePhysical, MetricID: MetricCores}])
}

func TestSameAs(t *testing.T) {
	a := Offering{SKU: "A", ProductIDs: datatypes.JSONSlice[int]{1, 2}, Cores: intPtr(2)}
	b := Offering{SKU: "A", ProductIDs: datatypes.JSONSlice[int]{2, 1}, Cores: intPtr(2)}
	assert.True(t, a.SameAs(b))

	b.Cores = intPtr(3)
	assert.False(t, a.SameAs(b))

	b.Cores = nil
	assert.False(t, a.SameAs(b))

	c := a
	c.Metrics = datatypes.NewJSONType(map[string]int{"X": 1})
	assert.False(t, a.SameAs(c))
}

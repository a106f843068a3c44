package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := dbtest.Open(t, &domain.Offering{})
	return db
}

func intPtr(v int) *int { return &v }

func TestSaveAndLookup(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	r := Provide()

	offering := &domain.Offering{
		SKU:         "MCT3718",
		ProductName: "RHEL Server",
		ProductIDs:  datatypes.JSONSlice[int]{69, 479},
		Cores:       intPtr(4),
		Metrics:     datatypes.NewJSONType(map[string]int{"STORAGE_GIBIBYTES": 10}),
	}
	require.NoError(t, r.Save(ctx, db, offering))

	got, err := r.GetBySKU(ctx, db, "MCT3718")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int{69, 479}, []int(got.ProductIDs))
	assert.Equal(t, 10, got.Metrics.Data()["STORAGE_GIBIBYTES"])

	exists, err := r.ExistsBySKU(ctx, db, "MCT3718")
	require.NoError(t, err)
	assert.True(t, exists)

	name, ok, err := r.FindProductNameBySKU(ctx, db, "MCT3718")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "RHEL Server", name)

	offering.ProductName = "RHEL Server Premium"
	require.NoError(t, r.Save(ctx, db, offering))
	name, _, err = r.FindProductNameBySKU(ctx, db, "MCT3718")
	require.NoError(t, err)
	assert.Equal(t, "RHEL Server Premium", name)
}

func TestMissingSKU(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	r := Provide()
	require.NoError(t, r.Save(ctx, db, &domain.Offering{SKU: "OTHER"}))

	got, err := r.GetBySKU(ctx, db, "MISSING")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.GetBySKU(ctx, db, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := r.ExistsBySKU(ctx, db, "MISSING")
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok, err := r.FindProductNameBySKU(ctx, db, "MISSING")
	require.NoError(t, err)
	assert.False(t, ok)
}

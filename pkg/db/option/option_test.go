package option

import (
	"testing"

	"github.com/smallbiznis/tally/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type row struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func dryRun(t *testing.T, opts ...QueryOption) string {
	t.Helper()
	db := dbtest.Open(t, &row{}).Session(&gorm.Session{DryRun: true})
	var rows []row
	stmt := Apply(db.Model(&row{}), opts...).Find(&rows)
	return stmt.Statement.SQL.String()
}

func TestApplyBuildsQuery(t *testing.T) {
	sql := dryRun(t,
		WithSelect("id", "name"),
		WithSortBy("name", "desc"),
		WithSortBy("id", ""),
		ApplyOffsetLimit(20, 10),
	)
	assert.Contains(t, sql, "SELECT `id`,`name`")
	assert.Contains(t, sql, "ORDER BY name DESC,id ASC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
}

func TestEmptyOptionsAreNoops(t *testing.T) {
	sql := dryRun(t, WithSelect(), WithSortBy(" ", "desc"), ApplyOffsetLimit(0, 0))
	assert.NotContains(t, sql, "ORDER BY")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
}

func TestNextPage(t *testing.T) {
	rows, more := NextPage([]int{1, 2, 3}, 2)
	assert.Equal(t, []int{1, 2}, rows)
	assert.True(t, more)

	rows, more = NextPage([]int{1, 2}, 2)
	assert.Equal(t, []int{1, 2}, rows)
	assert.False(t, more)

	rows, more = NextPage([]int{1, 2}, 0)
	assert.Equal(t, []int{1, 2}, rows)
	assert.False(t, more)
}

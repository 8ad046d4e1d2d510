package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtechsltn/Bottleneck/config"
)

func TestDialectFor(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverMySQL, config.DriverSQLite} {
		d, err := DialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", Dialect{Name: config.DriverPostgres}.Placeholder(3))
	assert.Equal(t, "?", Dialect{Name: config.DriverMySQL}.Placeholder(3))
	assert.Equal(t, "?", Dialect{Name: config.DriverSQLite}.Placeholder(3))
}

func TestInsertSQL(t *testing.T) {
	pg := Dialect{Name: config.DriverPostgres}.insertSQL(2)
	assert.Equal(t,
		"INSERT INTO users (id, name, email, created_date, is_active) VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)",
		pg)

	lite := Dialect{Name: config.DriverSQLite}.insertSQL(2)
	assert.Equal(t,
		"INSERT INTO users (id, name, email, created_date, is_active) VALUES (?, ?, ?, ?, ?), (?, ?, ?, ?, ?)",
		lite)
}

func TestUpdateSQL(t *testing.T) {
	pg := Dialect{Name: config.DriverPostgres}.updateSQL(2)
	assert.Contains(t, pg, "($1::uuid, $2::text, $3::text, $4::boolean), ($5::uuid, $6::text, $7::text, $8::boolean)")
	assert.Contains(t, pg, "WHERE u.id = v.id")

	my := Dialect{Name: config.DriverMySQL}.updateSQL(3)
	assert.Equal(t, 2, strings.Count(my, "UNION ALL"))
	assert.Equal(t, 12, strings.Count(my, "?"))

	lite := Dialect{Name: config.DriverSQLite}.updateSQL(1)
	assert.True(t, strings.HasPrefix(lite, "WITH v(id, name, email, is_active) AS (VALUES (?, ?, ?, ?))"))
	assert.Contains(t, lite, "WHERE users.id = v.id")
}

func TestSelectByIDsSQL(t *testing.T) {
	assert.Contains(t, Dialect{Name: config.DriverPostgres}.selectByIDsSQL(3), "WHERE id IN ($1, $2, $3)")
}

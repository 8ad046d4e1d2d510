package database

import (
	"database/sql"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtechsltn/Bottleneck/config"
)

func TestMigrationSource_EveryDriverHasMigrations(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverMySQL, config.DriverSQLite} {
		migrations, err := MigrationSource(driver).FindMigrations()
		require.NoError(t, err, driver)
		assert.NotEmpty(t, migrations, driver)
	}

	pg, err := MigrationSource(config.DriverPostgres).FindMigrations()
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "0002_bulk_update_users.sql", pg[1].Id)
}

func TestMigrate_SQLiteUpAndDown(t *testing.T) {
	db, err := sql.Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	applied, err := Migrate(db, config.DriverSQLite, migrate.Up, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = Migrate(db, config.DriverSQLite, migrate.Up, 0)
	require.NoError(t, err)
	assert.Zero(t, applied)

	_, err = db.Exec("SELECT COUNT(*) FROM users")
	require.NoError(t, err)

	rolledBack, err := Migrate(db, config.DriverSQLite, migrate.Down, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rolledBack)

	_, err = db.Exec("SELECT COUNT(*) FROM users")
	assert.Error(t, err)
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	_, err := Migrate(nil, "oracle", migrate.Up, 0)
	assert.Error(t, err)
}

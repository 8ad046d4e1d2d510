package bottleneck

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gtechsltn/Bottleneck/config"
	"github.com/gtechsltn/Bottleneck/database"
	"github.com/gtechsltn/Bottleneck/database/mocks"
	"github.com/gtechsltn/Bottleneck/internal/retry"
	"github.com/gtechsltn/Bottleneck/internal/storeerror"
	"github.com/gtechsltn/Bottleneck/model"
)

func intPtr(n int) *int {
	return &n
}

func sqliteConfig(t *testing.T) *config.Configuration {
	dir := t.TempDir()
	return &config.Configuration{
		DataSource: config.DataSourceConfig{
			Driver:         config.DriverSQLite,
			Dns:            ":memory:",
			CommandTimeout: 5 * time.Second,
		},
		Worker: config.WorkerConfig{
			Interval:   time.Hour,
			ReadLimit:  100,
			BatchSize:  3,
			NameSuffix: " Updated",
			BulkMode:   config.BulkModeChunked,
			ChunkSize:  2,
			MaxRetries: intPtr(1),
			RetryDelay: time.Millisecond,
		},
		Export: config.ExportConfig{
			CSVPath:  filepath.Join(dir, "users.csv"),
			JSONPath: filepath.Join(dir, "users.json"),
		},
	}
}

func newSQLiteBottleneck(t *testing.T, cfg *config.Configuration, opts ...ExecutorOption) (*Bottleneck, *database.Datasource) {
	t.Helper()

	db, err := sql.Open(config.DriverSQLite, cfg.DataSource.Dns)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = database.Migrate(db, config.DriverSQLite, migrate.Up, 0)
	require.NoError(t, err)

	ds, err := database.NewDatasourceFromConn(db, cfg)
	require.NoError(t, err)

	b := NewWithDataSource(ds, cfg, opts...)
	t.Cleanup(func() { _ = b.Close() })
	return b, ds
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func readJSON(t *testing.T, path string) model.Batch {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var batch model.Batch
	require.NoError(t, json.Unmarshal(data, &batch))
	return batch
}

func TestRetryPolicy(t *testing.T) {
	defaults := retry.DefaultPolicy()

	policy := RetryPolicy(config.WorkerConfig{})
	assert.Equal(t, defaults.MaxRetries, policy.MaxRetries)
	assert.Equal(t, defaults.Delay, policy.Delay)

	policy = RetryPolicy(config.WorkerConfig{MaxRetries: intPtr(0), RetryDelay: time.Millisecond})
	assert.Equal(t, uint64(0), policy.MaxRetries)
	assert.Equal(t, time.Millisecond, policy.Delay)

	policy = RetryPolicy(config.WorkerConfig{MaxRetries: intPtr(5)})
	assert.Equal(t, uint64(5), policy.MaxRetries)
}

func TestNewWithDataSource_ZeroMaxRetriesRunsOneAttempt(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Worker.MaxRetries = intPtr(0)

	ds := new(mocks.MockDataSource)
	readErr := storeerror.New(storeerror.KindTransientStore, "connection reset", errors.New("reset"))
	ds.On("GetActiveUsers", mock.Anything, 100).Return(nil, readErr)
	ds.On("Close").Return(nil)

	hook, outcomes := collectOutcomes()
	b := NewWithDataSource(ds, cfg, hook)
	require.NoError(t, b.Executor.Start(context.Background()))

	outcome := waitOutcome(t, outcomes)
	require.NoError(t, b.Close())

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Attempts)
	ds.AssertNumberOfCalls(t, "GetActiveUsers", 1)
}

func TestEndToEnd_SingleCycle(t *testing.T) {
	cfg := sqliteConfig(t)
	b, ds := newSQLiteBottleneck(t, cfg)
	ctx := context.Background()

	outcome, err := b.Runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.RowsRead)
	assert.Equal(t, int64(3), outcome.RowsInserted)
	assert.Equal(t, int64(3), outcome.RowsUpdated)
	assert.Equal(t, 3, outcome.RowsExported)
	assert.NoError(t, outcome.ExportErr)

	exported := readJSON(t, cfg.Export.JSONPath)
	require.Len(t, exported, 3)

	stored, err := ds.GetUsersByIDs(ctx, exported.IDs())
	require.NoError(t, err)
	require.Len(t, stored, 3)

	storedByID := make(map[string]model.UserRecord, len(stored))
	for _, rec := range stored {
		storedByID[rec.ID.String()] = rec
	}

	rows := readCSV(t, cfg.Export.CSVPath)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Id", "Name", "Email", "CreatedDate", "IsActive"}, rows[0])

	for i, rec := range exported {
		assert.True(t, strings.HasSuffix(rec.Name, " Updated"))

		db, ok := storedByID[rec.ID.String()]
		require.True(t, ok)
		assert.Equal(t, db.Name, rec.Name)
		assert.Equal(t, db.Email, rec.Email)
		assert.Equal(t, db.IsActive, rec.IsActive)
		assert.True(t, db.CreatedAt.Equal(rec.CreatedAt))

		row := rows[i+1]
		assert.Equal(t, rec.ID.String(), row[0])
		assert.Equal(t, rec.Name, row[1])
		assert.Equal(t, rec.Email, row[2])
		assert.Equal(t, rec.CreatedAt.Format(time.RFC3339Nano), row[3])
		assert.Equal(t, "true", row[4])
	}

	// the next cycle reads what the previous one left behind
	outcome, err = b.Runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.RowsRead)
	assert.Len(t, readJSON(t, cfg.Export.JSONPath), 3)
}

func TestEndToEnd_ExecutorDrivesCycles(t *testing.T) {
	cfg := sqliteConfig(t)
	outcomes := make(chan model.CycleOutcome, 10)
	b, ds := newSQLiteBottleneck(t, cfg, OnOutcome(func(o model.CycleOutcome) { outcomes <- o }))

	require.NoError(t, b.Executor.Start(context.Background()))

	var outcome model.CycleOutcome
	select {
	case outcome = <-outcomes:
	case <-time.After(10 * time.Second):
		t.Fatal("no cycle completed")
	}
	b.Executor.Stop()

	assert.True(t, outcome.Succeeded, "cycle failed: %v", outcome.Err)
	assert.Equal(t, 1, outcome.Attempts)

	active, err := ds.GetActiveUsers(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestEndToEnd_ExportFailureKeepsPersistedRows(t *testing.T) {
	cfg := sqliteConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.Export.CSVPath = filepath.Join(blocker, "users.csv")

	b, ds := newSQLiteBottleneck(t, cfg)

	outcome, err := b.Runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Error(t, outcome.ExportErr)
	assert.Equal(t, 3, outcome.RowsExported)

	active, err := ds.GetActiveUsers(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	assert.Len(t, readJSON(t, cfg.Export.JSONPath), 3)
}

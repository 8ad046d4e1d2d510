/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql" // Import the mysql driver
	_ "github.com/lib/pq"              // Import the postgres driver
	_ "github.com/mattn/go-sqlite3"    // Import the sqlite driver
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gtechsltn/Bottleneck/config"
	"github.com/gtechsltn/Bottleneck/model"
)

type Datasource struct {
	Conn      *sql.DB
	dialect   Dialect
	timeout   time.Duration
	exchanger BulkExchanger
}

// NewDataSource connects to the configured store and picks the bulk exchanger for it.
func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := ConnectDB(configuration.DataSource)
	if err != nil {
		return nil, err
	}

	ds, err := NewDatasourceFromConn(con, configuration)
	if err != nil {
		_ = con.Close()
		return nil, err
	}
	return ds, nil
}

// NewDatasourceFromConn wires an already opened pool.
func NewDatasourceFromConn(con *sql.DB, configuration *config.Configuration) (*Datasource, error) {
	dialect, err := DialectFor(configuration.DataSource.Driver)
	if err != nil {
		return nil, err
	}

	ds := &Datasource{
		Conn:    con,
		dialect: dialect,
		timeout: configuration.DataSource.CommandTimeout,
	}

	switch configuration.Worker.BulkMode {
	case config.BulkModeCopy:
		if dialect.Name != config.DriverPostgres {
			return nil, errors.Errorf("bulk mode %s is not available for %s", config.BulkModeCopy, dialect.Name)
		}
		ds.exchanger = NewCopyExchanger(con, ds.timeout)
	default:
		ds.exchanger = NewChunkedExchanger(con, dialect, configuration.Worker.ChunkSize, ds.timeout)
	}

	logrus.WithFields(logrus.Fields{
		"driver":    dialect.Name,
		"bulk_mode": configuration.Worker.BulkMode,
	}).Info("data source ready")
	return ds, nil
}

// ConnectDB establishes a database connection with pooling.
func ConnectDB(dsConfig config.DataSourceConfig) (*sql.DB, error) {
	driver := dsConfig.Driver
	if driver == "" {
		driver = config.DriverPostgres
	}

	db, err := sql.Open(driver, dsConfig.Dns)
	if err != nil {
		return nil, err
	}

	// Apply connection pooling settings
	db.SetMaxOpenConns(dsConfig.MaxOpenConns)
	db.SetMaxIdleConns(dsConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dsConfig.ConnMaxLifetime)
	db.SetConnMaxIdleTime(dsConfig.ConnMaxIdleTime)

	ctx := context.Background()
	if dsConfig.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dsConfig.CommandTimeout)
		defer cancel()
	}

	// Verify connection
	err = db.PingContext(ctx)
	if err != nil {
		logrus.Errorf("Database connection error ❌: %v", err)
		_ = db.Close()
		return nil, err
	}

	logrus.Info("Database connection established ✅")
	return db, nil
}

func (d *Datasource) BulkInsert(ctx context.Context, batch model.Batch) (int64, error) {
	return d.exchanger.BulkInsert(ctx, batch)
}

func (d *Datasource) BulkUpdate(ctx context.Context, batch model.Batch) (int64, error) {
	return d.exchanger.BulkUpdate(ctx, batch)
}

func (d *Datasource) Close() error {
	return d.Conn.Close()
}

// withCommandTimeout bounds a single store operation.
func withCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

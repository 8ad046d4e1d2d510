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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"

	BulkModeCopy    = "copy"
	BulkModeChunked = "chunked"

	DEFAULT_INTERVAL    = 10 * time.Second
	DEFAULT_READ_LIMIT  = 100
	DEFAULT_BATCH_SIZE  = 1000
	DEFAULT_NAME_SUFFIX = " Updated"
	DEFAULT_CHUNK_SIZE  = 500
	DEFAULT_MAX_RETRIES = 3
	DEFAULT_RETRY_DELAY = 2 * time.Second
	DEFAULT_CSV_PATH    = "users.csv"
	DEFAULT_JSON_PATH   = "users.json"
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns             string        `json:"dns" envconfig:"BOTTLENECK_DATA_SOURCE_DNS"`
	Driver          string        `json:"driver" envconfig:"BOTTLENECK_DATA_SOURCE_DRIVER"`
	MaxOpenConns    int           `json:"max_open_conns" envconfig:"BOTTLENECK_DATA_SOURCE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" envconfig:"BOTTLENECK_DATA_SOURCE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" envconfig:"BOTTLENECK_DATA_SOURCE_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" envconfig:"BOTTLENECK_DATA_SOURCE_CONN_MAX_IDLE_TIME"`
	CommandTimeout  time.Duration `json:"command_timeout" envconfig:"BOTTLENECK_DATA_SOURCE_COMMAND_TIMEOUT"`
}

type WorkerConfig struct {
	Interval      time.Duration `json:"interval" envconfig:"BOTTLENECK_WORKER_INTERVAL"`
	ReadLimit     int           `json:"read_limit" envconfig:"BOTTLENECK_WORKER_READ_LIMIT"`
	BatchSize     int           `json:"batch_size" envconfig:"BOTTLENECK_WORKER_BATCH_SIZE"`
	NameSuffix    string        `json:"name_suffix" envconfig:"BOTTLENECK_WORKER_NAME_SUFFIX"`
	BulkMode      string        `json:"bulk_mode" envconfig:"BOTTLENECK_WORKER_BULK_MODE"`
	ChunkSize     int           `json:"chunk_size" envconfig:"BOTTLENECK_WORKER_CHUNK_SIZE"`
	VerboseTiming bool          `json:"verbose_timing" envconfig:"BOTTLENECK_WORKER_VERBOSE_TIMING"`
	MaxRetries    *int          `json:"max_retries" envconfig:"BOTTLENECK_WORKER_MAX_RETRIES"`
	RetryDelay    time.Duration `json:"retry_delay" envconfig:"BOTTLENECK_WORKER_RETRY_DELAY"`
}

type ExportConfig struct {
	CSVPath  string `json:"csv_path" envconfig:"BOTTLENECK_EXPORT_CSV_PATH"`
	JSONPath string `json:"json_path" envconfig:"BOTTLENECK_EXPORT_JSON_PATH"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"BOTTLENECK_PROJECT_NAME"`
	LogLevel        string           `json:"log_level" envconfig:"BOTTLENECK_LOG_LEVEL"`
	LogFormat       string           `json:"log_format" envconfig:"BOTTLENECK_LOG_FORMAT"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"BOTTLENECK_ENABLE_TELEMETRY"`
	OtelEndpoint    string           `json:"otel_endpoint" envconfig:"BOTTLENECK_OTEL_ENDPOINT"`
	DataSource      DataSourceConfig `json:"data_source"`
	Worker          WorkerConfig     `json:"worker"`
	Export          ExportConfig     `json:"export"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()

		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("bottleneck", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	configureLogger(&cnf)
	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called bottleneck.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		cnf.ProjectName = "Bottleneck"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.DataSource.Driver = strings.ToLower(strings.TrimSpace(cnf.DataSource.Driver))
	cnf.Worker.BulkMode = strings.ToLower(strings.TrimSpace(cnf.Worker.BulkMode))

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.DataSource.Driver == "" {
		cnf.DataSource.Driver = DriverPostgres
	}
	if cnf.DataSource.MaxOpenConns == 0 {
		cnf.DataSource.MaxOpenConns = 25
	}
	if cnf.DataSource.MaxIdleConns == 0 {
		cnf.DataSource.MaxIdleConns = 10
	}
	if cnf.DataSource.ConnMaxLifetime == 0 {
		cnf.DataSource.ConnMaxLifetime = 30 * time.Minute
	}
	if cnf.DataSource.ConnMaxIdleTime == 0 {
		cnf.DataSource.ConnMaxIdleTime = 5 * time.Minute
	}
	if cnf.DataSource.CommandTimeout == 0 {
		cnf.DataSource.CommandTimeout = 30 * time.Second
	}

	if cnf.Worker.Interval == 0 {
		cnf.Worker.Interval = DEFAULT_INTERVAL
	}
	if cnf.Worker.ReadLimit == 0 {
		cnf.Worker.ReadLimit = DEFAULT_READ_LIMIT
	}
	if cnf.Worker.BatchSize == 0 {
		cnf.Worker.BatchSize = DEFAULT_BATCH_SIZE
		log.Printf("Warning: Batch size not specified. Setting default value: %d", DEFAULT_BATCH_SIZE)
	}
	if cnf.Worker.NameSuffix == "" {
		cnf.Worker.NameSuffix = DEFAULT_NAME_SUFFIX
	}
	if cnf.Worker.BulkMode == "" {
		cnf.Worker.BulkMode = BulkModeChunked
		if cnf.DataSource.Driver == DriverPostgres {
			cnf.Worker.BulkMode = BulkModeCopy
		}
	}
	if cnf.Worker.ChunkSize == 0 {
		cnf.Worker.ChunkSize = DEFAULT_CHUNK_SIZE
	}
	// an explicit 0 disables retries, only an absent value takes the default
	if cnf.Worker.MaxRetries == nil {
		maxRetries := DEFAULT_MAX_RETRIES
		cnf.Worker.MaxRetries = &maxRetries
	}
	if cnf.Worker.RetryDelay == 0 {
		cnf.Worker.RetryDelay = DEFAULT_RETRY_DELAY
	}

	if cnf.Export.CSVPath == "" {
		cnf.Export.CSVPath = DEFAULT_CSV_PATH
	}
	if cnf.Export.JSONPath == "" {
		cnf.Export.JSONPath = DEFAULT_JSON_PATH
	}
	if cnf.LogLevel == "" {
		cnf.LogLevel = logrus.InfoLevel.String()
	}

	return cnf.validate()
}

func (cnf *Configuration) validate() error {
	err := validation.ValidateStruct(&cnf.DataSource,
		validation.Field(&cnf.DataSource.Driver, validation.In(DriverPostgres, DriverMySQL, DriverSQLite)),
		validation.Field(&cnf.DataSource.CommandTimeout, validation.Min(time.Millisecond)),
	)
	if err != nil {
		return err
	}

	err = validation.ValidateStruct(&cnf.Worker,
		validation.Field(&cnf.Worker.Interval, validation.Min(time.Millisecond)),
		validation.Field(&cnf.Worker.ReadLimit, validation.Min(1)),
		validation.Field(&cnf.Worker.BatchSize, validation.Min(1)),
		validation.Field(&cnf.Worker.ChunkSize, validation.Min(1)),
		validation.Field(&cnf.Worker.MaxRetries, validation.Min(0)),
		validation.Field(&cnf.Worker.BulkMode, validation.In(BulkModeCopy, BulkModeChunked)),
	)
	if err != nil {
		return err
	}

	if cnf.Worker.BulkMode == BulkModeCopy && cnf.DataSource.Driver != DriverPostgres {
		return errors.New("bulk mode copy requires the postgres driver")
	}

	return validation.Validate(cnf.LogLevel, validation.By(func(value interface{}) error {
		_, err := logrus.ParseLevel(value.(string))
		return err
	}))
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func configureLogger(cnf *Configuration) {
	level, err := logrus.ParseLevel(cnf.LogLevel)
	if err == nil {
		logrus.SetLevel(level)
	}
	if cnf.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}

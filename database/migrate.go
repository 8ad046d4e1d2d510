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
	"database/sql"
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations
var migrationFiles embed.FS

// MigrationSource returns the embedded migrations written for driver.
func MigrationSource(driver string) migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations/" + driver,
	}
}

// Migrate applies (or rolls back) up to limit migrations; 0 means all of them.
func Migrate(db *sql.DB, driver string, direction migrate.MigrationDirection, limit int) (int, error) {
	if _, err := DialectFor(driver); err != nil {
		return 0, err
	}
	return migrate.ExecMax(db, driver, MigrationSource(driver), direction, limit)
}

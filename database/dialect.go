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
	"fmt"
	"strings"

	"github.com/gtechsltn/Bottleneck/config"
)

const usersTable = "users"

const (
	maxBindParams       = 65535 // postgres and mysql
	sqliteMaxBindParams = 32766
)

var (
	insertColumns = []string{"id", "name", "email", "created_date", "is_active"}
	updateColumns = []string{"id", "name", "email", "is_active"}
)

// Dialect renders the SQL that differs between the supported stores.
type Dialect struct {
	Name string
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres, config.DriverMySQL, config.DriverSQLite:
		return Dialect{Name: driver}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	if d.Name == config.DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// MaxRowsPerStatement caps how many rows of the given width fit into one statement.
func (d Dialect) MaxRowsPerStatement(width int) int {
	if d.Name == config.DriverSQLite {
		return sqliteMaxBindParams / width
	}
	return maxBindParams / width
}

func (d Dialect) placeholders(start, count int, casts []string) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = d.Placeholder(start + i)
		if casts != nil && casts[i] != "" {
			parts[i] += "::" + casts[i]
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (d Dialect) selectActiveSQL() string {
	return fmt.Sprintf(`
		SELECT id, name, email, created_date, is_active
		FROM %s
		WHERE is_active = %s
		ORDER BY created_date DESC
		LIMIT %s`, usersTable, d.Placeholder(1), d.Placeholder(2))
}

func (d Dialect) selectByIDsSQL(count int) string {
	return fmt.Sprintf(`
		SELECT id, name, email, created_date, is_active
		FROM %s
		WHERE id IN %s`, usersTable, d.placeholders(1, count, nil))
}

// insertSQL renders a multi-row INSERT for rows records.
func (d Dialect) insertSQL(rows int) string {
	width := len(insertColumns)
	values := make([]string, rows)
	for i := 0; i < rows; i++ {
		values[i] = d.placeholders(i*width+1, width, nil)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		usersTable, strings.Join(insertColumns, ", "), strings.Join(values, ", "))
}

// updateSQL renders one set-based UPDATE that joins rows records against the table by id.
func (d Dialect) updateSQL(rows int) string {
	width := len(updateColumns)

	switch d.Name {
	case config.DriverPostgres:
		casts := []string{"uuid", "text", "text", "boolean"}
		values := make([]string, rows)
		for i := 0; i < rows; i++ {
			values[i] = d.placeholders(i*width+1, width, casts)
		}
		return fmt.Sprintf(`UPDATE %s AS u
		SET name = v.name, email = v.email, is_active = v.is_active
		FROM (VALUES %s) AS v(id, name, email, is_active)
		WHERE u.id = v.id`, usersTable, strings.Join(values, ", "))

	case config.DriverMySQL:
		selects := make([]string, rows)
		selects[0] = "SELECT ? AS id, ? AS name, ? AS email, ? AS is_active"
		for i := 1; i < rows; i++ {
			selects[i] = "SELECT ?, ?, ?, ?"
		}
		return fmt.Sprintf(`UPDATE %s AS u
		JOIN (%s) AS v ON u.id = v.id
		SET u.name = v.name, u.email = v.email, u.is_active = v.is_active`,
			usersTable, strings.Join(selects, " UNION ALL "))

	default:
		values := make([]string, rows)
		for i := 0; i < rows; i++ {
			values[i] = d.placeholders(i*width+1, width, nil)
		}
		return fmt.Sprintf(`WITH v(id, name, email, is_active) AS (VALUES %s)
		UPDATE %s
		SET name = v.name, email = v.email, is_active = v.is_active
		FROM v
		WHERE %s.id = v.id`, strings.Join(values, ", "), usersTable, usersTable)
	}
}

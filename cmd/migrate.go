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

package main

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gtechsltn/Bottleneck/database"
)

// migrateCommands applies or rolls back the embedded schema for the configured driver.
func migrateCommands(app *instance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "manage the users schema",
	}

	cmd.AddCommand(migrateDirectionCommand(app, "up", migrate.Up, "Applied %d migrations!\n"))
	cmd.AddCommand(migrateDirectionCommand(app, "down", migrate.Down, "Rolled back %d migrations!\n"))
	return cmd
}

func migrateDirectionCommand(app *instance, use string, direction migrate.MigrationDirection, report string) *cobra.Command {
	var maxMigrations int

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("migrate %s", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.ConnectDB(app.cnf.DataSource)
			if err != nil {
				return fmt.Errorf("error connecting to database: %w", err)
			}
			defer db.Close()

			n, err := database.Migrate(db, app.cnf.DataSource.Driver, direction, maxMigrations)
			if err != nil {
				logrus.WithError(err).WithField("direction", use).Error("migration failed")
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), report, n)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxMigrations, "max", 0, "maximum number of migrations to run, 0 for all")
	return cmd
}

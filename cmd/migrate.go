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

	"github.com/fantasyee/fantasyee"
	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/database"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrationSchema holds both the tables and the sql-migrate bookkeeping.
const migrationSchema = "fantasyee"

var migrationSource = migrate.EmbedFileSystemMigrationSource{
	FileSystem: fantasyee.SQLFiles,
	Root:       "sql",
}

func migrateCommands(_ *fantasyeeInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "run fantasyee schema migrations",
	}
	cmd.AddCommand(migrationCommand("up", "Applied", migrate.Up))
	cmd.AddCommand(migrationCommand("down", "Rolled back", migrate.Down))
	return cmd
}

// migrationCommand runs the embedded migrations in one direction. --steps
// limits how many are run; zero runs all of them.
func migrationCommand(use, verb string, direction migrate.MigrationDirection) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("migrate %s", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			cnf, err := config.Fetch()
			if err != nil {
				return err
			}
			n, err := runMigrations(cnf, direction, steps)
			if err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			logrus.Infof(" [*] %s %d migrations", verb, n)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to run, 0 for all")
	return cmd
}

func runMigrations(cnf *config.Configuration, direction migrate.MigrationDirection, steps int) (int, error) {
	db, err := database.ConnectDB(cnf.DataSource.Dns)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	if direction == migrate.Up {
		if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + migrationSchema); err != nil {
			return 0, err
		}
	}
	migrate.SetSchema(migrationSchema)
	return migrate.ExecMax(db, "postgres", migrationSource, direction, steps)
}

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
	"log"
	"os"

	"github.com/fantasyee/fantasyee"
	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/database"
	"github.com/fantasyee/fantasyee/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Fantasyee is the CLI application, wrapping the root Cobra command.
type Fantasyee struct {
	cmd *cobra.Command
}

// fantasyeeInstance holds the service and configuration shared by every command.
type fantasyeeInstance struct {
	fantasyee *fantasyee.Fantasyee
	cnf       *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the service before any command runs.
func preRun(app *fantasyeeInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		service, err := setupFantasyee(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.fantasyee = service
		app.cnf = cnf
		return nil
	}
}

// setupFantasyee connects the datasource and wires the service on top of it.
func setupFantasyee(cfg *config.Configuration) (*fantasyee.Fantasyee, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	service, err := fantasyee.NewFantasyee(db)
	if err != nil {
		return nil, fmt.Errorf("error creating fantasyee: %v", err)
	}
	return service, nil
}

// NewCLI creates the root command with the start, workers, migrate and config subcommands.
func NewCLI() *Fantasyee {
	var configFile string
	f := &fantasyeeInstance{}

	var rootCmd = &cobra.Command{
		Use:   "fantasyee",
		Short: "Fantasy contest backend",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./fantasyee.json", "Configuration file for fantasyee")
	rootCmd.PersistentPreRunE = preRun(f, &configFile)

	rootCmd.AddCommand(serverCommands(f))
	rootCmd.AddCommand(workerCommands(f))
	rootCmd.AddCommand(migrateCommands(f))
	rootCmd.AddCommand(configCommands())

	return &Fantasyee{cmd: rootCmd}
}

func (w Fantasyee) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}

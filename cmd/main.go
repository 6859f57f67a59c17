/*
Copyright 2025 Usagegate Authors.

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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/usagegate/usagegate"
	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/internal/notification"
	"github.com/usagegate/usagegate/store"
)

// Usagegate represents the CLI application, encapsulating the root Cobra command.
type Usagegate struct {
	cmd *cobra.Command
}

// appInstance holds the service instance and its configuration so that
// subcommands share one datasource.
type appInstance struct {
	gate  *usagegate.UsageGate
	store store.DataSource
	cnf   *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and opens the store directory before any
// command runs.
func preRun(app *appInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		svc, ds, err := setupUsageGate(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.gate = svc
		app.store = ds
		app.cnf = cnf

		return nil
	}
}

// setupUsageGate opens the flat-file store and builds the service on top of
// it.
func setupUsageGate(cfg *config.Configuration) (*usagegate.UsageGate, store.DataSource, error) {
	ds, err := store.NewFileStore(cfg.Store.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening store directory: %v", err)
	}
	return usagegate.NewUsageGate(ds, nil), ds, nil
}

// NewCLI creates the command-line interface for the application.
func NewCLI() *Usagegate {
	var configFile string
	b := &appInstance{}

	var rootCmd = &cobra.Command{
		Use:   "usagegate",
		Short: "Payment-gated usage quota service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./usagegate.json", "Configuration file for usagegate")

	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(recordCommands(b))

	return &Usagegate{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Usagegate) executeCLI() {
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

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
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	bottleneck "github.com/gtechsltn/Bottleneck"
	"github.com/gtechsltn/Bottleneck/config"
	"github.com/gtechsltn/Bottleneck/internal/retry"
	"github.com/gtechsltn/Bottleneck/internal/traces"
	"github.com/gtechsltn/Bottleneck/model"
)

const telemetryShutdownTimeout = 5 * time.Second

// initializeTracing installs the OTLP exporter when telemetry is enabled and always returns a usable shutdown.
func initializeTracing(ctx context.Context, cfg *config.Configuration) func() {
	if !cfg.EnableTelemetry {
		return func() {}
	}

	shutdown, err := traces.SetupOTelSDK(ctx, traces.Options{
		ServiceName: cfg.ProjectName,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logrus.WithError(err).Warn("tracing disabled")
		return func() {}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logrus.WithError(err).Error("error during telemetry shutdown")
		}
	}
}

// startCommands runs the executor until SIGINT or SIGTERM, then lets the current cycle finish.
func startCommands(app *instance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start the scheduled cycle executor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing := initializeTracing(ctx, app.cnf)
			defer shutdownTracing()

			b, err := bottleneck.NewBottleneck(app.cnf)
			if err != nil {
				return fmt.Errorf("error creating bottleneck: %w", err)
			}
			defer func() {
				if err := b.Close(); err != nil {
					logrus.WithError(err).Error("error closing data source")
				}
			}()

			if err := b.Executor.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			logrus.Info("shutdown signal received, waiting for the current cycle")
			b.Executor.Stop()
			return nil
		},
	}
	return cmd
}

// runOnceCommands runs a single cycle, with retries, and prints its outcome.
func runOnceCommands(app *instance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "run a single cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			shutdownTracing := initializeTracing(ctx, app.cnf)
			defer shutdownTracing()

			b, err := bottleneck.NewBottleneck(app.cnf)
			if err != nil {
				return fmt.Errorf("error creating bottleneck: %w", err)
			}
			defer b.Close()

			outcome, attempts, err := retry.Execute(ctx, bottleneck.RetryPolicy(app.cnf.Worker), b.Runner.RunOnce)
			outcome.CycleID = model.GenerateUUIDWithSuffix("cyc")
			outcome.Attempts = attempts
			outcome.Succeeded = err == nil
			outcome.Err = err

			data, mErr := json.MarshalIndent(outcome.Fields(), "", "    ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	return cmd
}

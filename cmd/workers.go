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
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"
	"go.opentelemetry.io/otel"

	"github.com/fantasyee/fantasyee"
	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/internal/apierror"
	redlock "github.com/fantasyee/fantasyee/internal/lock"
	"github.com/fantasyee/fantasyee/internal/metrics"
	"github.com/fantasyee/fantasyee/internal/rediskey"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
)

func init() {
	logrus.AddHook(&apmlogrus.Hook{})
}

// processPreparation loads the placeholders of a unit once its open time
// has come. Validation failures will not improve on retry and are skipped.
func (f *fantasyeeInstance) processPreparation(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("fantasyee.units.worker").Start(ctx, "Process Unit Preparation")
	defer span.End()

	var payload fantasyee.PrepareUnitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.Error(err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := f.fantasyee.PrepareUnit(ctx, payload.UnitID); err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code != apierror.ErrInternalServer {
			logrus.Warnf("unit %d will not be prepared: %v", payload.UnitID, err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logrus.Infof("Preparation of unit %d pushed back for retry due to error: %v", payload.UnitID, err)
		return err
	}

	log.Println(" [*] Unit Prepared", payload.UnitID)
	return nil
}

func initializeWorkerServer(conf *config.Configuration) (*asynq.Server, error) {
	redisOption, err := fantasyee.RedisConnOpt(conf)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(redisOption, asynq.Config{
		Concurrency: conf.Queue.WorkerConcurrency,
		Queues:      map[string]int{conf.Queue.UnitQueue: 1},
	}), nil
}

func startMonitoring(conf *config.Configuration) {
	redisOption, err := fantasyee.RedisConnOpt(conf)
	if err != nil {
		log.Printf("asynqmon disabled: %v", err)
		return
	}
	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/monitoring",
		RedisConnOpt: redisOption,
	})

	go func() {
		monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
		log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
		if err := http.ListenAndServe(monitoringAddr, h); err != nil {
			log.Fatalf("could not start asynqmon server: %v", err)
		}
	}()
}

func startMetrics(conf *config.Configuration) {
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	go func() {
		metricsAddr := fmt.Sprintf(":%s", conf.MetricsPort)
		log.Printf("Metrics listening on %s/metrics", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Fatalf("could not start metrics server: %v", err)
		}
	}()
}

// workerCommands defines the "workers" command: the asynq preparation
// server and the settlement worker, side by side.
func workerCommands(f *fantasyeeInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start fantasyee workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer func() {
				if err := f.fantasyee.Close(); err != nil {
					log.Printf("Error during close: %v", err)
				}
			}()

			shutdown, err := initializeTracing(ctx, f.cnf, "FANTASYEE_WORKERS")
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			flushed, err := redlock.Flush(ctx, f.fantasyee.Redis(), rediskey.TransactionPattern)
			if err != nil {
				logrus.Warnf("failed to flush stale transaction keys: %v", err)
			} else if flushed > 0 {
				logrus.Infof("flushed %d stale transaction keys", flushed)
			}

			srv, err := initializeWorkerServer(f.cnf)
			if err != nil {
				log.Fatal(err)
			}
			mux := asynq.NewServeMux()
			mux.HandleFunc(fantasyee.TaskPrepareUnit, f.processPreparation)
			if err := srv.Start(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
			defer srv.Shutdown()

			startMonitoring(f.cnf)
			startMetrics(f.cnf)

			worker := f.fantasyee.NewSettlementWorker(fantasyee.WinningsSettler{})
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Fatalf("settlement worker stopped: %v", err)
			}
		},
	}

	return cmd
}

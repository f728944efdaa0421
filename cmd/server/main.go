// Copyright 2026 The LinkSpace Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linkspace/linkspace/internal/bootstrap"
	"github.com/linkspace/linkspace/internal/config"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/observability/tracing"
	"github.com/linkspace/linkspace/internal/store/postgres"
	transportHTTP "github.com/linkspace/linkspace/internal/transport/http"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "linkspace",
	Short: "LinkSpace reservation server",
	Long:  `Multi-tenant space reservation API with JWT authentication.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()
		return runServer(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version]",
	Short:     "Run database migrations",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down", "status", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()

		command := "up"
		if len(args) == 1 {
			command = args[0]
		}
		ctx := cmd.Context()
		db, err := postgres.New(ctx, postgresConfig(cfg))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(ctx, command)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo tenants, accounts and spaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return bootstrap.NewSeeder(a.identity, a.spaces).Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the global logger.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	closer := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		FilePath:    cfg.Observability.LogFile,
		MaxSizeMB:   cfg.Observability.LogMaxSizeMB,
		MaxBackups:  cfg.Observability.LogMaxBackups,
		MaxAgeDays:  cfg.Observability.LogMaxAgeDays,
		Compress:    true,
	})
	return cfg, func() { _ = closer.Close() }, nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting linkspace", logger.String("version", cfg.Observability.ServiceVersion))

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		Endpoint:       cfg.Observability.OTELEndpoint,
		Insecure:       cfg.Observability.OTELInsecure,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer tracer.Shutdown(context.Background())
	}

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		return err
	}
	inst, err := meter.Instruments()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, inst)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Seed.Enabled {
		if err := bootstrap.NewSeeder(a.identity, a.spaces).Run(ctx); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	// Background maintenance
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Maintenance.CleanupSchedule, func() { a.cleanup(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", cfg.Maintenance.CleanupSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	var httpMetrics *metrics.HTTPMetrics
	if cfg.Observability.MetricsEnabled {
		httpMetrics = metrics.NewHTTPMetrics(cfg.Observability.ServiceName)
	}

	handler := transportHTTP.NewHandler(a.identity, a.tenants, a.spaces, a.reservations, a.audit, a.tokens)
	router := transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
		ServiceName:    cfg.Observability.ServiceName,
		GlobalLimiter:  a.globalLimiter,
		LoginLimiter:   a.loginLimiter,
		Metrics:        httpMetrics,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
	return nil
}

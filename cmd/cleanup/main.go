package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/linkspace/linkspace/internal/config"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/store/postgres"
)

// cleanup deletes revoked_tokens rows whose token has expired. Meant for a
// cron job when revocations live in PostgreSQL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName + "-cleanup",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Name,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	n, err := postgres.NewRevocationRepository(db).DeleteExpired(ctx)
	if err != nil {
		slog.Error("cleanup failed", logger.Error(err))
		db.Close()
		os.Exit(1)
	}
	slog.Info("expired revocations deleted", logger.RowsAffected(n))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/linkspace/linkspace/internal/config"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/store/postgres"
)

// Usage: migrate [up|down|status|version|redo|reset]
func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName + "-migrate",
	})

	ctx := context.Background()
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

	if err := db.Migrate(ctx, command, os.Args[min(2, len(os.Args)):]...); err != nil {
		slog.Error("migration failed", logger.Operation(command), logger.Error(err))
		db.Close()
		os.Exit(1)
	}
	slog.Info("migration finished", logger.Operation(command))
}

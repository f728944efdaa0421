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
	"fmt"
	"log/slog"

	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/config"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/ratelimit"
	"github.com/linkspace/linkspace/internal/reservation"
	"github.com/linkspace/linkspace/internal/space"
	"github.com/linkspace/linkspace/internal/store/memory"
	"github.com/linkspace/linkspace/internal/store/postgres"
	storeredis "github.com/linkspace/linkspace/internal/store/redis"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/linkspace/linkspace/internal/token"
	"github.com/redis/go-redis/v9"
)

// expirer is implemented by revocation stores that need periodic cleanup.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// sweeper is implemented by in-process limiters.
type sweeper interface {
	Sweep() int
}

// app holds every wired component of a running instance
type app struct {
	cfg *config.Config

	tenants      *tenant.Service
	identity     *identity.Service
	spaces       *space.Service
	reservations *reservation.Service
	audit        *audit.Service
	tokens       *token.Service

	loginLimiter  ratelimit.Limiter
	globalLimiter *ratelimit.TokenBucket
	revocations   token.RevocationStore

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func postgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Name,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
}

// newApp connects the configured backends and builds the services.
func newApp(ctx context.Context, cfg *config.Config, inst *metrics.Instruments) (*app, error) {
	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	// Initialize repositories
	var (
		tenantRepo      tenant.Repository
		userRepo        identity.UserRepository
		spaceRepo       space.Repository
		reservationRepo reservation.Repository
		auditRepo       audit.Repository
		db              *postgres.DB
	)
	switch cfg.Storage.Backend {
	case "postgres":
		var err error
		db, err = postgres.New(ctx, postgresConfig(cfg))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		slog.InfoContext(ctx, "connected to database", logger.Component("postgres"))

		tenantRepo = postgres.NewTenantRepository(db)
		userRepo = postgres.NewUserRepository(db)
		spaceRepo = postgres.NewSpaceRepository(db)
		reservationRepo = postgres.NewReservationRepository(db)
		auditRepo = postgres.NewAuditRepository(db)
	default:
		slog.WarnContext(ctx, "using in-memory storage; data is lost on restart", logger.Component("storage"))
		tenantRepo = memory.NewTenantRepository()
		userRepo = memory.NewUserRepository()
		spaceRepo = memory.NewSpaceRepository()
		reservationRepo = memory.NewReservationRepository()
		auditRepo = memory.NewAuditRepository()
	}

	var rdb *redis.Client
	if cfg.Storage.Revocations == "redis" || cfg.RateLimit.Backend == "redis" {
		var err error
		rdb, err = storeredis.NewClient(ctx, storeredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		slog.InfoContext(ctx, "connected to redis", logger.Component("redis"))
	}

	switch cfg.Storage.Revocations {
	case "postgres":
		a.revocations = postgres.NewRevocationRepository(db)
	case "redis":
		a.revocations = storeredis.NewRevocationStore(rdb, cfg.Redis.KeyPrefix+"revoked:")
	default:
		a.revocations = memory.NewRevocationStore(nil)
	}

	switch cfg.RateLimit.Backend {
	case "redis":
		a.loginLimiter = ratelimit.NewRedis(rdb, cfg.Redis.KeyPrefix+"login:", cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	default:
		a.loginLimiter = ratelimit.NewWindow(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	}
	a.globalLimiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.Maintenance.LimiterIdle)

	// Initialize helpers
	mirror := logger.NewAuditLogger(slog.Default())
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	// Initialize services
	a.audit = audit.NewService(auditRepo, mirror, inst)
	a.tenants = tenant.NewService(tenantRepo, a.audit)

	var err error
	a.identity, err = identity.NewService(userRepo, a.tenants, passwordHasher, a.audit, inst)
	if err != nil {
		return nil, err
	}
	a.spaces = space.NewService(spaceRepo, a.audit)
	a.reservations = reservation.NewService(reservationRepo, a.spaces, a.identity, a.audit, inst)

	a.tokens, err = token.NewService(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
	}, a.revocations, token.WithSubjectResolver(a.identity.ResolveSubject))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	ok = true
	return a, nil
}

// cleanup drops expired revocations and idle limiter entries.
func (a *app) cleanup(ctx context.Context) {
	if e, ok := a.revocations.(expirer); ok {
		n, err := e.DeleteExpired(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to delete expired revocations", logger.Error(err))
		} else if n > 0 {
			slog.InfoContext(ctx, "deleted expired revocations", logger.RowsAffected(n))
		}
	}

	swept := a.globalLimiter.Sweep()
	if s, ok := a.loginLimiter.(sweeper); ok {
		swept += s.Sweep()
	}
	if swept > 0 {
		slog.DebugContext(ctx, "swept idle rate limit entries", slog.Int("count", swept))
	}
}

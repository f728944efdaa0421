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

// Package http exposes the reservation core over a chi router.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/ratelimit"
	"github.com/linkspace/linkspace/internal/reservation"
	"github.com/linkspace/linkspace/internal/space"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/linkspace/linkspace/internal/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService    *identity.Service
	tenantService      *tenant.Service
	spaceService       *space.Service
	reservationService *reservation.Service
	auditService       *audit.Service
	tokens             *token.Service
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	tenantService *tenant.Service,
	spaceService *space.Service,
	reservationService *reservation.Service,
	auditService *audit.Service,
	tokens *token.Service,
) *Handler {
	return &Handler{
		identityService:    identityService,
		tenantService:      tenantService,
		spaceService:       spaceService,
		reservationService: reservationService,
		auditService:       auditService,
		tokens:             tokens,
	}
}

// RouterConfig carries the cross-cutting pieces of the router. Nil
// limiters and metrics are skipped.
type RouterConfig struct {
	ServiceName    string
	GlobalLimiter  ratelimit.Limiter
	LoginLimiter   ratelimit.Limiter
	Metrics        *metrics.HTTPMetrics
	AllowedOrigins []string
	CORSMaxAge     int
	RequestTimeout time.Duration
	// TrustProxy mounts middleware.RealIP so the limiter and audit log see
	// the address reported by the proxy.
	TrustProxy bool
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "linkspace"
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         cfg.CORSMaxAge,
	}))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.GlobalLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.GlobalLimiter, "global", cfg.Metrics, false))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(ClientIPMiddleware)

	r.Get("/health", h.HealthCheck(cfg.ServiceName))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// Public authentication endpoints
	r.Route("/auth", func(r chi.Router) {
		login := http.HandlerFunc(h.Login)
		if cfg.LoginLimiter != nil {
			r.With(RateLimitMiddleware(cfg.LoginLimiter, "login", cfg.Metrics, true)).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.With(h.AuthMiddleware).Post("/logout", h.Logout)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/me", h.Me)

		r.Route("/empresas/{empresaId}", func(r chi.Router) {
			r.Use(TenantGate)
			r.Get("/", h.GetEmpresa)
			r.With(RequireRole(authz.RoleAdmin)).Put("/", h.UpdateEmpresa)
			r.Get("/reservas", h.ListEmpresaReservations)
			r.Get("/spaces", h.ListEmpresaSpaces)
		})

		r.Route("/spaces", func(r chi.Router) {
			r.Use(TenantGate)
			r.Get("/", h.ListSpaces)
			r.Get("/{id}", h.GetSpace)
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(authz.RoleAdmin))
				r.Post("/", h.CreateSpace)
				r.Put("/{id}", h.UpdateSpace)
				r.Delete("/{id}", h.DeactivateSpace)
			})
		})

		r.Route("/reservas", func(r chi.Router) {
			r.Use(TenantGate)
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Get("/{id}", h.GetReservation)
			r.Put("/{id}", h.UpdateReservation)
			r.Post("/{id}/approve", h.ApproveReservation)
			r.Post("/{id}/cancel", h.CancelReservation)
		})

		// A client-supplied empresa_id on user bodies is dropped when
		// decoding, so these routes carry no body gate.
		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(authz.RoleAdmin))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Delete("/{id}", h.DeactivateUser)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(authz.RoleAdmin))
			r.Use(TenantGate)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/spaces", h.AdminSpaces)
			r.Get("/audit-logs", h.AuditLogs)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": service,
		})
	}
}

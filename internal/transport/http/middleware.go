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

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/observability/logger"
)

// Tenant Isolation Principles:
// 1. The tenant of a request is the tenant in the access token
// 2. A tenant id supplied by the client is only ever compared, never used
// 3. Authentication runs before any role or tenant gate
//
// Anti-Patterns (FORBIDDEN):
// - Reading empresa_id from the request to scope a query
// - Skipping the tenant gate for admins

// maxGateBody bounds how much of a request body the tenant gate inspects.
const maxGateBody = 1 << 20

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ClientIPMiddleware attaches the caller's IP for audit entries.
func ClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithClientIP(r.Context(), getClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware verifies the bearer access token and attaches the
// principal it names.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperr.ErrUnauthenticated)
			return
		}

		claims, err := h.tokens.Authenticate(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := withClaims(r.Context(), claims)
		ctx = authz.WithPrincipal(ctx, claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RequireRole rejects principals that neither hold role nor are admins.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authz.RequireRole(GetPrincipal(r.Context()), role); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantGate rejects the request when the empresaId path parameter, the
// empresa_id query parameter or an empresa_id field in a JSON body names a
// tenant other than the principal's. Absent sources are not checked, but
// at least the principal's own tenant must be present.
func TenantGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		candidates := []string{}
		if v := chi.URLParam(r, "empresaId"); v != "" {
			candidates = append(candidates, v)
		}
		if v := r.URL.Query().Get("empresa_id"); v != "" {
			candidates = append(candidates, v)
		}
		if v, ok := bodyTenantID(r); ok {
			candidates = append(candidates, v)
		}
		if len(candidates) == 0 {
			candidates = append(candidates, p.TenantID)
		}

		for _, tenantID := range candidates {
			if err := authz.RequireTenant(p, tenantID); err != nil {
				slog.WarnContext(r.Context(), "cross-tenant request rejected",
					logger.UserID(p.SubjectID),
					logger.TenantID(p.TenantID),
					logger.String("requested_tenant", tenantID),
					logger.Path(r.URL.Path),
				)
				writeError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// bodyTenantID peeks at a JSON body for empresa_id and restores the body
// for the handler.
func bodyTenantID(r *http.Request) (string, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", false
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxGateBody))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return "", false
	}

	var envelope struct {
		TenantID *json.RawMessage `json:"empresa_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.TenantID == nil {
		return "", false
	}
	// Numbers and strings are both accepted as tenant ids.
	v := strings.Trim(strings.TrimSpace(string(*envelope.TenantID)), `"`)
	if v == "" || v == "null" {
		return "", false
	}
	return v, true
}

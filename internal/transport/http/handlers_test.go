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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/bootstrap"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/ratelimit"
	"github.com/linkspace/linkspace/internal/reservation"
	"github.com/linkspace/linkspace/internal/space"
	"github.com/linkspace/linkspace/internal/store/memory"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/linkspace/linkspace/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HTTP API TESTS
// Category: Authentication, Authorization & Reservations over HTTP
// Type: Unit Test (UT) against the full router with in-memory stores
// =============================================================================

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testServer struct {
	router     http.Handler
	tokens     *token.Service
	spaceRepo  *memory.SpaceRepository
	limitClock *clock
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()
	ctx := context.Background()

	auditSvc := audit.NewService(memory.NewAuditRepository(), nil, nil)
	tenantSvc := tenant.NewService(memory.NewTenantRepository(), auditSvc)
	identitySvc, err := identity.NewService(memory.NewUserRepository(), tenantSvc,
		identity.NewPasswordHasher(1024, 1, 1, 16, 32), auditSvc, nil)
	require.NoError(t, err)
	spaceRepo := memory.NewSpaceRepository()
	spaceSvc := space.NewService(spaceRepo, auditSvc)
	reservationSvc := reservation.NewService(memory.NewReservationRepository(), spaceSvc, identitySvc, auditSvc, nil)

	tokens, err := token.NewService(token.Config{
		AccessSecret:  "access-secret-for-tests-0123456789abcdef",
		RefreshSecret: "refresh-secret-for-tests-0123456789abcdef",
		Issuer:        "linkspace",
	}, memory.NewRevocationStore(nil), token.WithSubjectResolver(identitySvc.ResolveSubject))
	require.NoError(t, err)

	require.NoError(t, bootstrap.NewSeeder(identitySvc, spaceSvc).Run(ctx))

	limitClock := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	h := NewHandler(identitySvc, tenantSvc, spaceSvc, reservationSvc, auditSvc, tokens)
	cfg := RouterConfig{
		ServiceName:  "linkspace-test",
		LoginLimiter: ratelimit.NewWindow(5, time.Minute, ratelimit.WithClock(limitClock.Now)),
		Metrics:      metrics.NewHTTPMetrics("linkspace-test"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router := NewRouter(h, cfg)

	return &testServer{router: router, tokens: tokens, spaceRepo: spaceRepo, limitClock: limitClock}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email, password string) TokenResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) spaceID(t *testing.T, tenantID, name string) string {
	t.Helper()
	spaces, err := s.spaceRepo.ListByTenant(context.Background(), tenantID, true)
	require.NoError(t, err)
	for _, sp := range spaces {
		if sp.Name == name {
			return sp.ID
		}
	}
	t.Fatalf("space %q not seeded in tenant %s", name, tenantID)
	return ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l), w.Body.String())
	return l
}

func booking(spaceID, start, end string) map[string]any {
	return map[string]any{
		"space_id":     spaceID,
		"start_date":   start,
		"end_date":     end,
		"participants": 4,
		"description":  "Planning",
	}
}

// TestPurpose: Validates that the health endpoint and Prometheus metrics are publicly reachable.
// Scope: Unit Test
// Security: None (public surface)
// Expected: /health returns 200 healthy; /metrics exposes http_requests_total.
// Test Case ID: HTTP-00
func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

// TestPurpose: Validates admin login and that the admin area only lists the admin's own tenant.
// Scope: Unit Test
// Security: Tenant isolation (P1)
// Expected: Token claims carry role admin and empresa_id 1; /admin/spaces returns only tenant 1 spaces.
// Test Case ID: HTTP-01
func TestScenarioA_AdminLoginAndTenantScopedSpaces(t *testing.T) {
	s := newTestServer(t)

	resp := s.login(t, "admin@linkspace.com", "admin123")
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(15*60), resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "1", resp.User.TenantID)

	claims, err := s.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "1", claims.TenantID)

	w := s.do(t, http.MethodGet, "/admin/spaces", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	spaces := decodeList(t, w)
	require.Len(t, spaces, 3)
	for _, sp := range spaces {
		assert.Equal(t, "1", sp["empresa_id"])
	}
}

// TestPurpose: Validates that login failures are indistinguishable and malformed bodies are rejected.
// Scope: Unit Test
// Security: User enumeration resistance
// Expected: Unknown email and wrong password both yield 401 "Invalid credentials"; bad JSON yields 400.
// Test Case ID: HTTP-02
func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)

	unknown := s.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "ghost@linkspace.com", Password: "admin123"})
	wrong := s.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "admin@linkspace.com", Password: "nope1234"})
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Equal(t, "Invalid credentials", decode(t, wrong)["error"])

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{invalid_json}`)))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", decode(t, w)["error"])
}

// TestPurpose: Validates the login rate limit of 5 attempts per minute per IP.
// Scope: Unit Test
// Security: Brute-force mitigation
// Expected: Attempts 1-5 carry decreasing X-RateLimit-Remaining, the 6th gets 429 with Retry-After, a later attempt passes.
// Test Case ID: HTTP-03
func TestScenarioD_LoginRateLimit(t *testing.T) {
	s := newTestServer(t)
	creds := LoginRequest{Email: "admin@linkspace.com", Password: "wrong-password"}

	for i := 1; i <= 5; i++ {
		w := s.do(t, http.MethodPost, "/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(5-i), w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := s.do(t, http.MethodPost, "/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retry)
	assert.LessOrEqual(t, retry, 60)

	s.limitClock.Advance(61 * time.Second)
	resp := s.login(t, "admin@linkspace.com", "admin123")
	assert.NotEmpty(t, resp.AccessToken)
}

// TestPurpose: Validates that a logged-out access token is rejected as revoked.
// Scope: Unit Test
// Security: Token revocation (P3)
// Expected: After logout, the same token yields 401 "Token revoked".
// Test Case ID: HTTP-04
func TestScenarioE_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	resp := s.login(t, "usuario@linkspace.com", "usuario123")

	w := s.do(t, http.MethodGet, "/me", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", decode(t, w)["empresa_id"])

	w = s.do(t, http.MethodPost, "/auth/logout", resp.AccessToken, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token revoked", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", decode(t, w)["error"])
}

// TestPurpose: Validates the authentication gate messages.
// Scope: Unit Test
// Security: Authentication enforcement
// Expected: Missing bearer yields "Token required", a garbage token yields "Invalid token", both 401.
// Test Case ID: HTTP-05
func TestAuthMiddleware_Rejections(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/reservas", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token required", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/reservas", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["error"])

	resp := s.login(t, "usuario@linkspace.com", "usuario123")
	w = s.do(t, http.MethodGet, "/reservas", resp.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens are not access tokens")
}

// TestPurpose: Validates the tenant gate on path, query and body tenant ids.
// Scope: Unit Test
// Security: Tenant isolation (P1), admins included
// Expected: Any empresa_id other than the caller's yields 403 with the cross-tenant message.
// Test Case ID: HTTP-06
func TestTenantGate_PathQueryBody(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@linkspace.com", "admin123").AccessToken
	const denied = "Acesso negado: recurso pertence a outra empresa"

	w := s.do(t, http.MethodGet, "/empresas/1", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/empresas/2", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, denied, decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/empresas/2/spaces", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/reservas?empresa_id=2", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, denied, decode(t, w)["error"])

	body := booking(s.spaceID(t, "1", "Auditorio"), "2030-01-10T10:00:00Z", "2030-01-10T12:00:00Z")
	body["empresa_id"] = "2"
	w = s.do(t, http.MethodPost, "/reservas", admin, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, denied, decode(t, w)["error"])

	body["empresa_id"] = "1"
	w = s.do(t, http.MethodPost, "/reservas", admin, body)
	assert.Equal(t, http.StatusCreated, w.Code, "the body is restored for the handler")
}

// TestPurpose: Validates that a member cannot book a space of another tenant.
// Scope: Unit Test
// Security: Tenant isolation (P1)
// Expected: 403 cross-tenant, and no reservation exists in either tenant afterwards.
// Test Case ID: HTTP-07
func TestScenarioB_CrossTenantReservation(t *testing.T) {
	s := newTestServer(t)
	member := s.login(t, "usuario@linkspace.com", "usuario123").AccessToken
	foreign := s.spaceID(t, "2", "Sala Executiva")

	w := s.do(t, http.MethodPost, "/reservas", member, booking(foreign, "2030-01-10T10:00:00Z", "2030-01-10T11:00:00Z"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin2 := s.login(t, "admin@parceira.com", "admin123").AccessToken
	w = s.do(t, http.MethodGet, "/reservas", admin2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeList(t, w))
}

// TestPurpose: Validates overlap detection with half-open intervals over HTTP.
// Scope: Unit Test
// Security: Data integrity (P5)
// Expected: Overlap yields 409 with the existing interval in details; a touching booking succeeds.
// Test Case ID: HTTP-08
func TestScenarioC_OverlapAndTouchingBoundary(t *testing.T) {
	s := newTestServer(t)
	member := s.login(t, "usuario@linkspace.com", "usuario123").AccessToken
	room := s.spaceID(t, "1", "Sala de Reuniao A")

	w := s.do(t, http.MethodPost, "/reservas", member, booking(room, "2030-01-10T10:00:00Z", "2030-01-10T12:00:00Z"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode(t, w)
	assert.Equal(t, "pendente", first["status"])
	assert.Equal(t, "1", first["empresa_id"])

	w = s.do(t, http.MethodPost, "/reservas", member, booking(room, "2030-01-10T11:00:00Z", "2030-01-10T13:00:00Z"))
	require.Equal(t, http.StatusConflict, w.Code)
	details, ok := decode(t, w)["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2030-01-10T10:00:00Z", details["start_date"])
	assert.Equal(t, "2030-01-10T12:00:00Z", details["end_date"])

	w = s.do(t, http.MethodPost, "/reservas", member, booking(room, "2030-01-10T12:00:00Z", "2030-01-10T13:00:00Z"))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/reservas/"+first["id"].(string)+"/cancel", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelada", decode(t, w)["status"])

	w = s.do(t, http.MethodPost, "/reservas", member, booking(room, "2030-01-10T11:00:00Z", "2030-01-10T12:00:00Z"))
	assert.Equal(t, http.StatusCreated, w.Code, "cancelled reservations free their slot")
}

// TestPurpose: Validates field-level validation errors on reservation creation.
// Scope: Unit Test
// Security: Input validation
// Expected: 400 with error "ValidationError" and per-field details.
// Test Case ID: HTTP-09
func TestCreateReservation_ValidationDetails(t *testing.T) {
	s := newTestServer(t)
	member := s.login(t, "usuario@linkspace.com", "usuario123").AccessToken

	w := s.do(t, http.MethodPost, "/reservas", member, map[string]any{"participants": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ValidationError", body["error"])
	details, ok := body["details"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, details)

	w = s.do(t, http.MethodGet, "/reservas?from=yesterday", member, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates that members cannot reach admin-only operations.
// Scope: Unit Test
// Security: Role escalation denial (P2)
// Expected: 403 "Access denied" for the admin area, space creation and user listing; approving twice yields 409.
// Test Case ID: HTTP-10
func TestRoleGate_MemberDenied(t *testing.T) {
	s := newTestServer(t)
	member := s.login(t, "usuario@linkspace.com", "usuario123").AccessToken

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/admin/dashboard"},
		{http.MethodGet, "/admin/audit-logs"},
		{http.MethodPost, "/spaces"},
		{http.MethodGet, "/users"},
	} {
		w := s.do(t, tc.method, tc.path, member, map[string]any{"name": "x"})
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
		assert.Equal(t, "Access denied", decode(t, w)["error"], tc.path)
	}

	room := s.spaceID(t, "1", "Coworking")
	w := s.do(t, http.MethodPost, "/reservas", member, booking(room, "2030-02-01T09:00:00Z", "2030-02-01T10:00:00Z"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	// Owners may confirm their own booking, but only once.
	w = s.do(t, http.MethodPost, "/reservas/"+id+"/approve", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmada", decode(t, w)["status"])

	w = s.do(t, http.MethodPost, "/reservas/"+id+"/approve", member, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Invalid status transition", decode(t, w)["error"])
}

// TestPurpose: Validates refresh token rotation over HTTP.
// Scope: Unit Test
// Security: Refresh rotation (P4)
// Expected: The first refresh returns a new pair, replaying the consumed token yields 401.
// Test Case ID: HTTP-11
func TestRefresh_Rotation(t *testing.T) {
	s := newTestServer(t)
	resp := s.login(t, "admin@linkspace.com", "admin123")

	w := s.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var rotated TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	w = s.do(t, http.MethodGet, "/me", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates that created users and spaces land in the caller's tenant.
// Scope: Unit Test
// Security: Tenant-forced creation (P6)
// Expected: A foreign empresa_id on a user body is ignored; the user belongs to tenant 1.
// Test Case ID: HTTP-12
func TestCreateUser_TenantForced(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@linkspace.com", "admin123").AccessToken

	w := s.do(t, http.MethodPost, "/users", admin, map[string]any{
		"name":       "Nova Pessoa",
		"email":      "nova@linkspace.com",
		"password":   "senha1234",
		"empresa_id": "2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "1", created["empresa_id"])
	assert.NotContains(t, created, "password_hash")

	w = s.do(t, http.MethodPost, "/spaces", admin, map[string]any{
		"name":     "Sala Nova",
		"type":     "meeting_room",
		"capacity": 6,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "1", decode(t, w)["empresa_id"])

	w = s.do(t, http.MethodPost, "/users", admin, map[string]any{
		"name":     "Duplicada",
		"email":    "nova@linkspace.com",
		"password": "senha1234",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestPurpose: Validates the admin dashboard and the tenant-scoped audit log.
// Scope: Unit Test
// Security: Audit visibility limited to the admin's tenant
// Expected: Dashboard counts tenant 1 data; audit entries all belong to tenant 1 and include the LOGIN.
// Test Case ID: HTTP-13
func TestAdmin_DashboardAndAuditLogs(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "admin@parceira.com", "admin123")
	admin := s.login(t, "admin@linkspace.com", "admin123").AccessToken

	w := s.do(t, http.MethodGet, "/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, "1", dash.TenantID)
	assert.Equal(t, 2, dash.Users)
	assert.Equal(t, 3, dash.Spaces)
	assert.Equal(t, 0, dash.Reservations["total"])

	w = s.do(t, http.MethodGet, "/admin/audit-logs?action=LOGIN", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeList(t, w)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, "1", e["empresa_id"])
		assert.Equal(t, "LOGIN", e["action"])
	}

	w = s.do(t, http.MethodGet, "/admin/audit-logs?limit=zero", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates client IP extraction ignores forwarding headers by default.
// Scope: Unit Test
// Security: Rate limit key integrity
// Expected: The RemoteAddr host is used even when X-Forwarded-For and X-Real-IP are present.
// Test Case ID: HTTP-14
func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "10.0.0.7", getClientIP(req))

	req.RemoteAddr = "10.0.0.8"
	assert.Equal(t, "10.0.0.8", getClientIP(req))
}

func loginFrom(t *testing.T, s *testServer, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Email: "admin@linkspace.com", Password: "wrong-password"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = "198.51.100.20:40000"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// TestPurpose: Validates that rotating X-Forwarded-For does not reset the login limit of one socket.
// Scope: Unit Test
// Security: Brute-force protection (Scenario D), header spoofing
// Expected: The sixth attempt from the same RemoteAddr is 429 whatever X-Forwarded-For claims.
// Test Case ID: HTTP-15
func TestLoginRateLimit_IgnoresSpoofedForwardedFor(t *testing.T) {
	s := newTestServer(t)

	for i := 1; i <= 5; i++ {
		w := loginFrom(t, s, fmt.Sprintf("10.0.0.%d", i))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i)
	}
	for i := 6; i <= 20; i++ {
		w := loginFrom(t, s, fmt.Sprintf("10.0.0.%d", i))
		assert.Equal(t, http.StatusTooManyRequests, w.Code, "attempt %d", i)
	}
}

// TestPurpose: Validates that forwarding headers are honoured once a trusted proxy is configured.
// Scope: Unit Test
// Security: Rate limit keying behind a reverse proxy
// Expected: Distinct proxy-reported clients get separate login windows.
// Test Case ID: HTTP-16
func TestLoginRateLimit_TrustedProxy(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) { cfg.TrustProxy = true })

	for i := 1; i <= 5; i++ {
		w := loginFrom(t, s, "203.0.113.1")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(t, s, "203.0.113.1").Code)
	assert.Equal(t, http.StatusUnauthorized, loginFrom(t, s, "203.0.113.2").Code)
}

func TestRootType(t *testing.T) {
	err := fmt.Errorf("failed to update reservation: %w", fmt.Errorf("tx: %w", &apperr.ConflictError{}))
	assert.Equal(t, "*apperr.ConflictError", rootType(err))
	assert.Equal(t, "*errors.errorString", rootType(errors.New("boom")))
}

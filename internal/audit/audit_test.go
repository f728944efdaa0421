package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Append(ctx context.Context, e *Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, f Filter) ([]*Entry, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Entry), args.Error(1)
}

// TestPurpose: Validates that sensitive keys are correctly identified as secrets to prevent them from being logged in plaintext.
// Scope: Unit Test
// Security: Data Masking and Leakage Prevention (CWE-532)
// Expected: Returns true for keys containing 'password', 'token', 'secret', etc., and false for non-sensitive keys.
// Test Case ID: AUD-01
func TestAudit_IsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"refresh_token", true},
		{"secret", true},
		{"api_key", true},
		{"password_hash", true},
		{"credential", true},
		{"user_id", false},
		{"empresa_id", false},
		{"email", false},
		{"status", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.isSecret, isSecret(tt.key))
		})
	}
}

// TestPurpose: Validates that recorded entries are stamped, redacted and persisted.
// Scope: Unit Test
// Security: Audit trail integrity
// Expected: The stored entry has an ID, timestamp, client IP and a redacted password.
// Test Case ID: AUD-02
func TestService_Record(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, nil, nil)
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	repo.On("Append", ctx, mock.MatchedBy(func(e *Entry) bool {
		return e.ID != "" &&
			!e.CreatedAt.IsZero() &&
			e.IPAddress == "10.0.0.1" &&
			e.Detail["password"] == "[REDACTED]" &&
			e.Detail["email"] == "a@b.c"
	})).Return(nil)

	err := svc.Record(ctx, Entry{
		ActorID:      "user-1",
		TenantID:     "1",
		Action:       ActionUpdate,
		ResourceType: ResourceUser,
		ResourceID:   "user-1",
		Detail:       map[string]any{"password": "hunter2", "email": "a@b.c"},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_RecordRequiresTenant(t *testing.T) {
	svc := NewService(new(mockRepo), nil, nil)
	assert.Error(t, svc.Record(context.Background(), Entry{Action: ActionLogin}))
}

func TestService_LogSwallowsStoreErrors(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, nil, nil)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	assert.NotPanics(t, func() {
		svc.Log(context.Background(), Entry{TenantID: "1", Action: ActionLogin, ResourceType: ResourceAuth})
	})
	assert.Error(t, svc.Record(context.Background(), Entry{TenantID: "1", Action: ActionLogin}))
}

// TestPurpose: Validates that the AUDIT_EVENT log line is only written for entries that were stored.
// Scope: Unit Test
// Security: Audit trail integrity (CWE-778)
// Expected: A failed append leaves no AUDIT_EVENT line; a successful append writes exactly one.
// Test Case ID: AUD-04
func TestService_MirrorsOnlyStoredEntries(t *testing.T) {
	var buf bytes.Buffer
	mirror := logger.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	entry := Entry{TenantID: "1", Action: ActionLogin, ResourceType: ResourceAuth}

	failing := new(mockRepo)
	failing.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	require.Error(t, NewService(failing, mirror, nil).Record(context.Background(), entry))
	assert.NotContains(t, buf.String(), "AUDIT_EVENT")

	ok := new(mockRepo)
	ok.On("Append", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, NewService(ok, mirror, nil).Record(context.Background(), entry))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("AUDIT_EVENT")))
}

// TestPurpose: Validates that audit queries are admin-only and always scoped to the caller's tenant.
// Scope: Unit Test
// Security: Tenant isolation of the audit trail (CWE-639)
// Expected: Non-admins get ErrForbidden; a requested foreign tenant is replaced by the caller's.
// Test Case ID: AUD-03
func TestService_QueryForcesTenant(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	admin := authz.Principal{SubjectID: "a1", TenantID: "1", Role: authz.RoleAdmin}
	user := authz.Principal{SubjectID: "u1", TenantID: "1", Role: authz.RoleUser}

	_, err := svc.Query(ctx, user, Filter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	repo.On("List", ctx, Filter{TenantID: "1", Action: ActionLogin, Limit: MaxLimit}).
		Return([]*Entry{{ID: "e1", TenantID: "1"}}, nil)

	entries, err := svc.Query(ctx, admin, Filter{TenantID: "2", Action: ActionLogin, Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

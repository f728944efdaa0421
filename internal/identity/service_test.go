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

package identity_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/store/memory"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *identity.Service
	users   *memory.UserRepository
	tenants *tenant.Service
	audits  *memory.AuditRepository
	admin1  *identity.User
	member1 *identity.User
	admin2  *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	auditRepo := memory.NewAuditRepository()
	auditSvc := audit.NewService(auditRepo, nil, nil)
	tenants := tenant.NewService(memory.NewTenantRepository(), auditSvc)
	users := memory.NewUserRepository()
	// Cheap parameters keep the suite fast.
	hasher := identity.NewPasswordHasher(1024, 1, 1, 16, 32)

	svc, err := identity.NewService(users, tenants, hasher, auditSvc, nil)
	require.NoError(t, err)

	a1, err := svc.EnsureAdmin(ctx, identity.BootstrapAdmin{
		TenantID: "1", TenantName: "Empresa 1", Name: "Admin 1",
		Email: "admin@linkspace.com", Password: "admin123",
	})
	require.NoError(t, err)
	m1, err := svc.EnsureMember(ctx, "1", "Member 1", "member@linkspace.com", "member123")
	require.NoError(t, err)
	a2, err := svc.EnsureAdmin(ctx, identity.BootstrapAdmin{
		TenantID: "2", TenantName: "Empresa 2", Name: "Admin 2",
		Email: "admin2@linkspace.com", Password: "admin123",
	})
	require.NoError(t, err)

	return &fixture{svc: svc, users: users, tenants: tenants, audits: auditRepo, admin1: a1, member1: m1, admin2: a2}
}

func (f *fixture) auditActions(t *testing.T, tenantID string) []string {
	t.Helper()
	entries, err := f.audits.List(context.Background(), audit.Filter{TenantID: tenantID})
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

// TestPurpose: Validates login with valid credentials and the uniform failure for every invalid case.
// Scope: Unit Test
// Security: Account enumeration resistance (uniform error)
// Expected: Valid login returns the principal; wrong password, unknown email and inactive user all yield ErrInvalidCredentials.
// Test Case ID: ID-01
func TestIdentity_Service_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Authenticate(ctx, "  ADMIN@linkspace.com ", "admin123")
	require.NoError(t, err)
	assert.Equal(t, f.admin1.ID, res.Principal.SubjectID)
	assert.Equal(t, "1", res.Principal.TenantID)
	assert.Equal(t, authz.RoleAdmin, res.Principal.Role)
	assert.Equal(t, "1", res.Tenant.ID)

	_, err = f.svc.Authenticate(ctx, "admin@linkspace.com", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "nobody@linkspace.com", "admin123")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	admin1 := f.admin1.Principal()
	_, err = f.svc.DeactivateUser(ctx, f.member1.ID, admin1)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "member@linkspace.com", "member123")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	actions := f.auditActions(t, "1")
	assert.Contains(t, actions, audit.ActionLogin)
	assert.Contains(t, actions, audit.ActionLoginFailed)
}

// TestPurpose: Validates that registration creates a tenant with an admin and rejects duplicate emails.
// Scope: Unit Test
// Security: Global email uniqueness
// Expected: First registration succeeds as admin; a second one with the same email yields ErrDuplicateEmail.
// Test Case ID: ID-02
func TestIdentity_Service_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := identity.RegisterInput{
		Tenant:   tenant.CreateInput{Name: "Acme"},
		Name:     "Owner",
		Email:    "Owner@Acme.com",
		Password: "s3cret-pass",
	}
	res, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.com", res.User.Email)
	assert.Equal(t, authz.RoleAdmin, res.User.Role)
	assert.Equal(t, res.Tenant.ID, res.User.TenantID)
	assert.NotContains(t, res.User.PasswordHash, "s3cret-pass")
	assert.True(t, strings.HasPrefix(res.User.PasswordHash, "$argon2id$"))

	_, err = f.svc.Register(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	_, err = f.svc.Register(ctx, identity.RegisterInput{Tenant: tenant.CreateInput{Name: "X"}, Email: "bad", Password: "short"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]bool{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["name"])
}

// TestPurpose: Validates that an admin creates users only inside their own tenant.
// Scope: Unit Test
// Security: Tenant isolation on user creation
// Expected: The created user belongs to the admin's tenant; a regular user gets ErrForbidden.
// Test Case ID: ID-03
func TestIdentity_Service_CreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.CreateUser(ctx, identity.CreateUserInput{
		Name: "New", Email: "new@linkspace.com", Password: "password1", Role: "usuario",
	}, f.admin2.Principal())
	require.NoError(t, err)
	assert.Equal(t, "2", u.TenantID)
	assert.Equal(t, authz.RoleUser, u.Role)

	_, err = f.svc.CreateUser(ctx, identity.CreateUserInput{
		Name: "Other", Email: "other@linkspace.com", Password: "password1",
	}, f.member1.Principal())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

// TestPurpose: Validates cross-tenant user access is denied and ownership rules apply inside a tenant.
// Scope: Unit Test
// Security: Tenant isolation and least privilege
// Expected: Admin of tenant 2 gets ErrCrossTenant for a tenant 1 user; member cannot read the admin; member can read self.
// Test Case ID: ID-04
func TestIdentity_Service_GetUser_Isolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetUser(ctx, f.member1.ID, f.admin2.Principal())
	assert.ErrorIs(t, err, apperr.ErrCrossTenant)

	_, err = f.svc.GetUser(ctx, f.admin1.ID, f.member1.Principal())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	self, err := f.svc.GetUser(ctx, f.member1.ID, f.member1.Principal())
	require.NoError(t, err)
	assert.Equal(t, f.member1.Email, self.Email)

	_, err = f.svc.GetUser(ctx, "missing", f.admin1.Principal())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := f.svc.ListUsers(ctx, f.admin1.Principal())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// TestPurpose: Validates self-service updates and the admin-only fields.
// Scope: Unit Test
// Security: Privilege escalation prevention
// Expected: A member can rename themself but cannot change their role; admin can promote; email collisions are rejected.
// Test Case ID: ID-05
func TestIdentity_Service_UpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "Renamed"
	role := authz.RoleAdmin
	email := "admin@linkspace.com"

	u, err := f.svc.UpdateUser(ctx, f.member1.ID, identity.UserPatch{Name: &name}, f.member1.Principal())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)

	_, err = f.svc.UpdateUser(ctx, f.member1.ID, identity.UserPatch{Role: &role}, f.member1.Principal())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.UpdateUser(ctx, f.member1.ID, identity.UserPatch{Email: &email}, f.member1.Principal())
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	u, err = f.svc.UpdateUser(ctx, f.member1.ID, identity.UserPatch{Role: &role}, f.admin1.Principal())
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, u.Role)

	inactive := identity.StatusInactive
	_, err = f.svc.UpdateUser(ctx, f.admin1.ID, identity.UserPatch{Status: &inactive}, f.admin1.Principal())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// TestPurpose: Validates that the refresh resolver rejects deactivated users and picks up role changes.
// Scope: Unit Test
// Security: Revocation of access after deactivation
// Expected: ResolveSubject returns the current role; after deactivation it fails.
// Test Case ID: ID-06
func TestIdentity_Service_ResolveSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.ResolveSubject(ctx, f.member1.Principal())
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, p.Role)

	_, err = f.svc.DeactivateUser(ctx, f.member1.ID, f.admin1.Principal())
	require.NoError(t, err)
	_, err = f.svc.ResolveSubject(ctx, f.member1.Principal())
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestIdentity_Service_EnsureAdmin_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	again, err := f.svc.EnsureAdmin(ctx, identity.BootstrapAdmin{
		TenantID: "1", Email: "admin@linkspace.com", Password: "other",
	})
	require.NoError(t, err)
	assert.Equal(t, f.admin1.ID, again.ID)
}

func TestPasswordHasher_Verify(t *testing.T) {
	h := identity.NewPasswordHasher(1024, 1, 1, 16, 32)
	hash, err := h.Hash("admin123")
	require.NoError(t, err)

	assert.True(t, h.Verify("admin123", hash))
	assert.False(t, h.Verify("admin124", hash))
	assert.False(t, h.Verify("", hash))
	assert.False(t, h.Verify("admin123", "not-a-hash"))
	assert.False(t, h.Verify("admin123", strings.Replace(hash, "v=19", "v=18", 1)))

	other, err := h.Hash("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ")
}

// TestPurpose: Validates that stored digests cannot force unbounded Argon2 work.
// Scope: Unit Test
// Security: Resource exhaustion via tampered password hashes (CWE-400)
// Expected: Digests whose memory, time, parallelism or key length exceed the hasher's bounds fail verification; stronger digests within bounds still verify.
// Test Case ID: ID-07
func TestPasswordHasher_Verify_BoundsCost(t *testing.T) {
	h := identity.NewPasswordHasher(1024, 1, 1, 16, 32)
	hash, err := h.Hash("admin123")
	require.NoError(t, err)

	for _, params := range []string{
		"m=4294967295,t=1,p=1",
		"m=1024,t=4294967295,p=1",
		"m=1024,t=1,p=255",
	} {
		tampered := strings.Replace(hash, "m=1024,t=1,p=1", params, 1)
		assert.False(t, h.Verify("admin123", tampered), params)
	}

	sections := strings.Split(hash, "$")
	sections[5] = base64.RawStdEncoding.EncodeToString(make([]byte, 4096))
	assert.False(t, h.Verify("admin123", strings.Join(sections, "$")))

	stronger, err := identity.NewPasswordHasher(2048, 2, 2, 16, 32).Hash("admin123")
	require.NoError(t, err)
	assert.True(t, h.Verify("admin123", stronger))
}

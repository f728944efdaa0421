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

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/id"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/observability/tracing"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/linkspace/linkspace/internal/validation"
)

// TenantDirectory is the part of the tenant service identity depends on
type TenantDirectory interface {
	Lookup(ctx context.Context, tenantID string) (*tenant.Tenant, error)
	Create(ctx context.Context, in tenant.CreateInput) (*tenant.Tenant, error)
}

// Service provides identity-related business logic
type Service struct {
	repo        UserRepository
	tenants     TenantDirectory
	hasher      *PasswordHasher
	auditLogger audit.Logger
	inst        *metrics.Instruments
	dummyHash   string
	now         func() time.Time
}

// NewService creates a new identity service
func NewService(
	repo UserRepository,
	tenants TenantDirectory,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	inst *metrics.Instruments,
) (*Service, error) {
	if inst == nil {
		inst = metrics.NoopInstruments()
	}
	// Verified against for unknown emails so both failure paths cost the same.
	dummy, err := hasher.Hash("linkspace-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	return &Service{
		repo:        repo,
		tenants:     tenants,
		hasher:      hasher,
		auditLogger: auditLogger,
		inst:        inst,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// FindUserByEmail returns the user with email, or nil when there is none.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Authenticate checks email and password. Every failure, including an
// inactive user or tenant, is reported as apperr.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx, span := tracing.Tracer("identity").Start(ctx, "identity.Authenticate")
	res, err := s.authenticate(ctx, email, password)
	tracing.End(span, err)
	return res, err
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		s.inst.LoginFailure.Add(ctx, 1)
		slog.InfoContext(ctx, "login failed", logger.String("reason", "unknown_email"))
		return nil, apperr.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, user, "invalid_password")
		return nil, apperr.ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.loginFailed(ctx, user, "user_inactive")
		return nil, apperr.ErrInvalidCredentials
	}

	t, err := s.tenants.Lookup(ctx, user.TenantID)
	if err != nil {
		if errors.Is(err, apperr.ErrTenantNotFound) {
			s.loginFailed(ctx, user, "tenant_missing")
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !t.IsActive() {
		s.loginFailed(ctx, user, "tenant_inactive")
		return nil, apperr.ErrInvalidCredentials
	}

	s.inst.LoginSuccess.Add(ctx, 1)
	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      user.ID,
		TenantID:     user.TenantID,
		Action:       audit.ActionLogin,
		ResourceType: audit.ResourceAuth,
		ResourceID:   user.ID,
	})

	return &AuthResult{User: user, Tenant: t, Principal: user.Principal()}, nil
}

func (s *Service) loginFailed(ctx context.Context, user *User, reason string) {
	s.inst.LoginFailure.Add(ctx, 1)
	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      user.ID,
		TenantID:     user.TenantID,
		Action:       audit.ActionLoginFailed,
		ResourceType: audit.ResourceAuth,
		ResourceID:   user.ID,
		Detail:       map[string]any{audit.AttrReason: reason},
	})
}

// Register creates a new tenant and its first admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	t, err := s.tenants.Create(ctx, in.Tenant)
	if err != nil {
		return nil, err
	}

	user, err := s.insert(ctx, t.ID, in.Name, in.Email, hash, authz.RoleAdmin)
	if err != nil {
		slog.WarnContext(ctx, "registration left a tenant without users", logger.TenantID(t.ID), logger.Error(err))
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      user.ID,
		TenantID:     t.ID,
		Action:       audit.ActionRegister,
		ResourceType: audit.ResourceTenant,
		ResourceID:   t.ID,
		Detail:       map[string]any{audit.AttrEmail: user.Email},
	})

	return &AuthResult{User: user, Tenant: t, Principal: user.Principal()}, nil
}

// CreateUser adds a member to the actor's tenant. Admin only.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput, actor authz.Principal) (*User, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	role := authz.RoleUser
	if in.Role != "" {
		role = authz.NormalizeRole(in.Role)
	}

	if _, err := s.tenants.Lookup(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	existing, err := s.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.insert(ctx, actor.TenantID, in.Name, in.Email, hash, role)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     actor.TenantID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceUser,
		ResourceID:   user.ID,
		Detail:       map[string]any{audit.AttrEmail: user.Email, "role": user.Role},
	})
	return user, nil
}

func (s *Service) insert(ctx context.Context, tenantID, name, email, hash, role string) (*User, error) {
	now := s.now().UTC()
	user := &User{
		ID:           id.NewUUIDv7(),
		TenantID:     tenantID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user of the actor's tenant. Users may read only
// themselves; admins may read anyone in their tenant.
func (s *Service) GetUser(ctx context.Context, userID string, actor authz.Principal) (*User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(actor, user.TenantID, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns the users of the actor's tenant. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor authz.Principal) ([]*User, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.repo.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser applies patch to a user. Self-service may change name, email
// and password; role and status require an admin of the same tenant.
func (s *Service) UpdateUser(ctx context.Context, userID string, patch UserPatch, actor authz.Principal) (*User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(actor, user.TenantID, user.ID); err != nil {
		return nil, err
	}
	if (patch.Role != nil || patch.Status != nil) && !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	var changed []string
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "is required")
		}
		if name != user.Name {
			user.Name = name
			changed = append(changed, "name")
		}
	}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email != user.Email {
			other, err := s.FindUserByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, apperr.ErrDuplicateEmail
			}
			user.Email = email
			changed = append(changed, "email")
		}
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}
	if patch.Role != nil {
		role := authz.NormalizeRole(*patch.Role)
		if role != user.Role {
			user.Role = role
			changed = append(changed, "role")
		}
	}
	if patch.Status != nil && *patch.Status != user.Status {
		if *patch.Status == StatusInactive && actor.Owns(user.ID) {
			return nil, apperr.Invalid("status", "cannot deactivate your own account")
		}
		user.Status = *patch.Status
		changed = append(changed, "status")
	}

	if len(changed) == 0 {
		return user, nil
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     user.TenantID,
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourceUser,
		ResourceID:   user.ID,
		Detail:       map[string]any{audit.AttrFields: changed},
	})
	return user, nil
}

// DeactivateUser flips a user to inactive. Admin only; an admin cannot
// deactivate themself.
func (s *Service) DeactivateUser(ctx context.Context, userID string, actor authz.Principal) (*User, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor, user.TenantID); err != nil {
		return nil, err
	}
	if actor.Owns(user.ID) {
		return nil, apperr.Invalid("id", "cannot deactivate your own account")
	}
	if !user.IsActive() {
		return user, nil
	}

	user.Status = StatusInactive
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     user.TenantID,
		Action:       audit.ActionDeactivate,
		ResourceType: audit.ResourceUser,
		ResourceID:   user.ID,
	})
	return user, nil
}

// ResolveSubject reloads the principal for a token refresh. It fails when
// the user or tenant can no longer sign in.
func (s *Service) ResolveSubject(ctx context.Context, p authz.Principal) (authz.Principal, error) {
	user, err := s.load(ctx, p.SubjectID)
	if err != nil {
		return authz.Principal{}, err
	}
	if !user.IsActive() || user.TenantID != p.TenantID {
		return authz.Principal{}, apperr.ErrInvalidCredentials
	}
	t, err := s.tenants.Lookup(ctx, user.TenantID)
	if err != nil {
		return authz.Principal{}, err
	}
	if !t.IsActive() {
		return authz.Principal{}, apperr.ErrInvalidCredentials
	}
	return user.Principal(), nil
}

func (s *Service) load(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Lookup returns a user without tenant checks. Callers enforce them.
func (s *Service) Lookup(ctx context.Context, userID string) (*User, error) {
	return s.load(ctx, userID)
}

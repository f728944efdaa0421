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

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/tenant"
)

// BootstrapAdmin describes an admin account that must exist at startup.
type BootstrapAdmin struct {
	TenantID   string
	TenantName string
	Name       string
	Email      string
	Password   string
}

// EnsureAdmin creates the tenant and admin described by b when the email
// is not yet registered. It is idempotent.
func (s *Service) EnsureAdmin(ctx context.Context, b BootstrapAdmin) (*User, error) {
	if b.Email == "" {
		return nil, nil
	}

	existing, err := s.FindUserByEmail(ctx, b.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	t, err := s.tenants.Lookup(ctx, b.TenantID)
	if err != nil {
		if b.TenantID != "" && !errors.Is(err, apperr.ErrTenantNotFound) {
			return nil, err
		}
		t, err = s.tenants.Create(ctx, tenant.CreateInput{ID: b.TenantID, Name: b.TenantName})
		if err != nil {
			return nil, fmt.Errorf("failed to create bootstrap tenant: %w", err)
		}
	}

	hash, err := s.hasher.Hash(b.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	name := b.Name
	if name == "" {
		name = "Administrator"
	}

	user, err := s.insert(ctx, t.ID, name, NormalizeEmail(b.Email), hash, authz.RoleAdmin)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "bootstrapped admin account",
		logger.Email(user.Email),
		logger.TenantID(t.ID),
	)
	return user, nil
}

// EnsureMember is EnsureAdmin for a regular user of an existing tenant.
func (s *Service) EnsureMember(ctx context.Context, tenantID, name, email, password string) (*User, error) {
	existing, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if _, err := s.tenants.Lookup(ctx, tenantID); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.insert(ctx, tenantID, name, NormalizeEmail(email), hash, authz.RoleUser)
}

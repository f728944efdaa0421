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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/id"
	"github.com/linkspace/linkspace/internal/validation"
)

// Service provides tenant management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Create creates a new active tenant. It is reached only through
// registration and seeding, never directly by a tenant member.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Tenant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	tenantID := in.ID
	if tenantID == "" {
		tenantID = id.NewUUIDv7()
	} else if _, err := s.repo.GetByID(ctx, tenantID); err == nil {
		return nil, fmt.Errorf("tenant with id %s already exists", tenantID)
	}

	now := s.now().UTC()
	t := &Tenant{
		ID:        tenantID,
		Name:      in.Name,
		TaxID:     in.TaxID,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     in.Phone,
		Address:   in.Address,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return t, nil
}

// Get returns the actor's own tenant.
func (s *Service) Get(ctx context.Context, tenantID string, actor authz.Principal) (*Tenant, error) {
	if err := authz.RequireTenant(actor, tenantID); err != nil {
		return nil, err
	}
	return s.lookup(ctx, tenantID)
}

// Lookup returns a tenant without an actor. Used by authentication.
func (s *Service) Lookup(ctx context.Context, tenantID string) (*Tenant, error) {
	return s.lookup(ctx, tenantID)
}

func (s *Service) lookup(ctx context.Context, tenantID string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperr.ErrTenantNotFound) || errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}

// Update changes the actor's own tenant. Admin only.
func (s *Service) Update(ctx context.Context, tenantID string, patch Patch, actor authz.Principal) (*Tenant, error) {
	if err := authz.RequireTenant(actor, tenantID); err != nil {
		return nil, err
	}
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	t, err := s.lookup(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	changed := patch.apply(t)
	if len(changed) == 0 {
		return t, nil
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     t.ID,
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourceTenant,
		ResourceID:   t.ID,
		Detail:       map[string]any{audit.AttrFields: changed},
	})
	return t, nil
}

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

package space

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

// Service manages spaces
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new space service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger, now: time.Now}
}

// Create adds a space to the actor's tenant. Admin only.
func (s *Service) Create(ctx context.Context, in CreateInput, actor authz.Principal) (*Space, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sp := &Space{
		ID:          id.NewUUIDv7(),
		TenantID:    actor.TenantID,
		Name:        in.Name,
		Type:        in.Type,
		Capacity:    in.Capacity,
		Description: in.Description,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to create space: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     sp.TenantID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceSpace,
		ResourceID:   sp.ID,
		Detail:       map[string]any{"name": sp.Name, "capacity": sp.Capacity},
	})
	return sp, nil
}

// Get returns a space of the actor's tenant.
func (s *Service) Get(ctx context.Context, spaceID string, actor authz.Principal) (*Space, error) {
	sp, err := s.Lookup(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor, sp.TenantID); err != nil {
		return nil, err
	}
	return sp, nil
}

// Lookup returns a space without tenant checks. Callers enforce them.
func (s *Service) Lookup(ctx context.Context, spaceID string) (*Space, error) {
	sp, err := s.repo.GetByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return sp, nil
}

// List returns the spaces of the actor's tenant. Inactive spaces are only
// listed for admins.
func (s *Service) List(ctx context.Context, actor authz.Principal) ([]*Space, error) {
	if actor.TenantID == "" {
		return nil, apperr.ErrCrossTenant
	}
	spaces, err := s.repo.ListByTenant(ctx, actor.TenantID, actor.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	return spaces, nil
}

// Update changes a space. Admin only, same tenant.
func (s *Service) Update(ctx context.Context, spaceID string, patch Patch, actor authz.Principal) (*Space, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	sp, err := s.Get(ctx, spaceID, actor)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	var changed []string
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != sp.Name {
		sp.Name = strings.TrimSpace(*patch.Name)
		changed = append(changed, "name")
	}
	if patch.Type != nil && *patch.Type != sp.Type {
		sp.Type = *patch.Type
		changed = append(changed, "type")
	}
	if patch.Capacity != nil && *patch.Capacity != sp.Capacity {
		sp.Capacity = *patch.Capacity
		changed = append(changed, "capacity")
	}
	if patch.Description != nil && *patch.Description != sp.Description {
		sp.Description = *patch.Description
		changed = append(changed, "description")
	}
	if patch.Status != nil && *patch.Status != sp.Status {
		sp.Status = *patch.Status
		changed = append(changed, "status")
	}
	if len(changed) == 0 {
		return sp, nil
	}

	sp.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to update space: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     sp.TenantID,
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourceSpace,
		ResourceID:   sp.ID,
		Detail:       map[string]any{audit.AttrFields: changed},
	})
	return sp, nil
}

// Deactivate stops a space from accepting reservations. Admin only.
func (s *Service) Deactivate(ctx context.Context, spaceID string, actor authz.Principal) (*Space, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	sp, err := s.Get(ctx, spaceID, actor)
	if err != nil {
		return nil, err
	}
	if !sp.IsActive() {
		return sp, nil
	}

	sp.Status = StatusInactive
	sp.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to deactivate space: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     sp.TenantID,
		Action:       audit.ActionDeactivate,
		ResourceType: audit.ResourceSpace,
		ResourceID:   sp.ID,
	})
	return sp, nil
}

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

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/tenant"
)

// TenantRepository is an in-memory tenant.Repository.
type TenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]tenant.Tenant
}

// NewTenantRepository creates an empty repository.
func NewTenantRepository() *TenantRepository {
	return &TenantRepository{tenants: make(map[string]tenant.Tenant)}
}

func (r *TenantRepository) Create(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[t.ID]; ok {
		return fmt.Errorf("tenant %s: %w", t.ID, apperr.ErrConflict)
	}
	r.tenants[t.ID] = *t
	return nil
}

func (r *TenantRepository) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return nil, apperr.ErrTenantNotFound
	}
	return &t, nil
}

func (r *TenantRepository) Update(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[t.ID]; !ok {
		return apperr.ErrTenantNotFound
	}
	r.tenants[t.ID] = *t
	return nil
}

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
	"sort"
	"sync"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/identity"
)

// UserRepository is an in-memory identity.UserRepository with a unique
// email index spanning all tenants.
type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]identity.User
	byEmail map[string]string
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]identity.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return apperr.ErrDuplicateEmail
	}
	if _, ok := r.users[u.ID]; ok {
		return apperr.ErrConflict
	}
	r.users[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

// Update rewrites the user. The tenant of a stored user never changes.
func (r *UserRepository) Update(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[u.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if old.Email != u.Email {
		if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
			return apperr.ErrDuplicateEmail
		}
		delete(r.byEmail, old.Email)
		r.byEmail[u.Email] = u.ID
	}
	next := *u
	next.TenantID = old.TenantID
	r.users[u.ID] = next
	return nil
}

func (r *UserRepository) ListByTenant(_ context.Context, tenantID string) ([]*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*identity.User{}
	for _, u := range r.users {
		if u.TenantID == tenantID {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

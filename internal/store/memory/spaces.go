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
	"github.com/linkspace/linkspace/internal/space"
)

// SpaceRepository is an in-memory space.Repository.
type SpaceRepository struct {
	mu     sync.RWMutex
	spaces map[string]space.Space
}

// NewSpaceRepository creates an empty repository.
func NewSpaceRepository() *SpaceRepository {
	return &SpaceRepository{spaces: make(map[string]space.Space)}
}

func (r *SpaceRepository) Create(_ context.Context, s *space.Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spaces[s.ID]; ok {
		return apperr.ErrConflict
	}
	r.spaces[s.ID] = *s
	return nil
}

func (r *SpaceRepository) GetByID(_ context.Context, id string) (*space.Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.spaces[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &s, nil
}

func (r *SpaceRepository) Update(_ context.Context, s *space.Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.spaces[s.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	next := *s
	next.TenantID = old.TenantID
	r.spaces[s.ID] = next
	return nil
}

func (r *SpaceRepository) ListByTenant(_ context.Context, tenantID string, includeInactive bool) ([]*space.Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*space.Space{}
	for _, s := range r.spaces {
		if s.TenantID != tenantID || (!includeInactive && !s.IsActive()) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

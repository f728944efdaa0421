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
	"maps"
	"sync"

	"github.com/linkspace/linkspace/internal/audit"
)

// AuditRepository is an append-only in-memory audit.Repository.
type AuditRepository struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

// NewAuditRepository creates an empty repository.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *e
	stored.Detail = maps.Clone(e.Detail)
	r.entries = append(r.entries, stored)
	return nil
}

// List returns matching entries, newest first.
func (r *AuditRepository) List(_ context.Context, f audit.Filter) ([]*audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*audit.Entry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if f.TenantID != "" && e.TenantID != f.TenantID {
			continue
		}
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.ResourceType != "" && e.ResourceType != f.ResourceType {
			continue
		}
		e.Detail = maps.Clone(e.Detail)
		out = append(out, &e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

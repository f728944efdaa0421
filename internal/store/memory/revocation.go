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
	"sync"
	"time"
)

// RevocationStore keeps revoked token IDs in memory until they expire.
type RevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewRevocationStore creates an empty store. A nil clock means time.Now.
func NewRevocationStore(now func() time.Time) *RevocationStore {
	if now == nil {
		now = time.Now
	}
	return &RevocationStore{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Revoke records jti until expiresAt. Returns false if already present.
func (s *RevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.entries[jti]; ok && exp.After(s.now()) {
		return false, nil
	}
	s.entries[jti] = expiresAt
	return true, nil
}

// IsRevoked reports whether jti is revoked and not yet expired.
func (s *RevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[jti]
	return ok && exp.After(s.now()), nil
}

// DeleteExpired drops entries whose token has expired.
func (s *RevocationStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for jti, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, jti)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries.
func (s *RevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

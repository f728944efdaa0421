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
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/reservation"
)

// ReservationRepository is an in-memory reservation.Repository. Writes
// touching a space hold that space's lock for the whole check-and-write.
type ReservationRepository struct {
	mu    sync.RWMutex
	byID  map[string]reservation.Reservation
	locks sync.Map // space ID -> *sync.Mutex
}

// NewReservationRepository creates an empty repository.
func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{byID: make(map[string]reservation.Reservation)}
}

// lockSpaces acquires the locks of the given spaces in a stable order.
func (r *ReservationRepository) lockSpaces(spaceIDs ...string) func() {
	ids := slices.Clone(spaceIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		m, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
		mu := m.(*sync.Mutex)
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (r *ReservationRepository) spaceSnapshot(spaceID string) []*reservation.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*reservation.Reservation{}
	for _, res := range r.byID {
		if res.SpaceID == spaceID {
			res := res
			out = append(out, &res)
		}
	}
	// Deterministic conflict reporting: earliest start wins.
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (r *ReservationRepository) InsertIfFree(_ context.Context, res *reservation.Reservation) error {
	unlock := r.lockSpaces(res.SpaceID)
	defer unlock()

	if c := reservation.FindConflict(r.spaceSnapshot(res.SpaceID), res); c != nil {
		return reservation.ConflictWith(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[res.ID]; ok {
		return apperr.ErrConflict
	}
	r.byID[res.ID] = *res
	return nil
}

func (r *ReservationRepository) UpdateIfFree(_ context.Context, res *reservation.Reservation) error {
	r.mu.RLock()
	old, ok := r.byID[res.ID]
	r.mu.RUnlock()
	if !ok {
		return apperr.ErrNotFound
	}

	unlock := r.lockSpaces(old.SpaceID, res.SpaceID)
	defer unlock()

	r.mu.RLock()
	old, ok = r.byID[res.ID]
	r.mu.RUnlock()
	if !ok {
		return apperr.ErrNotFound
	}
	if !old.Blocks() {
		return apperr.ErrInvalidTransition
	}
	if c := reservation.FindConflict(r.spaceSnapshot(res.SpaceID), res); c != nil {
		return reservation.ConflictWith(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	next := *res
	next.TenantID = old.TenantID
	next.UserID = old.UserID
	next.Status = old.Status
	next.CreatedAt = old.CreatedAt
	r.byID[res.ID] = next
	*res = next
	return nil
}

func (r *ReservationRepository) SetStatus(_ context.Context, id string, from []string, to string, at time.Time) (*reservation.Reservation, error) {
	r.mu.RLock()
	cur, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}

	unlock := r.lockSpaces(cur.SpaceID)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok = r.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if !slices.Contains(from, cur.Status) {
		return nil, apperr.ErrInvalidTransition
	}
	cur.Status = to
	cur.UpdatedAt = at
	r.byID[id] = cur
	return &cur, nil
}

func (r *ReservationRepository) GetByID(_ context.Context, id string) (*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &res, nil
}

// List returns matching reservations ordered by start time.
func (r *ReservationRepository) List(_ context.Context, f reservation.Filter) ([]*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*reservation.Reservation{}
	for _, res := range r.byID {
		if f.Matches(&res) {
			res := res
			out = append(out, &res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

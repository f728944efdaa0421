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

package reservation

import (
	"context"
	"time"

	"github.com/linkspace/linkspace/internal/apperr"
)

// Status values
const (
	StatusPending   = "pendente"
	StatusConfirmed = "confirmada"
	StatusCancelled = "cancelada"
)

// Reservation books a space for the half-open interval [Start, End).
// TenantID always equals the tenant of both the user and the space.
type Reservation struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"empresa_id"`
	SpaceID      string    `json:"space_id"`
	UserID       string    `json:"user_id"`
	Start        time.Time `json:"start_date"`
	End          time.Time `json:"end_date"`
	Participants int       `json:"participants"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Blocks reports whether the reservation occupies its space.
func (r *Reservation) Blocks() bool {
	return r.Status != StatusCancelled
}

// CreateInput is the request to book a space. There is no tenant field.
// UserID is optional and lets an admin book on behalf of a member.
type CreateInput struct {
	SpaceID      string `json:"space_id" validate:"required"`
	UserID       string `json:"user_id,omitempty"`
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date" validate:"required"`
	Participants int    `json:"participants" validate:"gte=1"`
	Description  string `json:"description" validate:"required,max=1000"`
}

// Patch lists the fields an owner or admin may change
type Patch struct {
	SpaceID      *string `json:"space_id,omitempty" validate:"omitempty,min=1"`
	StartDate    *string `json:"start_date,omitempty" validate:"omitempty,min=1"`
	EndDate      *string `json:"end_date,omitempty" validate:"omitempty,min=1"`
	Participants *int    `json:"participants,omitempty" validate:"omitempty,gte=1"`
	Description  *string `json:"description,omitempty" validate:"omitempty,min=1,max=1000"`
}

// Filter narrows a listing. TenantID is always forced by the service.
type Filter struct {
	TenantID string
	UserID   string
	SpaceID  string
	Status   string
	From     *time.Time
	To       *time.Time
}

// Repository persists reservations. InsertIfFree and UpdateIfFree run the
// overlap check and the write atomically per space.
type Repository interface {
	// InsertIfFree stores r unless a blocking reservation of the same space
	// overlaps it, in which case it returns a *apperr.ConflictError.
	InsertIfFree(ctx context.Context, r *Reservation) error

	// UpdateIfFree is InsertIfFree for an existing reservation; r itself is
	// excluded from the overlap check.
	UpdateIfFree(ctx context.Context, r *Reservation) error

	// SetStatus moves id from one of from to to. It returns
	// apperr.ErrInvalidTransition when the current status is not in from.
	SetStatus(ctx context.Context, id string, from []string, to string, at time.Time) (*Reservation, error)

	// GetByID returns apperr.ErrNotFound when missing.
	GetByID(ctx context.Context, id string) (*Reservation, error)

	List(ctx context.Context, f Filter) ([]*Reservation, error)
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect. Touching
// intervals do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// FindConflict returns the first blocking reservation in existing that
// overlaps candidate on the same space, ignoring candidate itself.
func FindConflict(existing []*Reservation, candidate *Reservation) *Reservation {
	for _, r := range existing {
		if r.ID == candidate.ID || r.SpaceID != candidate.SpaceID || !r.Blocks() {
			continue
		}
		if Overlaps(r.Start, r.End, candidate.Start, candidate.End) {
			return r
		}
	}
	return nil
}

// ConflictWith builds the error reported for an overlap with r.
func ConflictWith(r *Reservation) error {
	return &apperr.ConflictError{Start: r.Start, End: r.End}
}

// Matches reports whether r satisfies f. Shared by in-memory stores.
func (f Filter) Matches(r *Reservation) bool {
	if f.TenantID != "" && r.TenantID != f.TenantID {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.SpaceID != "" && r.SpaceID != f.SpaceID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.From != nil && !r.End.After(*f.From) {
		return false
	}
	if f.To != nil && !r.Start.Before(*f.To) {
		return false
	}
	return true
}

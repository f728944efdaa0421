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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/id"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/observability/tracing"
	"github.com/linkspace/linkspace/internal/space"
	"github.com/linkspace/linkspace/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SpaceDirectory resolves spaces without tenant checks
type SpaceDirectory interface {
	Lookup(ctx context.Context, spaceID string) (*space.Space, error)
}

// UserDirectory resolves users without tenant checks
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (*identity.User, error)
}

// Service implements reservation rules
type Service struct {
	repo        Repository
	spaces      SpaceDirectory
	users       UserDirectory
	auditLogger audit.Logger
	inst        *metrics.Instruments
	tracer      trace.Tracer
	now         func() time.Time
}

// NewService creates a new reservation service
func NewService(
	repo Repository,
	spaces SpaceDirectory,
	users UserDirectory,
	auditLogger audit.Logger,
	inst *metrics.Instruments,
) *Service {
	if inst == nil {
		inst = metrics.NoopInstruments()
	}
	return &Service{
		repo:        repo,
		spaces:      spaces,
		users:       users,
		auditLogger: auditLogger,
		inst:        inst,
		tracer:      tracing.Tracer("reservation"),
		now:         time.Now,
	}
}

// Create validates and books a reservation in the actor's tenant. The new
// reservation starts as pendente.
func (s *Service) Create(ctx context.Context, in CreateInput, actor authz.Principal) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Create",
		tracing.Tenant(actor.TenantID, actor.SubjectID),
		trace.WithAttributes(attribute.String("space_id", in.SpaceID)))

	r, err := s.create(ctx, in, actor)
	tracing.End(span, err)
	return r, err
}

func (s *Service) create(ctx context.Context, in CreateInput, actor authz.Principal) (*Reservation, error) {
	in.Description = strings.TrimSpace(in.Description)
	start, end, shapeErr := parseInterval(in.StartDate, in.EndDate)
	if err := validation.Merge(validation.Struct(in), shapeErr); err != nil {
		return nil, err
	}

	sp, err := s.spaces.Lookup(ctx, in.SpaceID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor, sp.TenantID); err != nil {
		return nil, err
	}
	if !sp.IsActive() {
		return nil, apperr.Invalid("space_id", "space is not active")
	}

	ownerID := actor.SubjectID
	if in.UserID != "" && in.UserID != actor.SubjectID {
		if !actor.IsAdmin() {
			return nil, apperr.ErrForbidden
		}
		target, err := s.users.Lookup(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if err := authz.RequireTenant(actor, target.TenantID); err != nil {
			return nil, err
		}
		if !target.IsActive() {
			return nil, apperr.Invalid("user_id", "user is not active")
		}
		ownerID = target.ID
	}

	if in.Participants > sp.Capacity {
		return nil, apperr.Invalid("participants", fmt.Sprintf("must not exceed space capacity of %d", sp.Capacity))
	}

	now := s.now().UTC()
	r := &Reservation{
		ID:           id.NewUUIDv7(),
		TenantID:     actor.TenantID,
		SpaceID:      sp.ID,
		UserID:       ownerID,
		Start:        start,
		End:          end,
		Participants: in.Participants,
		Description:  in.Description,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.InsertIfFree(ctx, r); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.inst.ReservationConflicts.Add(ctx, 1)
			slog.InfoContext(ctx, "reservation conflict",
				logger.ReservationID(r.ID),
				logger.SpaceID(sp.ID),
				logger.TenantID(actor.TenantID),
			)
			return nil, err
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.inst.ReservationsCreated.Add(ctx, 1)
	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     r.TenantID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceReservation,
		ResourceID:   r.ID,
		Detail: map[string]any{
			"space_id":   r.SpaceID,
			"user_id":    r.UserID,
			"start_date": r.Start.Format(time.RFC3339),
			"end_date":   r.End.Format(time.RFC3339),
		},
	})
	return r, nil
}

// Get returns a reservation visible to the actor: an admin sees every
// reservation of their tenant, a user only their own.
func (s *Service) Get(ctx context.Context, reservationID string, actor authz.Principal) (*Reservation, error) {
	r, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(actor, r.TenantID, r.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns reservations of the actor's tenant. Non-admins only see
// their own.
func (s *Service) List(ctx context.Context, actor authz.Principal, f Filter) ([]*Reservation, error) {
	if actor.TenantID == "" {
		return nil, apperr.ErrCrossTenant
	}
	f.TenantID = actor.TenantID
	if !actor.IsAdmin() {
		f.UserID = actor.SubjectID
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}

// Update changes an active reservation and re-checks overlap against
// every other reservation of the target space.
func (s *Service) Update(ctx context.Context, reservationID string, patch Patch, actor authz.Principal) (*Reservation, error) {
	r, err := s.Get(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusCancelled {
		return nil, apperr.ErrInvalidTransition
	}

	startStr, endStr := r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339)
	if patch.StartDate != nil {
		startStr = *patch.StartDate
	}
	if patch.EndDate != nil {
		endStr = *patch.EndDate
	}
	start, end, shapeErr := parseInterval(startStr, endStr)
	if err := validation.Merge(validation.Struct(patch), shapeErr); err != nil {
		return nil, err
	}

	sp, err := s.spaces.Lookup(ctx, r.SpaceID)
	if patch.SpaceID != nil && *patch.SpaceID != r.SpaceID {
		sp, err = s.spaces.Lookup(ctx, *patch.SpaceID)
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor, sp.TenantID); err != nil {
		return nil, err
	}
	if !sp.IsActive() {
		return nil, apperr.Invalid("space_id", "space is not active")
	}

	updated := *r
	updated.SpaceID = sp.ID
	updated.Start, updated.End = start, end
	if patch.Participants != nil {
		updated.Participants = *patch.Participants
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if updated.Participants > sp.Capacity {
		return nil, apperr.Invalid("participants", fmt.Sprintf("must not exceed space capacity of %d", sp.Capacity))
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateIfFree(ctx, &updated); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.inst.ReservationConflicts.Add(ctx, 1)
			slog.InfoContext(ctx, "reservation conflict",
				logger.ReservationID(updated.ID),
				logger.SpaceID(updated.SpaceID),
				logger.TenantID(actor.TenantID),
			)
			return nil, err
		}
		if errors.Is(err, apperr.ErrInvalidTransition) || errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     updated.TenantID,
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourceReservation,
		ResourceID:   updated.ID,
		Detail: map[string]any{
			"space_id":   updated.SpaceID,
			"start_date": updated.Start.Format(time.RFC3339),
			"end_date":   updated.End.Format(time.RFC3339),
		},
	})
	return &updated, nil
}

// Approve confirms a pending reservation.
func (s *Service) Approve(ctx context.Context, reservationID string, actor authz.Principal) (*Reservation, error) {
	return s.transition(ctx, reservationID, actor,
		[]string{StatusPending}, StatusConfirmed, audit.ActionApprove)
}

// Cancel cancels a pending or confirmed reservation, freeing its slot.
func (s *Service) Cancel(ctx context.Context, reservationID string, actor authz.Principal) (*Reservation, error) {
	return s.transition(ctx, reservationID, actor,
		[]string{StatusPending, StatusConfirmed}, StatusCancelled, audit.ActionCancel)
}

func (s *Service) transition(
	ctx context.Context,
	reservationID string,
	actor authz.Principal,
	from []string,
	to string,
	action string,
) (*Reservation, error) {
	current, err := s.Get(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}

	r, err := s.repo.SetStatus(ctx, current.ID, from, to, s.now().UTC())
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidTransition) {
			slog.InfoContext(ctx, "reservation transition rejected",
				logger.ReservationID(current.ID),
				logger.String("from", current.Status),
				logger.String("to", to),
			)
			return nil, err
		}
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to change reservation status: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Entry{
		ActorID:      actor.SubjectID,
		TenantID:     r.TenantID,
		Action:       action,
		ResourceType: audit.ResourceReservation,
		ResourceID:   r.ID,
		Detail:       map[string]any{"from": current.Status, audit.AttrStatus: to},
	})
	return r, nil
}

func (s *Service) load(ctx context.Context, reservationID string) (*Reservation, error) {
	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// parseInterval parses RFC 3339 bounds and checks end > start. Empty bounds
// are reported by the struct tags and skip the ordering check.
func parseInterval(startStr, endStr string) (time.Time, time.Time, error) {
	verr := &apperr.ValidationError{}
	parse := func(field, v string) (time.Time, bool) {
		if v == "" {
			return time.Time{}, false
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			verr.Add(field, "must be an RFC 3339 timestamp")
			return time.Time{}, false
		}
		return t.UTC(), true
	}

	start, okStart := parse("start_date", startStr)
	end, okEnd := parse("end_date", endStr)
	if okStart && okEnd && !end.After(start) {
		verr.Add("end_date", "must be after start_date")
	}
	return start, end, verr.OrNil()
}

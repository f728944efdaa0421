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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/reservation"
)

const reservationColumns = `id, tenant_id, space_id, user_id, start_at, end_at, participants, description, status, created_at, updated_at`

// ReservationRepository implements reservation.Repository. Writes that
// can create an overlap hold pg_advisory_xact_lock on the space id for the
// whole transaction.
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func lockSpaces(ctx context.Context, tx pgx.Tx, spaceIDs ...string) error {
	ids := slices.Clone(spaceIDs)
	slices.Sort(ids)
	for _, id := range slices.Compact(ids) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
			return fmt.Errorf("failed to lock space: %w", err)
		}
	}
	return nil
}

// findConflict returns the earliest blocking reservation of the space that
// overlaps [start, end), ignoring excludeID.
func findConflict(ctx context.Context, tx pgx.Tx, r *reservation.Reservation) error {
	var start, end time.Time
	err := tx.QueryRow(ctx, `
		SELECT start_at, end_at FROM reservations
		WHERE space_id = $1 AND id <> $2 AND status <> $3
		  AND start_at < $5 AND $4 < end_at
		ORDER BY start_at
		LIMIT 1
	`, r.SpaceID, r.ID, reservation.StatusCancelled, r.Start, r.End).Scan(&start, &end)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", err)
	}
	return reservation.ConflictWith(&reservation.Reservation{Start: start.UTC(), End: end.UTC()})
}

func (r *ReservationRepository) InsertIfFree(ctx context.Context, res *reservation.Reservation) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockSpaces(ctx, tx, res.SpaceID); err != nil {
			return err
		}
		if err := findConflict(ctx, tx, res); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, res.ID, res.TenantID, res.SpaceID, res.UserID, res.Start, res.End,
			res.Participants, res.Description, res.Status, res.CreatedAt, res.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
}

func (r *ReservationRepository) UpdateIfFree(ctx context.Context, res *reservation.Reservation) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		var oldSpace, status string
		err := tx.QueryRow(ctx, `SELECT space_id, status FROM reservations WHERE id = $1`, res.ID).Scan(&oldSpace, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get reservation: %w", err)
		}

		if err := lockSpaces(ctx, tx, oldSpace, res.SpaceID); err != nil {
			return err
		}
		// Re-read under the lock; a concurrent cancel may have won.
		if err := tx.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1 FOR UPDATE`, res.ID).Scan(&status); err != nil {
			return fmt.Errorf("failed to lock reservation: %w", err)
		}
		if status == reservation.StatusCancelled {
			return apperr.ErrInvalidTransition
		}
		if err := findConflict(ctx, tx, res); err != nil {
			return err
		}

		updated, err := scanReservation(tx.QueryRow(ctx, `
			UPDATE reservations
			SET space_id = $2, start_at = $3, end_at = $4, participants = $5, description = $6, updated_at = $7
			WHERE id = $1
			RETURNING `+reservationColumns,
			res.ID, res.SpaceID, res.Start, res.End, res.Participants, res.Description, res.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		*res = *updated
		return nil
	})
}

func (r *ReservationRepository) SetStatus(ctx context.Context, id string, from []string, to string, at time.Time) (*reservation.Reservation, error) {
	res, err := scanReservation(r.db.pool.QueryRow(ctx, `
		UPDATE reservations SET status = $2, updated_at = $3
		WHERE id = $1 AND status = ANY($4)
		RETURNING `+reservationColumns, id, to, at, from))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}

	var exists bool
	if err := r.db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if !exists {
		return nil, apperr.ErrNotFound
	}
	return nil, apperr.ErrInvalidTransition
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	res, err := scanReservation(r.db.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) List(ctx context.Context, f reservation.Filter) ([]*reservation.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.SpaceID != "" {
		add("space_id = $%d", f.SpaceID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("end_at > $%d", *f.From)
	}
	if f.To != nil {
		add("start_at < $%d", *f.To)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_at, id`

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	out := []*reservation.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var r reservation.Reservation
	err := row.Scan(&r.ID, &r.TenantID, &r.SpaceID, &r.UserID, &r.Start, &r.End,
		&r.Participants, &r.Description, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Start, r.End = r.Start.UTC(), r.End.UTC()
	return &r, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/space"
)

const spaceColumns = `id, tenant_id, name, type, capacity, description, status, created_at, updated_at`

// SpaceRepository implements space.Repository
type SpaceRepository struct {
	db *DB
}

// NewSpaceRepository creates a new space repository
func NewSpaceRepository(db *DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

func (r *SpaceRepository) Create(ctx context.Context, s *space.Space) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO spaces (`+spaceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.TenantID, s.Name, s.Type, s.Capacity, s.Description, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert space: %w", err)
	}
	return nil
}

func (r *SpaceRepository) GetByID(ctx context.Context, id string) (*space.Space, error) {
	s, err := scanSpace(r.db.pool.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return s, nil
}

func (r *SpaceRepository) Update(ctx context.Context, s *space.Space) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE spaces
		SET name = $2, type = $3, capacity = $4, description = $5, status = $6, updated_at = $7
		WHERE id = $1
	`, s.ID, s.Name, s.Type, s.Capacity, s.Description, s.Status, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *SpaceRepository) ListByTenant(ctx context.Context, tenantID string, includeInactive bool) ([]*space.Space, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+spaceColumns+` FROM spaces
		WHERE tenant_id = $1 AND ($2 OR status = 'active')
		ORDER BY name
	`, tenantID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []*space.Space{}
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

func scanSpace(row pgx.Row) (*space.Space, error) {
	var s space.Space
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Type, &s.Capacity, &s.Description, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

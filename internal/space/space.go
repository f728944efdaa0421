package space

import (
	"context"
	"time"
)

// Space types
const (
	TypeMeetingRoom = "meeting_room"
	TypeAuditorium  = "auditorium"
	TypeOffice      = "office"
	TypeCoworking   = "coworking"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Space is a bookable room owned by one tenant
type Space struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"empresa_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive reports whether the space accepts reservations.
func (s *Space) IsActive() bool {
	return s.Status == StatusActive
}

// CreateInput carries no tenant: spaces are created in the actor's tenant.
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Type        string `json:"type" validate:"required,oneof=meeting_room auditorium office coworking"`
	Capacity    int    `json:"capacity" validate:"gt=0"`
	Description string `json:"description" validate:"max=1000"`
}

// Patch lists mutable fields
type Patch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=meeting_room auditorium office coworking"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Repository defines the interface for space storage
type Repository interface {
	Create(ctx context.Context, s *Space) error
	// GetByID returns apperr.ErrNotFound when missing.
	GetByID(ctx context.Context, id string) (*Space, error)
	Update(ctx context.Context, s *Space) error
	ListByTenant(ctx context.Context, tenantID string, includeInactive bool) ([]*Space, error)
}

package tenant

import (
	"time"
)

// Tenant (empresa) is the root of data isolation
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"cnpj,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether members of the tenant may sign in.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// CreateInput is the data needed to create a tenant. ID may be empty, in
// which case a UUIDv7 is generated.
type CreateInput struct {
	ID      string `json:"-"`
	Name    string `json:"name" validate:"required,max=200"`
	TaxID   string `json:"cnpj" validate:"max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
}

// Patch lists the fields an admin may change. ID and status are not part of it.
type Patch struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	TaxID   *string `json:"cnpj,omitempty" validate:"omitempty,max=32"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.TaxID == nil && p.Email == nil && p.Phone == nil && p.Address == nil
}

func (p Patch) apply(t *Tenant) []string {
	var changed []string
	set := func(dst *string, v *string, field string) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = append(changed, field)
		}
	}
	set(&t.Name, p.Name, "name")
	set(&t.TaxID, p.TaxID, "cnpj")
	set(&t.Email, p.Email, "email")
	set(&t.Phone, p.Phone, "phone")
	set(&t.Address, p.Address, "address")
	return changed
}

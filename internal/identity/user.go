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

package identity

import (
	"context"
	"strings"
	"time"

	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/tenant"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User represents a user identity. TenantID never changes after creation
// and users are never hard-deleted.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"empresa_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive reports whether the user may sign in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Principal returns the identity carried in tokens for this user.
func (u *User) Principal() authz.Principal {
	return authz.Principal{SubjectID: u.ID, TenantID: u.TenantID, Role: u.Role}
}

// AuthResult is returned by a successful login or registration
type AuthResult struct {
	User      *User
	Tenant    *tenant.Tenant
	Principal authz.Principal
}

// RegisterInput creates a tenant together with its first admin
type RegisterInput struct {
	Tenant   tenant.CreateInput `json:"empresa"`
	Name     string             `json:"name" validate:"required,max=200"`
	Email    string             `json:"email" validate:"required,email,max=254"`
	Password string             `json:"password" validate:"required,min=8,max=128"`
}

// CreateUserInput is an admin creating a member of their own tenant.
// There is no tenant field: the tenant is always the admin's.
type CreateUserInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user usuario"`
}

// UserPatch lists the fields that may change. Role and Status are admin
// only. A tenant field does not exist, so a client-supplied empresa_id is
// dropped when the body is decoded.
type UserPatch struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin user usuario"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a user. A taken email yields apperr.ErrDuplicateEmail.
	Create(ctx context.Context, user *User) error

	// GetByID returns apperr.ErrNotFound when missing.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail looks up a normalized email across all tenants.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update writes every mutable field of user.
	Update(ctx context.Context, user *User) error

	// ListByTenant returns the users of one tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*User, error)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

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

package authz

import (
	"context"

	"github.com/linkspace/linkspace/internal/apperr"
)

// Tenant Isolation Principles:
// 1. Every resource belongs to exactly one tenant
// 2. A principal only ever acts inside its own tenant
// 3. The admin role grants no cross-tenant reach
//
// Anti-Patterns (FORBIDDEN):
// - Empty tenant IDs matching anything
// - Trusting a tenant ID supplied by the client over the principal's

// RequireRole passes when the principal holds role or is an admin.
func RequireRole(p Principal, role string) error {
	if p.IsAdmin() {
		return nil
	}
	if NormalizeRole(p.Role) == NormalizeRole(role) && role != "" {
		return nil
	}
	return apperr.ErrForbidden
}

// RequireAdmin is RequireRole(p, RoleAdmin).
func RequireAdmin(p Principal) error {
	return RequireRole(p, RoleAdmin)
}

// RequireTenant passes only when both tenant IDs are non-empty and equal.
// Admins are not exempt.
func RequireTenant(p Principal, tenantID string) error {
	if p.TenantID == "" || tenantID == "" || p.TenantID != tenantID {
		return apperr.ErrCrossTenant
	}
	return nil
}

// RequireOwnerOrAdmin passes for an admin of the resource's tenant or for
// the user owning it. The tenant gate runs first.
func RequireOwnerOrAdmin(p Principal, tenantID, ownerID string) error {
	if err := RequireTenant(p, tenantID); err != nil {
		return err
	}
	if p.IsAdmin() || p.Owns(ownerID) {
		return nil
	}
	return apperr.ErrForbidden
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached by the authentication gate.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

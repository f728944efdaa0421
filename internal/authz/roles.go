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

import "strings"

// -----------------------------------------------------------------------------
// Role Name Constants
// These are the canonical names stored with users and carried in tokens.
// -----------------------------------------------------------------------------

const (
	// RoleAdmin administers a single tenant. It satisfies every role check.
	RoleAdmin = "admin"

	// RoleUser is a regular tenant member.
	RoleUser = "user"

	// roleUserAlias is accepted on input and normalized to RoleUser.
	roleUserAlias = "usuario"
)

// NormalizeRole maps accepted role spellings to their canonical name.
// Unknown roles are returned unchanged so callers can reject them.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == roleUserAlias {
		return RoleUser
	}
	return r
}

// IsValidRole reports whether role (after normalization) is known.
func IsValidRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

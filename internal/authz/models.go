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

// Principal is the authenticated identity attached to a request.
// Domain services receive it explicitly.
type Principal struct {
	SubjectID string `json:"sub"`
	TenantID  string `json:"empresa_id"`
	Role      string `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return NormalizeRole(p.Role) == RoleAdmin
}

// Owns reports whether the principal is the given user.
func (p Principal) Owns(userID string) bool {
	return p.SubjectID != "" && p.SubjectID == userID
}

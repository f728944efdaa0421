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

package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linkspace/linkspace/internal/authz"
)

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens.
// sub, empresa_id, role, jti, iat and exp are all mandatory.
type Claims struct {
	TenantID string `json:"empresa_id"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// Principal returns the identity the claims describe.
func (c *Claims) Principal() authz.Principal {
	return authz.Principal{
		SubjectID: c.Subject,
		TenantID:  c.TenantID,
		Role:      c.Role,
	}
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// complete reports whether every mandatory claim is present.
func (c *Claims) complete() bool {
	return c.Subject != "" &&
		c.TenantID != "" &&
		c.Role != "" &&
		c.ID != "" &&
		c.IssuedAt != nil &&
		c.ExpiresAt != nil
}

// Pair is the result of a login or refresh.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Claims           *Claims
}

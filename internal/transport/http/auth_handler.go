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

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/linkspace/linkspace/internal/token"
	"github.com/linkspace/linkspace/internal/validation"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by login, registration and refresh
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *identity.User `json:"user,omitempty"`
	Empresa      *tenant.Tenant `json:"empresa,omitempty"`
}

func newTokenResponse(pair *token.Pair, user *identity.User, t *tenant.Tenant) TokenResponse {
	var expiresIn int64
	if c := pair.Claims; c != nil && c.IssuedAt != nil && c.ExpiresAt != nil {
		expiresIn = int64(c.ExpiresAt.Sub(c.IssuedAt.Time).Seconds())
	}
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		User:         user,
		Empresa:      t,
	}
}

// Login authenticates email and password and issues a token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.tokens.IssuePair(result.Principal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newTokenResponse(pair, result.User, result.Tenant))
}

// Register creates a tenant with its first admin and signs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.identityService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.tokens.IssuePair(result.Principal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTokenResponse(pair, result.User, result.Tenant))
}

// Refresh rotates a refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := pair.Claims.Principal()
	h.auditService.Log(r.Context(), audit.Entry{
		ActorID:      p.SubjectID,
		TenantID:     p.TenantID,
		Action:       audit.ActionRefresh,
		ResourceType: audit.ResourceAuth,
		ResourceID:   p.SubjectID,
	})

	respondJSON(w, http.StatusOK, newTokenResponse(pair, nil, nil))
}

// Logout revokes the presented access token and, when the body names one,
// a refresh token of the same subject.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, apperr.Invalid("body", "invalid JSON body"))
		return
	}

	var refresh *token.Claims
	if req.RefreshToken != "" {
		rc, err := h.tokens.VerifyRefresh(req.RefreshToken)
		switch {
		case err != nil:
			slog.InfoContext(r.Context(), "logout ignored an invalid refresh token",
				logger.UserID(claims.Subject),
			)
		case rc.Subject != claims.Subject:
			writeError(w, r, apperr.ErrForbidden)
			return
		default:
			refresh = rc
		}
	}

	if err := h.tokens.RevokeClaims(r.Context(), claims); err != nil {
		writeError(w, r, err)
		return
	}
	if refresh != nil {
		if err := h.tokens.RevokeClaims(r.Context(), refresh); err != nil {
			writeError(w, r, err)
			return
		}
	}

	h.auditService.Log(r.Context(), audit.Entry{
		ActorID:      claims.Subject,
		TenantID:     claims.TenantID,
		Action:       audit.ActionLogout,
		ResourceType: audit.ResourceAuth,
		ResourceID:   claims.Subject,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Me returns the principal of the access token and its user record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	user, err := h.identityService.GetUser(r.Context(), p.SubjectID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sub":        p.SubjectID,
		"empresa_id": p.TenantID,
		"role":       p.Role,
		"user":       user,
	})
}

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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/id"
	"github.com/linkspace/linkspace/internal/observability/logger"
)

// Default token lifetimes
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// RevocationStore persists revoked token IDs until the token would have
// expired anyway.
type RevocationStore interface {
	// Revoke records jti until expiresAt. It returns true when the entry
	// was newly inserted and false when jti was already revoked.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)

	// IsRevoked reports whether jti is currently revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SubjectResolver reloads the current principal for a refresh. It may
// reject subjects that can no longer sign in.
type SubjectResolver func(ctx context.Context, p authz.Principal) (authz.Principal, error)

// Config holds token signing configuration
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Service issues and verifies JWTs
type Service struct {
	cfg      Config
	store    RevocationStore
	resolver SubjectResolver
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSubjectResolver installs a resolver consulted during Refresh.
func WithSubjectResolver(r SubjectResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// NewService creates a new token service
func NewService(cfg Config, store RevocationStore, opts ...Option) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if store == nil {
		return nil, errors.New("revocation store is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	s := &Service{cfg: cfg, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken signs a short-lived access token.
func (s *Service) IssueAccessToken(subject, tenantID, role string) (string, *Claims, error) {
	return s.issue(subject, tenantID, role, TypeAccess)
}

// IssueRefreshToken signs a long-lived refresh token.
func (s *Service) IssueRefreshToken(subject, tenantID, role string) (string, *Claims, error) {
	return s.issue(subject, tenantID, role, TypeRefresh)
}

// IssuePair signs an access and a refresh token for the same subject.
func (s *Service) IssuePair(p authz.Principal) (*Pair, error) {
	access, accessClaims, err := s.IssueAccessToken(p.SubjectID, p.TenantID, p.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.IssueRefreshToken(p.SubjectID, p.TenantID, p.Role)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAtTime(),
		RefreshExpiresAt: refreshClaims.ExpiresAtTime(),
		Claims:           accessClaims,
	}, nil
}

func (s *Service) issue(subject, tenantID, role, typ string) (string, *Claims, error) {
	if subject == "" || tenantID == "" || role == "" {
		return "", nil, fmt.Errorf("issue %s token: subject, tenant and role are required", typ)
	}

	ttl, secret := s.cfg.AccessTTL, s.cfg.AccessSecret
	if typ == TypeRefresh {
		ttl, secret = s.cfg.RefreshTTL, s.cfg.RefreshSecret
	}

	now := s.now()
	claims := &Claims{
		TenantID: tenantID,
		Role:     authz.NormalizeRole(role),
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.NewUUIDv7(),
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry and claim presence of an access token.
// It does not consult the revocation store.
func (s *Service) Verify(raw string) (*Claims, error) {
	return s.parse(raw, TypeAccess)
}

// VerifyRefresh is Verify for refresh tokens.
func (s *Service) VerifyRefresh(raw string) (*Claims, error) {
	return s.parse(raw, TypeRefresh)
}

func (s *Service) parse(raw, typ string) (*Claims, error) {
	if raw == "" {
		return nil, apperr.ErrInvalidToken
	}

	secret := s.cfg.AccessSecret
	if typ == TypeRefresh {
		secret = s.cfg.RefreshSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, apperr.ErrInvalidToken
	}
	if !claims.complete() || claims.Type != typ {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}

// Authenticate verifies an access token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.Verify(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.ErrTokenRevoked
	}
	return claims, nil
}

// IsRevoked reports whether jti has been revoked.
func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.store.IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return revoked, nil
}

// Revoke blocks jti for ttl. A non-positive ttl is a no-op since the token
// has already expired.
func (s *Service) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if _, err := s.store.Revoke(ctx, jti, s.now().Add(ttl)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	slog.DebugContext(ctx, "token revoked", logger.TokenID(jti))
	return nil
}

// RevokeClaims revokes a verified token for the rest of its lifetime.
func (s *Service) RevokeClaims(ctx context.Context, claims *Claims) error {
	return s.Revoke(ctx, claims.ID, claims.ExpiresAtTime().Sub(s.now()))
}

// Refresh exchanges a refresh token for a new access and refresh token.
// The presented refresh token is consumed; presenting it again fails.
func (s *Service) Refresh(ctx context.Context, raw string) (*Pair, error) {
	claims, err := s.VerifyRefresh(raw)
	if err != nil {
		return nil, apperr.ErrInvalidRefreshToken
	}

	// Insert-if-absent makes concurrent reuse yield exactly one winner.
	fresh, err := s.store.Revoke(ctx, claims.ID, claims.ExpiresAtTime())
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !fresh {
		slog.WarnContext(ctx, "refresh token reuse rejected",
			logger.TokenID(claims.ID),
			logger.UserID(claims.Subject),
			logger.TenantID(claims.TenantID),
			logger.Role(claims.Role),
		)
		return nil, apperr.ErrInvalidRefreshToken
	}

	principal := claims.Principal()
	if s.resolver != nil {
		principal, err = s.resolver(ctx, principal)
		if err != nil {
			return nil, apperr.ErrInvalidRefreshToken
		}
	}

	return s.IssuePair(principal)
}

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

package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkspace/linkspace/internal/authz"
	"github.com/linkspace/linkspace/internal/id"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/observability/metrics"
)

// Query limits
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Service records and queries the audit trail
type Service struct {
	repo   Repository
	mirror *logger.AuditLogger
	inst   *metrics.Instruments
	now    func() time.Time
}

// NewService creates a new audit service
func NewService(repo Repository, mirror *logger.AuditLogger, inst *metrics.Instruments) *Service {
	if mirror == nil {
		mirror = logger.NewAuditLogger(nil)
	}
	if inst == nil {
		inst = metrics.NoopInstruments()
	}
	return &Service{repo: repo, mirror: mirror, inst: inst, now: time.Now}
}

// Record appends an entry and, once stored, mirrors it to the log. The
// store error is returned wrapped.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if e.TenantID == "" {
		return errors.New("audit entry requires a tenant")
	}
	if e.ID == "" {
		e.ID = id.NewUUIDv7()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIP(ctx)
	}
	e.Detail = redact(e.Detail)

	if err := s.repo.Append(ctx, &e); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	s.mirror.Log(ctx, logger.AuditEvent{
		ActorID:      e.ActorID,
		TenantID:     e.TenantID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IPAddress:    e.IPAddress,
		Metadata:     e.Detail,
	})
	return nil
}

// Log records an entry, logging and counting failures instead of
// returning them.
func (s *Service) Log(ctx context.Context, e Entry) {
	if err := s.Record(ctx, e); err != nil {
		s.inst.AuditWriteFailures.Add(ctx, 1)
		slog.ErrorContext(ctx, "audit write failed",
			logger.Error(err),
			logger.TenantID(e.TenantID),
			slog.String("action", e.Action),
		)
	}
}

// Query lists entries of the actor's tenant. Admin only; any tenant in the
// filter is replaced by the actor's.
func (s *Service) Query(ctx context.Context, actor authz.Principal, f Filter) ([]*Entry, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	f.TenantID = actor.TenantID
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	entries, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	return entries, nil
}

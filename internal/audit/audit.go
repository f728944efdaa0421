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
	"strings"
	"time"
)

// Actions
const (
	ActionLogin       = "LOGIN"
	ActionLoginFailed = "LOGIN_FAILED"
	ActionLogout      = "LOGOUT"
	ActionRegister    = "REGISTER"
	ActionRefresh     = "REFRESH"
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionApprove     = "APPROVE"
	ActionCancel      = "CANCEL"
	ActionDeactivate  = "DEACTIVATE"
)

// Resource types
const (
	ResourceAuth        = "auth"
	ResourceUser        = "user"
	ResourceTenant      = "tenant"
	ResourceSpace       = "space"
	ResourceReservation = "reservation"
)

// Common metadata keys
const (
	AttrReason = "reason"
	AttrEmail  = "email"
	AttrStatus = "status"
	AttrFields = "fields"
)

// Entry is one append-only audit record. TenantID is always set.
type Entry struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"actor_id"`
	TenantID     string         `json:"empresa_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Filter narrows an audit query. TenantID is always forced by the service.
type Filter struct {
	TenantID     string
	ActorID      string
	Action       string
	ResourceType string
	Limit        int
}

// Repository persists audit entries. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter) ([]*Entry, error)
}

// Logger defines the interface domain services use to record entries.
// Implementations never fail the caller.
type Logger interface {
	Log(ctx context.Context, e Entry)
}

type clientIPKey struct{}

// WithClientIP attaches the caller's IP so entries recorded downstream carry it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the IP attached by WithClientIP.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// redact replaces values of secret-looking keys.
func redact(detail map[string]any) map[string]any {
	if len(detail) == 0 {
		return nil
	}
	out := make(map[string]any, len(detail))
	for k, v := range detail {
		if isSecret(k) {
			v = "[REDACTED]"
		}
		out[k] = v
	}
	return out
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "authorization", "hash", "credential"}
	for _, s := range secrets {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

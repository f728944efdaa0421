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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}

	// Exporters hang off the global provider; counters stay no-op until one is set.
	return &Meter{meter: otel.Meter(serviceName)}, nil
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// Instruments are the domain counters recorded by the services
type Instruments struct {
	LoginSuccess         metric.Int64Counter
	LoginFailure         metric.Int64Counter
	TokensRefreshed      metric.Int64Counter
	TokensRevoked        metric.Int64Counter
	ReservationsCreated  metric.Int64Counter
	ReservationConflicts metric.Int64Counter
	AuditWriteFailures   metric.Int64Counter
}

// Instruments creates the domain counters on this meter
func (m *Meter) Instruments() (*Instruments, error) {
	specs := []struct{ name, descr string }{
		{"linkspace.auth.login.success", "Successful logins"},
		{"linkspace.auth.login.failure", "Failed login attempts"},
		{"linkspace.auth.token.refreshed", "Refresh token rotations"},
		{"linkspace.auth.token.revoked", "Revoked tokens"},
		{"linkspace.reservation.created", "Reservations created"},
		{"linkspace.reservation.conflicts", "Reservation requests rejected for overlap"},
		{"linkspace.audit.write_failures", "Audit entries that could not be persisted"},
	}

	inst := &Instruments{}
	targets := []*metric.Int64Counter{
		&inst.LoginSuccess,
		&inst.LoginFailure,
		&inst.TokensRefreshed,
		&inst.TokensRevoked,
		&inst.ReservationsCreated,
		&inst.ReservationConflicts,
		&inst.AuditWriteFailures,
	}
	for i, spec := range specs {
		c, err := m.CreateCounter(spec.name, spec.descr)
		if err != nil {
			return nil, err
		}
		*targets[i] = c
	}
	return inst, nil
}

// NoopInstruments returns instruments that record nothing
func NoopInstruments() *Instruments {
	m := &Meter{meter: noop.NewMeterProvider().Meter("noop")}
	inst, _ := m.Instruments()
	return inst
}

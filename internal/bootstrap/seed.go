// Package bootstrap loads the demo tenants, accounts and spaces.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/space"
)

// DemoAccount is a seeded login
type DemoAccount struct {
	TenantID string
	Name     string
	Email    string
	Password string
	Admin    bool
}

// DemoSpace is a seeded space
type DemoSpace struct {
	TenantID string
	Input    space.CreateInput
}

// Demo tenants "1" and "2" with one admin and one user each.
var (
	DemoTenants = map[string]string{
		"1": "LinkSpace Demo",
		"2": "Empresa Parceira",
	}

	DemoAccounts = []DemoAccount{
		{TenantID: "1", Name: "Administrador", Email: "admin@linkspace.com", Password: "admin123", Admin: true},
		{TenantID: "1", Name: "Usuario Demo", Email: "usuario@linkspace.com", Password: "usuario123"},
		{TenantID: "2", Name: "Admin Parceira", Email: "admin@parceira.com", Password: "admin123", Admin: true},
		{TenantID: "2", Name: "Usuario Parceira", Email: "usuario@parceira.com", Password: "usuario123"},
	}

	DemoSpaces = []DemoSpace{
		{TenantID: "1", Input: space.CreateInput{Name: "Sala de Reuniao A", Type: space.TypeMeetingRoom, Capacity: 8, Description: "Projetor e videoconferencia"}},
		{TenantID: "1", Input: space.CreateInput{Name: "Auditorio", Type: space.TypeAuditorium, Capacity: 120}},
		{TenantID: "1", Input: space.CreateInput{Name: "Coworking", Type: space.TypeCoworking, Capacity: 30}},
		{TenantID: "2", Input: space.CreateInput{Name: "Sala Executiva", Type: space.TypeOffice, Capacity: 4}},
	}
)

// Seeder writes demo data through the domain services
type Seeder struct {
	identity *identity.Service
	spaces   *space.Service
}

// NewSeeder creates a seeder
func NewSeeder(identitySvc *identity.Service, spaceSvc *space.Service) *Seeder {
	return &Seeder{identity: identitySvc, spaces: spaceSvc}
}

// Run creates missing demo data. Running it twice changes nothing.
func (s *Seeder) Run(ctx context.Context) error {
	admins := map[string]*identity.User{}
	for _, a := range DemoAccounts {
		if !a.Admin {
			continue
		}
		u, err := s.identity.EnsureAdmin(ctx, identity.BootstrapAdmin{
			TenantID:   a.TenantID,
			TenantName: DemoTenants[a.TenantID],
			Name:       a.Name,
			Email:      a.Email,
			Password:   a.Password,
		})
		if err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", a.Email, err)
		}
		admins[a.TenantID] = u
	}

	for _, a := range DemoAccounts {
		if a.Admin {
			continue
		}
		if _, err := s.identity.EnsureMember(ctx, a.TenantID, a.Name, a.Email, a.Password); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", a.Email, err)
		}
	}

	for tenantID, admin := range admins {
		existing, err := s.spaces.List(ctx, admin.Principal())
		if err != nil {
			return fmt.Errorf("failed to list spaces of tenant %s: %w", tenantID, err)
		}
		names := make(map[string]bool, len(existing))
		for _, sp := range existing {
			names[sp.Name] = true
		}
		for _, ds := range DemoSpaces {
			if ds.TenantID != tenantID || names[ds.Input.Name] {
				continue
			}
			if _, err := s.spaces.Create(ctx, ds.Input, admin.Principal()); err != nil {
				return fmt.Errorf("failed to seed space %s: %w", ds.Input.Name, err)
			}
		}
	}

	slog.InfoContext(ctx, "demo data ready", logger.Component("bootstrap"))
	return nil
}

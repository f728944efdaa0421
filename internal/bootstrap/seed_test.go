package bootstrap

import (
	"context"
	"testing"

	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/space"
	"github.com/linkspace/linkspace/internal/store/memory"
	"github.com/linkspace/linkspace/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Idempotent(t *testing.T) {
	ctx := context.Background()
	auditSvc := audit.NewService(memory.NewAuditRepository(), nil, nil)
	tenants := tenant.NewService(memory.NewTenantRepository(), auditSvc)
	users, err := identity.NewService(memory.NewUserRepository(), tenants,
		identity.NewPasswordHasher(1024, 1, 1, 16, 32), auditSvc, nil)
	require.NoError(t, err)
	spaces := space.NewService(memory.NewSpaceRepository(), auditSvc)

	seeder := NewSeeder(users, spaces)
	require.NoError(t, seeder.Run(ctx))
	require.NoError(t, seeder.Run(ctx))

	res, err := users.Authenticate(ctx, "admin@linkspace.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Principal.TenantID)
	assert.True(t, res.Principal.IsAdmin())

	list, err := spaces.List(ctx, res.Principal)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, sp := range list {
		assert.Equal(t, "1", sp.TenantID)
	}
}

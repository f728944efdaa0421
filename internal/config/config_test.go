package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "access-secret-0123456789abcdef0123"
	testRefreshSecret = "refresh-secret-0123456789abcdef012"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, uint32(65536), cfg.Security.Argon2Memory)
	assert.Equal(t, "@every 10m", cfg.Maintenance.CleanupSchedule)
	assert.False(t, cfg.Server.TrustProxy)
}

func TestLoad_EnvOverridesAndDotEnv(t *testing.T) {
	setSecrets(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=9090\nRATELIMIT_LOGIN_ATTEMPTS=3\n"), 0o600))
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("OBSERVABILITY_LOG_LEVEL", "debug")
	t.Setenv("SERVER_TRUST_PROXY", "true")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("RATELIMIT_LOGIN_ATTEMPTS")
	})

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short secret", map[string]string{"JWT_SECRET": "short", "JWT_REFRESH_SECRET": testRefreshSecret}},
		{"equal secrets", map[string]string{"JWT_SECRET": testSecret, "JWT_REFRESH_SECRET": testSecret}},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mongo"}},
		{"postgres without password", map[string]string{"STORAGE_BACKEND": "postgres"}},
		{"bad log level", map[string]string{"OBSERVABILITY_LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSecrets(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

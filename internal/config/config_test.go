package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 120*time.Second, cfg.OTP_TTL)
	assert.Equal(t, 6, cfg.OTP_Length)
	assert.Equal(t, 5, cfg.OTP_MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.LinkProviderByEmail)
	assert.Equal(t, []string{"accounts.google.com", "https://accounts.google.com"}, cfg.GoogleIssuers)
}

func TestLoadFrom_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
app:
  port: 9090
database:
  driver: sqlite
  dsn: "file::memory:"
jwt:
  secret: from-file
  access_ttl: 15m
otp:
  ttl: 90s
  length: 8
  max_attempts: 3
accounts:
  link_provider_by_email: false
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 90*time.Second, cfg.OTP_TTL)
	assert.Equal(t, 8, cfg.OTP_Length)
	assert.Equal(t, 3, cfg.OTP_MaxAttempts)
	assert.False(t, cfg.LinkProviderByEmail)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errText string
	}{
		{
			name:    "missing secret",
			body:    "database:\n  driver: memory\n",
			errText: "jwt secret is required",
		},
		{
			name:    "bad otp ttl",
			body:    "database:\n  driver: memory\njwt:\n  secret: s\notp:\n  ttl: soon\n",
			errText: "invalid OTP TTL",
		},
		{
			name:    "postgres without dsn",
			body:    "database:\n  driver: postgres\njwt:\n  secret: s\n",
			errText: "database dsn is required",
		},
		{
			name:    "unknown driver",
			body:    "database:\n  driver: mysql\njwt:\n  secret: s\n",
			errText: "unsupported database driver",
		},
		{
			name:    "otp length out of range",
			body:    "database:\n  driver: memory\njwt:\n  secret: s\notp:\n  length: 2\n",
			errText: "otp length must be between",
		},
		{
			name:    "malformed yaml",
			body:    "app: [",
			errText: "could not parse config yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("DATABASE_DRIVER", "")
			t.Setenv("OTP_TTL", "")

			_, err := LoadFrom(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

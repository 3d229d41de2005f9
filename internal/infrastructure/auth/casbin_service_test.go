package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCasbinService_DefaultPolicies(t *testing.T) {
	svc, err := NewMemoryCasbinService()
	require.NoError(t, err)
	require.NoError(t, svc.SeedDefaults())
	// seeding twice must be harmless
	require.NoError(t, svc.SeedDefaults())

	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		allowed  bool
	}{
		{"user reads profile", "user", "/auth/me", "GET", true},
		{"admin reads profile", "admin", "/auth/me", "GET", true},
		{"user cannot write profile", "user", "/auth/me", "DELETE", false},
		{"unknown role", "guest", "/auth/me", "GET", false},
		{"unlisted path", "user", "/admin/policies", "GET", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := svc.CheckPermission(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestCasbinService_AddPolicy(t *testing.T) {
	svc, err := NewMemoryCasbinService()
	require.NoError(t, err)

	require.NoError(t, svc.AddPolicy("auditor", "/reports/:id", "(GET|HEAD)"))

	allowed, err := svc.CheckPermission("auditor", "/reports/7", "HEAD")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.CheckPermission("auditor", "/reports/7", "POST")
	require.NoError(t, err)
	assert.False(t, allowed)
}

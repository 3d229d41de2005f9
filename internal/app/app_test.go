package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/otpauth/internal/config"
	"github.com/you/otpauth/internal/infrastructure/locking"
	"github.com/you/otpauth/internal/infrastructure/repositories"
	"github.com/you/otpauth/internal/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		GinMode:             gin.TestMode,
		ShutdownTimeout:     time.Second,
		DBDriver:            "memory",
		LockTTL:             5 * time.Second,
		JWTSecret:           "app-test-secret",
		JWTIssuer:           "otpauth",
		AccessTTL:           time.Hour,
		OTP_TTL:             120 * time.Second,
		OTP_Length:          6,
		OTP_MaxAttempts:     5,
		GoogleIssuers:       []string{"accounts.google.com"},
		EmailWorkers:        1,
		EmailQueueSize:      8,
		LinkProviderByEmail: true,
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestNewContainer_Backends(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		configure func(t *testing.T, cfg *config.Config)
		check     func(t *testing.T, c *Container)
	}{
		{
			name: "memory store with local locks",
			check: func(t *testing.T, c *Container) {
				assert.Nil(t, c.DB)
				assert.IsType(t, &repositories.MemoryAccountRepository{}, c.AccountRepo)
				assert.IsType(t, &locking.KeyedMutex{}, c.Locker)
			},
		},
		{
			name: "sqlite store",
			configure: func(t *testing.T, cfg *config.Config) {
				cfg.DBDriver = "sqlite"
				cfg.DSN = filepath.Join(t.TempDir(), "otpauth.db")
			},
			check: func(t *testing.T, c *Container) {
				require.NotNil(t, c.DB)
				assert.True(t, c.DB.Migrator().HasTable("accounts"))
				assert.True(t, c.DB.Migrator().HasTable("casbin_rule"))
			},
		},
		{
			name: "redis locks",
			configure: func(t *testing.T, cfg *config.Config) {
				mr := miniredis.RunT(t)
				cfg.RedisEnabled = true
				cfg.RedisAddr = mr.Addr()
			},
			check: func(t *testing.T, c *Container) {
				require.NotNil(t, c.RedisClient)
				assert.IsType(t, &locking.RedisLocker{}, c.Locker)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.configure != nil {
				tt.configure(t, cfg)
			}

			c, err := NewContainer(context.Background(), cfg, logging.Discard())
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })

			tt.check(t, c)

			allowed, err := c.PolicySvc.CheckPermission("user", "/auth/me", http.MethodGet)
			require.NoError(t, err)
			assert.True(t, allowed)

			router := c.Router()
			assert.Equal(t, http.StatusOK, postJSON(t, router, "/register", map[string]string{
				"username": "alice", "email": "alice@x.com", "password": "longpassword1",
			}))
			assert.Equal(t, http.StatusOK, postJSON(t, router, "/login", map[string]string{
				"email": "alice@x.com", "password": "longpassword1",
			}))
		})
	}
}

func TestNewContainer_RedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.RedisEnabled = true
	cfg.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewContainer(ctx, cfg, logging.Discard())
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, logging.Discard()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

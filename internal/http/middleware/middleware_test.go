package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/you/otpauth/domain"
	"github.com/you/otpauth/internal/logging"
	"github.com/you/otpauth/internal/mocks"
)

func newProtectedRouter(tokenSvc domain.TokenService, policySvc domain.PolicyService, audit domain.AuditLogger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMW(tokenSvc).WithJWT(), NewCasbinMW(policySvc, audit).Enforce())
	r.GET("/auth/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"email": c.GetString(ContextEmail),
			"role":  c.GetString(ContextRole),
		})
	})
	return r
}

func TestAuthAndPolicyMiddleware(t *testing.T) {
	tokenSvc := mocks.NewMockTokenService()
	tokenSvc.ValidateAccessTokenFunc = func(token string) (*domain.TokenClaims, error) {
		switch token {
		case "good":
			return &domain.TokenClaims{Subject: "alice@x.com", UserID: 7, Role: "user"}, nil
		case "guest":
			return &domain.TokenClaims{Subject: "guest@x.com", UserID: 8, Role: "guest"}, nil
		case "broken-policy":
			return &domain.TokenClaims{Subject: "b@x.com", UserID: 9, Role: "broken"}, nil
		case "expired":
			return nil, domain.ErrTokenExpired
		default:
			return nil, domain.ErrTokenInvalid
		}
	}

	policySvc := mocks.NewMockPolicyService()
	policySvc.CheckPermissionFunc = func(role, resource, action string) (bool, error) {
		if role == "broken" {
			return false, errors.New("adapter offline")
		}
		return role == "user" && resource == "/auth/me" && action == http.MethodGet, nil
	}

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{name: "valid token and policy", header: "Bearer good", expectedStatus: http.StatusOK, expectedBody: "alice@x.com"},
		{name: "lower-case scheme", header: "bearer good", expectedStatus: http.StatusOK},
		{name: "missing header", expectedStatus: http.StatusUnauthorized, expectedBody: "Authorization header required"},
		{name: "wrong scheme", header: "Basic Zm9vOmJhcg==", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid authorization header format"},
		{name: "empty token", header: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired", expectedStatus: http.StatusUnauthorized, expectedBody: "Token expired"},
		{name: "tampered token", header: "Bearer tampered", expectedStatus: http.StatusUnauthorized, expectedBody: "Could not validate credentials"},
		{name: "role without policy", header: "Bearer guest", expectedStatus: http.StatusForbidden, expectedBody: "Access Denied"},
		{name: "policy backend failure", header: "Bearer broken-policy", expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := mocks.NewMockAuditLogger()
			r := newProtectedRouter(tokenSvc, policySvc, audit)

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			if tt.expectedStatus == http.StatusForbidden {
				assert.Equal(t, []domain.AuditEventType{domain.AccessDeniedEvent}, audit.EventTypes())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(logging.New(&buf, "info", "text")))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/health", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := buf.String()
	assert.Contains(t, out, "path=/health")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "path=/boom")
}

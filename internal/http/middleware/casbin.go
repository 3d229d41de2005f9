package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/otpauth/domain"
)

// CasbinMW enforces the access policy on authenticated routes
type CasbinMW struct {
	policySvc   domain.PolicyService
	auditLogger domain.AuditLogger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policySvc domain.PolicyService, auditLogger domain.AuditLogger) *CasbinMW {
	return &CasbinMW{policySvc: policySvc, auditLogger: auditLogger}
}

// Enforce returns the authorization middleware. It must run after WithJWT.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Role not found in token"})
			c.Abort()
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		allowed, err := mw.policySvc.CheckPermission(role, path, method)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			c.Abort()
			return
		}

		if !allowed {
			userID, _ := c.Get(ContextUserID)
			id, _ := userID.(uint)
			mw.auditLogger.LogEvent(c.Request.Context(), domain.NewAuditEvent(domain.AccessDeniedEvent, id).
				WithEmail(c.GetString(ContextEmail)).
				WithClientContext(&domain.ClientContext{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}).
				WithMetadata("path", path).
				WithMetadata("method", method).
				WithError(domain.ErrAccessDenied))
			c.JSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			c.Abort()
			return
		}

		c.Next()
	})
}

package httpx

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/you/otpauth/internal/http/handlers"
	"github.com/you/otpauth/internal/http/middleware"
)

func BuildRouter(ah *handlers.AuthHandlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	r.POST("/register", ah.Register)
	r.POST("/login", ah.Login)
	r.POST("/verify_otp", ah.VerifyOTP)

	auth := r.Group("/auth")
	auth.POST("/provider", ah.AuthenticateWithProvider)
	auth.POST("/google", ah.AuthenticateWithProvider)

	v := r.Group("/").Use(jwtmw.WithJWT(), cb.Enforce())
	v.GET("/auth/me", ah.Me)

	return r
}

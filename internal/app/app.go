package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/otpauth/internal/config"
	httpx "github.com/you/otpauth/internal/http"
	"github.com/you/otpauth/internal/http/handlers"
	"github.com/you/otpauth/internal/http/middleware"
)

// Router builds the HTTP router over the container's services
func (c *Container) Router() *gin.Engine {
	authH := handlers.NewAuthHandlers(c.AuthSvc, c.Logger)
	jwtMW := middleware.NewAuthMW(c.TokenSvc)
	casbinMW := middleware.NewCasbinMW(c.PolicySvc, c.AuditLogger)

	return httpx.BuildRouter(authH, jwtMW, casbinMW, c.Logger)
}

// Run serves until ctx is cancelled, then shuts down within cfg.ShutdownTimeout
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("failed to close dependencies", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           container.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "db_driver", cfg.DBDriver, "redis", cfg.RedisEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

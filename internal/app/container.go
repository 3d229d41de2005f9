package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/otpauth/domain"
	"github.com/you/otpauth/internal/config"
	"github.com/you/otpauth/internal/infrastructure/audit"
	"github.com/you/otpauth/internal/infrastructure/auth"
	"github.com/you/otpauth/internal/infrastructure/database"
	"github.com/you/otpauth/internal/infrastructure/locking"
	"github.com/you/otpauth/internal/infrastructure/notifications"
	"github.com/you/otpauth/internal/infrastructure/repositories"
	"github.com/you/otpauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Dispatcher  *notifications.Dispatcher

	// Repositories
	AccountRepo domain.AccountRepository
	Locker      domain.AccountLocker

	// Services
	PasswordSvc domain.PasswordService
	TokenSvc    domain.TokenService
	VerifierSvc domain.ProviderTokenVerifier
	AuditLogger domain.AuditLogger
	OTPSvc      domain.OTPService
	Credentials domain.CredentialVerifier
	Resolver    domain.AccountResolver
	AuthSvc     domain.AuthService
	PolicySvc   domain.PolicyService
	emailSender domain.EmailSender
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{Config: cfg, Logger: logger}

	// Initialize infrastructure
	if err := container.initDatabase(); err != nil {
		container.Close()
		return nil, err
	}
	if err := container.initRedis(ctx); err != nil {
		container.Close()
		return nil, err
	}

	// Initialize repositories
	container.initRepositories()

	// Initialize services
	if err := container.initServices(); err != nil {
		container.Close()
		return nil, err
	}

	return container, nil
}

func (c *Container) initDatabase() error {
	if c.Config.DBDriver == "memory" {
		c.Logger.Warn("using in-memory account store; data is lost on restart")
		return nil
	}

	db, err := database.Open(c.Config.DBDriver, c.Config.DSN)
	if err != nil {
		return err
	}
	c.DB = db

	return database.AutoMigrate(db, c.Logger)
}

func (c *Container) initRedis(ctx context.Context) error {
	if !c.Config.RedisEnabled {
		c.Logger.Info("redis disabled; account locks are process-local")
		return nil
	}

	client, err := database.NewRedis(ctx, c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err != nil {
		return err
	}
	c.RedisClient = client
	return nil
}

func (c *Container) initRepositories() {
	if c.DB != nil {
		c.AccountRepo = repositories.NewAccountRepository(c.DB)
	} else {
		c.AccountRepo = repositories.NewMemoryAccountRepository()
	}

	if c.RedisClient != nil {
		c.Locker = locking.NewRedisLocker(c.RedisClient, c.Config.LockTTL, c.Logger)
	} else {
		c.Locker = locking.NewKeyedMutex()
	}
}

func (c *Container) initServices() error {
	// Initialize basic services
	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.AccessTTL)
	c.VerifierSvc = auth.NewGoogleVerifier(c.Config.GoogleClientID, c.Config.GoogleIssuers)
	c.AuditLogger = audit.NewSlogAuditLogger(c.Logger)
	if c.Config.GoogleClientID == "" {
		c.Logger.Warn("google client id not configured; provider logins will be rejected")
	}

	// Initialize policy service
	if err := c.initPolicy(); err != nil {
		return err
	}

	// Initialize mail delivery
	if c.Config.SMTPHost != "" {
		c.emailSender = notifications.NewSMTPSender(notifications.SMTPConfig{
			Host:     c.Config.SMTPHost,
			Port:     c.Config.SMTPPort,
			Username: c.Config.SMTPUsername,
			Password: c.Config.SMTPPassword,
			Sender:   c.Config.EmailSender,
		})
	} else {
		c.Logger.Warn("smtp host not configured; emails are written to the log")
		c.emailSender = notifications.NewConsoleSender(c.Logger)
	}
	c.Dispatcher = notifications.NewDispatcher(notifications.DispatcherConfig{
		Workers:    c.Config.EmailWorkers,
		QueueSize:  c.Config.EmailQueueSize,
		MaxRetries: uint64(c.Config.EmailMaxRetries),
	}, c.emailSender, c.Logger)

	// Initialize OTP service
	otpConfig := services.OTPConfig{
		Length:      c.Config.OTP_Length,
		TTL:         c.Config.OTP_TTL,
		MaxAttempts: c.Config.OTP_MaxAttempts,
	}
	c.OTPSvc = services.NewOTPService(c.AccountRepo, c.Locker, c.Dispatcher, c.Logger, otpConfig)

	c.Credentials = services.NewCredentialService(c.PasswordSvc, c.VerifierSvc, c.Logger)
	c.Resolver = services.NewAccountResolver(c.AccountRepo, c.Locker, c.AuditLogger, c.Logger, c.Config.LinkProviderByEmail)

	// Initialize auth service (depends on all other services)
	c.AuthSvc = services.NewAuthService(
		c.AccountRepo,
		c.Locker,
		c.PasswordSvc,
		c.TokenSvc,
		c.OTPSvc,
		c.Credentials,
		c.Resolver,
		c.Dispatcher,
		c.AuditLogger,
		c.Logger,
	)

	return nil
}

func (c *Container) initPolicy() error {
	var (
		cas *auth.CasbinService
		err error
	)
	if c.DB != nil {
		cas, err = auth.NewCasbinService(c.DB)
	} else {
		cas, err = auth.NewMemoryCasbinService()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize policy enforcer: %w", err)
	}
	if err := cas.SeedDefaults(); err != nil {
		return err
	}

	c.PolicySvc = cas
	return nil
}

// Close drains pending mail and closes all connections
func (c *Container) Close() error {
	if c.Dispatcher != nil {
		c.Dispatcher.Close()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close redis client", "error", err)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

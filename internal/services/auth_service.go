package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/you/otpauth/domain"
)

const (
	loginEmailSubject    = "Login Notification"
	loginEmailBodyFormat = "New login detected.\n\nTime: %s\nIP: %s\nDevice: %s\n\nIf this wasn't you, please change your password immediately."
	loginTimeLayout      = "2006-01-02 15:04:05 UTC"
)

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	accountRepo domain.AccountRepository
	locker      domain.AccountLocker
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	otpSvc      domain.OTPService
	credentials domain.CredentialVerifier
	resolver    domain.AccountResolver
	notifier    domain.Notifier
	auditLogger domain.AuditLogger
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo domain.AccountRepository,
	locker domain.AccountLocker,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	otpSvc domain.OTPService,
	credentials domain.CredentialVerifier,
	resolver domain.AccountResolver,
	notifier domain.Notifier,
	auditLogger domain.AuditLogger,
	logger *slog.Logger,
) domain.AuthService {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		locker:      locker,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		otpSvc:      otpSvc,
		credentials: credentials,
		resolver:    resolver,
		notifier:    notifier,
		auditLogger: auditLogger,
		logger:      logger,
		now:         time.Now,
	}
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)

	unlock, err := s.locker.Lock(ctx, accountLockKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	defer unlock()

	if _, err := s.accountRepo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrAccountAlreadyExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	hashedPassword, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         domain.DefaultRole,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.AccountRegisteredEvent, account.ID).WithEmail(email))
	return account, nil
}

// Login implements domain.AuthService. A correct password only issues a
// challenge; no token is returned here.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	email = domain.NormalizeEmail(email)

	account, err := s.resolver.ResolveForPasswordLogin(ctx, email)
	if err != nil {
		s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordLoginFailureEvent, 0).WithEmail(email).WithError(err))
		return nil, err
	}

	if err := s.credentials.CheckPassword(account, password); err != nil {
		s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordLoginFailureEvent, account.ID).WithEmail(email).WithError(err))
		return nil, err
	}
	s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordLoginEvent, account.ID).WithEmail(email))

	_, expiresAt, err := s.otpSvc.Issue(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue OTP: %w", err)
	}
	s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.OTPIssuedEvent, account.ID).
		WithEmail(email).
		WithMetadata("expires_at", expiresAt))

	return &domain.LoginResult{
		Account:   account,
		OTPTTL:    s.otpSvc.TTL(),
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyOTP implements domain.AuthService
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, email, code string, client *domain.ClientContext) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	// a code that cannot match never reaches the challenge, so it costs no attempt
	if !wellFormedCode(code, s.otpSvc.CodeLength()) {
		return nil, domain.ErrOTPMalformed
	}

	account, err := s.resolver.ResolveForPasswordLogin(ctx, email)
	if err != nil {
		return nil, err
	}

	outcome, err := s.otpSvc.Verify(ctx, account, code)
	if err != nil {
		s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent, account.ID).
			WithEmail(email).
			WithClientContext(client).
			WithMetadata("outcome", outcome.String()).
			WithError(err))
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}
	if outcome != domain.OTPAccepted {
		s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent, account.ID).
			WithEmail(email).
			WithClientContext(client).
			WithMetadata("outcome", outcome.String()).
			WithError(outcome.Err()))
		return nil, outcome.Err()
	}

	result, err := s.completeLogin(account, client)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyEvent, account.ID).
		WithEmail(email).
		WithClientContext(client))
	return result, nil
}

// AuthenticateWithProvider implements domain.AuthService. Provider logins
// skip the OTP step.
func (s *AuthServiceImpl) AuthenticateWithProvider(ctx context.Context, providerToken string, client *domain.ClientContext) (*domain.AuthResult, error) {
	identity, err := s.credentials.VerifyProviderToken(ctx, providerToken)
	if err != nil {
		s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.ProviderLoginFailureEvent, 0).
			WithClientContext(client).
			WithError(err))
		return nil, err
	}

	account, err := s.resolver.ResolveOrCreateForProvider(ctx, identity)
	if err != nil {
		s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.ProviderLoginFailureEvent, 0).
			WithEmail(identity.Email).
			WithClientContext(client).
			WithMetadata("provider", identity.Provider).
			WithError(err))
		return nil, err
	}

	result, err := s.completeLogin(account, client)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.ProviderLoginEvent, account.ID).
		WithEmail(account.Email).
		WithClientContext(client).
		WithMetadata("provider", identity.Provider))
	return result, nil
}

// GetProfile implements domain.AuthService
func (s *AuthServiceImpl) GetProfile(ctx context.Context, email string) (*domain.Account, error) {
	return s.accountRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
}

// completeLogin signs the session token and queues the login notification
func (s *AuthServiceImpl) completeLogin(account *domain.Account, client *domain.ClientContext) (*domain.AuthResult, error) {
	accessToken, expiresAt, err := s.tokenSvc.IssueAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.notifyLogin(account.Email, client)

	return &domain.AuthResult{
		Account:     account,
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthServiceImpl) notifyLogin(email string, client *domain.ClientContext) {
	ip, userAgent := "unknown", "unknown"
	if client != nil {
		if client.IPAddress != "" {
			ip = client.IPAddress
		}
		if client.UserAgent != "" {
			userAgent = client.UserAgent
		}
	}
	body := fmt.Sprintf(loginEmailBodyFormat, s.now().UTC().Format(loginTimeLayout), ip, userAgent)
	s.notifier.Send(email, loginEmailSubject, body)
}

func wellFormedCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/you/otpauth/domain"
	"github.com/you/otpauth/internal/infrastructure/auth"
	"github.com/you/otpauth/internal/infrastructure/locking"
	"github.com/you/otpauth/internal/infrastructure/repositories"
	"github.com/you/otpauth/internal/logging"
	"github.com/you/otpauth/internal/mocks"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "longpassword1"

// fakeClock is a settable time source shared by the services under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testEnv wires real services over the in-memory store
type testEnv struct {
	repo     *repositories.MemoryAccountRepository
	notifier *mocks.MockNotifier
	audit    *mocks.MockAuditLogger
	provider *mocks.MockProviderVerifier
	tokens   *auth.JWTServiceImpl
	clock    *fakeClock
	otp      *OTPServiceImpl
	auth     *AuthServiceImpl
}

type envOption func(*envConfig)

type envConfig struct {
	otp         OTPConfig
	linkByEmail bool
	repo        domain.AccountRepository
}

func withRepository(repo domain.AccountRepository) envOption {
	return func(c *envConfig) { c.repo = repo }
}

func withLinkByEmail(enabled bool) envOption {
	return func(c *envConfig) { c.linkByEmail = enabled }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{otp: DefaultOTPConfig(), linkByEmail: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	env := &testEnv{
		repo:     repositories.NewMemoryAccountRepository(),
		notifier: mocks.NewMockNotifier(),
		audit:    mocks.NewMockAuditLogger(),
		provider: mocks.NewMockProviderVerifier(),
		tokens:   auth.NewJWTService("test-secret-test-secret-test-secret", "otpauth-test", 30*time.Minute),
		clock:    newFakeClock(),
	}

	var repo domain.AccountRepository = env.repo
	if cfg.repo != nil {
		repo = cfg.repo
	}

	logger := logging.Discard()
	locker := locking.NewKeyedMutex()
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)

	env.otp = NewOTPService(repo, locker, env.notifier, logger, cfg.otp).(*OTPServiceImpl)
	env.otp.now = env.clock.Now

	credentials := NewCredentialService(passwords, env.provider, logger)
	resolver := NewAccountResolver(repo, locker, env.audit, logger, cfg.linkByEmail)

	env.auth = NewAuthService(repo, locker, passwords, env.tokens, env.otp, credentials, resolver, env.notifier, env.audit, logger).(*AuthServiceImpl)
	env.auth.now = env.clock.Now

	return env
}

// registerAndLogin creates a password account and returns the code sent to it
func (e *testEnv) registerAndLogin(t *testing.T, email string) (*domain.Account, string) {
	t.Helper()
	ctx := context.Background()

	account, err := e.auth.Register(ctx, "user", email, testPassword)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code, _, err := e.otp.Issue(ctx, account)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return account, code
}

func googleIdentity(email, subject string) *domain.VerifiedIdentity {
	return &domain.VerifiedIdentity{
		Provider:      "google",
		Subject:       subject,
		Email:         email,
		Name:          "Alice G",
		Picture:       "https://example.com/p.png",
		EmailVerified: true,
	}
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

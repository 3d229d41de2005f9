package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/you/otpauth/domain"
)

const (
	otpEmailSubject    = "Your OTP for Login"
	otpEmailBodyFormat = "Your One-Time Passcode (OTP) is: %s\n\nIt expires in %d seconds."
)

// OTPServiceImpl implements domain.OTPService. The challenge lives on the
// account row; every read-modify-write runs under the account lock.
type OTPServiceImpl struct {
	accountRepo domain.AccountRepository
	locker      domain.AccountLocker
	notifier    domain.Notifier
	logger      *slog.Logger
	config      OTPConfig
	now         func() time.Time
	random      io.Reader
}

// OTPConfig holds challenge parameters
type OTPConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
}

// DefaultOTPConfig returns a 6 digit code valid for 120 seconds and 5 attempts
func DefaultOTPConfig() OTPConfig {
	return OTPConfig{Length: 6, TTL: 120 * time.Second, MaxAttempts: 5}
}

// NewOTPService creates a new OTP service
func NewOTPService(
	accountRepo domain.AccountRepository,
	locker domain.AccountLocker,
	notifier domain.Notifier,
	logger *slog.Logger,
	config OTPConfig,
) domain.OTPService {
	defaults := DefaultOTPConfig()
	if config.Length <= 0 {
		config.Length = defaults.Length
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}

	return &OTPServiceImpl{
		accountRepo: accountRepo,
		locker:      locker,
		notifier:    notifier,
		logger:      logger,
		config:      config,
		now:         time.Now,
		random:      rand.Reader,
	}
}

// CodeLength implements domain.OTPService
func (s *OTPServiceImpl) CodeLength() int {
	return s.config.Length
}

// TTL implements domain.OTPService
func (s *OTPServiceImpl) TTL() time.Duration {
	return s.config.TTL
}

// Issue implements domain.OTPService. A new challenge replaces any previous one.
func (s *OTPServiceImpl) Issue(ctx context.Context, account *domain.Account) (string, time.Time, error) {
	unlock, err := s.locker.Lock(ctx, accountLockKey(account.Email))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to lock account: %w", err)
	}
	defer unlock()

	current, err := s.accountRepo.FindByID(ctx, account.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to reload account: %w", err)
	}

	code, err := s.generateSecureCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	expiresAt := s.now().Add(s.config.TTL)
	current.OTP = domain.OTPChallenge{Code: code, ExpiresAt: expiresAt}
	if err := s.accountRepo.Update(ctx, current); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store OTP: %w", err)
	}
	account.OTP = current.OTP

	body := fmt.Sprintf(otpEmailBodyFormat, code, int(s.config.TTL.Seconds()))
	s.notifier.Send(current.Email, otpEmailSubject, body)

	s.logger.Debug("otp issued", "user_id", current.ID, "expires_at", expiresAt)
	return code, expiresAt, nil
}

// Verify implements domain.OTPService. Checks run in a fixed order:
// presence, expiry, attempt ceiling, then the code itself. Any store or
// lock failure yields OTPRejected with the error.
func (s *OTPServiceImpl) Verify(ctx context.Context, account *domain.Account, code string) (domain.OTPOutcome, error) {
	unlock, err := s.locker.Lock(ctx, accountLockKey(account.Email))
	if err != nil {
		return domain.OTPRejected, fmt.Errorf("failed to lock account: %w", err)
	}
	defer unlock()

	current, err := s.accountRepo.FindByID(ctx, account.ID)
	if err != nil {
		return domain.OTPRejected, fmt.Errorf("failed to reload account: %w", err)
	}

	now := s.now()
	challenge := &current.OTP

	if !challenge.IsSet() {
		return domain.OTPNoChallenge, nil
	}

	if !now.Before(challenge.ExpiresAt) {
		challenge.Clear()
		return s.persist(ctx, current, domain.OTPExpired)
	}

	challenge.Attempts++
	if challenge.Attempts > s.config.MaxAttempts {
		challenge.Clear()
		return s.persist(ctx, current, domain.OTPAttemptsExceeded)
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		return s.persist(ctx, current, domain.OTPMismatch)
	}

	challenge.Clear()
	return s.persist(ctx, current, domain.OTPAccepted)
}

func (s *OTPServiceImpl) persist(ctx context.Context, account *domain.Account, outcome domain.OTPOutcome) (domain.OTPOutcome, error) {
	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("failed to persist otp state", "user_id", account.ID, "outcome", outcome.String(), "error", err)
		return domain.OTPRejected, fmt.Errorf("failed to persist OTP state: %w", err)
	}
	return outcome, nil
}

// generateSecureCode generates a cryptographically secure OTP code
func (s *OTPServiceImpl) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.Length)
	ten := big.NewInt(10)

	for i := range digits {
		num, err := rand.Int(s.random, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}

func accountLockKey(email string) string {
	return "account:" + domain.NormalizeEmail(email)
}

package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/you/otpauth/domain"
)

// CredentialServiceImpl implements domain.CredentialVerifier
type CredentialServiceImpl struct {
	passwordSvc domain.PasswordService
	verifier    domain.ProviderTokenVerifier
	logger      *slog.Logger
}

// NewCredentialService creates a new credential verifier
func NewCredentialService(passwordSvc domain.PasswordService, verifier domain.ProviderTokenVerifier, logger *slog.Logger) domain.CredentialVerifier {
	return &CredentialServiceImpl{
		passwordSvc: passwordSvc,
		verifier:    verifier,
		logger:      logger,
	}
}

// CheckPassword implements domain.CredentialVerifier
func (s *CredentialServiceImpl) CheckPassword(account *domain.Account, presented string) error {
	if !account.HasPassword() {
		return domain.ErrNoAlternateFactor
	}
	if !s.passwordSvc.Verify(account.PasswordHash, presented) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// VerifyProviderToken implements domain.CredentialVerifier. The failure
// reason is logged here and never returned to the caller.
func (s *CredentialServiceImpl) VerifyProviderToken(ctx context.Context, token string) (*domain.VerifiedIdentity, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		reason := "unknown"
		var failure *domain.VerificationFailure
		if errors.As(err, &failure) {
			reason = failure.Reason
		}
		s.logger.Warn("provider token rejected", "provider", s.verifier.Provider(), "reason", reason, "error", err)
		return nil, domain.ErrInvalidProviderToken
	}
	return identity, nil
}

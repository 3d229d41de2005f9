package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/you/otpauth/domain"
)

// AccountResolverImpl implements domain.AccountResolver
type AccountResolverImpl struct {
	accountRepo domain.AccountRepository
	locker      domain.AccountLocker
	auditLogger domain.AuditLogger
	logger      *slog.Logger
	linkByEmail bool
}

// NewAccountResolver creates a resolver. linkByEmail controls whether a
// provider login may attach itself to an existing password account.
func NewAccountResolver(
	accountRepo domain.AccountRepository,
	locker domain.AccountLocker,
	auditLogger domain.AuditLogger,
	logger *slog.Logger,
	linkByEmail bool,
) domain.AccountResolver {
	return &AccountResolverImpl{
		accountRepo: accountRepo,
		locker:      locker,
		auditLogger: auditLogger,
		logger:      logger,
		linkByEmail: linkByEmail,
	}
}

// ResolveForPasswordLogin implements domain.AccountResolver
func (r *AccountResolverImpl) ResolveForPasswordLogin(ctx context.Context, email string) (*domain.Account, error) {
	return r.accountRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
}

// ResolveOrCreateForProvider implements domain.AccountResolver. Lookup runs
// by email, then by provider identity, then creates a new account.
func (r *AccountResolverImpl) ResolveOrCreateForProvider(ctx context.Context, identity *domain.VerifiedIdentity) (*domain.Account, error) {
	email := domain.NormalizeEmail(identity.Email)
	if email == "" || identity.Provider == "" || identity.Subject == "" {
		return nil, domain.ErrInvalidProviderToken
	}

	unlock, err := r.locker.Lock(ctx, accountLockKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	defer unlock()

	account, err := r.accountRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return r.linkIfNeeded(ctx, account, identity)
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("failed to look up account by email: %w", err)
	}

	account, err = r.accountRepo.FindByProviderIdentity(ctx, identity.Provider, identity.Subject)
	switch {
	case err == nil:
		return account, nil
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("failed to look up account by provider identity: %w", err)
	}

	return r.createFromIdentity(ctx, email, identity)
}

// linkIfNeeded attaches the provider identity to an account that has none.
// An identity already present is never replaced.
func (r *AccountResolverImpl) linkIfNeeded(ctx context.Context, account *domain.Account, identity *domain.VerifiedIdentity) (*domain.Account, error) {
	if account.HasProviderIdentity() {
		if account.Provider != identity.Provider || account.ProviderID != identity.Subject {
			r.logger.Info("provider login matched account linked to another identity",
				"user_id", account.ID, "linked_provider", account.Provider, "provider", identity.Provider)
		}
		return account, nil
	}

	if !r.linkByEmail || !identity.EmailVerified {
		r.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.AccountLinkedEvent, account.ID).
			WithEmail(account.Email).
			WithMetadata("provider", identity.Provider).
			WithMetadata("email_verified", identity.EmailVerified).
			WithError(domain.ErrAccountLinkRefused))
		return nil, domain.ErrAccountLinkRefused
	}

	account.Provider = identity.Provider
	account.ProviderID = identity.Subject
	if identity.Picture != "" {
		account.ProfilePicture = identity.Picture
	}
	account.IsVerified = true

	if err := r.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to link provider identity: %w", err)
	}

	r.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.AccountLinkedEvent, account.ID).
		WithEmail(account.Email).
		WithMetadata("provider", identity.Provider))
	return account, nil
}

func (r *AccountResolverImpl) createFromIdentity(ctx context.Context, email string, identity *domain.VerifiedIdentity) (*domain.Account, error) {
	account := &domain.Account{
		Email:          email,
		Username:       identity.Name,
		Provider:       identity.Provider,
		ProviderID:     identity.Subject,
		ProfilePicture: identity.Picture,
		Role:           domain.DefaultRole,
		IsVerified:     true,
	}

	if err := r.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountAlreadyExists) {
			// another instance created it between our lookups
			return r.accountRepo.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	r.auditLogger.LogEvent(ctx, domain.NewAuditEvent(domain.AccountCreatedEvent, account.ID).
		WithEmail(account.Email).
		WithMetadata("provider", identity.Provider))
	return account, nil
}

package domain

import (
	"context"
	"time"
)

// AccountRepository defines account data access operations
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByProviderIdentity(ctx context.Context, provider, providerID string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
	Update(ctx context.Context, account *Account) error
}

// AccountLocker serializes read-modify-write sequences on one account.
// The returned unlock func must be called exactly once.
type AccountLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*Account, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyOTP(ctx context.Context, email, code string, client *ClientContext) (*AuthResult, error)
	AuthenticateWithProvider(ctx context.Context, providerToken string, client *ClientContext) (*AuthResult, error)
	GetProfile(ctx context.Context, email string) (*Account, error)
}

// OTPService defines OTP operations
type OTPService interface {
	Issue(ctx context.Context, account *Account) (code string, expiresAt time.Time, err error)
	Verify(ctx context.Context, account *Account, code string) (OTPOutcome, error)
	TTL() time.Duration
	CodeLength() int
}

// CredentialVerifier checks the factor presented for an account
type CredentialVerifier interface {
	CheckPassword(account *Account, presented string) error
	VerifyProviderToken(ctx context.Context, token string) (*VerifiedIdentity, error)
}

// AccountResolver maps an authentication attempt to exactly one account
type AccountResolver interface {
	ResolveForPasswordLogin(ctx context.Context, email string) (*Account, error)
	ResolveOrCreateForProvider(ctx context.Context, identity *VerifiedIdentity) (*Account, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines session token operations
type TokenService interface {
	IssueAccessToken(account *Account) (token string, expiresAt time.Time, err error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// ProviderTokenVerifier validates a third-party identity token.
// Failures are returned as *VerificationFailure.
type ProviderTokenVerifier interface {
	Provider() string
	Verify(ctx context.Context, token string) (*VerifiedIdentity, error)
}

// EmailSender delivers one message synchronously
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Notifier accepts a message for best-effort asynchronous delivery.
// Send never blocks the caller and reports nothing back.
type Notifier interface {
	Send(to, subject, body string)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	Subject   string `json:"sub"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

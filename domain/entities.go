package domain

import (
	"strings"
	"time"
)

// DefaultRole is assigned to every new account
const DefaultRole = "user"

// Account represents a user account in the system
type Account struct {
	ID             uint
	Email          string
	Username       string
	PasswordHash   string
	Provider       string
	ProviderID     string
	ProfilePicture string
	Role           string
	IsVerified     bool
	OTP            OTPChallenge
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether the account can sign in with a password
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// HasProviderIdentity reports whether a provider identity is attached
func (a *Account) HasProviderIdentity() bool {
	return a.Provider != "" && a.ProviderID != ""
}

// OTPChallenge is the one-time passcode state owned by an account.
// The zero value means no challenge.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// IsSet reports whether a code is present, regardless of expiry
func (c OTPChallenge) IsSet() bool {
	return c.Code != "" && !c.ExpiresAt.IsZero()
}

// IsLive reports whether the challenge can still be verified at now
func (c OTPChallenge) IsLive(now time.Time) bool {
	return c.IsSet() && now.Before(c.ExpiresAt)
}

// Clear drops code, expiry and attempt counter
func (c *OTPChallenge) Clear() {
	*c = OTPChallenge{}
}

// VerifiedIdentity is what a provider asserts about the token holder
type VerifiedIdentity struct {
	Provider      string
	Subject       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// ClientContext represents client information extracted from HTTP request
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// LoginResult represents the outcome of the password step
type LoginResult struct {
	Account   *Account
	OTPTTL    time.Duration
	ExpiresAt time.Time
}

// AuthResult represents a completed authentication
type AuthResult struct {
	Account     *Account
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// NormalizeEmail case-folds and trims an address so it can be used as the natural key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

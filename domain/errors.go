package domain

import "errors"

// Account errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountLinkRefused   = errors.New("account exists and cannot be linked to provider identity")
)

// Credential errors
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNoAlternateFactor    = errors.New("account has no password, use provider sign-in")
	ErrInvalidProviderToken = errors.New("invalid provider token")
	ErrPasswordTooLong      = errors.New("password exceeds 72 bytes")
)

// OTP errors
var (
	ErrOTPNotFound    = errors.New("otp not found")
	ErrOTPExpired     = errors.New("otp has expired")
	ErrOTPMaxAttempts = errors.New("maximum otp attempts exceeded")
	ErrOTPInvalid     = errors.New("invalid otp code")
	ErrOTPRejected    = errors.New("otp verification failed")
	ErrOTPMalformed   = errors.New("otp has the wrong shape")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrAccessDenied = errors.New("access denied by policy")
)

// Locking errors
var (
	ErrLockTimeout = errors.New("timed out waiting for account lock")
)

// VerificationFailure carries the reason a provider token was rejected.
// It must not cross into caller-visible responses.
type VerificationFailure struct {
	Reason string
	Err    error
}

func (f *VerificationFailure) Error() string {
	if f.Err != nil {
		return "provider token verification failed: " + f.Reason + ": " + f.Err.Error()
	}
	return "provider token verification failed: " + f.Reason
}

func (f *VerificationFailure) Unwrap() error { return f.Err }

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestCredentialErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{
			name:        "ErrInvalidCredentials",
			err:         ErrInvalidCredentials,
			expectedMsg: "invalid credentials",
		},
		{
			name:        "ErrNoAlternateFactor",
			err:         ErrNoAlternateFactor,
			expectedMsg: "account has no password, use provider sign-in",
		},
		{
			name:        "ErrInvalidProviderToken",
			err:         ErrInvalidProviderToken,
			expectedMsg: "invalid provider token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expectedMsg {
				t.Errorf("expected error message %q, got %q", tt.expectedMsg, tt.err.Error())
			}

			// password-less accounts must not look like a wrong password
			for _, other := range tests {
				if other.name != tt.name && errors.Is(tt.err, other.err) {
					t.Errorf("error %s should not be equal to %s", tt.name, other.name)
				}
			}
		})
	}
}

func TestOTPOutcome_Err(t *testing.T) {
	tests := []struct {
		outcome  OTPOutcome
		expected error
		name     string
	}{
		{OTPAccepted, nil, "accepted"},
		{OTPNoChallenge, ErrOTPNotFound, "no_challenge"},
		{OTPExpired, ErrOTPExpired, "expired"},
		{OTPAttemptsExceeded, ErrOTPMaxAttempts, "attempts_exceeded"},
		{OTPMismatch, ErrOTPInvalid, "mismatch"},
		{OTPRejected, ErrOTPRejected, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Err(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			if got := tt.outcome.String(); got != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, got)
			}
		})
	}

	var zero OTPOutcome
	if zero == OTPAccepted {
		t.Fatal("zero outcome must not be accepted")
	}
}

func TestVerificationFailure(t *testing.T) {
	cause := errors.New("signature mismatch")
	var err error = &VerificationFailure{Reason: "invalid_signature", Err: cause}

	wrapped := fmt.Errorf("google: %w", err)

	var failure *VerificationFailure
	if !errors.As(wrapped, &failure) {
		t.Fatal("expected VerificationFailure in chain")
	}
	if failure.Reason != "invalid_signature" {
		t.Errorf("expected reason invalid_signature, got %s", failure.Reason)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected cause to be unwrappable")
	}

	bare := &VerificationFailure{Reason: "wrong_issuer"}
	if bare.Error() != "provider token verification failed: wrong_issuer" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

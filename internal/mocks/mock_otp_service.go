package mocks

import (
	"context"
	"time"

	"github.com/you/otpauth/domain"
)

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	IssueFunc  func(ctx context.Context, account *domain.Account) (string, time.Time, error)
	VerifyFunc func(ctx context.Context, account *domain.Account, code string) (domain.OTPOutcome, error)
	TTLValue   time.Duration
	Length     int
}

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{TTLValue: 120 * time.Second, Length: 6}
}

// Issue creates a challenge for the account
func (m *MockOTPService) Issue(ctx context.Context, account *domain.Account) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, account)
	}
	// Default behavior: fixed code
	return "123456", time.Now().Add(m.TTLValue), nil
}

// Verify checks a code against the account's challenge
func (m *MockOTPService) Verify(ctx context.Context, account *domain.Account, code string) (domain.OTPOutcome, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, account, code)
	}
	// Default behavior: accept the fixed code
	if code == "123456" {
		return domain.OTPAccepted, nil
	}
	return domain.OTPMismatch, nil
}

// TTL returns the configured challenge lifetime
func (m *MockOTPService) TTL() time.Duration {
	return m.TTLValue
}

// CodeLength returns the configured code length
func (m *MockOTPService) CodeLength() int {
	return m.Length
}

// Compile-time interface compliance verification
var _ domain.OTPService = (*MockOTPService)(nil)

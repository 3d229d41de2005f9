package mocks

import (
	"fmt"
	"time"

	"github.com/you/otpauth/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueAccessTokenFunc    func(account *domain.Account) (string, time.Time, error)
	ValidateAccessTokenFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueAccessToken signs a session token for the account
func (m *MockTokenService) IssueAccessToken(account *domain.Account) (string, time.Time, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(account)
	}
	// Default behavior: return a deterministic token valid for 30 minutes
	return fmt.Sprintf("access_token_user_%d", account.ID), time.Now().Add(30 * time.Minute), nil
}

// ValidateAccessToken validates a session token
func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)

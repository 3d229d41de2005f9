package mocks

import (
	"context"

	"github.com/you/otpauth/domain"
)

// MockProviderVerifier implements domain.ProviderTokenVerifier interface for testing
type MockProviderVerifier struct {
	ProviderName string
	VerifyFunc   func(ctx context.Context, token string) (*domain.VerifiedIdentity, error)
}

// NewMockProviderVerifier creates a verifier that rejects every token
func NewMockProviderVerifier() *MockProviderVerifier {
	return &MockProviderVerifier{ProviderName: "google"}
}

// Provider returns the provider name
func (m *MockProviderVerifier) Provider() string {
	return m.ProviderName
}

// Verify validates a provider token
func (m *MockProviderVerifier) Verify(ctx context.Context, token string) (*domain.VerifiedIdentity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	// Default behavior: reject
	return nil, &domain.VerificationFailure{Reason: "invalid_token"}
}

// Compile-time interface compliance verification
var _ domain.ProviderTokenVerifier = (*MockProviderVerifier)(nil)

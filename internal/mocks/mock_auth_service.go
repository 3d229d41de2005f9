package mocks

import (
	"context"

	"github.com/you/otpauth/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc                 func(ctx context.Context, username, email, password string) (*domain.Account, error)
	LoginFunc                    func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	VerifyOTPFunc                func(ctx context.Context, email, code string, client *domain.ClientContext) (*domain.AuthResult, error)
	AuthenticateWithProviderFunc func(ctx context.Context, providerToken string, client *domain.ClientContext) (*domain.AuthResult, error)
	GetProfileFunc               func(ctx context.Context, email string) (*domain.Account, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Register creates a password account
func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (*domain.Account, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, email, password)
	}
	// Default behavior: success
	return &domain.Account{ID: 1, Username: username, Email: email, Role: domain.DefaultRole}, nil
}

// Login checks the password and issues a challenge
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// VerifyOTP completes a password login
func (m *MockAuthService) VerifyOTP(ctx context.Context, email, code string, client *domain.ClientContext) (*domain.AuthResult, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, email, code, client)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// AuthenticateWithProvider exchanges a provider token for a session token
func (m *MockAuthService) AuthenticateWithProvider(ctx context.Context, providerToken string, client *domain.ClientContext) (*domain.AuthResult, error) {
	if m.AuthenticateWithProviderFunc != nil {
		return m.AuthenticateWithProviderFunc(ctx, providerToken, client)
	}
	// Default behavior: invalid token
	return nil, domain.ErrInvalidProviderToken
}

// GetProfile loads the account behind a session
func (m *MockAuthService) GetProfile(ctx context.Context, email string) (*domain.Account, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)

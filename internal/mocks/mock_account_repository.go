package mocks

import (
	"context"

	"github.com/you/otpauth/domain"
)

// MockAccountRepository implements domain.AccountRepository interface for testing
type MockAccountRepository struct {
	CreateFunc                 func(ctx context.Context, account *domain.Account) error
	FindByEmailFunc            func(ctx context.Context, email string) (*domain.Account, error)
	FindByProviderIdentityFunc func(ctx context.Context, provider, providerID string) (*domain.Account, error)
	FindByIDFunc               func(ctx context.Context, id uint) (*domain.Account, error)
	UpdateFunc                 func(ctx context.Context, account *domain.Account) error
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

// Create creates a new account
func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	// Default behavior: success
	return nil
}

// FindByEmail finds an account by email
func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// FindByProviderIdentity finds an account by provider name and subject
func (m *MockAccountRepository) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*domain.Account, error) {
	if m.FindByProviderIdentityFunc != nil {
		return m.FindByProviderIdentityFunc(ctx, provider, providerID)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// FindByID finds an account by ID
func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// Update updates an existing account
func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.AccountRepository = (*MockAccountRepository)(nil)

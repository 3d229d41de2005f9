package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/you/otpauth/domain"
)

// MemoryAccountRepository implements domain.AccountRepository in process memory.
// It is non-durable: contents are lost on restart. Callers still serialize
// per-account read-modify-write through a domain.AccountLocker; the mutex here
// only protects the maps. Accounts are copied in and out so no caller holds a
// pointer into the store.
type MemoryAccountRepository struct {
	mu         sync.RWMutex
	nextID     uint
	byID       map[uint]*domain.Account
	byEmail    map[string]uint
	byProvider map[string]uint
	now        func() time.Time
}

// NewMemoryAccountRepository creates an empty in-memory repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:       make(map[uint]*domain.Account),
		byEmail:    make(map[string]uint),
		byProvider: make(map[string]uint),
		now:        time.Now,
	}
}

func providerKey(provider, providerID string) string {
	return provider + "\x00" + providerID
}

// Create implements domain.AccountRepository
func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(account.Email)
	if _, exists := r.byEmail[email]; exists {
		return domain.ErrAccountAlreadyExists
	}
	if account.HasProviderIdentity() {
		if _, exists := r.byProvider[providerKey(account.Provider, account.ProviderID)]; exists {
			return domain.ErrAccountAlreadyExists
		}
	}

	r.nextID++
	now := r.now()
	stored := *account
	stored.ID = r.nextID
	stored.Email = email
	if stored.Role == "" {
		stored.Role = domain.DefaultRole
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID
	if stored.HasProviderIdentity() {
		r.byProvider[providerKey(stored.Provider, stored.ProviderID)] = stored.ID
	}

	account.ID = stored.ID
	account.Email = stored.Email
	account.Role = stored.Role
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// FindByEmail implements domain.AccountRepository
func (r *MemoryAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.copyOf(id), nil
}

// FindByProviderIdentity implements domain.AccountRepository
func (r *MemoryAccountRepository) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byProvider[providerKey(provider, providerID)]
	if !ok || provider == "" || providerID == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.copyOf(id), nil
}

// FindByID implements domain.AccountRepository
func (r *MemoryAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byID[id]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.copyOf(id), nil
}

// Update implements domain.AccountRepository. Email is immutable.
func (r *MemoryAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if account.HasProviderIdentity() {
		key := providerKey(account.Provider, account.ProviderID)
		if owner, exists := r.byProvider[key]; exists && owner != account.ID {
			return domain.ErrAccountAlreadyExists
		}
	}
	if current.HasProviderIdentity() {
		delete(r.byProvider, providerKey(current.Provider, current.ProviderID))
	}

	updated := *account
	updated.Email = current.Email
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.now()
	r.byID[account.ID] = &updated
	if updated.HasProviderIdentity() {
		r.byProvider[providerKey(updated.Provider, updated.ProviderID)] = updated.ID
	}

	account.UpdatedAt = updated.UpdatedAt
	return nil
}

// Len returns the number of stored accounts
func (r *MemoryAccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *MemoryAccountRepository) copyOf(id uint) *domain.Account {
	a := *r.byID[id]
	return &a
}

var _ domain.AccountRepository = (*MemoryAccountRepository)(nil)

package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/otpauth/domain"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBAccount represents the database model for Account (with GORM tags).
// Provider columns are nullable so that the composite unique index
// ignores password-only accounts.
type DBAccount struct {
	ID             uint       `gorm:"primaryKey"`
	Email          string     `gorm:"uniqueIndex;size:255;not null"`
	Username       string     `gorm:"index;size:255;not null"`
	PasswordHash   string     `gorm:"column:password_hash;size:255"`
	Provider       *string    `gorm:"size:32;uniqueIndex:idx_provider_identity"`
	ProviderID     *string    `gorm:"size:255;uniqueIndex:idx_provider_identity"`
	ProfilePicture string     `gorm:"size:1024"`
	Role           string     `gorm:"size:64;default:user"`
	IsVerified     bool       `gorm:"default:false"`
	OTPCode        *string    `gorm:"column:otp;size:12"`
	OTPExpiresAt   *time.Time `gorm:"column:otp_expires_at"`
	OTPAttempts    int        `gorm:"column:otp_attempts;default:0"`
	CreatedAt      time.Time  `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "accounts"
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAccountAlreadyExists
		}
		return err
	}
	account.ID = dbAccount.ID
	account.CreatedAt = dbAccount.CreatedAt
	account.UpdatedAt = dbAccount.UpdatedAt
	return nil
}

// FindByEmail implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email = ?", domain.NormalizeEmail(email))
}

// FindByProviderIdentity implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*domain.Account, error) {
	if provider == "" || providerID == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

// Update implements domain.AccountRepository. All columns except the key,
// email and creation time are written, including zero values, so a cleared
// challenge is persisted as NULL.
func (r *AccountRepositoryImpl) Update(ctx context.Context, account *domain.Account) error {
	if account.ID == 0 {
		return domain.ErrAccountNotFound
	}
	dbAccount := r.domainToDB(account)
	result := r.db.WithContext(ctx).
		Model(dbAccount).
		Select("*").
		Omit("id", "email", "created_at").
		Updates(dbAccount)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrAccountAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	account.UpdatedAt = dbAccount.UpdatedAt
	return nil
}

func (r *AccountRepositoryImpl) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where(query, args...).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// domainToDB converts domain account to database account
func (r *AccountRepositoryImpl) domainToDB(account *domain.Account) *DBAccount {
	dbAccount := &DBAccount{
		ID:             account.ID,
		Email:          domain.NormalizeEmail(account.Email),
		Username:       account.Username,
		PasswordHash:   account.PasswordHash,
		Provider:       nullable(account.Provider),
		ProviderID:     nullable(account.ProviderID),
		ProfilePicture: account.ProfilePicture,
		Role:           account.Role,
		IsVerified:     account.IsVerified,
		OTPCode:        nullable(account.OTP.Code),
		OTPAttempts:    account.OTP.Attempts,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
	if dbAccount.Role == "" {
		dbAccount.Role = domain.DefaultRole
	}
	if !account.OTP.ExpiresAt.IsZero() {
		expiresAt := account.OTP.ExpiresAt.UTC()
		dbAccount.OTPExpiresAt = &expiresAt
	}
	return dbAccount
}

// dbToDomain converts database account to domain account
func (r *AccountRepositoryImpl) dbToDomain(dbAccount *DBAccount) *domain.Account {
	account := &domain.Account{
		ID:             dbAccount.ID,
		Email:          dbAccount.Email,
		Username:       dbAccount.Username,
		PasswordHash:   dbAccount.PasswordHash,
		Provider:       deref(dbAccount.Provider),
		ProviderID:     deref(dbAccount.ProviderID),
		ProfilePicture: dbAccount.ProfilePicture,
		Role:           dbAccount.Role,
		IsVerified:     dbAccount.IsVerified,
		OTP: domain.OTPChallenge{
			Code:     deref(dbAccount.OTPCode),
			Attempts: dbAccount.OTPAttempts,
		},
		CreatedAt: dbAccount.CreatedAt,
		UpdatedAt: dbAccount.UpdatedAt,
	}
	if dbAccount.OTPExpiresAt != nil {
		account.OTP.ExpiresAt = *dbAccount.OTPExpiresAt
	}
	return account
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/you/otpauth/domain"
	"github.com/you/otpauth/internal/mocks"
)

// Example demonstrating how to use mocks in table-driven tests
func TestMockUsageExample(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockAccountRepository, *mocks.MockPasswordService)
		password      string
		expectedError error
	}{
		{
			name: "password matches stored hash",
			setupMocks: func(repo *mocks.MockAccountRepository, pwd *mocks.MockPasswordService) {
				repo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.Account, error) {
					return &domain.Account{ID: 1, Email: email, PasswordHash: "hashed_longpassword1"}, nil
				}
			},
			password: "longpassword1",
		},
		{
			name: "password mismatch",
			setupMocks: func(repo *mocks.MockAccountRepository, pwd *mocks.MockPasswordService) {
				repo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.Account, error) {
					return &domain.Account{ID: 1, Email: email, PasswordHash: "hashed_longpassword1"}, nil
				}
				pwd.VerifyFunc = func(hashedPassword, password string) bool { return false }
			},
			password:      "longpassword1",
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:          "default repository reports not found",
			setupMocks:    func(*mocks.MockAccountRepository, *mocks.MockPasswordService) {},
			password:      "longpassword1",
			expectedError: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockAccountRepository()
			pwd := mocks.NewMockPasswordService()
			tt.setupMocks(repo, pwd)

			err := checkLogin(repo, pwd, "user@example.com", tt.password)
			if !errors.Is(err, tt.expectedError) {
				t.Errorf("expected error %v, got %v", tt.expectedError, err)
			}
		})
	}
}

func TestMockNotifierRecords(t *testing.T) {
	n := mocks.NewMockNotifier()
	n.Send("a@x.com", "Your OTP for Login", "body")

	msgs := n.Messages()
	if len(msgs) != 1 || msgs[0].To != "a@x.com" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func checkLogin(repo domain.AccountRepository, pwd domain.PasswordService, email, password string) error {
	account, err := repo.FindByEmail(context.Background(), email)
	if err != nil {
		return err
	}
	if !pwd.Verify(account.PasswordHash, password) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

package repository

import (
	"context"

	"github.com/wonjun/stiky/internal/domain"
)

// AccountRepository defines the interface for account persistence operations.
type AccountRepository interface {
	// GetByEmail retrieves an account by email. Returns apperrors.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Create inserts a new account and returns its generated id. A duplicate
	// email is reported as an ACCOUNT_EXISTS error.
	Create(ctx context.Context, account *domain.Account) (int64, error)

	// UpdateSocialLink persists the provider, provider id and updated_at of account.
	UpdateSocialLink(ctx context.Context, account *domain.Account) error
}

// UserRepository defines the interface for user record persistence operations.
type UserRepository interface {
	// Create inserts a new user and returns its generated id.
	Create(ctx context.Context, user *domain.User) (int64, error)

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// List returns one page of users, newest first, and the total count.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)

	// Delete removes a user by id.
	Delete(ctx context.Context, id int64) error
}

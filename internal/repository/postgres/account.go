package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonjun/stiky/internal/domain"
	"github.com/wonjun/stiky/pkg/database"
	apperrors "github.com/wonjun/stiky/pkg/errors"
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, nickname, role, provider, provider_id, created_at, updated_at`

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (_ *domain.Account, err error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	ctx, end := database.TraceQuery(ctx, "GetAccountByEmail", query)
	defer func() { end(err) }()

	var a domain.Account
	err = r.db.QueryRow(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.Nickname,
		&a.Role,
		&a.Provider,
		&a.ProviderID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}

// Create inserts a new account. The unique constraint on email is the only
// guard against concurrent signups for the same address.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (id int64, err error) {
	query := `
		INSERT INTO accounts (email, password_hash, nickname, role, provider, provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateAccount", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		a.Email,
		a.PasswordHash,
		a.Nickname,
		a.Role,
		a.Provider,
		a.ProviderID,
		a.CreatedAt,
		a.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, apperrors.AccountExists(a.Email)
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}

	return id, nil
}

// UpdateSocialLink persists the provider link fields of an existing account.
func (r *AccountRepository) UpdateSocialLink(ctx context.Context, a *domain.Account) (err error) {
	query := `
		UPDATE accounts
		SET provider = $1, provider_id = $2, updated_at = $3
		WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "UpdateAccountSocialLink", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, a.Provider, a.ProviderID, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update account social link: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", fmt.Sprint(a.ID))
	}

	return nil
}

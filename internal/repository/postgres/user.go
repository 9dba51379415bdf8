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

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and returns the generated id.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (id int64, err error) {
	query := `
		INSERT INTO users (name, email, age, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, u.Name, u.Email, u.Age, u.CreatedAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (_ *domain.User, err error) {
	query := `SELECT id, name, email, age, created_at FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetUserByID", query)
	defer func() { end(err) }()

	var u domain.User
	err = r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// List returns users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) (_ []domain.User, total int, err error) {
	countQuery := `SELECT COUNT(*) FROM users`
	query := `
		SELECT id, name, email, age, created_at
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListUsers", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		var u domain.User
		if err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, total, nil
}

// Delete removes a user by id.
func (r *UserRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", fmt.Sprint(id))
	}
	return nil
}

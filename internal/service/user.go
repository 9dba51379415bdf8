package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wonjun/stiky/internal/domain"
	"github.com/wonjun/stiky/internal/repository"
	"github.com/wonjun/stiky/pkg/pagination"
)

// UserService manages plain user records.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: time.Now}
}

// CreateUserInput holds the parameters for creating a user record.
type CreateUserInput struct {
	Name  string
	Email string
	Age   int
}

// Create stores a new user record and returns its id.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (int64, error) {
	user := &domain.User{
		Name:      input.Name,
		Email:     input.Email,
		Age:       input.Age,
		CreatedAt: s.now().UTC(),
	}

	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", slog.Int64("user_id", id))
	return id, nil
}

// Get returns a user record by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns one page of user records.
func (s *UserService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.User], error) {
	users, total, err := s.repo.List(ctx, params.Size, params.Offset)
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(users, total, params), nil
}

// Delete removes a user record.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))
	return nil
}

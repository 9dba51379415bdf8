package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wonjun/stiky/internal/domain"
	apperrors "github.com/wonjun/stiky/pkg/errors"
	"github.com/wonjun/stiky/pkg/pagination"
)

func newUserService(repo *mockUserRepository) *UserService {
	return NewUserService(repo, newTestLogger())
}

func TestUserService_Create(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Name == "Kim" && u.Email == "kim@x.com" && u.Age == 30 && !u.CreatedAt.IsZero()
	})).Return(int64(5), nil)

	id, err := svc.Create(ctx, CreateUserInput{Name: "Kim", Email: "kim@x.com", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	repo.AssertExpectations(t)
}

func TestUserService_Get_NotFound(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newUserService(repo)
	ctx := context.Background()
	repo.On("GetByID", ctx, int64(99)).Return(nil, apperrors.NotFound("user", "99"))

	_, err := svc.Get(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestUserService_List(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newUserService(repo)
	ctx := context.Background()
	users := []domain.User{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}}
	repo.On("List", ctx, 2, 0).Return(users, 3, nil)

	result, err := svc.List(ctx, pagination.Params{Page: 1, Size: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 2, result.TotalPages)
	assert.True(t, result.HasNext)
}

func TestUserService_List_Error(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newUserService(repo)
	ctx := context.Background()
	repo.On("List", ctx, 20, 0).Return([]domain.User(nil), 0, errors.New("db down"))

	_, err := svc.List(ctx, pagination.DefaultParams())
	assert.Error(t, err)
}

func TestUserService_Delete(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newUserService(repo)
	ctx := context.Background()
	repo.On("Delete", ctx, int64(1)).Return(nil)
	repo.On("Delete", ctx, int64(2)).Return(apperrors.NotFound("user", "2"))

	require.NoError(t, svc.Delete(ctx, 1))
	assert.ErrorIs(t, svc.Delete(ctx, 2), apperrors.ErrNotFound)
}

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

func TestUserService_CreateUser(t *testing.T) {
	t.Run("registers a new volunteer available with empty stats", func(t *testing.T) {
		repo := new(MockUserRepository)
		bus := NewMockEventBus()
		service := services.NewUserService(repo)
		service.SetEventBus(bus)

		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.ID == 10001 && u.Role == entities.UserRoleVolunteer &&
				u.IsAvailable && u.Rating == 0 && u.TotalCalls == 0 && !u.CreatedAt.IsZero()
		})).Return(true, nil)

		user, created, err := service.CreateUser(context.Background(), services.CreateUserInput{
			ID:   10001,
			Name: "  Anna  ",
			Role: entities.UserRoleVolunteer,
		})

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "Anna", user.Name)
		require.Len(t, bus.Published(), 1)
		assert.Equal(t, entities.SessionEventVolunteerUpdated, bus.Published()[0].Type)
		repo.AssertExpectations(t)
	})

	t.Run("returns the stored user when the id exists", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)
		existing := volunteer(10001)

		repo.On("Create", mock.Anything, mock.Anything).Return(false, nil)
		repo.On("GetByID", mock.Anything, int64(10001)).Return(existing, nil)

		user, created, err := service.CreateUser(context.Background(), services.CreateUserInput{
			ID:   10001,
			Name: "Someone else",
		})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, existing, user)
		assert.InDelta(t, 4.8, user.Rating, 0.0001)
	})

	t.Run("defaults the role to user", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)

		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.Role == entities.UserRoleUser
		})).Return(true, nil)

		_, created, err := service.CreateUser(context.Background(), services.CreateUserInput{ID: 20001, Name: "Ivan"})

		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := map[string]services.CreateUserInput{
			"missing id":   {Name: "Ivan"},
			"blank name":   {ID: 1, Name: "   "},
			"unknown role": {ID: 1, Name: "Ivan", Role: "moderator"},
		}
		for name, input := range cases {
			t.Run(name, func(t *testing.T) {
				repo := new(MockUserRepository)
				service := services.NewUserService(repo)

				_, _, err := service.CreateUser(context.Background(), input)

				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
				repo.AssertNotCalled(t, "Create")
			})
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Run("bans a volunteer and announces it", func(t *testing.T) {
		repo := new(MockUserRepository)
		bus := NewMockEventBus()
		service := services.NewUserService(repo)
		service.SetEventBus(bus)
		banned := true

		repo.On("GetByID", mock.Anything, int64(10001)).Return(volunteer(10001), nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.Banned && u.Name == "Anna"
		})).Return(nil)

		user, err := service.UpdateUser(context.Background(), 10001, entities.UserPatch{Banned: &banned})

		require.NoError(t, err)
		assert.True(t, user.Banned)
		assert.Len(t, bus.Published(), 1)
		repo.AssertExpectations(t)
	})

	t.Run("returns not found for unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)
		name := "x"

		repo.On("GetByID", mock.Anything, int64(404)).Return(nil, apperrors.NewNotFoundError("user with id 404 not found"))

		_, err := service.UpdateUser(context.Background(), 404, entities.UserPatch{Name: &name})

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		repo.AssertNotCalled(t, "Update")
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)
		role := entities.UserRole("root")

		_, err := service.UpdateUser(context.Background(), 1, entities.UserPatch{Role: &role})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestUserService_ListUsers(t *testing.T) {
	t.Run("applies the default page size", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)

		repo.On("List", mock.Anything, repositories.UserFilter{Role: entities.UserRoleVolunteer, Limit: services.DefaultListLimit}).
			Return([]*entities.User{volunteer(10001)}, nil)

		users, err := service.ListUsers(context.Background(), repositories.UserFilter{Role: entities.UserRoleVolunteer})

		require.NoError(t, err)
		assert.Len(t, users, 1)
		repo.AssertExpectations(t)
	})

	t.Run("caps the page size", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)

		repo.On("List", mock.Anything, repositories.UserFilter{Limit: services.MaxListLimit, Offset: 10}).
			Return([]*entities.User{}, nil)

		_, err := service.ListUsers(context.Background(), repositories.UserFilter{Limit: 10000, Offset: 10})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a negative skip", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := services.NewUserService(repo)

		_, err := service.ListUsers(context.Background(), repositories.UserFilter{Offset: -1})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

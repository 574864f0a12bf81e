package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories/memstore"
)

func TestAdminID(t *testing.T) {
	assert.Equal(t, "explicit", AdminID("explicit", "admin@college.edu"))
	assert.Equal(t, AdminID("", "Admin@College.edu"), AdminID("", "admin@college.edu"))
	assert.NotEqual(t, AdminID("", "a@college.edu"), AdminID("", "b@college.edu"))
}

func TestCreateDefaultAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates once", func(t *testing.T) {
		repos := memstore.NewRepositories()
		first, err := CreateDefaultAdmin(ctx, repos.UserRepository, "", "admin@college.edu", zerolog.Nop())
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, models.RoleAdmin, first.Role)
		assert.True(t, first.IsActive)

		second, err := CreateDefaultAdmin(ctx, repos.UserRepository, "", "admin@college.edu", zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		_, total, err := repos.UserRepository.List(ctx, models.UserFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("promotes existing profile", func(t *testing.T) {
		repos := memstore.NewRepositories()
		require.NoError(t, repos.UserRepository.Create(ctx, &models.User{
			ID: "uid-1", Email: "dean@college.edu", DisplayName: "Dean", Role: models.RoleTeacher, IsActive: true,
		}))

		admin, err := CreateDefaultAdmin(ctx, repos.UserRepository, "uid-1", "dean@college.edu", zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, admin.Role)

		stored, err := repos.UserRepository.GetByID(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, stored.Role)
		assert.Equal(t, "Dean", stored.DisplayName)
	})

	t.Run("no email configured", func(t *testing.T) {
		repos := memstore.NewRepositories()
		admin, err := CreateDefaultAdmin(ctx, repos.UserRepository, "", "", zerolog.Nop())
		require.NoError(t, err)
		assert.Nil(t, admin)
	})
}

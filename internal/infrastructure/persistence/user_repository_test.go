package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

func TestGormUserRepository(t *testing.T) {
	db := setupRetailDB(t)
	seedRetailFixtures(t, db)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	t.Run("create and find round-trip", func(t *testing.T) {
		storeID := 1
		err := repo.Create(ctx, &models.User{
			Username:     "manager1",
			PasswordHash: "$2a$10$notarealhash",
			Role:         models.RoleStoreManager,
			StoreID:      &storeID,
		})
		require.NoError(t, err)

		user, err := repo.FindByUsername(ctx, "manager1")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, models.RoleStoreManager, user.Role)
		require.NotNil(t, user.StoreID)
		assert.Equal(t, 1, *user.StoreID)
	})

	t.Run("nil for unknown username", func(t *testing.T) {
		user, err := repo.FindByUsername(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{
			Username:     "admin",
			PasswordHash: "x",
			Role:         models.RoleAdmin,
		})
		require.NoError(t, err)

		err = repo.Create(ctx, &models.User{
			Username:     "admin",
			PasswordHash: "y",
			Role:         models.RoleAdmin,
		})
		assert.Error(t, err)
	})
}

func TestGormCategoryRepository_List(t *testing.T) {
	db := setupRetailDB(t)
	seedRetailFixtures(t, db)
	repo := NewGormCategoryRepository(db)

	categories, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Accessories", categories[0].CategoryName)
	assert.Equal(t, "Apparel", categories[1].CategoryName)
	assert.Equal(t, "Footwear", categories[2].CategoryName)
}

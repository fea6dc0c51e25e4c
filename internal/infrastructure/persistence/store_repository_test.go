package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStoreRepository_ListWithInventory(t *testing.T) {
	db := setupRetailDB(t)
	seedRetailFixtures(t, db)
	repo := NewGormStoreRepository(db)

	rows, err := repo.ListWithInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	t.Run("physical stores sort before online, then by name", func(t *testing.T) {
		assert.Equal(t, "Portland Pearl District", rows[0].StoreName)
		assert.Equal(t, "Seattle Pike Place", rows[1].StoreName)
		assert.Equal(t, "Zava Online", rows[2].StoreName)
		assert.True(t, rows[2].IsOnline)
	})

	t.Run("stores without inventory report zero aggregates", func(t *testing.T) {
		portland := rows[0]
		assert.Equal(t, 0, portland.ProductCount)
		assert.Equal(t, 0, portland.TotalStock)
		assert.True(t, portland.InventoryCostValue.IsZero())
		assert.True(t, portland.InventoryRetailValue.IsZero())
	})

	t.Run("aggregates count distinct products and value stock", func(t *testing.T) {
		seattle := rows[1]
		assert.Equal(t, 3, seattle.ProductCount)
		assert.Equal(t, 57, seattle.TotalStock)
		// 5*5 + 40*20 + 12*30
		assert.Equal(t, "1185", seattle.InventoryCostValue.String())
		// 5*15 + 40*45 + 12*60
		assert.Equal(t, "2595", seattle.InventoryRetailValue.String())

		online := rows[2]
		assert.Equal(t, 1, online.ProductCount)
		assert.Equal(t, 100, online.TotalStock)
		assert.Equal(t, "500", online.InventoryCostValue.String())
		assert.Equal(t, "1500", online.InventoryRetailValue.String())
	})
}

func TestGormStoreRepository_GetName(t *testing.T) {
	db := setupRetailDB(t)
	seedRetailFixtures(t, db)
	repo := NewGormStoreRepository(db)

	t.Run("returns name of existing store", func(t *testing.T) {
		name, err := repo.GetName(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Seattle Pike Place", name)
	})

	t.Run("returns empty string for unknown store", func(t *testing.T) {
		name, err := repo.GetName(context.Background(), 999)
		require.NoError(t, err)
		assert.Empty(t, name)
	})
}

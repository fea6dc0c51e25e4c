package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// StoreInventoryRow is a store with its aggregated inventory figures.
type StoreInventoryRow struct {
	StoreID              int
	StoreName            string
	IsOnline             bool
	ProductCount         int
	TotalStock           int
	InventoryCostValue   decimal.Decimal
	InventoryRetailValue decimal.Decimal
}

// GormStoreRepository implements store queries using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// ListWithInventory returns every store with distinct product count, total
// stock and cost/retail valuation of the stock on hand. Stores without
// inventory rows still appear with zeroed aggregates.
func (r *GormStoreRepository) ListWithInventory(ctx context.Context) ([]StoreInventoryRow, error) {
	var rows []StoreInventoryRow

	err := r.db.WithContext(ctx).
		Table("stores s").
		Select(`
			s.store_id,
			s.store_name,
			s.is_online,
			COUNT(DISTINCT i.product_id) as product_count,
			COALESCE(SUM(i.stock_level), 0) as total_stock,
			COALESCE(SUM(i.stock_level * p.cost), 0) as inventory_cost_value,
			COALESCE(SUM(i.stock_level * p.base_price), 0) as inventory_retail_value
		`).
		Joins("LEFT JOIN inventory i ON s.store_id = i.store_id").
		Joins("LEFT JOIN products p ON i.product_id = p.product_id").
		Group("s.store_id, s.store_name, s.is_online").
		Order("s.is_online ASC, s.store_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetName returns the store name for the given ID, or an empty string if
// the store does not exist.
func (r *GormStoreRepository) GetName(ctx context.Context, storeID int) (string, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Select("store_name").
		First(&store, "store_id = ?", storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return store.StoreName, nil
}

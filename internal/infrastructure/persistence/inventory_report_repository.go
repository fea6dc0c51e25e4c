package persistence

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryRow is one store/product stock position with product, category
// and supplier detail.
type InventoryRow struct {
	StoreID      int
	StoreName    string
	IsOnline     bool
	ProductID    int
	ProductName  string
	SKU          string `gorm:"column:sku"`
	CategoryName string
	TypeName     string
	StockLevel   int
	Cost         decimal.Decimal
	BasePrice    decimal.Decimal
	SupplierName string
	SupplierCode string
	LeadTimeDays *int
	ImageURL     string `gorm:"column:image_url"`
}

// InventorySummaryRow aggregates the same filtered set the item listing
// draws from, so total_stock_value always equals the sum of the item
// stock values.
type InventorySummaryRow struct {
	TotalItems       int
	LowStockCount    int
	TotalStockValue  decimal.Decimal
	TotalRetailValue decimal.Decimal
	AvgStockLevel    float64
}

// TopCategoryRow ranks a category by the retail value of stock on hand.
type TopCategoryRow struct {
	CategoryName     string
	ProductCount     int
	TotalStock       int
	TotalCostValue   decimal.Decimal
	TotalRetailValue decimal.Decimal
	PotentialProfit  decimal.Decimal
}

// InventoryFilter holds the optional filters shared by the inventory item
// and summary queries. StoreID is forced for store managers.
type InventoryFilter struct {
	StoreID           *int
	ProductID         *int
	Category          string
	LowStockThreshold int
	Limit             int
}

// GormInventoryReportRepository implements inventory reporting queries using GORM
type GormInventoryReportRepository struct {
	db *gorm.DB
}

// NewGormInventoryReportRepository creates a new GormInventoryReportRepository
func NewGormInventoryReportRepository(db *gorm.DB) *GormInventoryReportRepository {
	return &GormInventoryReportRepository{db: db}
}

func (r *GormInventoryReportRepository) filteredQuery(ctx context.Context, filter InventoryFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("inventory i").
		Joins("JOIN stores st ON i.store_id = st.store_id").
		Joins("JOIN products p ON i.product_id = p.product_id").
		Joins("JOIN categories c ON p.category_id = c.category_id").
		Joins("JOIN product_types pt ON p.type_id = pt.type_id")

	if filter.StoreID != nil {
		query = query.Where("st.store_id = ?", *filter.StoreID)
	}
	if filter.ProductID != nil {
		query = query.Where("p.product_id = ?", *filter.ProductID)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(c.category_name) = LOWER(?)", filter.Category)
	}
	return query
}

// Items returns stock positions matching the filter, lowest stock first.
func (r *GormInventoryReportRepository) Items(ctx context.Context, filter InventoryFilter) ([]InventoryRow, error) {
	var rows []InventoryRow
	err := r.filteredQuery(ctx, filter).
		Select(`
			st.store_id,
			st.store_name,
			st.is_online,
			p.product_id,
			p.product_name,
			p.sku,
			c.category_name,
			pt.type_name,
			i.stock_level,
			p.cost,
			p.base_price,
			s.supplier_name,
			s.supplier_code,
			s.lead_time_days,
			p.image_url
		`).
		Joins("LEFT JOIN suppliers s ON p.supplier_id = s.supplier_id").
		Order("i.stock_level ASC, st.store_name, p.product_name").
		Limit(filter.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Summary aggregates the full filtered set, independent of the item limit.
func (r *GormInventoryReportRepository) Summary(ctx context.Context, filter InventoryFilter) (*InventorySummaryRow, error) {
	var row InventorySummaryRow
	err := r.filteredQuery(ctx, filter).
		Select(`
			COUNT(DISTINCT p.product_id) as total_items,
			COALESCE(SUM(CASE WHEN i.stock_level < ? THEN 1 ELSE 0 END), 0) as low_stock_count,
			COALESCE(SUM(i.stock_level * p.cost), 0) as total_stock_value,
			COALESCE(SUM(i.stock_level * p.base_price), 0) as total_retail_value,
			COALESCE(AVG(i.stock_level), 0) as avg_stock_level
		`, filter.LowStockThreshold).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// TopCategories ranks categories by retail value of active stock. A non-nil
// storeID scopes the ranking to one store.
func (r *GormInventoryReportRepository) TopCategories(ctx context.Context, limit int, storeID *int) ([]TopCategoryRow, error) {
	query := r.db.WithContext(ctx).
		Table("inventory i").
		Select(`
			c.category_name,
			COUNT(DISTINCT p.product_id) as product_count,
			COALESCE(SUM(i.stock_level), 0) as total_stock,
			COALESCE(SUM(i.stock_level * p.cost), 0) as total_cost_value,
			COALESCE(SUM(i.stock_level * p.base_price), 0) as total_retail_value,
			COALESCE(SUM(i.stock_level * (p.base_price - p.cost)), 0) as potential_profit
		`).
		Joins("JOIN products p ON i.product_id = p.product_id").
		Joins("JOIN categories c ON p.category_id = c.category_id").
		Where("p.discontinued = ?", false)

	if storeID != nil {
		query = query.Where("i.store_id = ?", *storeID)
	}

	var rows []TopCategoryRow
	err := query.
		Group("c.category_name").
		Order("total_retail_value DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

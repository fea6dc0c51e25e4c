package persistence

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductRow is a catalog product joined with its category, type and supplier.
type ProductRow struct {
	ProductID          int
	SKU                string `gorm:"column:sku"`
	ProductName        string
	CategoryName       string
	TypeName           string
	UnitPrice          decimal.Decimal
	Cost               decimal.Decimal
	GrossMarginPercent decimal.Decimal
	ProductDescription string
	SupplierName       string
	Discontinued       bool
	ImageURL           string `gorm:"column:image_url"`
}

// ManagementProductRow extends ProductRow with supplier detail and stock
// aggregates for the management console.
type ManagementProductRow struct {
	ProductID          int
	SKU                string `gorm:"column:sku"`
	ProductName        string
	ProductDescription string
	CategoryName       string
	TypeName           string
	BasePrice          decimal.Decimal
	Cost               decimal.Decimal
	GrossMarginPercent decimal.Decimal
	Discontinued       bool
	SupplierID         *int
	SupplierName       string
	SupplierCode       string
	LeadTimeDays       *int
	TotalStock         int
	StoreCount         int
	ImageURL           string `gorm:"column:image_url"`
}

// ManagementProductFilter holds the optional filters of the management
// product listing. StoreID scopes the listing to products stocked at one
// store and is forced for store managers.
type ManagementProductFilter struct {
	StoreID      *int
	Category     string
	SupplierID   *int
	Discontinued *bool
	Search       string
	Limit        int
	Offset       int
}

// GormProductRepository implements product queries using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

const productColumns = `
	p.product_id,
	p.sku,
	p.product_name,
	c.category_name,
	pt.type_name,
	p.base_price as unit_price,
	p.cost,
	p.gross_margin_percent,
	p.product_description,
	s.supplier_name,
	p.discontinued,
	p.image_url
`

func (r *GormProductRepository) productQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products p").
		Select(productColumns).
		Joins("JOIN categories c ON p.category_id = c.category_id").
		Joins("JOIN product_types pt ON p.type_id = pt.type_id").
		Joins("LEFT JOIN suppliers s ON p.supplier_id = s.supplier_id")
}

// Featured returns up to limit non-discontinued products, highest-margin
// first with a random tiebreak so the homepage rotates.
func (r *GormProductRepository) Featured(ctx context.Context, limit int) ([]ProductRow, error) {
	var rows []ProductRow
	err := r.productQuery(ctx).
		Where("p.discontinued = ?", false).
		Order("p.gross_margin_percent DESC, RANDOM()").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByCategory returns the number of active products in a category
// (case-insensitive name match).
func (r *GormProductRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("products p").
		Joins("JOIN categories c ON p.category_id = c.category_id").
		Where("p.discontinued = ?", false).
		Where("LOWER(c.category_name) = LOWER(?)", category).
		Count(&count).Error
	return count, err
}

// ByCategory returns a page of active products in a category ordered by name.
func (r *GormProductRepository) ByCategory(ctx context.Context, category string, limit, offset int) ([]ProductRow, error) {
	var rows []ProductRow
	err := r.productQuery(ctx).
		Where("p.discontinued = ?", false).
		Where("LOWER(c.category_name) = LOWER(?)", category).
		Order("p.product_name").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ByID returns a single product, nil if not found.
func (r *GormProductRepository) ByID(ctx context.Context, productID int) (*ProductRow, error) {
	var rows []ProductRow
	err := r.productQuery(ctx).
		Where("p.product_id = ?", productID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// BySKU returns a single product by SKU, nil if not found.
func (r *GormProductRepository) BySKU(ctx context.Context, sku string) (*ProductRow, error) {
	var rows []ProductRow
	err := r.productQuery(ctx).
		Where("p.sku = ?", sku).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *GormProductRepository) managementQuery(ctx context.Context, filter ManagementProductFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("products p").
		Joins("JOIN categories c ON p.category_id = c.category_id").
		Joins("JOIN product_types pt ON p.type_id = pt.type_id").
		Joins("LEFT JOIN suppliers s ON p.supplier_id = s.supplier_id").
		Joins("LEFT JOIN inventory i ON p.product_id = i.product_id")

	if filter.StoreID != nil {
		query = query.Where("i.store_id = ?", *filter.StoreID)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(c.category_name) = LOWER(?)", filter.Category)
	}
	if filter.SupplierID != nil {
		query = query.Where("p.supplier_id = ?", *filter.SupplierID)
	}
	if filter.Discontinued != nil {
		query = query.Where("p.discontinued = ?", *filter.Discontinued)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"LOWER(p.product_name) LIKE LOWER(?) OR LOWER(p.sku) LIKE LOWER(?) OR LOWER(p.product_description) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}
	return query
}

// ManagementCount returns the total number of products matching the filter.
func (r *GormProductRepository) ManagementCount(ctx context.Context, filter ManagementProductFilter) (int64, error) {
	var count int64
	err := r.managementQuery(ctx, filter).
		Distinct("p.product_id").
		Count(&count).Error
	return count, err
}

// ManagementList returns a page of products with stock aggregates for
// the management console.
func (r *GormProductRepository) ManagementList(ctx context.Context, filter ManagementProductFilter) ([]ManagementProductRow, error) {
	var rows []ManagementProductRow
	err := r.managementQuery(ctx, filter).
		Select(`
			p.product_id,
			p.sku,
			p.product_name,
			p.product_description,
			c.category_name,
			pt.type_name,
			p.base_price,
			p.cost,
			p.gross_margin_percent,
			p.discontinued,
			s.supplier_id,
			s.supplier_name,
			s.supplier_code,
			s.lead_time_days,
			COALESCE(SUM(i.stock_level), 0) as total_stock,
			COUNT(i.store_id) as store_count,
			p.image_url
		`).
		Group("p.product_id, p.sku, p.product_name, p.product_description, c.category_name, pt.type_name, p.base_price, p.cost, p.gross_margin_percent, p.discontinued, s.supplier_id, s.supplier_name, s.supplier_code, s.lead_time_days, p.image_url").
		Order("p.product_name").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

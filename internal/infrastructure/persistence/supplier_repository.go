package persistence

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SupplierRow is an active supplier as shown in the management console.
type SupplierRow struct {
	SupplierID          int
	SupplierName        string
	SupplierCode        string
	ContactEmail        string
	ContactPhone        string
	City                string
	StateProvince       string
	PaymentTerms        string
	LeadTimeDays        int
	MinimumOrderAmount  decimal.Decimal
	BulkDiscountPercent decimal.Decimal
	SupplierRating      decimal.Decimal
	ESGCompliant        bool `gorm:"column:esg_compliant"`
	ApprovedVendor      bool
	PreferredVendor     bool
}

// GormSupplierRepository implements supplier queries using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// ListActive returns active suppliers, preferred and highest-rated first.
// A non-nil storeID restricts the list to suppliers whose products are
// stocked at that store.
func (r *GormSupplierRepository) ListActive(ctx context.Context, storeID *int) ([]SupplierRow, error) {
	query := r.db.WithContext(ctx).
		Table("suppliers s").
		Select(`
			s.supplier_id,
			s.supplier_name,
			s.supplier_code,
			s.contact_email,
			s.contact_phone,
			s.city,
			s.state_province,
			s.payment_terms,
			s.lead_time_days,
			s.minimum_order_amount,
			s.bulk_discount_percent,
			s.supplier_rating,
			s.esg_compliant,
			s.approved_vendor,
			s.preferred_vendor
		`).
		Where("s.active_status = ?", true)

	if storeID != nil {
		query = query.Where(`s.supplier_id IN (
			SELECT DISTINCT p.supplier_id
			FROM inventory i
			JOIN products p ON i.product_id = p.product_id
			WHERE i.store_id = ? AND p.supplier_id IS NOT NULL
		)`, *storeID)
	}

	var rows []SupplierRow
	err := query.
		Order("s.preferred_vendor DESC, s.supplier_rating DESC, s.supplier_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CategoryNames returns the distinct category names a supplier provides
// products for.
func (r *GormSupplierRepository) CategoryNames(ctx context.Context, supplierID int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("products p").
		Distinct("c.category_name").
		Joins("JOIN categories c ON p.category_id = c.category_id").
		Where("p.supplier_id = ?", supplierID).
		Pluck("c.category_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

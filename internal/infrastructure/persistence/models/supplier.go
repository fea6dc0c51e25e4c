package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a product vendor.
type Supplier struct {
	SupplierID             int             `gorm:"column:supplier_id;primaryKey;autoIncrement"`
	SupplierName           string          `gorm:"column:supplier_name;not null"`
	SupplierCode           string          `gorm:"column:supplier_code;not null;uniqueIndex"`
	ContactEmail           string          `gorm:"column:contact_email"`
	ContactPhone           string          `gorm:"column:contact_phone"`
	AddressLine1           string          `gorm:"column:address_line1"`
	AddressLine2           string          `gorm:"column:address_line2"`
	City                   string          `gorm:"column:city"`
	StateProvince          string          `gorm:"column:state_province"`
	PostalCode             string          `gorm:"column:postal_code"`
	Country                string          `gorm:"column:country;default:USA"`
	PaymentTerms           string          `gorm:"column:payment_terms;default:Net 30"`
	LeadTimeDays           int             `gorm:"column:lead_time_days;default:14"`
	MinimumOrderAmount     decimal.Decimal `gorm:"column:minimum_order_amount;type:decimal(10,2);default:0.00"`
	BulkDiscountThreshold  decimal.Decimal `gorm:"column:bulk_discount_threshold;type:decimal(10,2);default:10000.00"`
	BulkDiscountPercent    decimal.Decimal `gorm:"column:bulk_discount_percent;type:decimal(5,2);default:5.00"`
	SupplierRating         decimal.Decimal `gorm:"column:supplier_rating;type:decimal(3,2);default:3.00"`
	ESGCompliant           bool            `gorm:"column:esg_compliant;default:true"`
	ApprovedVendor         bool            `gorm:"column:approved_vendor;default:true"`
	PreferredVendor        bool            `gorm:"column:preferred_vendor;default:false"`
	ActiveStatus           bool            `gorm:"column:active_status;default:true"`
	CreatedAt              time.Time       `gorm:"column:created_at"`
	LastUpdated            time.Time       `gorm:"column:last_updated"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierPerformance is a periodic supplier evaluation record.
type SupplierPerformance struct {
	PerformanceID   int             `gorm:"column:performance_id;primaryKey;autoIncrement"`
	SupplierID      int             `gorm:"column:supplier_id;not null;index"`
	EvaluationDate  time.Time       `gorm:"column:evaluation_date;type:date;not null"`
	CostScore       decimal.Decimal `gorm:"column:cost_score;type:decimal(3,2);default:3.00"`
	QualityScore    decimal.Decimal `gorm:"column:quality_score;type:decimal(3,2);default:3.00"`
	DeliveryScore   decimal.Decimal `gorm:"column:delivery_score;type:decimal(3,2);default:3.00"`
	ComplianceScore decimal.Decimal `gorm:"column:compliance_score;type:decimal(3,2);default:3.00"`
	OverallScore    decimal.Decimal `gorm:"column:overall_score;type:decimal(3,2);default:3.00"`
	Notes           string          `gorm:"column:notes"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID;references:SupplierID"`
}

// TableName returns the table name for GORM
func (SupplierPerformance) TableName() string {
	return "supplier_performance"
}

// SupplierContract is a commercial agreement with a supplier.
type SupplierContract struct {
	ContractID     int             `gorm:"column:contract_id;primaryKey;autoIncrement"`
	SupplierID     int             `gorm:"column:supplier_id;not null;index"`
	ContractNumber string          `gorm:"column:contract_number;not null;uniqueIndex"`
	ContractStatus string          `gorm:"column:contract_status;default:active"`
	StartDate      time.Time       `gorm:"column:start_date;type:date;not null"`
	EndDate        *time.Time      `gorm:"column:end_date;type:date"`
	ContractValue  decimal.Decimal `gorm:"column:contract_value;type:decimal(12,2)"`
	PaymentTerms   string          `gorm:"column:payment_terms;not null"`
	AutoRenew      bool            `gorm:"column:auto_renew;default:false"`
	CreatedAt      time.Time       `gorm:"column:created_at"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID;references:SupplierID"`
}

// TableName returns the table name for GORM
func (SupplierContract) TableName() string {
	return "supplier_contracts"
}

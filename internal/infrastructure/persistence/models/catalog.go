package models

import "github.com/shopspring/decimal"

// Category is a top-level product category.
type Category struct {
	CategoryID   int    `gorm:"column:category_id;primaryKey;autoIncrement"`
	CategoryName string `gorm:"column:category_name;not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// ProductType is a sub-grouping of products within a category.
type ProductType struct {
	TypeID     int    `gorm:"column:type_id;primaryKey;autoIncrement"`
	CategoryID int    `gorm:"column:category_id;not null;index"`
	TypeName   string `gorm:"column:type_name;not null"`

	Category *Category `gorm:"foreignKey:CategoryID;references:CategoryID"`
}

// TableName returns the table name for GORM
func (ProductType) TableName() string {
	return "product_types"
}

// Product is a catalog item sourced from a supplier.
type Product struct {
	ProductID               int             `gorm:"column:product_id;primaryKey;autoIncrement"`
	SKU                     string          `gorm:"column:sku;not null;uniqueIndex"`
	ProductName             string          `gorm:"column:product_name;not null"`
	CategoryID              int             `gorm:"column:category_id;not null;index"`
	TypeID                  int             `gorm:"column:type_id;not null;index"`
	SupplierID              int             `gorm:"column:supplier_id;not null;index"`
	Cost                    decimal.Decimal `gorm:"column:cost;type:decimal(10,2);not null"`
	BasePrice               decimal.Decimal `gorm:"column:base_price;type:decimal(10,2);not null"`
	GrossMarginPercent      decimal.Decimal `gorm:"column:gross_margin_percent;type:decimal(5,2);default:33.00"`
	ProductDescription      string          `gorm:"column:product_description;not null"`
	ProcurementLeadTimeDays int             `gorm:"column:procurement_lead_time_days;default:14"`
	MinimumOrderQuantity    int             `gorm:"column:minimum_order_quantity;default:1"`
	Discontinued            bool            `gorm:"column:discontinued;default:false"`
	ImageURL                string          `gorm:"column:image_url"`

	Category    *Category    `gorm:"foreignKey:CategoryID;references:CategoryID"`
	ProductType *ProductType `gorm:"foreignKey:TypeID;references:TypeID"`
	Supplier    *Supplier    `gorm:"foreignKey:SupplierID;references:SupplierID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

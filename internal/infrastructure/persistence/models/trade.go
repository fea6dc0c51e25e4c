package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a retail customer.
type Customer struct {
	CustomerID     int       `gorm:"column:customer_id;primaryKey;autoIncrement"`
	FirstName      string    `gorm:"column:first_name;not null"`
	LastName       string    `gorm:"column:last_name;not null"`
	Email          string    `gorm:"column:email;not null;uniqueIndex"`
	Phone          string    `gorm:"column:phone"`
	PrimaryStoreID *int      `gorm:"column:primary_store_id"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// Order is a customer order placed at a store.
type Order struct {
	OrderID    int       `gorm:"column:order_id;primaryKey;autoIncrement"`
	CustomerID int       `gorm:"column:customer_id;not null;index"`
	StoreID    int       `gorm:"column:store_id;not null;index"`
	OrderDate  time.Time `gorm:"column:order_date;type:date;not null"`

	Customer   *Customer   `gorm:"foreignKey:CustomerID;references:CustomerID"`
	Store      *Store      `gorm:"foreignKey:StoreID;references:StoreID"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;references:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a product line within an order. The store_id is denormalized
// onto the line so per-store sales aggregates avoid a join through orders.
type OrderItem struct {
	OrderItemID     int             `gorm:"column:order_item_id;primaryKey;autoIncrement"`
	OrderID         int             `gorm:"column:order_id;not null;index"`
	StoreID         int             `gorm:"column:store_id;not null;index"`
	ProductID       int             `gorm:"column:product_id;not null;index"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:decimal(10,2);default:0"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:decimal(10,2);not null"`

	Order   *Order   `gorm:"foreignKey:OrderID;references:OrderID"`
	Product *Product `gorm:"foreignKey:ProductID;references:ProductID"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// ProcurementRequest is an internal purchase request routed to a supplier.
type ProcurementRequest struct {
	RequestID            int             `gorm:"column:request_id;primaryKey;autoIncrement"`
	RequestNumber        string          `gorm:"column:request_number;not null;uniqueIndex"`
	RequesterName        string          `gorm:"column:requester_name;not null"`
	RequesterEmail       string          `gorm:"column:requester_email;not null"`
	Department           string          `gorm:"column:department;not null"`
	ProductID            int             `gorm:"column:product_id;not null;index"`
	SupplierID           int             `gorm:"column:supplier_id;not null;index"`
	QuantityRequested    int             `gorm:"column:quantity_requested;not null"`
	UnitCost             decimal.Decimal `gorm:"column:unit_cost;type:decimal(10,2);not null"`
	TotalCost            decimal.Decimal `gorm:"column:total_cost;type:decimal(10,2);not null"`
	Justification        string          `gorm:"column:justification"`
	UrgencyLevel         string          `gorm:"column:urgency_level;default:Normal"`
	ApprovalStatus       string          `gorm:"column:approval_status;default:Pending"`
	ApprovedBy           string          `gorm:"column:approved_by"`
	ApprovedAt           *time.Time      `gorm:"column:approved_at"`
	RequestDate          time.Time       `gorm:"column:request_date"`
	RequiredByDate       *time.Time      `gorm:"column:required_by_date;type:date"`
	VendorRestrictions   string          `gorm:"column:vendor_restrictions"`
	ESGRequirements      bool            `gorm:"column:esg_requirements;default:false"`
	BulkDiscountEligible bool            `gorm:"column:bulk_discount_eligible;default:false"`

	Product  *Product  `gorm:"foreignKey:ProductID;references:ProductID"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID;references:SupplierID"`
}

// TableName returns the table name for GORM
func (ProcurementRequest) TableName() string {
	return "procurement_requests"
}

package management

// Actor identifies the authenticated user a management query runs for. Store
// managers carry a StoreID and every query is scoped to it; admins see all
// stores.
type Actor struct {
	Username string
	Role     string
	StoreID  *int
}

// TopCategory ranks one category by the retail value of stock on hand.
type TopCategory struct {
	Name            string  `json:"name"`
	Revenue         float64 `json:"revenue"`
	Percentage      float64 `json:"percentage"`
	ProductCount    int     `json:"product_count"`
	TotalStock      int     `json:"total_stock"`
	CostValue       float64 `json:"cost_value"`
	PotentialProfit float64 `json:"potential_profit"`
}

// TopCategoryList is the dashboard top-categories response.
type TopCategoryList struct {
	Categories []TopCategory `json:"categories"`
	Total      int           `json:"total"`
	MaxValue   float64       `json:"max_value"`
}

// InsightAction is an optional action button attached to an insight.
type InsightAction struct {
	Label string  `json:"label"`
	Type  string  `json:"type"`
	Query *string `json:"query,omitempty"`
	Path  *string `json:"path,omitempty"`
}

// Insight is one dashboard insight card.
type Insight struct {
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Action      *InsightAction `json:"action"`
}

// WeeklyInsights is the weekly insights response.
type WeeklyInsights struct {
	Summary  string    `json:"summary"`
	Insights []Insight `json:"insights"`
}

// Supplier is one supplier row in the management console.
type Supplier struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	Location     string   `json:"location"`
	Contact      string   `json:"contact"`
	Phone        string   `json:"phone"`
	Rating       float64  `json:"rating"`
	ESGCompliant bool     `json:"esg_compliant"`
	Approved     bool     `json:"approved"`
	Preferred    bool     `json:"preferred"`
	Categories   []string `json:"categories"`
	LeadTime     int      `json:"lead_time"`
	PaymentTerms string   `json:"payment_terms"`
	MinOrder     float64  `json:"min_order"`
	BulkDiscount float64  `json:"bulk_discount"`
}

// SupplierList is the suppliers listing response.
type SupplierList struct {
	Suppliers []Supplier `json:"suppliers"`
	Total     int        `json:"total"`
}

// InventoryItem is one store/product stock position.
type InventoryItem struct {
	StoreID       int     `json:"store_id"`
	StoreName     string  `json:"store_name"`
	StoreLocation string  `json:"store_location"`
	IsOnline      bool    `json:"is_online"`
	ProductID     int     `json:"product_id"`
	ProductName   string  `json:"product_name"`
	SKU           string  `json:"sku"`
	Category      string  `json:"category"`
	Type          string  `json:"type"`
	StockLevel    int     `json:"stock_level"`
	ReorderPoint  int     `json:"reorder_point"`
	IsLowStock    bool    `json:"is_low_stock"`
	UnitCost      float64 `json:"unit_cost"`
	UnitPrice     float64 `json:"unit_price"`
	StockValue    float64 `json:"stock_value"`
	RetailValue   float64 `json:"retail_value"`
	SupplierName  *string `json:"supplier_name"`
	SupplierCode  *string `json:"supplier_code"`
	LeadTime      *int    `json:"lead_time"`
	ImageURL      *string `json:"image_url"`
}

// InventorySummary aggregates the full filtered set, independent of the
// display limit.
type InventorySummary struct {
	TotalItems       int     `json:"total_items"`
	LowStockCount    int     `json:"low_stock_count"`
	TotalStockValue  float64 `json:"total_stock_value"`
	TotalRetailValue float64 `json:"total_retail_value"`
	AvgStockLevel    float64 `json:"avg_stock_level"`
}

// InventoryResponse is the management inventory response.
type InventoryResponse struct {
	Inventory []InventoryItem  `json:"inventory"`
	Summary   InventorySummary `json:"summary"`
}

// InventoryQuery holds the inventory listing filters. StoreID is honored for
// admins only; store managers are always scoped to their own store.
type InventoryQuery struct {
	StoreID           *int
	ProductID         *int
	Category          string
	LowStockOnly      bool
	LowStockThreshold int
	Limit             int
}

// ManagementProduct is one product row in the management console with stock
// aggregates across stores.
type ManagementProduct struct {
	ProductID    int     `json:"product_id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Category     string  `json:"category"`
	Type         string  `json:"type"`
	BasePrice    float64 `json:"base_price"`
	Cost         float64 `json:"cost"`
	Margin       float64 `json:"margin"`
	Discontinued bool    `json:"discontinued"`
	SupplierID   *int    `json:"supplier_id"`
	SupplierName *string `json:"supplier_name"`
	SupplierCode *string `json:"supplier_code"`
	LeadTime     *int    `json:"lead_time"`
	TotalStock   int     `json:"total_stock"`
	StoreCount   int     `json:"store_count"`
	StockValue   float64 `json:"stock_value"`
	RetailValue  float64 `json:"retail_value"`
	ImageURL     *string `json:"image_url"`
}

// ProductPagination describes the page window of a product listing.
type ProductPagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ProductListResponse is the management products response.
type ProductListResponse struct {
	Products   []ManagementProduct `json:"products"`
	Pagination ProductPagination   `json:"pagination"`
}

// ProductQuery holds the product listing filters.
type ProductQuery struct {
	Category     string
	SupplierID   *int
	Discontinued *bool
	Search       string
	Limit        int
	Offset       int
}

package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

// envelope decodes the compact tool output for assertions.
type envelope struct {
	Columns []string `json:"c"`
	Rows    [][]any  `json:"r"`
	Count   int      `json:"n"`
	Message string   `json:"msg"`
	Err     string   `json:"err"`
	Query   string   `json:"q"`
}

// col returns the index of a named column in the envelope.
func (e envelope) col(t *testing.T, name string) int {
	t.Helper()
	for i, c := range e.Columns {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q not in %v", name, e.Columns)
	return -1
}

func setupToolDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Store{},
		&models.Category{},
		&models.ProductType{},
		&models.Supplier{},
		&models.SupplierPerformance{},
		&models.SupplierContract{},
		&models.Product{},
		&models.Inventory{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.CompanyPolicy{},
		&models.ProcurementRequest{},
	)
	require.NoError(t, err)

	return db
}

// seedToolData loads the shared fixture set: two stores, two categories,
// three suppliers (one inactive), a contract and performance history for
// the preferred supplier, one recent order, and three company policies.
func seedToolData(t *testing.T, db *gorm.DB) {
	t.Helper()

	stores := []models.Store{
		{StoreID: 1, StoreName: "Zava Pop-Up Bellevue Square", RLSUserID: "c5b6f4e2-0000-0000-0000-000000000001"},
		{StoreID: 2, StoreName: "Zava Online", RLSUserID: "c5b6f4e2-0000-0000-0000-000000000002", IsOnline: true},
	}
	require.NoError(t, db.Create(&stores).Error)

	categories := []models.Category{
		{CategoryID: 1, CategoryName: "Apparel"},
		{CategoryID: 2, CategoryName: "Footwear"},
	}
	require.NoError(t, db.Create(&categories).Error)

	types := []models.ProductType{
		{TypeID: 1, CategoryID: 1, TypeName: "T-Shirts"},
		{TypeID: 2, CategoryID: 2, TypeName: "Sneakers"},
	}
	require.NoError(t, db.Create(&types).Error)

	suppliers := []models.Supplier{
		{
			SupplierID:            1,
			SupplierName:          "Urban Threads Co",
			SupplierCode:          "SUP-UT",
			ContactEmail:          "orders@urbanthreads.example",
			ContactPhone:          "+1-206-555-0101",
			PaymentTerms:          "Net 30",
			LeadTimeDays:          7,
			MinimumOrderAmount:    decimal.RequireFromString("500.00"),
			BulkDiscountThreshold: decimal.RequireFromString("5000.00"),
			BulkDiscountPercent:   decimal.RequireFromString("5.00"),
			SupplierRating:        decimal.RequireFromString("4.50"),
			ESGCompliant:          true,
			ApprovedVendor:        true,
			PreferredVendor:       true,
			ActiveStatus:          true,
		},
		{
			SupplierID:            2,
			SupplierName:          "Cascade Footwear",
			SupplierCode:          "SUP-CF",
			ContactEmail:          "sales@cascadefootwear.example",
			PaymentTerms:          "Net 45",
			LeadTimeDays:          14,
			MinimumOrderAmount:    decimal.RequireFromString("1000.00"),
			BulkDiscountThreshold: decimal.RequireFromString("8000.00"),
			BulkDiscountPercent:   decimal.RequireFromString("7.50"),
			SupplierRating:        decimal.RequireFromString("4.80"),
			ESGCompliant:          false,
			ApprovedVendor:        true,
			ActiveStatus:          true,
		},
		{
			SupplierID:   3,
			SupplierName: "Dormant Supply",
			SupplierCode: "SUP-DS",
			ActiveStatus: false,
		},
	}
	require.NoError(t, db.Create(&suppliers).Error)

	endDate := time.Now().AddDate(0, 0, 30)
	contract := models.SupplierContract{
		ContractID:     1,
		SupplierID:     1,
		ContractNumber: "CTR-2025-001",
		ContractStatus: "active",
		StartDate:      time.Now().AddDate(-1, 0, 0),
		EndDate:        &endDate,
		ContractValue:  decimal.RequireFromString("120000.00"),
		PaymentTerms:   "Net 30",
		AutoRenew:      true,
	}
	require.NoError(t, db.Create(&contract).Error)

	performance := []models.SupplierPerformance{
		{
			PerformanceID:  1,
			SupplierID:     1,
			EvaluationDate: time.Now().AddDate(0, -2, 0),
			CostScore:      decimal.RequireFromString("4.00"),
			QualityScore:   decimal.RequireFromString("4.50"),
			DeliveryScore:  decimal.RequireFromString("4.25"),
			OverallScore:   decimal.RequireFromString("4.30"),
			Notes:          "Consistent quality, occasional late shipments",
		},
		{
			PerformanceID:  2,
			SupplierID:     1,
			EvaluationDate: time.Now().AddDate(0, -8, 0),
			OverallScore:   decimal.RequireFromString("4.10"),
		},
	}
	require.NoError(t, db.Create(&performance).Error)

	request := models.ProcurementRequest{
		RequestID:         1,
		RequestNumber:     "PR-2025-0042",
		RequesterName:     "Dana Ortiz",
		RequesterEmail:    "dana.ortiz@zava.example",
		Department:        "Merchandising",
		ProductID:         1,
		SupplierID:        1,
		QuantityRequested: 200,
		UnitCost:          decimal.RequireFromString("5.00"),
		TotalCost:         decimal.RequireFromString("1000.00"),
		RequestDate:       time.Now().AddDate(0, -1, 0),
	}
	require.NoError(t, db.Create(&request).Error)

	products := []models.Product{
		{
			ProductID:   1,
			SKU:         "APP-001",
			ProductName: "Classic Tee",
			CategoryID:  1,
			TypeID:      1,
			SupplierID:  1,
			Cost:        decimal.RequireFromString("5.00"),
			BasePrice:   decimal.RequireFromString("15.00"),
		},
		{
			ProductID:   2,
			SKU:         "FTW-001",
			ProductName: "Trail Sneaker",
			CategoryID:  2,
			TypeID:      2,
			SupplierID:  2,
			Cost:        decimal.RequireFromString("30.00"),
			BasePrice:   decimal.RequireFromString("60.00"),
		},
		{
			ProductID:    3,
			SKU:          "APP-099",
			ProductName:  "Retired Tee",
			CategoryID:   1,
			TypeID:       1,
			SupplierID:   1,
			Cost:         decimal.RequireFromString("1.00"),
			BasePrice:    decimal.RequireFromString("10.00"),
			Discontinued: true,
		},
	}
	require.NoError(t, db.Create(&products).Error)

	inventory := []models.Inventory{
		{StoreID: 1, ProductID: 1, StockLevel: 5},
		{StoreID: 1, ProductID: 2, StockLevel: 40},
		{StoreID: 1, ProductID: 3, StockLevel: 3},
		{StoreID: 2, ProductID: 1, StockLevel: 100},
	}
	require.NoError(t, db.Create(&inventory).Error)

	customer := models.Customer{
		CustomerID: 1,
		FirstName:  "Riley",
		LastName:   "Kim",
		Email:      "riley.kim@example.com",
	}
	require.NoError(t, db.Create(&customer).Error)

	order := models.Order{OrderID: 1, CustomerID: 1, StoreID: 1, OrderDate: time.Now().AddDate(0, 0, -5)}
	require.NoError(t, db.Create(&order).Error)

	items := []models.OrderItem{
		{OrderItemID: 1, OrderID: 1, StoreID: 1, ProductID: 1, Quantity: 3,
			UnitPrice: decimal.RequireFromString("15.00"), TotalAmount: decimal.RequireFromString("45.00")},
		{OrderItemID: 2, OrderID: 1, StoreID: 1, ProductID: 2, Quantity: 1,
			UnitPrice: decimal.RequireFromString("60.00"), TotalAmount: decimal.RequireFromString("60.00")},
	}
	require.NoError(t, db.Create(&items).Error)

	threshold := decimal.RequireFromString("5000.00")
	policies := []models.CompanyPolicy{
		{
			PolicyID:      1,
			PolicyName:    "Order Processing Standard",
			PolicyType:    "order_processing",
			PolicyContent: "All orders above threshold require manager sign-off.",
			Department:    "Operations",
			IsActive:      true,
		},
		{
			PolicyID:              2,
			PolicyName:            "Budget Authorization Matrix",
			PolicyType:            "budget_authorization",
			PolicyContent:         "Spending limits by role and department.",
			Department:            "Finance",
			MinimumOrderThreshold: &threshold,
			ApprovalRequired:      true,
			IsActive:              true,
		},
		{
			PolicyID:      3,
			PolicyName:    "Supplier Selection Guidelines",
			PolicyType:    "procurement",
			PolicyContent: "Prefer ESG-compliant vendors with proven delivery records.",
			Department:    "Procurement",
			IsActive:      true,
		},
		{
			PolicyID:      4,
			PolicyName:    "Retired Travel Policy",
			PolicyType:    "order_processing",
			PolicyContent: "Superseded.",
			IsActive:      false,
		},
	}
	require.NoError(t, db.Create(&policies).Error)
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// callTool runs a tool handler and returns its text content.
func callTool(t *testing.T, tool Tool, args map[string]any) string {
	t.Helper()
	result, err := tool.Handle(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.NotNil(t, result)
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("tool returned no text content")
	return ""
}

func decodeEnvelope(t *testing.T, text string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(text), &env), "not a result envelope: %s", text)
	return env
}

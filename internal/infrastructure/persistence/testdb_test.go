package persistence

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRetailDB opens an in-memory SQLite database with the full retail
// schema migrated.
func setupRetailDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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
		&models.User{},
	)
	require.NoError(t, err)

	return db
}

// seedRetailFixtures inserts a small catalog shared by the repository tests:
// three stores (one online, one without inventory), three categories (one
// empty), two active suppliers plus one inactive, and four products of which
// one is discontinued.
func seedRetailFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()

	stores := []models.Store{
		{StoreID: 1, StoreName: "Seattle Pike Place", RLSUserID: "c5b6f4e2-0000-0000-0000-000000000001"},
		{StoreID: 2, StoreName: "Zava Online", RLSUserID: "c5b6f4e2-0000-0000-0000-000000000002", IsOnline: true},
		{StoreID: 3, StoreName: "Portland Pearl District", RLSUserID: "c5b6f4e2-0000-0000-0000-000000000003"},
	}
	require.NoError(t, db.Create(&stores).Error)

	categories := []models.Category{
		{CategoryID: 1, CategoryName: "Apparel"},
		{CategoryID: 2, CategoryName: "Footwear"},
		{CategoryID: 3, CategoryName: "Accessories"},
	}
	require.NoError(t, db.Create(&categories).Error)

	types := []models.ProductType{
		{TypeID: 1, CategoryID: 1, TypeName: "T-Shirts"},
		{TypeID: 2, CategoryID: 2, TypeName: "Sneakers"},
	}
	require.NoError(t, db.Create(&types).Error)

	suppliers := []models.Supplier{
		{
			SupplierID:      1,
			SupplierName:    "Urban Threads Co",
			SupplierCode:    "SUP-UT",
			ContactEmail:    "orders@urbanthreads.example",
			City:            "Seattle",
			StateProvince:   "WA",
			PaymentTerms:    "Net 30",
			LeadTimeDays:    7,
			SupplierRating:  decimal.RequireFromString("4.50"),
			ESGCompliant:    true,
			ApprovedVendor:  true,
			PreferredVendor: true,
			ActiveStatus:    true,
		},
		{
			SupplierID:     2,
			SupplierName:   "Cascade Footwear",
			SupplierCode:   "SUP-CF",
			ContactEmail:   "sales@cascadefootwear.example",
			City:           "Portland",
			StateProvince:  "OR",
			PaymentTerms:   "Net 45",
			LeadTimeDays:   14,
			SupplierRating: decimal.RequireFromString("4.80"),
			ApprovedVendor: true,
			ActiveStatus:   true,
		},
		{
			SupplierID:   3,
			SupplierName: "Dormant Supply",
			SupplierCode: "SUP-DS",
			ActiveStatus: false,
		},
	}
	require.NoError(t, db.Create(&suppliers).Error)

	products := []models.Product{
		{
			ProductID:          1,
			SKU:                "APP-001",
			ProductName:        "Classic Tee",
			CategoryID:         1,
			TypeID:             1,
			SupplierID:         1,
			Cost:               decimal.RequireFromString("5.00"),
			BasePrice:          decimal.RequireFromString("15.00"),
			GrossMarginPercent: decimal.RequireFromString("66.67"),
			ProductDescription: "Soft cotton tee",
			ImageURL:           "https://cdn.example/app-001.jpg",
		},
		{
			ProductID:          2,
			SKU:                "APP-002",
			ProductName:        "Vintage Hoodie",
			CategoryID:         1,
			TypeID:             1,
			SupplierID:         1,
			Cost:               decimal.RequireFromString("20.00"),
			BasePrice:          decimal.RequireFromString("45.00"),
			GrossMarginPercent: decimal.RequireFromString("55.56"),
			ProductDescription: "Fleece-lined pullover hoodie",
		},
		{
			ProductID:          3,
			SKU:                "FTW-001",
			ProductName:        "Trail Sneaker",
			CategoryID:         2,
			TypeID:             2,
			SupplierID:         2,
			Cost:               decimal.RequireFromString("30.00"),
			BasePrice:          decimal.RequireFromString("60.00"),
			GrossMarginPercent: decimal.RequireFromString("50.00"),
			ProductDescription: "All-terrain running shoe",
		},
		{
			ProductID:          4,
			SKU:                "APP-099",
			ProductName:        "Retired Tee",
			CategoryID:         1,
			TypeID:             1,
			SupplierID:         1,
			Cost:               decimal.RequireFromString("1.00"),
			BasePrice:          decimal.RequireFromString("10.00"),
			GrossMarginPercent: decimal.RequireFromString("90.00"),
			ProductDescription: "Discontinued print tee",
			Discontinued:       true,
		},
	}
	require.NoError(t, db.Create(&products).Error)

	inventory := []models.Inventory{
		{StoreID: 1, ProductID: 1, StockLevel: 5},
		{StoreID: 1, ProductID: 2, StockLevel: 40},
		{StoreID: 1, ProductID: 3, StockLevel: 12},
		{StoreID: 2, ProductID: 1, StockLevel: 100},
	}
	require.NoError(t, db.Create(&inventory).Error)
}

func intPtr(v int) *int {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/zava/retail-backend/internal/infrastructure/config"
	csvimport "github.com/zava/retail-backend/internal/infrastructure/import"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/infrastructure/migration"
	"github.com/zava/retail-backend/internal/infrastructure/persistence"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

func main() {
	var (
		logLevel      string
		seed          bool
		migrationsDir string
		createName    string
		importFile    string
	)
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&seed, "seed", false, "Insert demo users and retail data after migrating")
	flag.StringVar(&migrationsDir, "migrations-dir", "", "Apply versioned SQL migrations from this directory instead of auto-migrating (postgres only)")
	flag.StringVar(&createName, "create", "", "Create a new SQL migration file pair with this name and exit")
	flag.StringVar(&importFile, "import-products", "", "Load products from this CSV file after migrating")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if createName != "" {
		if migrationsDir == "" {
			migrationsDir = "migrations"
		}
		mf, err := migration.CreateMigration(migrationsDir, createName, createName)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if migrationsDir != "" {
		if cfg.Database.Driver != config.DriverPostgres {
			log.Fatal("Versioned SQL migrations require the postgres driver",
				zap.String("driver", cfg.Database.Driver))
		}
		if err := runSQLMigrations(db, migrationsDir, log); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
	} else if err := autoMigrate(db, cfg, log); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	log.Info("Schema migrated")

	if seed {
		if err := seedAll(db.DB, log); err != nil {
			log.Fatal("Seeding failed", zap.Error(err))
		}
		log.Info("Seeding complete")
	}

	if importFile != "" {
		if err := importProducts(db.DB, importFile, log); err != nil {
			log.Fatal("Product import failed", zap.Error(err))
		}
	}
}

// importProducts bulk-loads a product catalog CSV through the importer.
func importProducts(db *gorm.DB, path string, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open product file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	importer := csvimport.NewProductImporter(db, log)
	report, err := importer.Import(context.Background(), f)
	if err != nil {
		return err
	}
	if report.TotalErrors > 0 {
		log.Warn("Some product rows were rejected",
			zap.Int("errors", report.TotalErrors),
			zap.Bool("truncated", report.IsTruncated))
		for _, rowErr := range report.Errors {
			log.Warn("Rejected row",
				zap.Int("row", rowErr.Row),
				zap.String("column", rowErr.Column),
				zap.String("code", rowErr.Code),
				zap.String("message", rowErr.Message))
		}
	}
	return nil
}

// runSQLMigrations applies versioned .up.sql files through golang-migrate.
func runSQLMigrations(db *persistence.Database, dir string, log *zap.Logger) error {
	pending, err := migration.ListMigrations(dir)
	if err != nil {
		return err
	}
	log.Info("Applying SQL migrations",
		zap.String("dir", dir), zap.Int("files", len(pending)))

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	migrator, err := migration.New(sqlDB, dir, log)
	if err != nil {
		return err
	}
	return migrator.Up()
}

func autoMigrate(db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	log.Info("Migrating schema", zap.String("driver", cfg.Database.Driver))
	if err := db.DB.AutoMigrate(
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
	); err != nil {
		return err
	}
	return nil
}

func seedAll(db *gorm.DB, log *zap.Logger) error {
	if err := seedStores(db, log); err != nil {
		return err
	}
	if err := seedUsers(db, log); err != nil {
		return err
	}
	if err := seedCatalog(db, log); err != nil {
		return err
	}
	if err := seedPolicies(db, log); err != nil {
		return err
	}
	return nil
}

func seedStores(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Store{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Stores already present, skipping", zap.Int64("count", count))
		return nil
	}
	stores := []models.Store{
		{StoreID: 1, StoreName: "Zava Pop-Up Bellevue Square", RLSUserID: "f47ac10b-58cc-4372-a567-0e02b2c3d479"},
		{StoreID: 2, StoreName: "Zava Pop-Up University Village", RLSUserID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{StoreID: 3, StoreName: "Zava Pop-Up Pike Place", RLSUserID: "6ba7b811-9dad-11d1-80b4-00c04fd430c8"},
		{StoreID: 4, StoreName: "Zava Online", RLSUserID: "6ba7b812-9dad-11d1-80b4-00c04fd430c8", IsOnline: true},
	}
	if err := db.Create(&stores).Error; err != nil {
		return err
	}
	log.Info("Seeded stores", zap.Int("count", len(stores)))
	return nil
}

func seedUsers(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Users already present, skipping", zap.Int64("count", count))
		return nil
	}

	store1, store2 := 1, 2
	demo := []struct {
		username string
		password string
		role     string
		storeID  *int
	}{
		{"admin", "admin123", models.RoleAdmin, nil},
		{"manager1", "manager123", models.RoleStoreManager, &store1},
		{"manager2", "manager123", models.RoleStoreManager, &store2},
	}
	users := make([]models.User, 0, len(demo))
	for _, d := range demo {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", d.username, err)
		}
		users = append(users, models.User{
			Username:     d.username,
			PasswordHash: string(hash),
			Role:         d.role,
			StoreID:      d.storeID,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}
	log.Info("Seeded users", zap.Int("count", len(users)))
	return nil
}

func seedCatalog(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Catalog already present, skipping", zap.Int64("products", count))
		return nil
	}

	categories := []models.Category{
		{CategoryID: 1, CategoryName: "Apparel"},
		{CategoryID: 2, CategoryName: "Footwear"},
		{CategoryID: 3, CategoryName: "Accessories"},
	}
	if err := db.Create(&categories).Error; err != nil {
		return err
	}

	types := []models.ProductType{
		{TypeID: 1, CategoryID: 1, TypeName: "T-Shirts"},
		{TypeID: 2, CategoryID: 1, TypeName: "Hoodies"},
		{TypeID: 3, CategoryID: 2, TypeName: "Sneakers"},
		{TypeID: 4, CategoryID: 3, TypeName: "Caps"},
	}
	if err := db.Create(&types).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	suppliers := []models.Supplier{
		{
			SupplierID:            1,
			SupplierName:          "Urban Threads Co",
			SupplierCode:          "SUP-UT",
			ContactEmail:          "orders@urbanthreads.example.com",
			City:                  "Portland",
			StateProvince:         "OR",
			PaymentTerms:          "Net 30",
			LeadTimeDays:          7,
			MinimumOrderAmount:    decimal.NewFromInt(500),
			BulkDiscountThreshold: decimal.NewFromInt(5000),
			BulkDiscountPercent:   decimal.NewFromFloat(5.0),
			SupplierRating:        decimal.NewFromFloat(4.5),
			ESGCompliant:          true,
			ApprovedVendor:        true,
			PreferredVendor:       true,
			ActiveStatus:          true,
			CreatedAt:             now,
			LastUpdated:           now,
		},
		{
			SupplierID:            2,
			SupplierName:          "Cascade Footwear",
			SupplierCode:          "SUP-CF",
			ContactEmail:          "sales@cascadefootwear.example.com",
			City:                  "Seattle",
			StateProvince:         "WA",
			PaymentTerms:          "Net 45",
			LeadTimeDays:          14,
			MinimumOrderAmount:    decimal.NewFromInt(1000),
			BulkDiscountThreshold: decimal.NewFromInt(8000),
			BulkDiscountPercent:   decimal.NewFromFloat(7.5),
			SupplierRating:        decimal.NewFromFloat(4.8),
			ApprovedVendor:        true,
			ActiveStatus:          true,
			CreatedAt:             now,
			LastUpdated:           now,
		},
		{
			SupplierID:            3,
			SupplierName:          "Summit Accessories",
			SupplierCode:          "SUP-SA",
			ContactEmail:          "hello@summitacc.example.com",
			City:                  "Denver",
			StateProvince:         "CO",
			PaymentTerms:          "Net 30",
			LeadTimeDays:          21,
			MinimumOrderAmount:    decimal.NewFromInt(250),
			BulkDiscountThreshold: decimal.NewFromInt(3000),
			BulkDiscountPercent:   decimal.NewFromFloat(4.0),
			SupplierRating:        decimal.NewFromFloat(4.1),
			ESGCompliant:          true,
			ApprovedVendor:        true,
			ActiveStatus:          true,
			CreatedAt:             now,
			LastUpdated:           now,
		},
	}
	if err := db.Create(&suppliers).Error; err != nil {
		return err
	}

	contractEnd := now.AddDate(0, 6, 0)
	contracts := []models.SupplierContract{
		{
			SupplierID:     1,
			ContractNumber: "CTR-2025-001",
			ContractStatus: "active",
			StartDate:      now.AddDate(-1, 0, 0),
			EndDate:        &contractEnd,
			ContractValue:  decimal.NewFromInt(120000),
			PaymentTerms:   "Net 30",
			AutoRenew:      true,
			CreatedAt:      now,
		},
		{
			SupplierID:     2,
			ContractNumber: "CTR-2025-002",
			ContractStatus: "active",
			StartDate:      now.AddDate(0, -3, 0),
			EndDate:        &contractEnd,
			ContractValue:  decimal.NewFromInt(85000),
			PaymentTerms:   "Net 45",
			CreatedAt:      now,
		},
	}
	if err := db.Create(&contracts).Error; err != nil {
		return err
	}

	performance := []models.SupplierPerformance{
		{
			SupplierID:      1,
			EvaluationDate:  now.AddDate(0, -2, 0),
			CostScore:       decimal.NewFromFloat(4.2),
			QualityScore:    decimal.NewFromFloat(4.5),
			DeliveryScore:   decimal.NewFromFloat(4.0),
			ComplianceScore: decimal.NewFromFloat(4.5),
			OverallScore:    decimal.NewFromFloat(4.3),
			Notes:           "Consistent quality, occasional late shipments",
		},
		{
			SupplierID:      2,
			EvaluationDate:  now.AddDate(0, -1, 0),
			CostScore:       decimal.NewFromFloat(4.6),
			QualityScore:    decimal.NewFromFloat(4.9),
			DeliveryScore:   decimal.NewFromFloat(4.7),
			ComplianceScore: decimal.NewFromFloat(4.8),
			OverallScore:    decimal.NewFromFloat(4.8),
			Notes:           "Excellent across the board",
		},
	}
	if err := db.Create(&performance).Error; err != nil {
		return err
	}

	products := []models.Product{
		{
			SKU: "APP-001", ProductName: "Classic Logo Tee", CategoryID: 1, TypeID: 1, SupplierID: 1,
			Cost: decimal.NewFromFloat(5.00), BasePrice: decimal.NewFromFloat(15.00),
			ProductDescription:      "Soft cotton tee with the Zava wordmark",
			ProcurementLeadTimeDays: 7, MinimumOrderQuantity: 50,
		},
		{
			SKU: "APP-002", ProductName: "Zip Hoodie", CategoryID: 1, TypeID: 2, SupplierID: 1,
			Cost: decimal.NewFromFloat(18.00), BasePrice: decimal.NewFromFloat(45.00),
			ProductDescription:      "Midweight fleece hoodie with front zip",
			ProcurementLeadTimeDays: 10, MinimumOrderQuantity: 25,
		},
		{
			SKU: "FTW-001", ProductName: "Trail Sneaker", CategoryID: 2, TypeID: 3, SupplierID: 2,
			Cost: decimal.NewFromFloat(30.00), BasePrice: decimal.NewFromFloat(60.00),
			ProductDescription:      "All-terrain sneaker with recycled sole",
			ProcurementLeadTimeDays: 14, MinimumOrderQuantity: 20,
		},
		{
			SKU: "ACC-001", ProductName: "Snapback Cap", CategoryID: 3, TypeID: 4, SupplierID: 3,
			Cost: decimal.NewFromFloat(4.00), BasePrice: decimal.NewFromFloat(12.00),
			ProductDescription:      "Adjustable cap with embroidered logo",
			ProcurementLeadTimeDays: 21, MinimumOrderQuantity: 100,
		},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	inventory := make([]models.Inventory, 0, len(products)*4)
	levels := []int{12, 45, 8, 60}
	for storeID := 1; storeID <= 4; storeID++ {
		for i, p := range products {
			inventory = append(inventory, models.Inventory{
				StoreID:    storeID,
				ProductID:  p.ProductID,
				StockLevel: levels[i] + storeID*5,
			})
		}
	}
	if err := db.Create(&inventory).Error; err != nil {
		return err
	}

	customers := []models.Customer{
		{FirstName: "Riley", LastName: "Kim", Email: "riley.kim@example.com", PrimaryStoreID: intPtr(1), CreatedAt: now},
		{FirstName: "Jordan", LastName: "Alvarez", Email: "jordan.alvarez@example.com", PrimaryStoreID: intPtr(4), CreatedAt: now},
	}
	if err := db.Create(&customers).Error; err != nil {
		return err
	}

	orders := []models.Order{
		{CustomerID: customers[0].CustomerID, StoreID: 1, OrderDate: now.AddDate(0, 0, -5)},
		{CustomerID: customers[1].CustomerID, StoreID: 4, OrderDate: now.AddDate(0, 0, -2)},
	}
	if err := db.Create(&orders).Error; err != nil {
		return err
	}

	items := []models.OrderItem{
		{
			OrderID: orders[0].OrderID, StoreID: 1, ProductID: products[0].ProductID,
			Quantity: 3, UnitPrice: decimal.NewFromFloat(15.00), TotalAmount: decimal.NewFromFloat(45.00),
		},
		{
			OrderID: orders[0].OrderID, StoreID: 1, ProductID: products[2].ProductID,
			Quantity: 1, UnitPrice: decimal.NewFromFloat(60.00), TotalAmount: decimal.NewFromFloat(60.00),
		},
		{
			OrderID: orders[1].OrderID, StoreID: 4, ProductID: products[1].ProductID,
			Quantity: 2, UnitPrice: decimal.NewFromFloat(45.00), TotalAmount: decimal.NewFromFloat(90.00),
		},
	}
	if err := db.Create(&items).Error; err != nil {
		return err
	}

	log.Info("Seeded catalog",
		zap.Int("products", len(products)),
		zap.Int("suppliers", len(suppliers)),
		zap.Int("inventory_rows", len(inventory)),
	)
	return nil
}

func seedPolicies(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.CompanyPolicy{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Policies already present, skipping", zap.Int64("count", count))
		return nil
	}

	threshold := decimal.NewFromInt(5000)
	policies := []models.CompanyPolicy{
		{
			PolicyName: "Order Processing Standard", PolicyType: "order_processing",
			PolicyContent: "Restock orders are placed with approved vendors only. Orders above the budget threshold require finance approval before submission.",
			Department:    "Operations", IsActive: true,
		},
		{
			PolicyName: "Budget Authorization Matrix", PolicyType: "budget_authorization",
			PolicyContent:         "Purchases above $5,000 require director approval. Purchases above $25,000 require VP approval.",
			Department:            "Finance",
			MinimumOrderThreshold: &threshold, ApprovalRequired: true, IsActive: true,
		},
		{
			PolicyName: "Supplier Selection Guidelines", PolicyType: "procurement",
			PolicyContent: "Prefer ESG-compliant vendors when performance scores are within 0.3 points. Preferred vendors are considered first.",
			Department:    "Procurement", IsActive: true,
		},
		{
			PolicyName: "Vendor Onboarding Requirements", PolicyType: "vendor_approval",
			PolicyContent: "New vendors must pass a compliance review and provide two trade references before their first purchase order.",
			Department:    "Procurement", IsActive: true,
		},
	}
	if err := db.Create(&policies).Error; err != nil {
		return err
	}
	log.Info("Seeded policies", zap.Int("count", len(policies)))
	return nil
}

func intPtr(v int) *int {
	return &v
}

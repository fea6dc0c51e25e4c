package csvimport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

func setupImportDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.ProductType{},
		&models.Supplier{},
		&models.Product{},
	))

	require.NoError(t, db.Create(&models.Supplier{
		SupplierName: "Pacific Apparel Co",
		SupplierCode: "PAC-APP",
	}).Error)

	return db
}

func newTestImporter(t *testing.T) (*ProductImporter, *gorm.DB) {
	t.Helper()
	db := setupImportDB(t)
	return NewProductImporter(db, zap.NewNop()), db
}

const productHeader = "sku,product_name,category,product_type,supplier_code,cost,base_price,gross_margin_percent,description,image_url,discontinued\n"

func TestProductImporter_CreatesProducts(t *testing.T) {
	imp, db := newTestImporter(t)

	csv := productHeader +
		"APP-001,Trail Jacket,Apparel,Jackets,PAC-APP,45.00,89.99,,Lightweight shell,,false\n" +
		"APP-002,Summit Beanie,Apparel,Hats,PAC-APP,4.50,14.99,60.00,,,false\n"

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Errors)

	var product models.Product
	require.NoError(t, db.Where("sku = ?", "APP-001").First(&product).Error)
	assert.Equal(t, "Trail Jacket", product.ProductName)
	assert.True(t, product.Cost.Equal(mustDecimal(t, "45.00")))
	// Margin derived from cost and price when the column is blank.
	assert.True(t, product.GrossMarginPercent.Equal(mustDecimal(t, "49.99")),
		"got %s", product.GrossMarginPercent)

	var beanie models.Product
	require.NoError(t, db.Where("sku = ?", "APP-002").First(&beanie).Error)
	assert.True(t, beanie.GrossMarginPercent.Equal(mustDecimal(t, "60.00")))
}

func TestProductImporter_CreatesCategoriesAndTypesOnDemand(t *testing.T) {
	imp, db := newTestImporter(t)

	csv := productHeader +
		"APP-001,Trail Jacket,Apparel,Jackets,PAC-APP,45.00,89.99,,,,\n" +
		"FTW-100,Ridge Boot,Footwear,Boots,PAC-APP,60.00,129.99,,,,\n" +
		"APP-003,Storm Parka,Apparel,Jackets,PAC-APP,80.00,159.99,,,,\n"

	_, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	var categoryCount, typeCount int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categoryCount).Error)
	require.NoError(t, db.Model(&models.ProductType{}).Count(&typeCount).Error)
	assert.Equal(t, int64(2), categoryCount)
	assert.Equal(t, int64(3), typeCount)
}

func TestProductImporter_UpsertsBySKU(t *testing.T) {
	imp, db := newTestImporter(t)

	first := productHeader + "APP-001,Trail Jacket,Apparel,Jackets,PAC-APP,45.00,89.99,,,,\n"
	report, err := imp.Import(context.Background(), strings.NewReader(first))
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)

	second := productHeader + "APP-001,Trail Jacket v2,Apparel,Jackets,PAC-APP,48.00,94.99,,,,\n"
	report, err = imp.Import(context.Background(), strings.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Updated)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var product models.Product
	require.NoError(t, db.Where("sku = ?", "APP-001").First(&product).Error)
	assert.Equal(t, "Trail Jacket v2", product.ProductName)
	assert.True(t, product.BasePrice.Equal(mustDecimal(t, "94.99")))
}

func TestProductImporter_SkipsInvalidRows(t *testing.T) {
	imp, db := newTestImporter(t)

	csv := productHeader +
		"APP-001,Trail Jacket,Apparel,Jackets,PAC-APP,45.00,89.99,,,,\n" +
		"bad sku,Broken Row,Apparel,Jackets,PAC-APP,1.00,2.00,,,,\n" +
		"APP-002,Negative Cost,Apparel,Jackets,PAC-APP,-5.00,2.00,,,,\n"

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, report.Errors, 2)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProductImporter_UnknownSupplierIsReferenceError(t *testing.T) {
	imp, db := newTestImporter(t)

	csv := productHeader + "APP-001,Trail Jacket,Apparel,Jackets,NO-SUCH,45.00,89.99,,,,\n"
	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, ErrCodeReferenceNotFound, report.Errors[0].Code)
	assert.Equal(t, "supplier_code", report.Errors[0].Column)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestProductImporter_DuplicateSKUInFile(t *testing.T) {
	imp, _ := newTestImporter(t)

	csv := productHeader +
		"APP-001,Trail Jacket,Apparel,Jackets,PAC-APP,45.00,89.99,,,,\n" +
		"APP-001,Trail Jacket Copy,Apparel,Jackets,PAC-APP,45.00,89.99,,,,\n"

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, ErrCodeDuplicateInFile, report.Errors[0].Code)
}

func TestProductImporter_MissingColumns(t *testing.T) {
	imp, _ := newTestImporter(t)

	csv := "sku,product_name\nAPP-001,Trail Jacket\n"
	_, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestProductImporter_NoDataRows(t *testing.T) {
	imp, _ := newTestImporter(t)

	_, err := imp.Import(context.Background(), strings.NewReader(productHeader))
	assert.ErrorIs(t, err, ErrNoDataRows)
}

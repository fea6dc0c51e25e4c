package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

// Product CSV columns. sku, product_name, category, product_type,
// supplier_code, cost, and base_price are required; the rest are
// optional.
const (
	ColSKU          = "sku"
	ColProductName  = "product_name"
	ColCategory     = "category"
	ColProductType  = "product_type"
	ColSupplierCode = "supplier_code"
	ColCost         = "cost"
	ColBasePrice    = "base_price"
	ColGrossMargin  = "gross_margin_percent"
	ColDescription  = "description"
	ColImageURL     = "image_url"
	ColDiscontinued = "discontinued"
)

var skuPattern = regexp.MustCompile(`^[A-Z]{2,4}-[0-9]{3,6}$`)

// Report summarizes an import run.
type Report struct {
	TotalRows   int        `json:"total_rows"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Skipped     int        `json:"skipped"`
	Errors      []RowError `json:"errors,omitempty"`
	TotalErrors int        `json:"total_errors"`
	IsTruncated bool       `json:"is_truncated,omitempty"`
}

// ProductImporter loads products from CSV into the catalog tables.
// Categories and product types are created on demand by name; suppliers
// must already exist and are matched by supplier code. Products are
// upserted by SKU.
type ProductImporter struct {
	db     *gorm.DB
	logger *zap.Logger
	rules  []FieldRule
}

// NewProductImporter creates a ProductImporter over db.
func NewProductImporter(db *gorm.DB, logger *zap.Logger) *ProductImporter {
	zero := decimal.Zero
	rules := []FieldRule{
		{Column: ColSKU, Type: TypeString, Required: true, Unique: true,
			Pattern: skuPattern, PatternDesc: "SKU like APP-001"},
		{Column: ColProductName, Type: TypeString, Required: true, MaxLength: 255},
		{Column: ColCategory, Type: TypeString, Required: true, MaxLength: 100},
		{Column: ColProductType, Type: TypeString, Required: true, MaxLength: 100},
		{Column: ColSupplierCode, Type: TypeString, Required: true, MaxLength: 50},
		{Column: ColCost, Type: TypeDecimal, Required: true, MinValue: &zero},
		{Column: ColBasePrice, Type: TypeDecimal, Required: true, MinValue: &zero},
		{Column: ColGrossMargin, Type: TypeDecimal, MinValue: &zero},
		{Column: ColDiscontinued, Type: TypeBool},
	}

	return &ProductImporter{
		db:     db,
		logger: logger,
		rules:  rules,
	}
}

// Import reads the CSV from r and applies it to the database. Rows that
// fail validation are reported and skipped; the remaining rows are
// written in a single transaction.
func (imp *ProductImporter) Import(ctx context.Context, r io.Reader) (*Report, error) {
	// The validator tracks in-file uniqueness, so each run gets its own.
	validator := NewValidator(imp.rules)

	parser, err := NewCSVParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders(validator.RequiredColumns()); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %v", missing)
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	report := &Report{TotalRows: len(rows)}
	ec := NewErrorCollection(100)

	var valid []*Row
	for _, row := range rows {
		if validator.ValidateRow(row, ec) {
			valid = append(valid, row)
		} else {
			report.Skipped++
		}
	}

	err = imp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range valid {
			if err := imp.applyRow(tx, row, report, ec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply product rows: %w", err)
	}

	report.Errors = ec.Errors()
	report.TotalErrors = ec.TotalCount()
	report.IsTruncated = ec.IsTruncated()

	imp.logger.Info("Product import finished",
		zap.Int("total_rows", report.TotalRows),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.TotalErrors),
	)
	return report, nil
}

func (imp *ProductImporter) applyRow(tx *gorm.DB, row *Row, report *Report, ec *ErrorCollection) error {
	var supplier models.Supplier
	err := tx.Where("supplier_code = ?", row.Get(ColSupplierCode)).First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ec.AddReference(row.LineNumber, ColSupplierCode, row.Get(ColSupplierCode), "supplier")
		report.Skipped++
		return nil
	}
	if err != nil {
		return err
	}

	category, err := imp.ensureCategory(tx, row.Get(ColCategory))
	if err != nil {
		return err
	}
	productType, err := imp.ensureProductType(tx, category.CategoryID, row.Get(ColProductType))
	if err != nil {
		return err
	}

	cost := decimal.RequireFromString(row.Get(ColCost))
	basePrice := decimal.RequireFromString(row.Get(ColBasePrice))
	margin := grossMargin(row.Get(ColGrossMargin), cost, basePrice)
	discontinued := false
	if v := row.Get(ColDiscontinued); v != "" {
		discontinued, _ = strconv.ParseBool(v)
	}

	product := models.Product{
		SKU:                row.Get(ColSKU),
		ProductName:        row.Get(ColProductName),
		CategoryID:         category.CategoryID,
		TypeID:             productType.TypeID,
		SupplierID:         supplier.SupplierID,
		Cost:               cost,
		BasePrice:          basePrice,
		GrossMarginPercent: margin,
		ProductDescription: row.Get(ColDescription),
		Discontinued:       discontinued,
		ImageURL:           row.Get(ColImageURL),
	}

	var existing models.Product
	err = tx.Where("sku = ?", product.SKU).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		report.Created++
	case err != nil:
		return err
	default:
		product.ProductID = existing.ProductID
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
		report.Updated++
	}
	return nil
}

func (imp *ProductImporter) ensureCategory(tx *gorm.DB, name string) (*models.Category, error) {
	var category models.Category
	err := tx.Where("category_name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = models.Category{CategoryName: name}
		if err := tx.Create(&category).Error; err != nil {
			return nil, err
		}
		return &category, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (imp *ProductImporter) ensureProductType(tx *gorm.DB, categoryID int, name string) (*models.ProductType, error) {
	var productType models.ProductType
	err := tx.Where("category_id = ? AND type_name = ?", categoryID, name).First(&productType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		productType = models.ProductType{CategoryID: categoryID, TypeName: name}
		if err := tx.Create(&productType).Error; err != nil {
			return nil, err
		}
		return &productType, nil
	}
	if err != nil {
		return nil, err
	}
	return &productType, nil
}

// grossMargin returns the explicit margin when given, otherwise derives
// it from cost and price. Prices of zero yield a zero margin.
func grossMargin(explicit string, cost, basePrice decimal.Decimal) decimal.Decimal {
	if explicit != "" {
		return decimal.RequireFromString(explicit)
	}
	if basePrice.IsZero() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return basePrice.Sub(cost).Div(basePrice).Mul(hundred).Round(2)
}

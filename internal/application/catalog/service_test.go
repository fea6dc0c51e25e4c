package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zava/retail-backend/internal/infrastructure/cache"
	"github.com/zava/retail-backend/internal/infrastructure/persistence"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

type fakeStores struct {
	rows  []persistence.StoreInventoryRow
	calls int
}

func (f *fakeStores) ListWithInventory(ctx context.Context) ([]persistence.StoreInventoryRow, error) {
	f.calls++
	return f.rows, nil
}

type fakeCategories struct {
	rows []models.Category
}

func (f *fakeCategories) List(ctx context.Context) ([]models.Category, error) {
	return f.rows, nil
}

type fakeProducts struct {
	featured []persistence.ProductRow
	byCat    []persistence.ProductRow
	total    int64
	byID     map[int]persistence.ProductRow
	bySKU    map[string]persistence.ProductRow
}

func (f *fakeProducts) Featured(ctx context.Context, limit int) ([]persistence.ProductRow, error) {
	if limit < len(f.featured) {
		return f.featured[:limit], nil
	}
	return f.featured, nil
}

func (f *fakeProducts) CountByCategory(ctx context.Context, category string) (int64, error) {
	return f.total, nil
}

func (f *fakeProducts) ByCategory(ctx context.Context, category string, limit, offset int) ([]persistence.ProductRow, error) {
	return f.byCat, nil
}

func (f *fakeProducts) ByID(ctx context.Context, productID int) (*persistence.ProductRow, error) {
	if row, ok := f.byID[productID]; ok {
		return &row, nil
	}
	return nil, nil
}

func (f *fakeProducts) BySKU(ctx context.Context, sku string) (*persistence.ProductRow, error) {
	if row, ok := f.bySKU[sku]; ok {
		return &row, nil
	}
	return nil, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleProductRow() persistence.ProductRow {
	return persistence.ProductRow{
		ProductID:          1,
		SKU:                "APP-001",
		ProductName:        "Classic Tee",
		CategoryName:       "Apparel",
		TypeName:           "T-Shirts",
		UnitPrice:          dec("15"),
		Cost:               dec("5"),
		GrossMarginPercent: dec("66.67"),
		ProductDescription: "Soft cotton tee",
		SupplierName:       "Urban Threads Co",
		ImageURL:           "https://cdn.example/app-001.jpg",
	}
}

func TestService_Stores(t *testing.T) {
	stores := &fakeStores{rows: []persistence.StoreInventoryRow{
		{
			StoreID: 1, StoreName: "Zava Pop-Up Bellevue Square",
			ProductCount: 3, TotalStock: 57,
			InventoryCostValue:   dec("1185"),
			InventoryRetailValue: dec("2595"),
		},
		{
			StoreID: 2, StoreName: "Zava Online Store", IsOnline: true,
			ProductCount: 1, TotalStock: 100,
			InventoryCostValue:   dec("500"),
			InventoryRetailValue: dec("1500"),
		},
		{StoreID: 3, StoreName: "Downtown Annex"},
	}}
	svc := NewService(stores, &fakeCategories{}, &fakeProducts{}, nil)

	result, err := svc.Stores(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)

	bellevue := result.Stores[0]
	assert.Equal(t, "Bellevue Square", bellevue.Location)
	assert.Equal(t, "bellevue_square", bellevue.LocationKey)
	assert.Equal(t, "Open", bellevue.Status)
	assert.Equal(t, "Mon-Sun: 10am-7pm", bellevue.Hours)
	assert.Equal(t, 2595.0, bellevue.InventoryValue)

	online := result.Stores[1]
	assert.Equal(t, "Online Warehouse, Seattle, WA", online.Location)
	assert.Equal(t, "online", online.LocationKey)
	assert.Equal(t, "Online", online.Status)
	assert.Equal(t, "24/7 Online", online.Hours)

	// Store names without the location convention fall back to a generic region.
	annex := result.Stores[2]
	assert.Equal(t, "Washington State", annex.Location)
	assert.Equal(t, "downtown_annex", annex.LocationKey)
}

func TestService_Stores_Cached(t *testing.T) {
	store := cache.NewInMemoryStore()
	defer store.Close()

	stores := &fakeStores{rows: []persistence.StoreInventoryRow{{StoreID: 1, StoreName: "Zava Pop-Up Bellevue Square"}}}
	svc := NewService(stores, &fakeCategories{}, &fakeProducts{}, store)

	_, err := svc.Stores(context.Background())
	require.NoError(t, err)
	_, err = svc.Stores(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stores.calls)
}

func TestService_Categories(t *testing.T) {
	svc := NewService(&fakeStores{}, &fakeCategories{rows: []models.Category{
		{CategoryID: 3, CategoryName: "Accessories"},
		{CategoryID: 1, CategoryName: "Apparel"},
	}}, &fakeProducts{}, nil)

	result, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, Category{ID: 3, Name: "Accessories"}, result.Categories[0])
}

func TestService_Featured(t *testing.T) {
	svc := NewService(&fakeStores{}, &fakeCategories{}, &fakeProducts{
		featured: []persistence.ProductRow{sampleProductRow()},
	}, nil)

	result, err := svc.Featured(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)

	product := result.Products[0]
	assert.Equal(t, "APP-001", product.SKU)
	assert.Equal(t, 15.0, product.UnitPrice)
	assert.Equal(t, 66.67, product.GrossMarginPercent)
	require.NotNil(t, product.SupplierName)
	assert.Equal(t, "Urban Threads Co", *product.SupplierName)
	require.NotNil(t, product.ImageURL)
}

func TestService_ByCategory(t *testing.T) {
	t.Run("returns total for pagination", func(t *testing.T) {
		svc := NewService(&fakeStores{}, &fakeCategories{}, &fakeProducts{
			byCat: []persistence.ProductRow{sampleProductRow()},
			total: 42,
		}, nil)

		result, err := svc.ByCategory(context.Background(), "apparel", 50, 0)
		require.NoError(t, err)
		assert.Equal(t, 42, result.Total)
		assert.Len(t, result.Products, 1)
	})

	t.Run("empty category is not found", func(t *testing.T) {
		svc := NewService(&fakeStores{}, &fakeCategories{}, &fakeProducts{total: 0}, nil)
		_, err := svc.ByCategory(context.Background(), "ghosts", 50, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_ByID(t *testing.T) {
	svc := NewService(&fakeStores{}, &fakeCategories{}, &fakeProducts{
		byID: map[int]persistence.ProductRow{1: sampleProductRow()},
	}, nil)

	product, err := svc.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Classic Tee", product.ProductName)

	_, err = svc.ByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_BySKU(t *testing.T) {
	row := sampleProductRow()
	row.SupplierName = ""
	row.ProductDescription = ""
	svc := NewService(&fakeStores{}, &fakeCategories{}, &fakeProducts{
		bySKU: map[string]persistence.ProductRow{"APP-001": row},
	}, nil)

	product, err := svc.BySKU(context.Background(), "APP-001")
	require.NoError(t, err)
	// Blank joined columns serialize as null, not empty strings.
	assert.Nil(t, product.SupplierName)
	assert.Nil(t, product.ProductDescription)

	_, err = svc.BySKU(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeImages struct{ base string }

func (f fakeImages) ImageURL(_ context.Context, key string) (string, error) {
	return f.base + "/" + key, nil
}

func TestService_ResolvesImageKeys(t *testing.T) {
	keyed := sampleProductRow()
	keyed.ImageURL = "products/app-001.jpg"
	absolute := sampleProductRow()
	absolute.ProductID = 2
	absolute.SKU = "APP-002"

	svc := NewService(&fakeStores{}, &fakeCategories{}, &fakeProducts{
		byID: map[int]persistence.ProductRow{1: keyed, 2: absolute},
	}, nil, WithImageResolver(fakeImages{base: "https://images.test"}))

	product, err := svc.ByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, product.ImageURL)
	assert.Equal(t, "https://images.test/products/app-001.jpg", *product.ImageURL)

	// Absolute URLs from the catalog pass through untouched.
	product, err = svc.ByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, product.ImageURL)
	assert.Equal(t, "https://cdn.example/app-001.jpg", *product.ImageURL)
}

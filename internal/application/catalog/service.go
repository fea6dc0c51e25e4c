// Package catalog serves the storefront read API: store locations,
// categories, and product listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/infrastructure/cache"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/infrastructure/persistence"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

// ErrNotFound is returned when a product, SKU or category has no matches.
var ErrNotFound = errors.New("catalog: not found")

const (
	storesCacheKey   = "catalog:stores"
	storesCacheTTL   = 10 * time.Minute
	categoryCacheKey = "catalog:categories"
	categoryCacheTTL = time.Hour
	featuredCacheTTL = 10 * time.Minute
)

// Store is one store location with inventory aggregates.
type Store struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	IsOnline       bool    `json:"is_online"`
	LocationKey    string  `json:"location_key"`
	Products       int     `json:"products"`
	TotalStock     int     `json:"total_stock"`
	InventoryValue float64 `json:"inventory_value"`
	Status         string  `json:"status"`
	Hours          string  `json:"hours"`
}

// StoreList is the stores listing response.
type StoreList struct {
	Stores []Store `json:"stores"`
	Total  int     `json:"total"`
}

// Category is one product category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CategoryList is the categories listing response.
type CategoryList struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

// Product is one storefront product with category, type and supplier detail.
type Product struct {
	ProductID          int     `json:"product_id"`
	SKU                string  `json:"sku"`
	ProductName        string  `json:"product_name"`
	CategoryName       string  `json:"category_name"`
	TypeName           string  `json:"type_name"`
	UnitPrice          float64 `json:"unit_price"`
	Cost               float64 `json:"cost"`
	GrossMarginPercent float64 `json:"gross_margin_percent"`
	ProductDescription *string `json:"product_description"`
	SupplierName       *string `json:"supplier_name"`
	Discontinued       bool    `json:"discontinued"`
	ImageURL           *string `json:"image_url"`
}

// ProductList is a product listing with the total match count.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// StoreRepository provides the store aggregates query.
type StoreRepository interface {
	ListWithInventory(ctx context.Context) ([]persistence.StoreInventoryRow, error)
}

// CategoryRepository lists categories ordered by name.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
}

// ProductRepository provides the storefront product queries.
type ProductRepository interface {
	Featured(ctx context.Context, limit int) ([]persistence.ProductRow, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
	ByCategory(ctx context.Context, category string, limit, offset int) ([]persistence.ProductRow, error)
	ByID(ctx context.Context, productID int) (*persistence.ProductRow, error)
	BySKU(ctx context.Context, sku string) (*persistence.ProductRow, error)
}

// ImageResolver resolves stored image keys to servable URLs.
type ImageResolver interface {
	ImageURL(ctx context.Context, key string) (string, error)
}

// Service answers the storefront read endpoints, caching the mostly-static
// listings.
type Service struct {
	stores     StoreRepository
	categories CategoryRepository
	products   ProductRepository
	cache      cache.Store
	images     ImageResolver
}

// Option configures a Service.
type Option func(*Service)

// WithImageResolver makes product listings resolve stored image keys to
// URLs. Absolute image URLs pass through untouched.
func WithImageResolver(r ImageResolver) Option {
	return func(s *Service) {
		s.images = r
	}
}

// NewService returns a catalog service. The cache may be nil, in which case
// every call hits the database.
func NewService(stores StoreRepository, categories CategoryRepository, products ProductRepository, cacheStore cache.Store, opts ...Option) *Service {
	s := &Service{stores: stores, categories: categories, products: products, cache: cacheStore}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stores returns all store locations with inventory counts and display
// metadata, physical stores first.
func (s *Service) Stores(ctx context.Context) (*StoreList, error) {
	return cache.Cached(ctx, s.cache, storesCacheKey, storesCacheTTL, func(ctx context.Context) (*StoreList, error) {
		rows, err := s.stores.ListWithInventory(ctx)
		if err != nil {
			return nil, err
		}
		stores := make([]Store, 0, len(rows))
		for _, row := range rows {
			location, key := storeLocation(row.StoreName, row.IsOnline)
			status, hours := "Open", "Mon-Sun: 10am-7pm"
			if row.IsOnline {
				status, hours = "Online", "24/7 Online"
			}
			stores = append(stores, Store{
				ID:             row.StoreID,
				Name:           row.StoreName,
				Location:       location,
				IsOnline:       row.IsOnline,
				LocationKey:    key,
				Products:       row.ProductCount,
				TotalStock:     row.TotalStock,
				InventoryValue: round2(row.InventoryRetailValue.InexactFloat64()),
				Status:         status,
				Hours:          hours,
			})
		}
		logger.L(ctx).Info("retrieved stores", zap.Int("count", len(stores)))
		return &StoreList{Stores: stores, Total: len(stores)}, nil
	})
}

// storeLocation derives the display location and image key from the store
// name. Physical store names follow the "Zava Pop-Up <Location>" convention.
func storeLocation(storeName string, isOnline bool) (location, key string) {
	if isOnline {
		return "Online Warehouse, Seattle, WA", "online"
	}
	if _, after, found := strings.Cut(storeName, "Pop-Up "); found {
		return after, strings.ToLower(strings.ReplaceAll(after, " ", "_"))
	}
	return "Washington State", strings.ToLower(strings.ReplaceAll(storeName, " ", "_"))
}

// Categories returns every category ordered by name.
func (s *Service) Categories(ctx context.Context) (*CategoryList, error) {
	return cache.Cached(ctx, s.cache, categoryCacheKey, categoryCacheTTL, func(ctx context.Context) (*CategoryList, error) {
		rows, err := s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		categories := make([]Category, 0, len(rows))
		for _, row := range rows {
			categories = append(categories, Category{ID: row.CategoryID, Name: row.CategoryName})
		}
		return &CategoryList{Categories: categories, Total: len(categories)}, nil
	})
}

// Featured returns up to limit active products for the homepage, highest
// margin first.
func (s *Service) Featured(ctx context.Context, limit int) (*ProductList, error) {
	key := fmt.Sprintf("catalog:featured:%d", limit)
	return cache.Cached(ctx, s.cache, key, featuredCacheTTL, func(ctx context.Context) (*ProductList, error) {
		rows, err := s.products.Featured(ctx, limit)
		if err != nil {
			return nil, err
		}
		products := mapProducts(rows)
		s.resolveImages(ctx, products)
		return &ProductList{Products: products, Total: len(products)}, nil
	})
}

// ByCategory returns active products in the named category with the total
// match count for pagination. Returns ErrNotFound when the category has no
// active products.
func (s *Service) ByCategory(ctx context.Context, category string, limit, offset int) (*ProductList, error) {
	total, err := s.products.CountByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no products in category %q", ErrNotFound, category)
	}
	rows, err := s.products.ByCategory(ctx, category, limit, offset)
	if err != nil {
		return nil, err
	}
	products := mapProducts(rows)
	s.resolveImages(ctx, products)
	return &ProductList{Products: products, Total: int(total)}, nil
}

// ByID returns a single product or ErrNotFound.
func (s *Service) ByID(ctx context.Context, productID int) (*Product, error) {
	row, err := s.products.ByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	product := mapProduct(*row)
	s.resolveImage(ctx, &product)
	return &product, nil
}

// BySKU returns a single product or ErrNotFound.
func (s *Service) BySKU(ctx context.Context, sku string) (*Product, error) {
	row, err := s.products.BySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: sku %q", ErrNotFound, sku)
	}
	product := mapProduct(*row)
	s.resolveImage(ctx, &product)
	return &product, nil
}

func mapProducts(rows []persistence.ProductRow) []Product {
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, mapProduct(row))
	}
	return products
}

func mapProduct(row persistence.ProductRow) Product {
	return Product{
		ProductID:          row.ProductID,
		SKU:                row.SKU,
		ProductName:        row.ProductName,
		CategoryName:       row.CategoryName,
		TypeName:           row.TypeName,
		UnitPrice:          row.UnitPrice.InexactFloat64(),
		Cost:               row.Cost.InexactFloat64(),
		GrossMarginPercent: row.GrossMarginPercent.InexactFloat64(),
		ProductDescription: optional(row.ProductDescription),
		SupplierName:       optional(row.SupplierName),
		Discontinued:       row.Discontinued,
		ImageURL:           optional(row.ImageURL),
	}
}

// resolveImages rewrites stored image keys to servable URLs in place.
// Rows carrying absolute URLs are left alone. Resolution failures keep
// the raw value rather than dropping the product.
func (s *Service) resolveImages(ctx context.Context, products []Product) {
	for i := range products {
		s.resolveImage(ctx, &products[i])
	}
}

func (s *Service) resolveImage(ctx context.Context, product *Product) {
	if s.images == nil || product.ImageURL == nil {
		return
	}
	key := *product.ImageURL
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return
	}
	url, err := s.images.ImageURL(ctx, key)
	if err != nil {
		logger.L(ctx).Warn("failed to resolve product image",
			zap.String("key", key), zap.Error(err))
		return
	}
	product.ImageURL = &url
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

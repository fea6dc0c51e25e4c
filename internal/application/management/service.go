// Package management serves the authenticated management console API:
// dashboard aggregates, weekly insights, suppliers, inventory and product
// listings. Every query is scoped to the acting user's store when the user
// is a store manager.
package management

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/infrastructure/cache"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/infrastructure/persistence"
)

const (
	topCategoriesCacheTTL = 10 * time.Minute

	// DefaultLowStockThreshold marks stock positions needing a reorder.
	DefaultLowStockThreshold = 10
)

// InventoryReportRepository provides the inventory reporting queries.
type InventoryReportRepository interface {
	Items(ctx context.Context, filter persistence.InventoryFilter) ([]persistence.InventoryRow, error)
	Summary(ctx context.Context, filter persistence.InventoryFilter) (*persistence.InventorySummaryRow, error)
	TopCategories(ctx context.Context, limit int, storeID *int) ([]persistence.TopCategoryRow, error)
}

// SupplierRepository provides the supplier listing queries.
type SupplierRepository interface {
	ListActive(ctx context.Context, storeID *int) ([]persistence.SupplierRow, error)
	CategoryNames(ctx context.Context, supplierID int) ([]string, error)
}

// ProductRepository provides the management product queries.
type ProductRepository interface {
	ManagementCount(ctx context.Context, filter persistence.ManagementProductFilter) (int64, error)
	ManagementList(ctx context.Context, filter persistence.ManagementProductFilter) ([]persistence.ManagementProductRow, error)
}

// Service answers the management console endpoints.
type Service struct {
	inventory InventoryReportRepository
	suppliers SupplierRepository
	products  ProductRepository
	cache     cache.Store
}

// NewService returns a management service. The cache may be nil.
func NewService(inventory InventoryReportRepository, suppliers SupplierRepository, products ProductRepository, cacheStore cache.Store) *Service {
	return &Service{inventory: inventory, suppliers: suppliers, products: products, cache: cacheStore}
}

// scope returns the store the actor's queries are restricted to, or nil for
// admins.
func scope(actor Actor) *int {
	return actor.StoreID
}

// TopCategories ranks categories by retail value of active stock, scoped to
// the actor's store for managers.
func (s *Service) TopCategories(ctx context.Context, actor Actor, limit int) (*TopCategoryList, error) {
	storeID := scope(actor)
	key := fmt.Sprintf("management:top-categories:%d:%s", limit, storeKey(storeID))
	return cache.Cached(ctx, s.cache, key, topCategoriesCacheTTL, func(ctx context.Context) (*TopCategoryList, error) {
		rows, err := s.inventory.TopCategories(ctx, limit, storeID)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return &TopCategoryList{Categories: []TopCategory{}}, nil
		}

		maxValue := rows[0].TotalRetailValue.InexactFloat64()
		categories := make([]TopCategory, 0, len(rows))
		for _, row := range rows {
			retailValue := row.TotalRetailValue.InexactFloat64()
			percentage := 0.0
			if maxValue > 0 {
				percentage = round1(retailValue / maxValue * 100)
			}
			categories = append(categories, TopCategory{
				Name:            row.CategoryName,
				Revenue:         round2(retailValue),
				Percentage:      percentage,
				ProductCount:    row.ProductCount,
				TotalStock:      row.TotalStock,
				CostValue:       round2(row.TotalCostValue.InexactFloat64()),
				PotentialProfit: round2(row.PotentialProfit.InexactFloat64()),
			})
		}
		return &TopCategoryList{
			Categories: categories,
			Total:      len(categories),
			MaxValue:   round2(maxValue),
		}, nil
	})
}

// Insights returns the weekly insights for the actor's role and store.
func (s *Service) Insights(ctx context.Context, actor Actor) (*WeeklyInsights, error) {
	logger.L(ctx).Info("fetching weekly insights",
		zap.String("username", actor.Username),
		zap.String("role", actor.Role))
	return insightsFor(actor), nil
}

// Suppliers returns active suppliers with their product categories. Store
// managers only see suppliers whose products are stocked at their store.
func (s *Service) Suppliers(ctx context.Context, actor Actor) (*SupplierList, error) {
	rows, err := s.suppliers.ListActive(ctx, scope(actor))
	if err != nil {
		return nil, err
	}

	suppliers := make([]Supplier, 0, len(rows))
	for _, row := range rows {
		categories, err := s.suppliers.CategoryNames(ctx, row.SupplierID)
		if err != nil {
			return nil, err
		}
		location := "N/A"
		if row.City != "" {
			location = fmt.Sprintf("%s, %s", row.City, row.StateProvince)
		}
		phone := row.ContactPhone
		if phone == "" {
			phone = "N/A"
		}
		suppliers = append(suppliers, Supplier{
			ID:           row.SupplierID,
			Name:         row.SupplierName,
			Code:         row.SupplierCode,
			Location:     location,
			Contact:      row.ContactEmail,
			Phone:        phone,
			Rating:       row.SupplierRating.InexactFloat64(),
			ESGCompliant: row.ESGCompliant,
			Approved:     row.ApprovedVendor,
			Preferred:    row.PreferredVendor,
			Categories:   categories,
			LeadTime:     row.LeadTimeDays,
			PaymentTerms: row.PaymentTerms,
			MinOrder:     row.MinimumOrderAmount.InexactFloat64(),
			BulkDiscount: row.BulkDiscountPercent.InexactFloat64(),
		})
	}
	return &SupplierList{Suppliers: suppliers, Total: len(suppliers)}, nil
}

// Inventory returns stock positions and summary aggregates. The summary is
// computed over the full filtered set so total_stock_value always equals the
// sum of the matching item stock values, regardless of the display limit.
func (s *Service) Inventory(ctx context.Context, actor Actor, query InventoryQuery) (*InventoryResponse, error) {
	threshold := query.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	storeID := query.StoreID
	if managed := scope(actor); managed != nil {
		// Store managers cannot widen the scope past their own store.
		storeID = managed
	}

	filter := persistence.InventoryFilter{
		StoreID:           storeID,
		ProductID:         query.ProductID,
		Category:          query.Category,
		LowStockThreshold: threshold,
		Limit:             limit,
	}

	summaryRow, err := s.inventory.Summary(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.inventory.Items(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]InventoryItem, 0, len(rows))
	for _, row := range rows {
		isLowStock := row.StockLevel < threshold
		if query.LowStockOnly && !isLowStock {
			continue
		}
		items = append(items, InventoryItem{
			StoreID:       row.StoreID,
			StoreName:     row.StoreName,
			StoreLocation: inventoryLocation(row.StoreName, row.IsOnline),
			IsOnline:      row.IsOnline,
			ProductID:     row.ProductID,
			ProductName:   row.ProductName,
			SKU:           row.SKU,
			Category:      row.CategoryName,
			Type:          row.TypeName,
			StockLevel:    row.StockLevel,
			ReorderPoint:  threshold,
			IsLowStock:    isLowStock,
			UnitCost:      row.Cost.InexactFloat64(),
			UnitPrice:     row.BasePrice.InexactFloat64(),
			StockValue:    round2(row.Cost.Mul(decimal.NewFromInt(int64(row.StockLevel))).InexactFloat64()),
			RetailValue:   round2(row.BasePrice.Mul(decimal.NewFromInt(int64(row.StockLevel))).InexactFloat64()),
			SupplierName:  optional(row.SupplierName),
			SupplierCode:  optional(row.SupplierCode),
			LeadTime:      row.LeadTimeDays,
			ImageURL:      optional(row.ImageURL),
		})
	}

	return &InventoryResponse{
		Inventory: items,
		Summary: InventorySummary{
			TotalItems:       summaryRow.TotalItems,
			LowStockCount:    summaryRow.LowStockCount,
			TotalStockValue:  round2(summaryRow.TotalStockValue.InexactFloat64()),
			TotalRetailValue: round2(summaryRow.TotalRetailValue.InexactFloat64()),
			AvgStockLevel:    round1(summaryRow.AvgStockLevel),
		},
	}, nil
}

// Products returns the paginated management product listing with stock
// aggregates. Store managers only see products stocked at their store.
func (s *Service) Products(ctx context.Context, actor Actor, query ProductQuery) (*ProductListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	filter := persistence.ManagementProductFilter{
		StoreID:      scope(actor),
		Category:     query.Category,
		SupplierID:   query.SupplierID,
		Discontinued: query.Discontinued,
		Search:       query.Search,
		Limit:        limit,
		Offset:       query.Offset,
	}

	total, err := s.products.ManagementCount(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.products.ManagementList(ctx, filter)
	if err != nil {
		return nil, err
	}

	products := make([]ManagementProduct, 0, len(rows))
	for _, row := range rows {
		cost := row.Cost.InexactFloat64()
		basePrice := row.BasePrice.InexactFloat64()
		products = append(products, ManagementProduct{
			ProductID:    row.ProductID,
			SKU:          row.SKU,
			Name:         row.ProductName,
			Description:  optional(row.ProductDescription),
			Category:     row.CategoryName,
			Type:         row.TypeName,
			BasePrice:    basePrice,
			Cost:         cost,
			Margin:       row.GrossMarginPercent.InexactFloat64(),
			Discontinued: row.Discontinued,
			SupplierID:   row.SupplierID,
			SupplierName: optional(row.SupplierName),
			SupplierCode: optional(row.SupplierCode),
			LeadTime:     row.LeadTimeDays,
			TotalStock:   row.TotalStock,
			StoreCount:   row.StoreCount,
			StockValue:   round2(cost * float64(row.TotalStock)),
			RetailValue:  round2(basePrice * float64(row.TotalStock)),
			ImageURL:     optional(row.ImageURL),
		})
	}

	return &ProductListResponse{
		Products: products,
		Pagination: ProductPagination{
			Total:   int(total),
			Limit:   limit,
			Offset:  query.Offset,
			HasMore: query.Offset+len(products) < int(total),
		},
	}, nil
}

// inventoryLocation derives the short display location from the store name.
func inventoryLocation(storeName string, isOnline bool) string {
	if isOnline {
		return "Online Warehouse"
	}
	if _, after, found := strings.Cut(storeName, "Pop-Up "); found {
		return after
	}
	return storeName
}

func storeKey(storeID *int) string {
	if storeID == nil {
		return "all"
	}
	return fmt.Sprintf("store-%d", *storeID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

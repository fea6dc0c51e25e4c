package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zava/retail-backend/internal/infrastructure/logger"
)

// NewFinanceServer builds the finance MCP server. Its tools run
// pre-written queries only, never model-generated SQL.
func NewFinanceServer(db *gorm.DB) *server.MCPServer {
	return newServer(
		"Zava Finance Agent MCP Server",
		"Finance tools for order policies, supplier contracts, sales analysis, and inventory valuation.",
		&orderPolicyTool{db: db},
		&financeContractTool{db: db},
		&salesHistoryTool{db: db},
		&inventoryStatusTool{db: db},
		&storesTool{db: db},
		&utcDateTool{},
	)
}

// orderPolicyTool returns order processing and budget authorization policies.
type orderPolicyTool struct {
	db *gorm.DB
}

func (t *orderPolicyTool) Definition() mcp.Tool {
	return mcp.NewTool("get_company_order_policy",
		mcp.WithDescription(
			"Get company order processing policies and budget authorization rules. "+
				"Returns policy names, types, content, thresholds, and approval requirements. "+
				"Policies can be filtered by department.",
		),
		mcp.WithString("department",
			mcp.Description("Optional department name to filter policies (e.g., \"Procurement\", \"Finance\")."),
		),
	)
}

func (t *orderPolicyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	department := req.GetString("department", "")
	return mcp.NewToolResultText(orderPolicyEnvelope(ctx, t.db, department)), nil
}

// orderPolicyEnvelope queries active order_processing and budget_authorization
// policies, optionally narrowed to one department.
func orderPolicyEnvelope(ctx context.Context, db *gorm.DB, department string) string {
	query := `
SELECT policy_id, policy_name, policy_type, policy_content, department,
       minimum_order_threshold, approval_required, is_active,
       CASE policy_type
            WHEN 'order_processing' THEN 'Outlines order processing and fulfillment procedures'
            WHEN 'budget_authorization' THEN 'Specifies budget limits and authorization levels'
            WHEN 'procurement' THEN 'Covers supplier selection and procurement processes'
            ELSE 'General company policy'
       END AS policy_description,
       length(policy_content) AS content_length
  FROM company_policies
 WHERE is_active = 1
   AND policy_type IN ('order_processing', 'budget_authorization')`
	var args []any
	if department != "" {
		query += " AND (department = ? OR department IS NULL)"
		args = append(args, department)
	}
	query += " ORDER BY policy_type, policy_name"

	out, err := runEnvelope(ctx, db, "No order policies found", query, args...)
	if err != nil {
		return encodeError(fmt.Sprintf("Company order policy query failed: %v", err))
	}
	return out
}

// financeContractTool looks up the active contract for one supplier.
type financeContractTool struct {
	db *gorm.DB
}

func (t *financeContractTool) Definition() mcp.Tool {
	return supplierContractDefinition()
}

func (t *financeContractTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	supplierID, ok := intArg(req, "supplier_id")
	if !ok {
		return mcp.NewToolResultText(
			encodeError("Failed to retrieve supplier contract: supplier_id parameter is required")), nil
	}
	return mcp.NewToolResultText(supplierContractEnvelope(ctx, t.db, supplierID)), nil
}

func supplierContractDefinition() mcp.Tool {
	return mcp.NewTool("get_supplier_contract",
		mcp.WithDescription(
			"Get supplier contract information including terms and conditions. Returns active "+
				"contract details for a specific supplier including contract numbers, dates, values, "+
				"payment terms, and renewal status.",
		),
		mcp.WithNumber("supplier_id",
			mcp.Required(),
			mcp.Description("The unique identifier for the supplier."),
		),
	)
}

func supplierContractEnvelope(ctx context.Context, db *gorm.DB, supplierID int) string {
	renewalCutoff := time.Now().AddDate(0, 0, 90).Format("2006-01-02")
	query := `
SELECT s.supplier_name, s.supplier_code, s.contact_email, s.contact_phone,
       c.contract_id, c.contract_number, c.contract_status, c.start_date, c.end_date,
       c.contract_value, c.payment_terms, c.auto_renew,
       c.created_at AS contract_created,
       CASE WHEN c.end_date IS NOT NULL
            THEN julianday(c.end_date) - julianday(current_date)
            ELSE NULL
       END AS days_until_expiry,
       CASE WHEN c.end_date IS NOT NULL AND c.end_date <= ? THEN 1 ELSE 0 END AS renewal_due_soon
  FROM suppliers s
  LEFT JOIN supplier_contracts c ON s.supplier_id = c.supplier_id
 WHERE s.supplier_id = ?
   AND (c.contract_status = 'active' OR c.contract_status IS NULL)
 ORDER BY c.start_date DESC`

	out, err := runEnvelope(ctx, db,
		fmt.Sprintf("No contract found for supplier ID %d", supplierID),
		query, renewalCutoff, supplierID)
	if err != nil {
		return encodeError(fmt.Sprintf("Supplier contract query failed: %v", err))
	}
	return out
}

// salesHistoryTool aggregates revenue, units, and customer counts by month.
type salesHistoryTool struct {
	db *gorm.DB
}

func (t *salesHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("get_historical_sales_data",
		mcp.WithDescription(
			"Get historical sales data with revenue, order counts, and customer metrics. Returns "+
				"monthly aggregated statistics including total revenue, order counts, average order "+
				"values, units sold, and unique customer counts. Data can be filtered by store and "+
				"category.",
		),
		mcp.WithNumber("days_back",
			mcp.Description("Number of days to look back (default: 30)."),
		),
		mcp.WithNumber("store_id",
			mcp.Description("Optional store ID to filter results."),
		),
		mcp.WithString("category_name",
			mcp.Description("Optional category name to filter results."),
		),
	)
}

func (t *salesHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	daysBack := int(req.GetFloat("days_back", 30))
	storeID, hasStore := intArg(req, "store_id")
	categoryName := req.GetString("category_name", "")

	logger.L(ctx).Info("retrieving historical sales data",
		zap.Int("days_back", daysBack), zap.String("category", categoryName))

	cutoff := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	query := `
SELECT strftime('%Y-%m', o.order_date) AS month,
       st.store_name, st.is_online, c.category_name,
       COUNT(DISTINCT o.order_id) AS order_count,
       SUM(oi.total_amount) AS total_revenue,
       AVG(oi.total_amount) AS avg_order_value,
       SUM(oi.quantity) AS total_units_sold,
       COUNT(DISTINCT o.customer_id) AS unique_customers
  FROM orders o
  JOIN order_items oi ON o.order_id = oi.order_id
  JOIN stores st ON o.store_id = st.store_id
  JOIN products p ON oi.product_id = p.product_id
  JOIN categories c ON p.category_id = c.category_id
 WHERE o.order_date >= ?`
	args := []any{cutoff}
	if hasStore {
		query += " AND o.store_id = ?"
		args = append(args, storeID)
	}
	if categoryName != "" {
		query += " AND upper(c.category_name) = upper(?)"
		args = append(args, categoryName)
	}
	query += `
 GROUP BY month, st.store_name, st.is_online, c.category_name
 ORDER BY month DESC`

	out, err := runEnvelope(ctx, t.db,
		fmt.Sprintf("No sales data found for last %d days", daysBack), query, args...)
	if err != nil {
		return mcp.NewToolResultText(
			encodeError(fmt.Sprintf("Historical sales query failed: %v", err))), nil
	}
	return mcp.NewToolResultText(out), nil
}

// inventoryStatusTool reports stock levels and valuations across stores.
type inventoryStatusTool struct {
	db *gorm.DB
}

func (t *inventoryStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("get_current_inventory_status",
		mcp.WithDescription(
			"Get current inventory status across stores with values and low stock alerts. Returns "+
				"inventory levels, cost values, retail values, and low stock alerts for products "+
				"across all stores. Can be filtered by store and category.",
		),
		mcp.WithNumber("store_id",
			mcp.Description("Optional store ID to filter results."),
		),
		mcp.WithString("category_name",
			mcp.Description("Optional category name to filter results."),
		),
		mcp.WithNumber("low_stock_threshold",
			mcp.Description("Stock level below which to trigger alert (default: 10)."),
		),
	)
}

func (t *inventoryStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storeID, hasStore := intArg(req, "store_id")
	categoryName := req.GetString("category_name", "")
	threshold := int(req.GetFloat("low_stock_threshold", 10))

	query := `
SELECT st.store_name, st.is_online, p.product_name, p.sku, c.category_name,
       pt.type_name AS product_type, i.stock_level, p.cost, p.base_price,
       i.stock_level * p.cost AS inventory_value,
       i.stock_level * p.base_price AS retail_value,
       CASE WHEN i.stock_level <= ? THEN 1 ELSE 0 END AS low_stock_alert
  FROM inventory i
  JOIN stores st ON i.store_id = st.store_id
  JOIN products p ON i.product_id = p.product_id
  JOIN categories c ON p.category_id = c.category_id
  JOIN product_types pt ON p.type_id = pt.type_id
 WHERE p.discontinued = 0`
	args := []any{threshold}
	if hasStore {
		query += " AND i.store_id = ?"
		args = append(args, storeID)
	}
	if categoryName != "" {
		query += " AND upper(c.category_name) = upper(?)"
		args = append(args, categoryName)
	}
	query += " ORDER BY st.store_name, c.category_name, i.stock_level ASC"

	out, err := runEnvelope(ctx, t.db, "No inventory data found", query, args...)
	if err != nil {
		return mcp.NewToolResultText(
			encodeError(fmt.Sprintf("Inventory status query failed: %v", err))), nil
	}
	return mcp.NewToolResultText(out), nil
}

// storesTool lists stores with optional case-insensitive name matching.
type storesTool struct {
	db *gorm.DB
}

func (t *storesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_stores",
		mcp.WithDescription(
			"Get store information with optional filtering by name. Returns store details "+
				"including store IDs, names, and online status. Can be filtered by store name "+
				"using partial, case-insensitive matching.",
		),
		mcp.WithString("store_name",
			mcp.Description("Optional store name to search for (partial match, case-insensitive)."),
		),
	)
}

func (t *storesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storeName := req.GetString("store_name", "")

	query := "SELECT store_id, store_name, is_online, rls_user_id FROM stores"
	var args []any
	if storeName != "" {
		query += " WHERE upper(store_name) LIKE ?"
		args = append(args, "%"+strings.ToUpper(storeName)+"%")
	}
	query += " ORDER BY store_name"

	out, err := runEnvelope(ctx, t.db, "No stores found matching the criteria", query, args...)
	if err != nil {
		return mcp.NewToolResultText(
			encodeError(fmt.Sprintf("Store query failed: %v", err))), nil
	}
	return mcp.NewToolResultText(out), nil
}

// utcDateTool anchors the model's date arithmetic to a trusted clock.
type utcDateTool struct{}

func (t *utcDateTool) Definition() mcp.Tool {
	return mcp.NewTool("get_current_utc_date",
		mcp.WithDescription(
			"Get the current date and time in UTC format. Useful for calculating date ranges "+
				"and providing context for time-sensitive data.",
		),
	)
}

func (t *utcDateTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(time.Now().UTC().Format(time.RFC3339Nano)), nil
}

// intArg reads an optional integer argument, reporting whether it was set.
func intArg(req mcp.CallToolRequest, key string) (int, bool) {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return 0, false
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, false
	}
	return int(value), true
}

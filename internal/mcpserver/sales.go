package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zava/retail-backend/internal/infrastructure/logger"
)

// validSalesTables are the tables the schema tool will describe.
var validSalesTables = map[string]bool{
	"customers":                      true,
	"stores":                         true,
	"categories":                     true,
	"product_types":                  true,
	"products":                       true,
	"orders":                         true,
	"order_items":                    true,
	"inventory":                      true,
	"suppliers":                      true,
	"supplier_performance":           true,
	"procurement_requests":           true,
	"company_policies":               true,
	"supplier_contracts":             true,
	"approvers":                      true,
	"notifications":                  true,
	"product_image_embeddings":       true,
	"product_description_embeddings": true,
}

const salesTableListDescription = "List of table names. Valid table names include 'customers', " +
	"'stores', 'categories', 'product_types', 'products', 'orders', 'order_items', 'inventory', " +
	"'suppliers', 'supplier_performance', 'procurement_requests', 'company_policies', " +
	"'supplier_contracts', 'approvers', 'notifications', 'product_image_embeddings', " +
	"'product_description_embeddings'."

// NewSalesServer builds the sales database MCP server.
func NewSalesServer(db *gorm.DB) *server.MCPServer {
	return newServer(
		"mcp-zava-sales",
		"Customer sales database access with table schema discovery and raw query execution.",
		&tableSchemasTool{db: db},
		&salesQueryTool{db: db},
	)
}

// tableSchemasTool describes table schemas so the model can write exact
// SQL against them.
type tableSchemasTool struct {
	db *gorm.DB
}

func (t *tableSchemasTool) Definition() mcp.Tool {
	return mcp.NewTool("get_multiple_table_schemas",
		mcp.WithDescription(
			"Retrieve schemas for multiple tables. Use this tool only for schemas you have "+
				"not already fetched during the conversation.",
		),
		mcp.WithArray("table_names",
			mcp.Required(),
			mcp.Description(salesTableListDescription),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func (t *tableSchemasTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		TableNames []string `json:"table_names"`
	}{}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	if len(args.TableNames) == 0 {
		return mcp.NewToolResultText("Error: table_names parameter is required and cannot be empty"), nil
	}

	var invalid []string
	for _, name := range args.TableNames {
		if !validSalesTables[name] {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		valid := make([]string, 0, len(validSalesTables))
		for name := range validSalesTables {
			valid = append(valid, name)
		}
		sort.Strings(valid)
		return mcp.NewToolResultText(fmt.Sprintf(
			"Error: Invalid table names: %v. Valid tables are: %v", invalid, valid)), nil
	}

	logger.L(ctx).Info("retrieving table schemas", zap.Strings("tables", args.TableNames))

	var b strings.Builder
	for _, name := range args.TableNames {
		schema, err := t.tableSchema(ctx, name)
		if err != nil {
			fmt.Fprintf(&b, "Error retrieving %s schema: %v\n", name, err)
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(schema)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// tableSchema formats one table's column layout for the model.
func (t *tableSchemasTool) tableSchema(ctx context.Context, tableName string) (string, error) {
	_, rows, err := queryRows(ctx, t.db, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("**ERROR:** Table '%s' not found", tableName), nil
	}

	// PRAGMA table_info columns: cid, name, type, notnull, dflt_value, pk
	columns := make([]string, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, fmt.Sprintf("%v:%v", row[1], row[2]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Table: %s\n\n", tableName)
	fmt.Fprintf(&b, "**Purpose:** Table containing %s data\n", tableName)
	b.WriteString("\n## Schema\n")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString("\n\n## Query Hints\n")
	fmt.Fprintf(&b, "- Use `%s` for queries about %s\n",
		tableName, strings.ReplaceAll(tableName, "_", " "))
	return b.String(), nil
}

// salesQueryTool executes a raw SQLite query against the sales database.
type salesQueryTool struct {
	db *gorm.DB
}

func (t *salesQueryTool) Definition() mcp.Tool {
	return mcp.NewTool("execute_sales_query",
		mcp.WithDescription(
			"Always fetch and inspect the database schema before generating any SQLite using the "+
				"get_multiple_table_schemas tool; use only exact table and column names, and never "+
				"invent or infer data, columns, tables, or values. If the information isn't present "+
				"in the schema or database, clearly state that it cannot be answered. Join related "+
				"tables for clarity, aggregate results where appropriate, and limit output to 20 rows "+
				"with a note that the limit is for readability. To identify store types, use the "+
				"stores.is_online boolean: true indicates an online store, false indicates a physical "+
				"store. **NEVER** return entity IDs or UUIDs in the response, as they are not "+
				"meaningful to the user. Instead, use descriptive names or values.",
		),
		mcp.WithString("sqlite_query",
			mcp.Required(),
			mcp.Description("A well-formed SQLite query."),
		),
	)
}

// maxSalesQueryRows caps raw query results for readability.
const maxSalesQueryRows = 20

func (t *salesQueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("sqlite_query", "")
	if query == "" {
		return mcp.NewToolResultText("Error: sqlite_query parameter is required"), nil
	}

	if err := validateReadOnlyQuery(query); err != nil {
		return mcp.NewToolResultText(
			encodeQueryError(fmt.Sprintf("Query rejected: %v", err), query)), nil
	}

	logger.L(ctx).Info("executing sales query", zap.String("query", query))

	columns, rows, err := queryRows(ctx, t.db, query)
	if err != nil {
		return mcp.NewToolResultText(
			encodeQueryError(fmt.Sprintf("SQLite query failed: %v", err), query)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(encodeEmpty("No rows")), nil
	}
	if len(rows) > maxSalesQueryRows {
		out := mustJSON(resultSet{
			Columns: columns,
			Rows:    rows[:maxSalesQueryRows],
			Count:   maxSalesQueryRows,
			Message: fmt.Sprintf("Results limited to %d rows for readability", maxSalesQueryRows),
		})
		return mcp.NewToolResultText(out), nil
	}
	return mcp.NewToolResultText(encodeRows(columns, rows)), nil
}

// validateReadOnlyQuery ensures a model-generated query is a single read
// statement. Anything other than one SELECT or WITH, or any statement
// touching pragmas or attached databases, is rejected before it reaches
// the driver.
func validateReadOnlyQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return fmt.Errorf("only SELECT statements are allowed")
	}

	for _, keyword := range []string{"pragma", "attach", "detach", "vacuum", "reindex"} {
		for _, field := range strings.Fields(lower) {
			if strings.Trim(field, "();,") == keyword {
				return fmt.Errorf("%s is not allowed", strings.ToUpper(keyword))
			}
		}
	}
	return nil
}

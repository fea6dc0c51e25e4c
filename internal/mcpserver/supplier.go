package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zava/retail-backend/internal/infrastructure/logger"
)

// NewSupplierServer builds the supplier sourcing MCP server. Callers
// identify themselves through the x-rls-user-id header, which the HTTP
// layer threads into the request context.
func NewSupplierServer(db *gorm.DB) *server.MCPServer {
	return newServer(
		"mcp-zava-supplier",
		"Supplier sourcing tools covering supplier search, performance history, contracts, and procurement policies.",
		&findSuppliersTool{db: db},
		&supplierHistoryTool{db: db},
		&supplierContractTool{db: db},
		&supplierPolicyTool{db: db},
		&utcDateTool{},
	)
}

// findSuppliersTool ranks approved suppliers against procurement criteria.
type findSuppliersTool struct {
	db *gorm.DB
}

func (t *findSuppliersTool) Definition() mcp.Tool {
	return mcp.NewTool("find_suppliers_for_request",
		mcp.WithDescription(
			"Find suppliers that match procurement request requirements. Searches by product "+
				"category, ESG compliance, rating requirements, lead time constraints, and budget "+
				"considerations. Returns suppliers ranked by preference and performance.",
		),
		mcp.WithString("product_category",
			mcp.Description("Product category to filter suppliers by (e.g., 'Apparel', 'Footwear'). Leave empty to search all categories."),
		),
		mcp.WithBoolean("esg_required",
			mcp.Description("Whether ESG (Environmental, Social, Governance) compliance is required."),
		),
		mcp.WithNumber("min_rating",
			mcp.Description("Minimum supplier rating required (0.0 to 5.0). Default is 3.0."),
		),
		mcp.WithNumber("max_lead_time",
			mcp.Description("Maximum acceptable lead time in days. Default is 30."),
		),
		mcp.WithNumber("budget_min",
			mcp.Description("Minimum budget amount to consider suppliers with appropriate minimum order amounts."),
		),
		mcp.WithNumber("budget_max",
			mcp.Description("Maximum budget amount to filter suppliers by bulk discount thresholds."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of suppliers to return. Default is 10."),
		),
	)
}

func (t *findSuppliersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productCategory := req.GetString("product_category", "")
	esgRequired := req.GetBool("esg_required", false)
	minRating := req.GetFloat("min_rating", 3.0)
	maxLeadTime := int(req.GetFloat("max_lead_time", 30))
	budgetMin, hasBudgetMin := floatArg(req, "budget_min")
	budgetMax, hasBudgetMax := floatArg(req, "budget_max")
	limit := int(req.GetFloat("limit", 10))

	logger.L(ctx).Info("finding suppliers",
		zap.String("category", productCategory),
		zap.Bool("esg_required", esgRequired),
		zap.Float64("min_rating", minRating),
		zap.String("rls_user_id", RLSUserID(ctx)))

	query := `
SELECT s.supplier_id, s.supplier_name, s.supplier_code, s.contact_email, s.contact_phone,
       s.supplier_rating, s.esg_compliant, s.preferred_vendor, s.approved_vendor,
       s.lead_time_days, s.minimum_order_amount, s.bulk_discount_threshold,
       s.bulk_discount_percent, s.payment_terms,
       COUNT(p.product_id) AS available_products,
       COALESCE(AVG(sp.overall_score), s.supplier_rating) AS avg_performance_score,
       c.contract_status, c.contract_number, cat.category_name
  FROM suppliers s
  LEFT JOIN products p ON s.supplier_id = p.supplier_id
  LEFT JOIN categories cat ON p.category_id = cat.category_id
  LEFT JOIN supplier_performance sp ON s.supplier_id = sp.supplier_id
  LEFT JOIN supplier_contracts c
         ON s.supplier_id = c.supplier_id AND c.contract_status = 'active'
 WHERE s.active_status = 1
   AND s.approved_vendor = 1
   AND s.supplier_rating >= ?
   AND s.lead_time_days <= ?`
	args := []any{minRating, maxLeadTime}
	if esgRequired {
		query += " AND s.esg_compliant = 1"
	}
	if productCategory != "" {
		query += " AND upper(cat.category_name) = upper(?)"
		args = append(args, productCategory)
	}
	if hasBudgetMin {
		query += " AND s.minimum_order_amount <= ?"
		args = append(args, budgetMin)
	}
	if hasBudgetMax {
		query += " AND s.bulk_discount_threshold <= ?"
		args = append(args, budgetMax)
	}
	query += `
 GROUP BY s.supplier_id, s.supplier_name, s.supplier_code, s.contact_email, s.contact_phone,
          s.supplier_rating, s.esg_compliant, s.preferred_vendor, s.approved_vendor,
          s.lead_time_days, s.minimum_order_amount, s.bulk_discount_threshold,
          s.bulk_discount_percent, s.payment_terms,
          c.contract_status, c.contract_number, cat.category_name
 ORDER BY s.preferred_vendor DESC, avg_performance_score DESC, s.supplier_rating DESC
 LIMIT ?`
	args = append(args, limit)

	out, err := runEnvelope(ctx, t.db, "No suppliers found matching criteria", query, args...)
	if err != nil {
		return mcp.NewToolResultText(
			encodeError(fmt.Sprintf("Find suppliers failed: %v", err))), nil
	}
	return mcp.NewToolResultText(out), nil
}

// supplierHistoryTool reports performance evaluations and procurement totals.
type supplierHistoryTool struct {
	db *gorm.DB
}

func (t *supplierHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("get_supplier_history_and_performance",
		mcp.WithDescription(
			"Get detailed supplier performance history and metrics. Retrieves historical "+
				"performance evaluations, procurement activity, and performance trends for a "+
				"specific supplier. Includes cost, quality, delivery, and compliance scores over time.",
		),
		mcp.WithNumber("supplier_id",
			mcp.Required(),
			mcp.Description("Unique identifier of the supplier to get performance history for."),
		),
		mcp.WithNumber("months_back",
			mcp.Description("Number of months of history to retrieve. Default is 12."),
		),
	)
}

func (t *supplierHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	supplierID, ok := intArg(req, "supplier_id")
	if !ok {
		return mcp.NewToolResultText(
			encodeError("Get supplier history failed: supplier_id parameter is required")), nil
	}
	monthsBack := int(req.GetFloat("months_back", 12))

	logger.L(ctx).Info("retrieving supplier history",
		zap.Int("supplier_id", supplierID),
		zap.Int("months_back", monthsBack),
		zap.String("rls_user_id", RLSUserID(ctx)))

	cutoff := time.Now().AddDate(0, 0, -monthsBack*30).Format("2006-01-02")
	query := `
SELECT s.supplier_name, s.supplier_code, s.supplier_rating, s.esg_compliant,
       s.preferred_vendor, s.lead_time_days,
       s.created_at AS supplier_since,
       sp.evaluation_date, sp.cost_score, sp.quality_score, sp.delivery_score,
       sp.compliance_score, sp.overall_score,
       sp.notes AS performance_notes,
       COUNT(pr.request_id) OVER (PARTITION BY s.supplier_id) AS total_requests,
       SUM(pr.total_cost) OVER (PARTITION BY s.supplier_id) AS total_value
  FROM suppliers s
  LEFT JOIN supplier_performance sp ON s.supplier_id = sp.supplier_id
  LEFT JOIN procurement_requests pr ON s.supplier_id = pr.supplier_id
 WHERE s.supplier_id = ?
   AND (sp.evaluation_date >= ? OR sp.evaluation_date IS NULL)
 ORDER BY sp.evaluation_date DESC`

	out, err := runEnvelope(ctx, t.db,
		fmt.Sprintf("No data found for supplier ID %d", supplierID),
		query, supplierID, cutoff)
	if err != nil {
		return mcp.NewToolResultText(
			encodeError(fmt.Sprintf("Supplier history query failed: %v", err))), nil
	}
	return mcp.NewToolResultText(out), nil
}

// supplierContractTool mirrors the finance contract lookup for sourcing agents.
type supplierContractTool struct {
	db *gorm.DB
}

func (t *supplierContractTool) Definition() mcp.Tool {
	return supplierContractDefinition()
}

func (t *supplierContractTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	supplierID, ok := intArg(req, "supplier_id")
	if !ok {
		return mcp.NewToolResultText(
			encodeError("Get supplier contract failed: supplier_id parameter is required")), nil
	}

	logger.L(ctx).Info("retrieving supplier contract",
		zap.Int("supplier_id", supplierID),
		zap.String("rls_user_id", RLSUserID(ctx)))

	return mcp.NewToolResultText(supplierContractEnvelope(ctx, t.db, supplierID)), nil
}

// supplierPolicyTool returns supplier management policies across all types.
type supplierPolicyTool struct {
	db *gorm.DB
}

func (t *supplierPolicyTool) Definition() mcp.Tool {
	return mcp.NewTool("get_company_supplier_policy",
		mcp.WithDescription(
			"Get company policies related to supplier management. Retrieves policies and "+
				"procedures for supplier selection, procurement processes, vendor approval "+
				"requirements, and budget authorization limits.",
		),
		mcp.WithString("policy_type",
			mcp.Description("Type of policy to retrieve. Options: 'procurement', 'vendor_approval', 'budget_authorization', 'order_processing'. Leave empty to get all supplier-related policies."),
		),
		mcp.WithString("department",
			mcp.Description("Department-specific policies to retrieve. Leave empty to get company-wide policies."),
		),
	)
}

func (t *supplierPolicyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policyType := req.GetString("policy_type", "")
	department := req.GetString("department", "")

	logger.L(ctx).Info("retrieving company policies",
		zap.String("policy_type", policyType),
		zap.String("department", department),
		zap.String("rls_user_id", RLSUserID(ctx)))

	query := `
SELECT policy_id, policy_name, policy_type, policy_content, department,
       minimum_order_threshold, approval_required, is_active,
       CASE policy_type
            WHEN 'procurement' THEN 'Covers supplier selection and procurement processes'
            WHEN 'vendor_approval' THEN 'Defines vendor approval and onboarding requirements'
            WHEN 'budget_authorization' THEN 'Specifies budget limits and authorization levels'
            WHEN 'order_processing' THEN 'Outlines order processing and fulfillment procedures'
            ELSE 'General company policy'
       END AS policy_description,
       length(policy_content) AS content_length
  FROM company_policies
 WHERE is_active = 1`
	var args []any
	if policyType != "" {
		query += " AND policy_type = ?"
		args = append(args, policyType)
	}
	if department != "" {
		query += " AND (department = ? OR department IS NULL)"
		args = append(args, department)
	}
	query += " ORDER BY policy_type, policy_name"

	out, err := runEnvelope(ctx, t.db, "No company policies found", query, args...)
	if err != nil {
		return mcp.NewToolResultText(
			encodeError(fmt.Sprintf("Company policy query failed: %v", err))), nil
	}
	return mcp.NewToolResultText(out), nil
}

// floatArg reads an optional float argument, reporting whether it was set.
func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return 0, false
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, false
	}
	return value, true
}

package management

import "github.com/zava/retail-backend/internal/infrastructure/persistence/models"

func strptr(s string) *string { return &s }

// insightsFor returns the curated weekly insights for the actor's role and
// store. The copy is static demo content keyed the same way the dashboard
// frontend expects it.
func insightsFor(actor Actor) *WeeklyInsights {
	if actor.Role == models.RoleStoreManager && actor.StoreID != nil && *actor.StoreID == 1 {
		return &WeeklyInsights{
			Summary: "NYC Times Square store performance remains strong this week with " +
				"foot traffic up 12%. Weather forecasts indicate a significant cold " +
				"snap arriving next week (temperatures dropping to 28°F/-2°C). This " +
				"presents an immediate opportunity to capitalize on cold-weather " +
				"accessory demand, particularly beanies and winter hats which saw " +
				"340% increase during last year's similar weather event.",
			Insights: []Insight{
				{
					Type:  "warning",
					Title: "Cold Snap Alert - Stock Winter Accessories",
					Description: "Weather forecast shows temperatures dropping to 28°F starting " +
						"Monday. Current beanie inventory: 47 units. Recommend immediate " +
						"order of 200+ units across popular styles. Last year's cold snap " +
						"generated $8,400 in beanie sales over 3 days.",
					Action: &InsightAction{Label: "View Beanies", Type: "product-search", Query: strptr("beanie")},
				},
				{
					Type:  "success",
					Title: "Tourist Season Performance",
					Description: "Times Square location seeing 18% increase in tourist traffic vs " +
						"last month. Branded merchandise and gift items up 24% week-over-week.",
				},
				{
					Type:  "info",
					Title: "Peak Hours Optimization",
					Description: "Busiest hours: 2-6pm weekdays, 11am-8pm weekends. Consider " +
						"adjusting staff schedules to maximize customer service during " +
						"these windows.",
				},
				{
					Type:  "success",
					Title: "Local Partnership Opportunity",
					Description: "NYC-themed merchandise performing exceptionally well (32% of " +
						"accessory sales). Consider expanding local artist collaborations " +
						"for holiday season.",
				},
			},
		}
	}

	if actor.Role == models.RoleAdmin {
		return &WeeklyInsights{
			Summary: "Enterprise-wide performance analysis shows strong quarterly momentum " +
				"with total revenue up 16% across all locations. Pike Place continues " +
				"to lead in sales growth (+28%), while Spokane Pavilion requires " +
				"attention for underperformance. Urban Threads supplier failing to meet " +
				"contract terms with 23% late deliveries impacting inventory availability.",
			Insights: []Insight{
				{
					Type:  "success",
					Title: "Top Performing Store: Pike Place",
					Description: "Pike Place location leading network with 28% sales growth and " +
						"4.8★ customer satisfaction. Strong performance in outdoor and " +
						"lifestyle categories. Consider this location for new product " +
						"line testing.",
					Action: &InsightAction{Label: "View Details", Type: "navigation", Path: strptr("/management/stores?store=3")},
				},
				{
					Type:  "warning",
					Title: "Underperforming Location: Spokane Pavilion",
					Description: "Spokane Pavilion down 12% vs target with declining foot traffic. " +
						"Inventory turnover rate below network average. Recommend immediate " +
						"strategic review and potential merchandising refresh.",
					Action: &InsightAction{Label: "View Analysis", Type: "navigation", Path: strptr("/management/stores?store=4")},
				},
				{
					Type:  "success",
					Title: "Product Line Winner: Technical Outerwear",
					Description: "Technical outerwear category exceeding projections by 34% " +
						"network-wide. Mountain Peak Outfitters partnership driving strong " +
						"margins (42%) and customer satisfaction. Expand SKU count by 25% " +
						"for Q4.",
					Action: &InsightAction{Label: "View Category", Type: "product-search", Query: strptr("outerwear technical")},
				},
				{
					Type:  "warning",
					Title: "Supplier Contract Breach: Urban Threads",
					Description: "Urban Threads missing SLA targets: 23% late deliveries, 8% " +
						"quality defects. Contract terms require 95% on-time delivery. " +
						"Recommend supplier review meeting and potential penalty assessment.",
					Action: &InsightAction{Label: "View Supplier", Type: "navigation", Path: strptr("/management/suppliers?supplier=urban-threads")},
				},
			},
		}
	}

	return &WeeklyInsights{
		Summary: "Your store performance this week shows strong momentum with notable " +
			"improvements in inventory turnover and customer engagement. Here are " +
			"the key highlights and recommendations:",
		Insights: []Insight{
			{
				Type:  "success",
				Title: "Strong Performance in Outerwear",
				Description: "Outerwear category showing 23% increase in sales compared to last " +
					"week. Consider restocking popular items like the Bomber Jacket and " +
					"Rain Jacket.",
			},
			{
				Type:  "warning",
				Title: "Low Stock Alert - Footwear",
				Description: "Classic White Sneakers and Running Athletic Shoes inventory is " +
					"critically low. Recommend immediate reorder to avoid stockouts " +
					"during peak season.",
				Action: &InsightAction{Label: "View Inventory", Type: "navigation", Path: strptr("/management/inventory?category=footwear&status=low")},
			},
			{
				Type:  "info",
				Title: "Supplier Performance",
				Description: "Urban Threads Wholesale has consistently delivered on time with " +
					"98% accuracy. Consider increasing order volume to leverage bulk " +
					"discounts.",
			},
			{
				Type:  "success",
				Title: "Seasonal Opportunity",
				Description: "With fall approaching, accessories like beanies and gloves are " +
					"expected to see 40% increase in demand. Stock levels are currently " +
					"optimal.",
			},
		},
	}
}

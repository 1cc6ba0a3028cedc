package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	nutriscan "github.com/unowned-ai/nutriscan/pkg"
	"github.com/unowned-ai/nutriscan/pkg/app"
)

// ToolNames lists every registered tool, for the startup banner.
var ToolNames = []string{
	"ping", "lookup_product", "list_history", "product_score",
	"get_profile", "update_profile",
	"log_meal", "add_water", "get_day", "list_days",
	"filter_guide", "guide_avoid_list", "add_guide_food",
	"list_shopping", "add_shopping_item", "toggle_shopping_item", "remove_shopping_item",
	"personalized_analysis", "compare_products", "explain_additive",
}

// NewServer builds an MCP server exposing the app's operations as tools.
func NewServer(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		"NutriScan MCP Server",
		nutriscan.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	t := &tools{app: a}
	RegisterPingTool(s)

	s.AddTool(lookupProductTool, t.lookupProduct)
	s.AddTool(listHistoryTool, t.listHistory)
	s.AddTool(productScoreTool, t.productScore)

	s.AddTool(getProfileTool, t.getProfile)
	s.AddTool(updateProfileTool, t.updateProfile)

	s.AddTool(logMealTool, t.logMeal)
	s.AddTool(addWaterTool, t.addWater)
	s.AddTool(getDayTool, t.getDay)
	s.AddTool(listDaysTool, t.listDays)

	s.AddTool(filterGuideTool, t.filterGuide)
	s.AddTool(avoidListTool, t.avoidList)
	s.AddTool(addGuideFoodTool, t.addGuideFood)

	s.AddTool(listShoppingTool, t.listShopping)
	s.AddTool(addShoppingItemTool, t.addShoppingItem)
	s.AddTool(toggleShoppingItemTool, t.toggleShoppingItem)
	s.AddTool(removeShoppingItemTool, t.removeShoppingItem)

	s.AddTool(personalizedAnalysisTool, t.personalizedAnalysis)
	s.AddTool(compareProductsTool, t.compareProducts)
	s.AddTool(explainAdditiveTool, t.explainAdditive)
	return s
}

// Serve runs the stdio event loop until stdin closes.
func Serve(a *app.App) error {
	return server.ServeStdio(NewServer(a))
}

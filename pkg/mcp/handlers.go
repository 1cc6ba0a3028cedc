package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/guide"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
	"github.com/unowned-ai/nutriscan/pkg/shopping"
)

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the NutriScan MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_nutriscan"), nil
}

type tools struct {
	app *app.App
}

var lookupProductTool = mcp.NewTool("lookup_product",
	mcp.WithDescription("Looks a barcode up in Open Food Facts (and Open Beauty Facts for cosmetics) and records it in the scan history."),
	mcp.WithString("barcode", mcp.Required(), mcp.Description("EAN/UPC barcode digits.")),
)

func (t *tools) resolve(ctx context.Context, barcode string) (products.ProductRecord, *mcp.CallToolResult) {
	if barcode == "" {
		return products.ProductRecord{}, mcp.NewToolResultError("'barcode' parameter is required.")
	}
	rec, err := t.app.Resolver.Resolve(ctx, barcode)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			return rec, mcp.NewToolResultError(fmt.Sprintf("Product '%s' not found. To add it, %s.", barcode, products.CreateHint))
		}
		return rec, mcp.NewToolResultError(fmt.Sprintf("Failed to look up '%s': %v", barcode, err))
	}
	return rec, nil
}

func (t *tools) lookupProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, failed := t.resolve(ctx, stringArg(request, "barcode"))
	if failed != nil {
		return failed, nil
	}
	return jsonResult(rec, "product")
}

var listHistoryTool = mcp.NewTool("list_history",
	mcp.WithDescription("Lists recently scanned products, most recent first."),
)

func (t *tools) listHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.app.History.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list history: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No products scanned yet."), nil
	}
	return jsonResult(entries, "history")
}

var productScoreTool = mcp.NewTool("product_score",
	mcp.WithDescription("Computes the 0-10 expert score of a product from its Nutri-Score, NOVA group and nutrient levels."),
	mcp.WithString("barcode", mcp.Required(), mcp.Description("EAN/UPC barcode digits.")),
)

func (t *tools) productScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, failed := t.resolve(ctx, stringArg(request, "barcode"))
	if failed != nil {
		return failed, nil
	}
	score := products.ExpertScore(rec)
	return jsonResult(map[string]any{
		"code":  rec.Code,
		"name":  rec.Name(),
		"score": score,
		"band":  products.ScoreBand(score),
	}, "score")
}

var getProfileTool = mcp.NewTool("get_profile",
	mcp.WithDescription("Returns the dietary profile: allergies, preferences, daily goals and biometrics."),
)

func (t *tools) getProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.app.Profile.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load profile: %v", err)), nil
	}
	return jsonResult(p, "profile")
}

var updateProfileTool = mcp.NewTool("update_profile",
	mcp.WithDescription("Updates the dietary profile. Only the given fields change."),
	mcp.WithString("allergies", mcp.Description("Comma-separated allergies; replaces the current list.")),
	mcp.WithString("preferences", mcp.Description("Comma-separated dietary preferences; replaces the current list.")),
	mcp.WithNumber("calories", mcp.Description("Daily calorie goal (kcal).")),
	mcp.WithNumber("protein", mcp.Description("Daily protein goal (g).")),
	mcp.WithNumber("carbs", mcp.Description("Daily carbohydrate goal (g).")),
	mcp.WithNumber("fat", mcp.Description("Daily fat goal (g).")),
	mcp.WithNumber("age", mcp.Description("Age in years.")),
	mcp.WithString("sex", mcp.Description("male or female.")),
	mcp.WithNumber("weight_kg", mcp.Description("Weight in kilograms.")),
	mcp.WithNumber("height_cm", mcp.Description("Height in centimetres.")),
	mcp.WithString("activity_level", mcp.Description("sedentary, light, moderate, active or very_active.")),
	mcp.WithBoolean("derive_goals", mcp.Description("If true, recompute the goals from the biometrics.")),
)

func (t *tools) updateProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.app.Profile.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load profile: %v", err)), nil
	}

	if _, ok := request.Params.Arguments["allergies"]; ok {
		p.Allergies = parseList(stringArg(request, "allergies"))
	}
	if _, ok := request.Params.Arguments["preferences"]; ok {
		p.Preferences = parseList(stringArg(request, "preferences"))
	}
	if sex := stringArg(request, "sex"); sex != "" {
		p.Sex = profile.Sex(sex)
	}
	if level := stringArg(request, "activity_level"); level != "" {
		p.Activity = profile.ActivityLevel(level)
	}

	ints := map[string]*int{"calories": &p.Goals.Calories, "protein": &p.Goals.Protein, "carbs": &p.Goals.Carbs, "fat": &p.Goals.Fat, "age": &p.Age}
	for name, dst := range ints {
		v, ok, err := numberArg(request, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			*dst = int(v)
		}
	}
	floats := map[string]*float64{"weight_kg": &p.WeightKg, "height_cm": &p.HeightCm}
	for name, dst := range floats {
		v, ok, err := numberArg(request, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			*dst = v
		}
	}

	if derive, _ := request.Params.Arguments["derive_goals"].(bool); derive {
		goals, err := p.DeriveGoals()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Cannot derive goals: %v", err)), nil
		}
		p.Goals = goals
	}

	saved, err := t.app.Profile.Save(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save profile: %v", err)), nil
	}
	return jsonResult(saved, "profile")
}

var logMealTool = mcp.NewTool("log_meal",
	mcp.WithDescription("Logs a meal with its estimated macros in the food journal."),
	mcp.WithString("description", mcp.Required(), mcp.Description("What was eaten.")),
	mcp.WithNumber("calories", mcp.Required(), mcp.Description("Energy in kcal.")),
	mcp.WithNumber("protein", mcp.Description("Protein in grams.")),
	mcp.WithNumber("carbs", mcp.Description("Carbohydrates in grams.")),
	mcp.WithNumber("fat", mcp.Description("Fat in grams.")),
	mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD. Defaults to today.")),
)

func (t *tools) logMeal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meal := journal.Meal{AnalysisText: stringArg(request, "description")}
	if meal.AnalysisText == "" {
		return mcp.NewToolResultError("'description' parameter is required."), nil
	}
	fields := map[string]*float64{
		"calories": &meal.Nutrients.Calories,
		"protein":  &meal.Nutrients.Protein,
		"carbs":    &meal.Nutrients.Carbs,
		"fat":      &meal.Nutrients.Fat,
	}
	for name, dst := range fields {
		v, _, err := numberArg(request, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*dst = v
	}

	logged, err := journal.LogMeal(ctx, t.app.DB, stringArg(request, "date"), meal)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to log meal: %v", err)), nil
	}
	return jsonResult(logged, "meal")
}

var addWaterTool = mcp.NewTool("add_water",
	mcp.WithDescription("Adds water to a day's intake."),
	mcp.WithNumber("ml", mcp.Description("Amount in millilitres. Defaults to one 250 ml glass.")),
	mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD. Defaults to today.")),
)

func (t *tools) addWater(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ml, ok, err := numberArg(request, "ml")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		ml = journal.GlassMl
	}
	total, err := journal.AddWater(ctx, t.app.DB, stringArg(request, "date"), ml)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add water: %v", err)), nil
	}
	return jsonResult(map[string]float64{"total_ml": total}, "water total")
}

var getDayTool = mcp.NewTool("get_day",
	mcp.WithDescription("Returns a day's meals, water and progress against the profile goals."),
	mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD. Defaults to today.")),
)

func (t *tools) getDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := journal.GetDay(ctx, t.app.DB, stringArg(request, "date"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load day: %v", err)), nil
	}
	p, err := t.app.Profile.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load profile: %v", err)), nil
	}
	return jsonResult(struct {
		Day     journal.Day     `json:"day"`
		Summary journal.Summary `json:"summary"`
	}{day, journal.Summarize(day, p.Goals)}, "day")
}

var listDaysTool = mcp.NewTool("list_days",
	mcp.WithDescription("Lists the days with journal data, newest first."),
)

func (t *tools) listDays(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dates, err := journal.ListDates(ctx, t.app.DB)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list days: %v", err)), nil
	}
	if len(dates) == 0 {
		return mcp.NewToolResultText("The journal is empty."), nil
	}
	return jsonResult(dates, "days")
}

var filterGuideTool = mcp.NewTool("filter_guide",
	mcp.WithDescription("Searches the food guide by name and tag filters. Returns only matching foods."),
	mcp.WithString("search", mcp.Description("Case-insensitive substring of the food name.")),
	mcp.WithString("regions", mcp.Description("Comma-separated region tags.")),
	mcp.WithString("organ_benefits", mcp.Description("Comma-separated organ benefit tags.")),
	mcp.WithString("dietary", mcp.Description("Comma-separated dietary compatibility tags.")),
	mcp.WithString("nutritional", mcp.Description("Comma-separated nutritional profile tags.")),
)

func (t *tools) filterGuide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := t.app.Guide.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load guide: %v", err)), nil
	}
	filters := guide.Filters{
		Regions:              parseList(stringArg(request, "regions")),
		OrganBenefits:        parseList(stringArg(request, "organ_benefits")),
		DietaryCompatibility: parseList(stringArg(request, "dietary")),
		NutritionalProfile:   parseList(stringArg(request, "nutritional")),
	}
	filtered := g.Filter(stringArg(request, "search"), filters)
	if len(filtered.Categories) == 0 {
		return mcp.NewToolResultText("No foods match."), nil
	}
	return jsonResult(filtered, "guide")
}

var avoidListTool = mcp.NewTool("guide_avoid_list",
	mcp.WithDescription("Lists the foods graded D or E, worst first."),
)

func (t *tools) avoidList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := t.app.Guide.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load guide: %v", err)), nil
	}
	return jsonResult(g.AvoidList(), "avoid list")
}

var addGuideFoodTool = mcp.NewTool("add_guide_food",
	mcp.WithDescription("Adds a custom food to a subcategory of the food guide."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Existing category name.")),
	mcp.WithString("subcategory", mcp.Required(), mcp.Description("Existing subcategory name.")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Food name.")),
	mcp.WithString("tier", mcp.Required(), mcp.Description("TOP, A, B, C, D or E.")),
	mcp.WithString("info", mcp.Description("Why the food is good.")),
	mcp.WithString("cons", mcp.Description("Drawbacks.")),
)

func (t *tools) addGuideFood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tier, err := guide.ParseTier(stringArg(request, "tier"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	food := guide.Food{
		Name: stringArg(request, "name"),
		Tier: tier,
		Info: stringArg(request, "info"),
		Cons: stringArg(request, "cons"),
	}
	added, err := t.app.Guide.Add(ctx, stringArg(request, "category"), stringArg(request, "subcategory"), food)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add food: %v", err)), nil
	}
	return jsonResult(added, "food")
}

var listShoppingTool = mcp.NewTool("list_shopping",
	mcp.WithDescription("Lists the shopping list."),
)

func (t *tools) listShopping(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := t.app.Shopping.Items(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list shopping items: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("The shopping list is empty."), nil
	}
	return jsonResult(items, "shopping list")
}

var addShoppingItemTool = mcp.NewTool("add_shopping_item",
	mcp.WithDescription("Adds an item to the shopping list."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Item name.")),
)

func (t *tools) addShoppingItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, err := t.app.Shopping.Add(ctx, stringArg(request, "name"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add item: %v", err)), nil
	}
	return jsonResult(item, "item")
}

var toggleShoppingItemTool = mcp.NewTool("toggle_shopping_item",
	mcp.WithDescription("Checks or unchecks a shopping list item."),
	mcp.WithString("item", mcp.Required(), mcp.Description("Item id, unique id prefix or name.")),
)

func (t *tools) findItem(ctx context.Context, ref string) (shopping.Item, *mcp.CallToolResult) {
	items, err := t.app.Shopping.Items(ctx)
	if err != nil {
		return shopping.Item{}, mcp.NewToolResultError(fmt.Sprintf("Failed to list shopping items: %v", err))
	}
	item, err := shopping.Resolve(items, ref)
	if err != nil {
		return shopping.Item{}, mcp.NewToolResultError(fmt.Sprintf("Item '%s': %v", ref, err))
	}
	return item, nil
}

func (t *tools) toggleShoppingItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, failed := t.findItem(ctx, stringArg(request, "item"))
	if failed != nil {
		return failed, nil
	}
	toggled, err := t.app.Shopping.Toggle(ctx, item.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to toggle item: %v", err)), nil
	}
	return jsonResult(toggled, "item")
}

var removeShoppingItemTool = mcp.NewTool("remove_shopping_item",
	mcp.WithDescription("Removes an item from the shopping list."),
	mcp.WithString("item", mcp.Required(), mcp.Description("Item id, unique id prefix or name.")),
)

func (t *tools) removeShoppingItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, failed := t.findItem(ctx, stringArg(request, "item"))
	if failed != nil {
		return failed, nil
	}
	if err := t.app.Shopping.Remove(ctx, item.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to remove item: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed '%s'.", item.Name)), nil
}

var personalizedAnalysisTool = mcp.NewTool("personalized_analysis",
	mcp.WithDescription("Asks the model whether a product suits the stored dietary profile. Needs GEMINI_API_KEY."),
	mcp.WithString("barcode", mcp.Required(), mcp.Description("EAN/UPC barcode digits.")),
)

func (t *tools) personalizedAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.app.AI(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("AI unavailable: %v", err)), nil
	}
	rec, failed := t.resolve(ctx, stringArg(request, "barcode"))
	if failed != nil {
		return failed, nil
	}
	p, err := t.app.Profile.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load profile: %v", err)), nil
	}
	analysis, err := svc.PersonalizedAnalysis(ctx, rec, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}
	return jsonResult(analysis, "analysis")
}

var compareProductsTool = mcp.NewTool("compare_products",
	mcp.WithDescription("Asks the model which of two products is healthier. Needs GEMINI_API_KEY."),
	mcp.WithString("barcode_1", mcp.Required(), mcp.Description("First product barcode.")),
	mcp.WithString("barcode_2", mcp.Required(), mcp.Description("Second product barcode.")),
)

func (t *tools) compareProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.app.AI(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("AI unavailable: %v", err)), nil
	}
	first, failed := t.resolve(ctx, stringArg(request, "barcode_1"))
	if failed != nil {
		return failed, nil
	}
	second, failed := t.resolve(ctx, stringArg(request, "barcode_2"))
	if failed != nil {
		return failed, nil
	}
	cmp, err := svc.CompareProducts(ctx, first, second)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Comparison failed: %v", err)), nil
	}
	return jsonResult(cmp, "comparison")
}

var explainAdditiveTool = mcp.NewTool("explain_additive",
	mcp.WithDescription("Explains what a food additive does and how safe it is. Needs GEMINI_API_KEY."),
	mcp.WithString("additive", mcp.Required(), mcp.Description("Additive code or name, e.g. E330.")),
)

func (t *tools) explainAdditive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.app.AI(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("AI unavailable: %v", err)), nil
	}
	text, err := svc.ExplainAdditive(ctx, stringArg(request, "additive"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Explanation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

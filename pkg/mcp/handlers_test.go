package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/config"
	pkgdb "github.com/unowned-ai/nutriscan/pkg/db"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
)

const yogurtJSON = `{"product_name":"Greek Yogurt","brands":"Olympus","nutriscore_grade":"b","nova_group":1,"nutriments":{"fat_100g":10,"sugars_100g":3.5}}`

func setupTools(t *testing.T) *tools {
	t.Helper()
	db, err := pkgdb.OpenAndUpgrade(":memory:", pkgdb.Options{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/5201234567890.json") {
			fmt.Fprintf(w, `{"status":1,"product":%s}`, yogurtJSON)
			return
		}
		fmt.Fprint(w, `{"status":0}`)
	}))
	t.Cleanup(srv.Close)

	a, err := app.New(db, config.Config{Retry: products.DefaultRetryPolicy()}, nil,
		app.WithResolverOptions(
			products.WithHTTPClient(srv.Client()),
			products.WithDomains(products.Domains{
				FoodPrimary: srv.URL, FoodMirror: srv.URL, BeautyPrimary: srv.URL, BeautyMirror: srv.URL,
			}),
		),
	)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	return &tools{app: a}
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("Handler returned a Go error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestPing(t *testing.T) {
	text, isErr := call(t, pingHandler, nil)
	if isErr || text != "pong_nutriscan" {
		t.Errorf("Expected pong_nutriscan, got %q (error=%t)", text, isErr)
	}
}

func TestLookupProductAndHistory(t *testing.T) {
	tl := setupTools(t)

	text, isErr := call(t, tl.lookupProduct, map[string]interface{}{"barcode": "5201234567890"})
	if isErr {
		t.Fatalf("lookup_product failed: %s", text)
	}
	var rec products.ProductRecord
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		t.Fatalf("Failed to decode product: %v", err)
	}
	if rec.DisplayName != "Greek Yogurt" {
		t.Errorf("Expected Greek Yogurt, got %q", rec.DisplayName)
	}

	text, _ = call(t, tl.listHistory, nil)
	if !strings.Contains(text, "5201234567890") {
		t.Errorf("Expected history to contain the scanned code, got %s", text)
	}

	text, isErr = call(t, tl.lookupProduct, map[string]interface{}{"barcode": "0000000000000"})
	if !isErr || !strings.Contains(text, "not found") {
		t.Errorf("Expected not found error, got %q", text)
	}

	_, isErr = call(t, tl.lookupProduct, map[string]interface{}{})
	if !isErr {
		t.Error("Expected error for missing barcode")
	}
}

func TestProductScore(t *testing.T) {
	tl := setupTools(t)
	text, isErr := call(t, tl.productScore, map[string]interface{}{"barcode": "5201234567890"})
	if isErr {
		t.Fatalf("product_score failed: %s", text)
	}
	var got struct {
		Score float64 `json:"score"`
		Band  string  `json:"band"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("Failed to decode score: %v", err)
	}
	if got.Score != 9 || got.Band != "excellent" {
		t.Errorf("Expected score 9 (excellent), got %v (%s)", got.Score, got.Band)
	}
}

func TestUpdateProfile(t *testing.T) {
	tl := setupTools(t)
	text, isErr := call(t, tl.updateProfile, map[string]interface{}{
		"allergies":      "Peanuts, gluten",
		"age":            float64(30),
		"sex":            "male",
		"weight_kg":      float64(80),
		"height_cm":      "180",
		"activity_level": "moderate",
		"derive_goals":   true,
	})
	if isErr {
		t.Fatalf("update_profile failed: %s", text)
	}
	var p profile.DietaryProfile
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if p.Goals.Calories != 2759 {
		t.Errorf("Expected derived 2759 kcal, got %d", p.Goals.Calories)
	}
	if len(p.Allergies) != 2 || p.Allergies[0] != "peanuts" {
		t.Errorf("Expected normalised allergies, got %v", p.Allergies)
	}

	_, isErr = call(t, tl.updateProfile, map[string]interface{}{"age": "old"})
	if !isErr {
		t.Error("Expected error for non-numeric age")
	}
}

func TestJournalTools(t *testing.T) {
	tl := setupTools(t)
	date := "2026-03-01"

	_, isErr := call(t, tl.logMeal, map[string]interface{}{
		"description": "Chicken salad", "calories": float64(450), "protein": float64(35), "date": date,
	})
	if isErr {
		t.Fatal("log_meal failed")
	}
	text, isErr := call(t, tl.addWater, map[string]interface{}{"date": date})
	if isErr || !strings.Contains(text, `"total_ml":250`) {
		t.Errorf("Expected one glass of water, got %s", text)
	}

	text, isErr = call(t, tl.getDay, map[string]interface{}{"date": date})
	if isErr {
		t.Fatalf("get_day failed: %s", text)
	}
	if !strings.Contains(text, "Chicken salad") || !strings.Contains(text, `"glasses_filled":1`) {
		t.Errorf("Expected meal and one glass in day, got %s", text)
	}

	text, _ = call(t, tl.listDays, nil)
	if !strings.Contains(text, date) {
		t.Errorf("Expected %s in day list, got %s", date, text)
	}

	_, isErr = call(t, tl.logMeal, map[string]interface{}{"calories": float64(100)})
	if !isErr {
		t.Error("Expected error for missing description")
	}
}

func TestGuideTools(t *testing.T) {
	tl := setupTools(t)

	text, isErr := call(t, tl.addGuideFood, map[string]interface{}{
		"category": "Vegetables", "subcategory": "Dark Leafy Greens", "name": "Purple kale", "tier": "a",
	})
	if isErr {
		t.Fatalf("add_guide_food failed: %s", text)
	}

	text, _ = call(t, tl.filterGuide, map[string]interface{}{"search": "purple"})
	if !strings.Contains(text, "Purple kale") {
		t.Errorf("Expected custom food in search results, got %s", text)
	}

	text, _ = call(t, tl.filterGuide, map[string]interface{}{"search": "no such food anywhere"})
	if text != "No foods match." {
		t.Errorf("Expected no match message, got %s", text)
	}

	_, isErr = call(t, tl.addGuideFood, map[string]interface{}{
		"category": "Vegetables", "subcategory": "Dark Leafy Greens", "name": "Kale", "tier": "Z",
	})
	if !isErr {
		t.Error("Expected error for invalid tier")
	}
}

func TestShoppingTools(t *testing.T) {
	tl := setupTools(t)

	text, _ := call(t, tl.listShopping, nil)
	if text != "The shopping list is empty." {
		t.Errorf("Expected empty list message, got %s", text)
	}
	if _, isErr := call(t, tl.addShoppingItem, map[string]interface{}{"name": "Oat milk"}); isErr {
		t.Fatal("add_shopping_item failed")
	}
	text, isErr := call(t, tl.toggleShoppingItem, map[string]interface{}{"item": "oat milk"})
	if isErr || !strings.Contains(text, `"checked":true`) {
		t.Errorf("Expected item checked, got %s", text)
	}
	text, isErr = call(t, tl.removeShoppingItem, map[string]interface{}{"item": "Oat milk"})
	if isErr || text != "Removed 'Oat milk'." {
		t.Errorf("Expected removal message, got %s", text)
	}
	if _, isErr := call(t, tl.removeShoppingItem, map[string]interface{}{"item": "Oat milk"}); !isErr {
		t.Error("Expected error removing a missing item")
	}
}

func TestAIToolsWithoutKey(t *testing.T) {
	tl := setupTools(t)
	text, isErr := call(t, tl.explainAdditive, map[string]interface{}{"additive": "E330"})
	if !isErr || !strings.Contains(text, "AI unavailable") {
		t.Errorf("Expected AI unavailable error, got %q", text)
	}
}

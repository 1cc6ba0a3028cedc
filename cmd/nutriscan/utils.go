package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

// dbFile is the database path the commands open, for banners.
func dbFile() string {
	path, err := utils.ResolveAndEnsureDBPath(dbPath)
	if err != nil {
		return dbPath
	}
	return path
}

func printProduct(p products.ProductRecord) {
	fmt.Printf("%s\n", p.Name())
	fmt.Printf("Barcode:    %s\n", p.Code)
	if p.Brand != "" {
		fmt.Printf("Brand:      %s\n", p.Brand)
	}
	if p.Quantity != "" {
		fmt.Printf("Quantity:   %s\n", p.Quantity)
	}
	if p.NutriScore.Known() {
		fmt.Printf("Nutri-Score: %s\n", p.NutriScore)
	}
	if p.Nova.Known() {
		fmt.Printf("NOVA:       %d\n", p.Nova)
	}
	if !p.IsCosmeticDomain {
		score := products.ExpertScore(p)
		fmt.Printf("Score:      %.1f / 10 (%s)\n", score, products.ScoreBand(score))
	}

	n := p.Per100g
	if !n.Empty() {
		fmt.Println("\nPer 100g:")
		printNutrient("Energy", n.EnergyKcal, "kcal")
		printNutrient("Fat", n.Fat, "g")
		printNutrient("Saturated fat", n.SaturatedFat, "g")
		printNutrient("Carbohydrates", n.Carbohydrates, "g")
		printNutrient("Sugars", n.Sugars, "g")
		printNutrient("Fiber", n.Fiber, "g")
		printNutrient("Proteins", n.Proteins, "g")
		printNutrient("Salt", n.Salt, "g")
	}

	if len(p.Allergens) > 0 {
		fmt.Printf("\nAllergens:  %s\n", joinTags(p.Allergens))
	}
	if len(p.Additives) > 0 {
		fmt.Printf("Additives:  %s\n", joinTags(p.Additives))
	}
	if p.Ingredients != "" {
		fmt.Printf("\nIngredients: %s\n", p.Ingredients)
	}
}

func printNutrient(label string, v *float64, unit string) {
	if v == nil {
		return
	}
	fmt.Printf("  %-15s %7.1f %s\n", label, *v, unit)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, it := range items {
		fmt.Printf("  - %s\n", it)
	}
}

func joinTags(tags []string) string {
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = products.TagLabel(t)
	}
	return strings.Join(labels, ", ")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func splitCSV(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncateText(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

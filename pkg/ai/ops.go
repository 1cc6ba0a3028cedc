package ai

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// StreamParams carries the inputs of a named streaming operation, as sent by
// the CLI or a websocket client.
type StreamParams struct {
	Product      string `json:"product,omitempty"`
	Food         string `json:"food,omitempty"`
	Ingredients  string `json:"ingredients,omitempty"`
	Cosmetic     bool   `json:"cosmetic,omitempty"`
	MealType     string `json:"meal_type,omitempty"`
	DietaryStyle string `json:"dietary_style,omitempty"`
	URL          string `json:"url,omitempty"`
	Image        *Image `json:"image,omitempty"`
}

type streamOp struct {
	required []string
	run      func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error]
}

var streamOps = map[string]streamOp{
	"alternatives": {[]string{"product"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.HealthyAlternatives(ctx, p.Product)
	}},
	"meal-idea": {[]string{"product"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.MealIdea(ctx, p.Product)
	}},
	"homemade": {[]string{"product"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.HomemadeRecipe(ctx, p.Product)
	}},
	"food-alternative": {[]string{"food"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.FoodAlternative(ctx, p.Food)
	}},
	"ingredients": {[]string{"ingredients"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.IngredientsAnalysis(ctx, p.Ingredients, p.Cosmetic)
	}},
	"recipes": {[]string{"ingredients"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.RecipesFromIngredients(ctx, p.Ingredients, p.MealType, p.DietaryStyle)
	}},
	"recipe-url": {[]string{"url"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.RecipeFromURL(ctx, p.URL)
	}},
	"menu": {[]string{"image"}, func(s *Service, ctx context.Context, p StreamParams) iter.Seq2[string, error] {
		return s.RestaurantMenu(ctx, *p.Image)
	}},
}

// StreamOps lists the operation names accepted by RunStream.
func StreamOps() []string {
	names := make([]string, 0, len(streamOps))
	for name := range streamOps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p StreamParams) has(field string) bool {
	switch field {
	case "product":
		return strings.TrimSpace(p.Product) != ""
	case "food":
		return strings.TrimSpace(p.Food) != ""
	case "ingredients":
		return strings.TrimSpace(p.Ingredients) != ""
	case "url":
		return strings.TrimSpace(p.URL) != ""
	case "image":
		return p.Image != nil && len(p.Image.Data) > 0
	}
	return false
}

// RunStream validates params for the named operation and starts it.
func (s *Service) RunStream(ctx context.Context, name string, p StreamParams) (iter.Seq2[string, error], error) {
	op, ok := streamOps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}
	for _, field := range op.required {
		if !p.has(field) {
			return nil, fmt.Errorf("%w: %s requires %s", ErrMissingParam, name, field)
		}
	}
	return op.run(s, ctx, p), nil
}

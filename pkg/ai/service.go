package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
)

// Service builds prompts for every analysis the app offers and parses the
// structured answers.
type Service struct {
	gen      Generator
	language string
	region   string
}

type ServiceOption func(*Service)

// WithLanguage sets the answer language, "ro" or "en".
func WithLanguage(lang string) ServiceOption {
	return func(s *Service) { s.language = lang }
}

// WithRegion sets the region used for seasonal produce.
func WithRegion(region string) ServiceOption {
	return func(s *Service) {
		if region != "" {
			s.region = region
		}
	}
}

func NewService(gen Generator, opts ...ServiceOption) *Service {
	s := &Service{gen: gen, language: "en", region: "Romania"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) answerIn() string {
	if s.language == "ro" {
		return " Answer in Romanian."
	}
	return " Answer in English."
}

func (s *Service) generate(ctx context.Context, req Request) (Response, error) {
	req.Prompt += s.answerIn()
	return s.gen.Generate(ctx, req)
}

func (s *Service) stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	req.Prompt += s.answerIn()
	return s.gen.Stream(ctx, req)
}

type validator interface {
	validate() error
}

// structured runs a JSON request and decodes it into T, checking that every
// required property is present before validating the values.
func structured[T validator](ctx context.Context, s *Service, op string, req Request) (T, error) {
	var zero T
	resp, err := s.generate(ctx, req)
	if err != nil {
		return zero, err
	}

	text := stripFence(resp.Text)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return zero, &SchemaError{Op: op, Err: err}
	}
	for _, name := range req.Schema.Required {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return zero, &SchemaError{Op: op, Err: fmt.Errorf("missing %q", name)}
		}
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return zero, &SchemaError{Op: op, Err: err}
	}
	if err := out.validate(); err != nil {
		return zero, &SchemaError{Op: op, Err: err}
	}
	return out, nil
}

// stripFence removes a Markdown code fence some models wrap JSON in.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

func describeProduct(p products.ProductRecord) string {
	nutrients, _ := json.Marshal(p.Per100g)
	allergens := make([]string, len(p.Allergens))
	for i, a := range p.Allergens {
		allergens[i] = products.TagLabel(a)
	}
	return fmt.Sprintf(`{"name": %q, "brand": %q, "ingredients": %q, "nutrients_per_100g": %s, "allergens": %q, "nutriscore": %q, "nova": %d}`,
		p.Name(), p.Brand, p.Ingredients, nutrients, strings.Join(allergens, ", "), p.NutriScore.String(), p.Nova)
}

// PersonalizedAnalysis judges a product against the user's profile.
func (s *Service) PersonalizedAnalysis(ctx context.Context, p products.ProductRecord, prof profile.DietaryProfile) (Analysis, error) {
	prompt := fmt.Sprintf(
		"Analyse this food product against my dietary profile and give a verdict. Product: %s. "+
			"My profile: {\"allergies\": %q, \"preferences\": %q, \"daily goals\": \"calories %d, protein %dg, carbs %dg, fat %dg\"}. "+
			"Return a JSON object with the verdict, a summary, a list of pros and a list of cons.",
		describeProduct(p), strings.Join(prof.Allergies, ", "), strings.Join(prof.Preferences, ", "),
		prof.Goals.Calories, prof.Goals.Protein, prof.Goals.Carbs, prof.Goals.Fat,
	)
	return structured[Analysis](ctx, s, "personalized analysis", Request{Prompt: prompt, Schema: analysisSchema})
}

// CompareProducts decides which of two products is healthier.
func (s *Service) CompareProducts(ctx context.Context, a, b products.ProductRecord) (Comparison, error) {
	prompt := fmt.Sprintf(
		"Compare these two food products and decide which is healthier. Product 1: %s. Product 2: %s. "+
			"Return a JSON object with a summary, the healthier option (%s, %s or %s), the reason, "+
			"and separate pros and cons for each product.",
		describeProduct(a), describeProduct(b), HealthierProduct1, HealthierProduct2, HealthierNeither,
	)
	return structured[Comparison](ctx, s, "compare products", Request{Prompt: prompt, Schema: comparisonSchema})
}

// AnalyzeMealPhoto identifies a meal and estimates its macros.
func (s *Service) AnalyzeMealPhoto(ctx context.Context, img Image) (MealAnalysis, error) {
	prompt := "Analyse this photo of a meal. Identify the foods, give a short assessment of its nutritional value " +
		"and estimate calories, protein, carbohydrates and fat. Return a JSON object."
	return structured[MealAnalysis](ctx, s, "meal photo", Request{Prompt: prompt, Images: []Image{img}, Schema: mealSchema})
}

// AnalyzeProductImages reports on a product from photos of its ingredient
// list and nutrition table.
func (s *Service) AnalyzeProductImages(ctx context.Context, ingredients, nutrition Image) (string, error) {
	prompt := "Analyse these images of a food product. The first shows the ingredient list, the second the nutrition table. " +
		"Give a detailed report: a short description, the key ingredients and whether they are good or bad, " +
		"and an analysis of the nutritional values. Format the answer in Markdown."
	resp, err := s.generate(ctx, Request{Prompt: prompt, Images: []Image{ingredients, nutrition}})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ExplainAdditive summarises an additive's purpose and safety consensus.
func (s *Service) ExplainAdditive(ctx context.Context, additive string) (string, error) {
	if strings.TrimSpace(additive) == "" {
		return "", fmt.Errorf("%w: additive", ErrMissingParam)
	}
	prompt := fmt.Sprintf("Act as a food safety expert. Give a clear, concise explanation of the food additive %q. "+
		"Include its main purpose (for example preservative or colouring) and a summary of the scientific consensus on its safety. "+
		"The answer must be a single short paragraph.", additive)
	resp, err := s.generate(ctx, Request{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// SeasonalFoods lists produce in season now, grounded on web search.
func (s *Service) SeasonalFoods(ctx context.Context) (Response, error) {
	prompt := fmt.Sprintf("Which fruits and vegetables are in season right now in %s? Give a list with a short description of each.", s.region)
	return s.generate(ctx, Request{Prompt: prompt, Grounded: true})
}

func (s *Service) HealthyAlternatives(ctx context.Context, productName string) iter.Seq2[string, error] {
	return s.stream(ctx, Request{Prompt: fmt.Sprintf(
		"List healthier alternatives to this product: %s. Explain why each alternative is better. Format the answer in Markdown.", productName)})
}

func (s *Service) MealIdea(ctx context.Context, productName string) iter.Seq2[string, error] {
	return s.stream(ctx, Request{Prompt: fmt.Sprintf(
		"Suggest a quick, healthy meal that includes this product: %s. Format the answer in Markdown.", productName)})
}

func (s *Service) HomemadeRecipe(ctx context.Context, productName string) iter.Seq2[string, error] {
	return s.stream(ctx, Request{Prompt: fmt.Sprintf(
		"Give a simple homemade recipe that can replace this product: %s. Format the answer in Markdown.", productName)})
}

// FoodAlternative suggests a healthy swap for a food from the guide's
// avoid list.
func (s *Service) FoodAlternative(ctx context.Context, foodName string) iter.Seq2[string, error] {
	return s.stream(ctx, Request{Prompt: fmt.Sprintf(
		"Suggest a healthy alternative to %s with a short explanation.", foodName)})
}

// IngredientsAnalysis explains the key ingredients of a food or cosmetic.
func (s *Service) IngredientsAnalysis(ctx context.Context, ingredients string, cosmetic bool) iter.Seq2[string, error] {
	kind, detail := "food", "Give a simple one-sentence explanation for each (for example: source of sugar, additive)."
	if cosmetic {
		kind, detail = "cosmetic", "Explain their function (for example: moisturiser, preservative)."
	}
	return s.stream(ctx, Request{Prompt: fmt.Sprintf(
		"Analyse 5-7 key %s ingredients from this list: %q. %s Format the answer as a list with the ingredient names in bold.",
		kind, ingredients, detail)})
}

// RecipesFromIngredients proposes recipes. mealType and dietaryStyle are
// ignored when empty or "any".
func (s *Service) RecipesFromIngredients(ctx context.Context, ingredients, mealType, dietaryStyle string) iter.Seq2[string, error] {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate one or two recipe ideas using these ingredients: %s. ", ingredients)
	if mealType != "" && mealType != "any" {
		fmt.Fprintf(&b, "The recipes should suit %s. ", mealType)
	}
	if dietaryStyle != "" && dietaryStyle != "any" {
		fmt.Fprintf(&b, "The recipes should follow a %s diet. ", dietaryStyle)
	}
	b.WriteString("Format the answer in Markdown with a clear heading per recipe, followed by the ingredient list and the preparation steps.")
	return s.stream(ctx, Request{Prompt: b.String()})
}

// RestaurantMenu picks the healthiest and least healthy dishes on a menu
// photo.
func (s *Service) RestaurantMenu(ctx context.Context, menu Image) iter.Seq2[string, error] {
	return s.stream(ctx, Request{
		Prompt: "Analyse this restaurant menu. Identify the 2-3 healthiest and the 2-3 least healthy options and briefly explain why. Format the answer in Markdown.",
		Images: []Image{menu},
	})
}

// RecipeFromURL reviews a recipe page, grounded on web search.
func (s *Service) RecipeFromURL(ctx context.Context, url string) iter.Seq2[string, error] {
	return s.stream(ctx, Request{
		Prompt: fmt.Sprintf("Analyse the recipe at this URL: %s. Assess how healthy it is, estimate calories per serving "+
			"and suggest improvements to make it more nutritious. Format the answer in Markdown.", url),
		Grounded: true,
	})
}

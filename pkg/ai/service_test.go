package ai

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
)

type fakeGenerator struct {
	text     string
	chunks   []string
	err      error
	requests []Request
	yielded  int
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Text: f.text}, nil
}

func (f *fakeGenerator) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	f.requests = append(f.requests, req)
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			f.yielded++
			if !yield(c, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func testProduct() products.ProductRecord {
	return products.ProductRecord{Code: "5901234123457", Found: true, DisplayName: "Oat Biscuits", Brand: "Acme", Ingredients: "oats, sugar"}
}

func TestPersonalizedAnalysis(t *testing.T) {
	gen := &fakeGenerator{text: `{"verdict":"CAUTION","summary":"High in sugar.","pros":["fibre"],"cons":["sugar"]}`}
	svc := NewService(gen)

	prof := profile.Default()
	prof.Allergies = []string{"gluten"}
	got, err := svc.PersonalizedAnalysis(context.Background(), testProduct(), prof)
	if err != nil {
		t.Fatalf("PersonalizedAnalysis failed: %v", err)
	}
	if got.Verdict != VerdictCaution {
		t.Errorf("Expected verdict CAUTION, got %s", got.Verdict)
	}
	if len(got.Pros) != 1 || len(got.Cons) != 1 {
		t.Errorf("Expected one pro and one con, got %v / %v", got.Pros, got.Cons)
	}

	req := gen.requests[0]
	if req.Schema != analysisSchema {
		t.Error("Expected the analysis schema to be requested")
	}
	if !strings.Contains(req.Prompt, "gluten") || !strings.Contains(req.Prompt, "Oat Biscuits") {
		t.Errorf("Expected prompt to mention product and allergy, got %q", req.Prompt)
	}
	if !strings.HasSuffix(req.Prompt, "Answer in English.") {
		t.Errorf("Expected English answer instruction, got %q", req.Prompt)
	}
}

func TestPersonalizedAnalysisInvalidVerdict(t *testing.T) {
	gen := &fakeGenerator{text: `{"verdict":"MAYBE","summary":"x","pros":[],"cons":[]}`}
	_, err := NewService(gen).PersonalizedAnalysis(context.Background(), testProduct(), profile.Default())
	if !errors.Is(err, ErrAISchemaValidation) {
		t.Fatalf("Expected ErrAISchemaValidation, got %v", err)
	}
	var se *SchemaError
	if !errors.As(err, &se) || se.Op != "personalized analysis" {
		t.Errorf("Expected SchemaError for personalized analysis, got %v", err)
	}
}

func TestStructuredMissingField(t *testing.T) {
	gen := &fakeGenerator{text: `{"verdict":"RECOMMENDED","summary":"ok","pros":["a"]}`}
	_, err := NewService(gen).PersonalizedAnalysis(context.Background(), testProduct(), profile.Default())
	if !errors.Is(err, ErrAISchemaValidation) {
		t.Errorf("Expected ErrAISchemaValidation for missing cons, got %v", err)
	}
}

func TestStructuredNotJSON(t *testing.T) {
	gen := &fakeGenerator{text: "I think it is fine."}
	_, err := NewService(gen).CompareProducts(context.Background(), testProduct(), testProduct())
	if !errors.Is(err, ErrAISchemaValidation) {
		t.Errorf("Expected ErrAISchemaValidation, got %v", err)
	}
}

func TestGeneratorErrorPassesThrough(t *testing.T) {
	gen := &fakeGenerator{err: ErrAIRequestFailed}
	_, err := NewService(gen).CompareProducts(context.Background(), testProduct(), testProduct())
	if !errors.Is(err, ErrAIRequestFailed) {
		t.Errorf("Expected ErrAIRequestFailed, got %v", err)
	}
	if errors.Is(err, ErrAISchemaValidation) {
		t.Error("Expected request failure not to be a schema failure")
	}
}

func TestCompareProductsFenced(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + `{"summary":"B wins","healthier_option":"product_2","recommendation_reason":"less sugar",` +
		`"product1_pros":[],"product1_cons":["sugar"],"product2_pros":["fibre"],"product2_cons":[]}` + "\n```"}
	got, err := NewService(gen).CompareProducts(context.Background(), testProduct(), testProduct())
	if err != nil {
		t.Fatalf("CompareProducts failed: %v", err)
	}
	if got.HealthierOption != HealthierProduct2 {
		t.Errorf("Expected product_2, got %s", got.HealthierOption)
	}
}

func TestAnalyzeMealPhoto(t *testing.T) {
	gen := &fakeGenerator{text: `{"analysis_text":"Grilled chicken with rice.","nutrients":{"calories":520,"protein":38,"carbs":60,"fat":12}}`}
	img := Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}
	got, err := NewService(gen).AnalyzeMealPhoto(context.Background(), img)
	if err != nil {
		t.Fatalf("AnalyzeMealPhoto failed: %v", err)
	}
	if got.Nutrients.Calories != 520 || got.Nutrients.Protein != 38 {
		t.Errorf("Expected 520 kcal and 38g protein, got %+v", got.Nutrients)
	}
	if len(gen.requests[0].Images) != 1 {
		t.Errorf("Expected one image in request, got %d", len(gen.requests[0].Images))
	}
}

func TestAnalyzeMealPhotoMissingNutrients(t *testing.T) {
	gen := &fakeGenerator{text: `{"analysis_text":"Soup."}`}
	_, err := NewService(gen).AnalyzeMealPhoto(context.Background(), Image{})
	if !errors.Is(err, ErrAISchemaValidation) {
		t.Errorf("Expected ErrAISchemaValidation, got %v", err)
	}
}

func TestLanguageInstruction(t *testing.T) {
	gen := &fakeGenerator{text: "E330 is citric acid."}
	svc := NewService(gen, WithLanguage("ro"))
	if _, err := svc.ExplainAdditive(context.Background(), "E330"); err != nil {
		t.Fatalf("ExplainAdditive failed: %v", err)
	}
	if !strings.HasSuffix(gen.requests[0].Prompt, "Answer in Romanian.") {
		t.Errorf("Expected Romanian answer instruction, got %q", gen.requests[0].Prompt)
	}
	if _, err := svc.ExplainAdditive(context.Background(), " "); !errors.Is(err, ErrMissingParam) {
		t.Errorf("Expected ErrMissingParam for blank additive, got %v", err)
	}
}

func TestSeasonalFoodsGrounded(t *testing.T) {
	gen := &fakeGenerator{text: "Pumpkins."}
	if _, err := NewService(gen).SeasonalFoods(context.Background()); err != nil {
		t.Fatalf("SeasonalFoods failed: %v", err)
	}
	req := gen.requests[0]
	if !req.Grounded {
		t.Error("Expected seasonal foods to be grounded")
	}
	if !strings.Contains(req.Prompt, "Romania") {
		t.Errorf("Expected default region in prompt, got %q", req.Prompt)
	}
}

func TestRecipesFromIngredientsOmitsAny(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"# Omelette"}}
	svc := NewService(gen)

	if _, err := Collect(svc.RecipesFromIngredients(context.Background(), "eggs, spinach", "any", "")); err != nil {
		t.Fatalf("RecipesFromIngredients failed: %v", err)
	}
	prompt := gen.requests[0].Prompt
	if strings.Contains(prompt, "should suit") || strings.Contains(prompt, "diet.") {
		t.Errorf("Expected no meal type or diet constraint, got %q", prompt)
	}

	if _, err := Collect(svc.RecipesFromIngredients(context.Background(), "eggs", "breakfast", "vegetarian")); err != nil {
		t.Fatalf("RecipesFromIngredients failed: %v", err)
	}
	prompt = gen.requests[1].Prompt
	if !strings.Contains(prompt, "breakfast") || !strings.Contains(prompt, "vegetarian") {
		t.Errorf("Expected meal type and diet in prompt, got %q", prompt)
	}
}

func TestIngredientsAnalysisCosmetic(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen)
	Collect(svc.IngredientsAnalysis(context.Background(), "aqua, glycerin", true))
	Collect(svc.IngredientsAnalysis(context.Background(), "flour, sugar", false))

	if !strings.Contains(gen.requests[0].Prompt, "cosmetic") {
		t.Errorf("Expected cosmetic prompt, got %q", gen.requests[0].Prompt)
	}
	if !strings.Contains(gen.requests[1].Prompt, "food") {
		t.Errorf("Expected food prompt, got %q", gen.requests[1].Prompt)
	}
}

func TestStreamCollect(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"Try ", "plain ", "yoghurt."}}
	got, err := Collect(NewService(gen).HealthyAlternatives(context.Background(), "Fruit Yoghurt"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got != "Try plain yoghurt." {
		t.Errorf("Expected concatenated chunks, got %q", got)
	}
}

func TestStreamErrorKeepsPartialText(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"Partial"}, err: ErrAIRequestFailed}
	got, err := Collect(NewService(gen).MealIdea(context.Background(), "Oats"))
	if !errors.Is(err, ErrAIRequestFailed) {
		t.Errorf("Expected ErrAIRequestFailed, got %v", err)
	}
	if got != "Partial" {
		t.Errorf("Expected partial text, got %q", got)
	}
}

func TestStreamEarlyBreak(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"a", "b", "c", "d"}}
	for chunk, err := range NewService(gen).HomemadeRecipe(context.Background(), "Ketchup") {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if chunk == "b" {
			break
		}
	}
	if gen.yielded != 2 {
		t.Errorf("Expected stream to stop after 2 chunks, got %d", gen.yielded)
	}
}

func TestRunStream(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"ok"}}
	svc := NewService(gen)
	ctx := context.Background()

	if _, err := svc.RunStream(ctx, "teleport", StreamParams{}); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("Expected ErrUnknownOp, got %v", err)
	}
	if _, err := svc.RunStream(ctx, "alternatives", StreamParams{}); !errors.Is(err, ErrMissingParam) {
		t.Errorf("Expected ErrMissingParam, got %v", err)
	}
	if _, err := svc.RunStream(ctx, "menu", StreamParams{Image: &Image{}}); !errors.Is(err, ErrMissingParam) {
		t.Errorf("Expected ErrMissingParam for empty image, got %v", err)
	}
	if len(gen.requests) != 0 {
		t.Errorf("Expected no requests for invalid params, got %d", len(gen.requests))
	}

	seq, err := svc.RunStream(ctx, "recipe-url", StreamParams{URL: "https://example.com/soup"})
	if err != nil {
		t.Fatalf("RunStream failed: %v", err)
	}
	if got, _ := Collect(seq); got != "ok" {
		t.Errorf("Expected ok, got %q", got)
	}
	if !gen.requests[0].Grounded {
		t.Error("Expected recipe-url to be grounded")
	}
}

func TestStreamOpsSorted(t *testing.T) {
	ops := StreamOps()
	if len(ops) != 8 {
		t.Fatalf("Expected 8 stream ops, got %d", len(ops))
	}
	if ops[0] != "alternatives" || ops[len(ops)-1] != "recipes" {
		t.Errorf("Expected sorted op names, got %v", ops)
	}
}

package ai

import (
	"errors"
	"fmt"
	"slices"

	"google.golang.org/genai"

	"github.com/unowned-ai/nutriscan/pkg/journal"
)

type Verdict string

const (
	VerdictRecommended    Verdict = "RECOMMENDED"
	VerdictCaution        Verdict = "CAUTION"
	VerdictNotRecommended Verdict = "NOT_RECOMMENDED"
)

var verdicts = []string{string(VerdictRecommended), string(VerdictCaution), string(VerdictNotRecommended)}

// Analysis is a product verdict against a dietary profile.
type Analysis struct {
	Verdict Verdict  `json:"verdict"`
	Summary string   `json:"summary"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
}

func (a Analysis) validate() error {
	if !slices.Contains(verdicts, string(a.Verdict)) {
		return fmt.Errorf("verdict %q not one of %v", a.Verdict, verdicts)
	}
	if a.Summary == "" {
		return errors.New("summary is empty")
	}
	if a.Pros == nil || a.Cons == nil {
		return errors.New("pros and cons are required")
	}
	return nil
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"verdict": {Type: genai.TypeString, Enum: verdicts},
		"summary": {Type: genai.TypeString},
		"pros":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"cons":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"verdict", "summary", "pros", "cons"},
}

const (
	HealthierProduct1 = "product_1"
	HealthierProduct2 = "product_2"
	HealthierNeither  = "neither"
)

var healthierOptions = []string{HealthierProduct1, HealthierProduct2, HealthierNeither}

type Comparison struct {
	Summary              string   `json:"summary"`
	HealthierOption      string   `json:"healthier_option"`
	RecommendationReason string   `json:"recommendation_reason"`
	Product1Pros         []string `json:"product1_pros"`
	Product1Cons         []string `json:"product1_cons"`
	Product2Pros         []string `json:"product2_pros"`
	Product2Cons         []string `json:"product2_cons"`
}

func (c Comparison) validate() error {
	if !slices.Contains(healthierOptions, c.HealthierOption) {
		return fmt.Errorf("healthier_option %q not one of %v", c.HealthierOption, healthierOptions)
	}
	if c.Summary == "" || c.RecommendationReason == "" {
		return errors.New("summary and recommendation_reason are required")
	}
	if c.Product1Pros == nil || c.Product1Cons == nil || c.Product2Pros == nil || c.Product2Cons == nil {
		return errors.New("pros and cons for both products are required")
	}
	return nil
}

var stringList = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

var comparisonSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":               {Type: genai.TypeString},
		"healthier_option":      {Type: genai.TypeString, Enum: healthierOptions},
		"recommendation_reason": {Type: genai.TypeString},
		"product1_pros":         stringList,
		"product1_cons":         stringList,
		"product2_pros":         stringList,
		"product2_cons":         stringList,
	},
	Required: []string{
		"summary", "healthier_option", "recommendation_reason",
		"product1_pros", "product1_cons", "product2_pros", "product2_cons",
	},
}

// MealAnalysis is a description of a photographed meal with estimated
// macros, ready to be logged.
type MealAnalysis struct {
	AnalysisText string            `json:"analysis_text"`
	Nutrients    journal.Nutrients `json:"nutrients"`
}

func (m MealAnalysis) validate() error {
	if m.AnalysisText == "" {
		return errors.New("analysis_text is empty")
	}
	n := m.Nutrients
	if n.Calories < 0 || n.Protein < 0 || n.Carbs < 0 || n.Fat < 0 {
		return errors.New("nutrients must not be negative")
	}
	return nil
}

var mealSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"analysis_text": {
			Type:        genai.TypeString,
			Description: "Detailed Markdown description of the meal: identified foods and how healthy it is.",
		},
		"nutrients": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"calories": {Type: genai.TypeNumber},
				"protein":  {Type: genai.TypeNumber},
				"carbs":    {Type: genai.TypeNumber},
				"fat":      {Type: genai.TypeNumber},
			},
			Required: []string{"calories", "protein", "carbs", "fat"},
		},
	},
	Required: []string{"analysis_text", "nutrients"},
}

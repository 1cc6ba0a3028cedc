package products

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedResponse is returned by ParseResponse when the upstream body
// is not the expected product envelope.
var ErrMalformedResponse = errors.New("malformed product response")

type envelope struct {
	Status  flexNumber      `json:"status"`
	Product json.RawMessage `json:"product"`
}

type upstreamProduct struct {
	Code              string                `json:"code"`
	ProductName       string                `json:"product_name"`
	ProductNameRO     string                `json:"product_name_ro"`
	ProductNameEN     string                `json:"product_name_en"`
	Brands            string                `json:"brands"`
	Quantity          string                `json:"quantity"`
	ServingSize       string                `json:"serving_size"`
	Categories        string                `json:"categories"`
	Labels            string                `json:"labels"`
	Stores            string                `json:"stores"`
	Countries         string                `json:"countries"`
	Packaging         string                `json:"packaging"`
	IngredientsText   string                `json:"ingredients_text"`
	IngredientsTextRO string                `json:"ingredients_text_ro"`
	ImageURL          string                `json:"image_url"`
	ImageFrontURL     string                `json:"image_front_url"`
	ImageSmallURL     string                `json:"image_small_url"`
	ImageFrontSmall   string                `json:"image_front_small_url"`
	Nutriments        map[string]flexNumber `json:"nutriments"`
	NutriscoreGrade   string                `json:"nutriscore_grade"`
	NutritionGrades   string                `json:"nutrition_grades"`
	NovaGroup         flexNumber            `json:"nova_group"`
	EcoscoreGrade     string                `json:"ecoscore_grade"`
	AllergensTags     []string              `json:"allergens_tags"`
	AdditivesTags     []string              `json:"additives_tags"`
	TracesTags        []string              `json:"traces_tags"`
	AnalysisTags      []string              `json:"ingredients_analysis_tags"`
	NutrientLevels    map[string]string     `json:"nutrient_levels"`
}

// flexNumber accepts a JSON number, a numeric string or null. Upstream
// databases are inconsistent about which one they send.
type flexNumber struct {
	Value float64
	Valid bool
}

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = flexNumber{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexNumber{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Non-numeric strings ("unknown", "success") are treated as absent.
			*f = flexNumber{}
			return nil
		}
		*f = flexNumber{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*f = flexNumber{}
		return nil
	}
	*f = flexNumber{Value: v, Valid: true}
	return nil
}

func (f flexNumber) ptr() *float64 {
	if !f.Valid || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return nil
	}
	v := f.Value
	return &v
}

// ParseResponse decodes an upstream product body. found is true only when
// the body reports status 1 and carries a non-empty product object.
func ParseResponse(code string, body []byte) (rec ProductRecord, found bool, err error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ProductRecord{}, false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !env.Status.Valid || env.Status.Value != 1 {
		return ProductRecord{}, false, nil
	}
	raw := bytes.TrimSpace(env.Product)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}")) {
		return ProductRecord{}, false, nil
	}

	var up upstreamProduct
	if err := json.Unmarshal(raw, &up); err != nil {
		return ProductRecord{}, false, fmt.Errorf("%w: product: %v", ErrMalformedResponse, err)
	}
	return up.toRecord(code), true, nil
}

func (up upstreamProduct) toRecord(code string) ProductRecord {
	rec := ProductRecord{
		Code:         code,
		Found:        true,
		DisplayName:  firstNonEmpty(up.ProductNameRO, up.ProductName, up.ProductNameEN),
		Brand:        firstBrand(up.Brands),
		Quantity:     strings.TrimSpace(up.Quantity),
		ServingSize:  strings.TrimSpace(up.ServingSize),
		Categories:   strings.TrimSpace(up.Categories),
		Labels:       strings.TrimSpace(up.Labels),
		Stores:       strings.TrimSpace(up.Stores),
		Countries:    strings.TrimSpace(up.Countries),
		Packaging:    strings.TrimSpace(up.Packaging),
		Ingredients:  firstNonEmpty(up.IngredientsTextRO, up.IngredientsText),
		ImageURL:     firstNonEmpty(up.ImageFrontURL, up.ImageURL),
		ThumbnailURL: firstNonEmpty(up.ImageSmallURL, up.ImageFrontSmall),
		NutriScore:   ParseGrade(firstNonEmpty(up.NutriscoreGrade, up.NutritionGrades)),
		EcoScore:     ParseGrade(up.EcoscoreGrade),
		Allergens:    cleanTags(up.AllergensTags),
		Additives:    cleanTags(up.AdditivesTags),
		Traces:       cleanTags(up.TracesTags),
		Analysis:     cleanTags(up.AnalysisTags),
	}
	if up.NovaGroup.Valid {
		if n := NovaGroup(up.NovaGroup.Value); n.Known() && float64(n) == up.NovaGroup.Value {
			rec.Nova = n
		}
	}
	rec.Per100g = nutrientsFrom(up.Nutriments, "_100g")
	rec.PerServing = nutrientsFrom(up.Nutriments, "_serving")
	rec.Levels = NutrientLevels{
		Fat:          parseLevel(up.NutrientLevels["fat"]),
		SaturatedFat: parseLevel(up.NutrientLevels["saturated-fat"]),
		Sugars:       parseLevel(up.NutrientLevels["sugars"]),
		Salt:         parseLevel(up.NutrientLevels["salt"]),
	}
	return rec
}

func nutrientsFrom(m map[string]flexNumber, suffix string) Nutrients {
	if len(m) == 0 {
		return Nutrients{}
	}
	get := func(name string) *float64 {
		return m[name+suffix].ptr()
	}
	return Nutrients{
		EnergyKcal:    get("energy-kcal"),
		EnergyKJ:      get("energy-kj"),
		Fat:           get("fat"),
		SaturatedFat:  get("saturated-fat"),
		Sugars:        get("sugars"),
		Salt:          get("salt"),
		Proteins:      get("proteins"),
		Carbohydrates: get("carbohydrates"),
		Fiber:         get("fiber"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// mergePreferring overlays primary on fallback field by field. Code and Found
// come from primary.
func mergePreferring(primary, fallback ProductRecord) ProductRecord {
	out := primary
	str := func(p *string, f string) {
		if *p == "" {
			*p = f
		}
	}
	str(&out.DisplayName, fallback.DisplayName)
	str(&out.Brand, fallback.Brand)
	str(&out.Quantity, fallback.Quantity)
	str(&out.ServingSize, fallback.ServingSize)
	str(&out.Categories, fallback.Categories)
	str(&out.Labels, fallback.Labels)
	str(&out.Stores, fallback.Stores)
	str(&out.Countries, fallback.Countries)
	str(&out.Packaging, fallback.Packaging)
	str(&out.Ingredients, fallback.Ingredients)
	str(&out.ImageURL, fallback.ImageURL)
	str(&out.ThumbnailURL, fallback.ThumbnailURL)
	if out.Per100g.Empty() {
		out.Per100g = fallback.Per100g
	}
	if out.PerServing.Empty() {
		out.PerServing = fallback.PerServing
	}
	if !out.NutriScore.Known() {
		out.NutriScore = fallback.NutriScore
	}
	if !out.Nova.Known() {
		out.Nova = fallback.Nova
	}
	if !out.EcoScore.Known() {
		out.EcoScore = fallback.EcoScore
	}
	if len(out.Allergens) == 0 {
		out.Allergens = fallback.Allergens
	}
	if len(out.Additives) == 0 {
		out.Additives = fallback.Additives
	}
	if len(out.Traces) == 0 {
		out.Traces = fallback.Traces
	}
	if len(out.Analysis) == 0 {
		out.Analysis = fallback.Analysis
	}
	if out.Levels == (NutrientLevels{}) {
		out.Levels = fallback.Levels
	}
	return out
}

// looksCosmetic reports whether a food record is categorised as a
// cosmetic or beauty product.
func looksCosmetic(rec ProductRecord) bool {
	cats := strings.ToLower(rec.Categories)
	for _, kw := range cosmeticKeywords {
		if strings.Contains(cats, kw) {
			return true
		}
	}
	return false
}

var cosmeticKeywords = []string{"cosmetic", "beauty", "skin care"}

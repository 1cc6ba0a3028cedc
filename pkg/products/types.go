package products

import "strings"

// Grade is a Nutri-Score or Eco-Score letter, lower-case a..e. The empty
// grade means unknown or not applicable.
type Grade string

const GradeUnknown Grade = ""

// ParseGrade normalises an upstream grade string.
func ParseGrade(s string) Grade {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "a", "b", "c", "d", "e":
		return Grade(s)
	default:
		return GradeUnknown
	}
}

// Known reports whether the grade is one of a..e.
func (g Grade) Known() bool {
	return g != GradeUnknown
}

// String renders the grade upper-case, "?" when unknown.
func (g Grade) String() string {
	if g == GradeUnknown {
		return "?"
	}
	return strings.ToUpper(string(g))
}

// NovaGroup is the processing level 1..4; 0 means unknown.
type NovaGroup int

const NovaUnknown NovaGroup = 0

func (n NovaGroup) Known() bool {
	return n >= 1 && n <= 4
}

// Level is an upstream nutrient level: low, moderate or high.
type Level string

const (
	LevelUnknown  Level = ""
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

func parseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelLow:
		return LevelLow
	case LevelModerate:
		return LevelModerate
	case LevelHigh:
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// Nutrients are per-100g or per-serving facts. Every field is optional since
// upstream data is frequently incomplete.
type Nutrients struct {
	EnergyKcal    *float64 `json:"energy_kcal,omitempty"`
	EnergyKJ      *float64 `json:"energy_kj,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	Sugars        *float64 `json:"sugars,omitempty"`
	Salt          *float64 `json:"salt,omitempty"`
	Proteins      *float64 `json:"proteins,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
}

// Empty reports whether no nutrient is known.
func (n Nutrients) Empty() bool {
	return n.EnergyKcal == nil && n.EnergyKJ == nil && n.Fat == nil && n.SaturatedFat == nil &&
		n.Sugars == nil && n.Salt == nil && n.Proteins == nil && n.Carbohydrates == nil && n.Fiber == nil
}

// NutrientLevels are the upstream traffic-light levels.
type NutrientLevels struct {
	Fat          Level `json:"fat,omitempty"`
	SaturatedFat Level `json:"saturated_fat,omitempty"`
	Sugars       Level `json:"sugars,omitempty"`
	Salt         Level `json:"salt,omitempty"`
}

// ProductRecord is the normalised result of a resolution. A record with
// Found == false is the degenerate record kept after a failed lookup; only
// Code is set on it.
type ProductRecord struct {
	Code             string         `json:"code"`
	Found            bool           `json:"found"`
	DisplayName      string         `json:"display_name,omitempty"`
	Brand            string         `json:"brand,omitempty"`
	Quantity         string         `json:"quantity,omitempty"`
	ServingSize      string         `json:"serving_size,omitempty"`
	Categories       string         `json:"categories,omitempty"`
	Labels           string         `json:"labels,omitempty"`
	Stores           string         `json:"stores,omitempty"`
	Countries        string         `json:"countries,omitempty"`
	Packaging        string         `json:"packaging,omitempty"`
	Ingredients      string         `json:"ingredients,omitempty"`
	ImageURL         string         `json:"image_url,omitempty"`
	ThumbnailURL     string         `json:"thumbnail_url,omitempty"`
	Per100g          Nutrients      `json:"per_100g"`
	PerServing       Nutrients      `json:"per_serving"`
	NutriScore       Grade          `json:"nutriscore_grade,omitempty"`
	Nova             NovaGroup      `json:"nova_group,omitempty"`
	EcoScore         Grade          `json:"ecoscore_grade,omitempty"`
	Allergens        []string       `json:"allergens,omitempty"`
	Additives        []string       `json:"additives,omitempty"`
	Traces           []string       `json:"traces,omitempty"`
	Analysis         []string       `json:"ingredients_analysis,omitempty"`
	Levels           NutrientLevels `json:"nutrient_levels"`
	IsCosmeticDomain bool           `json:"is_cosmetic_domain"`
}

// Degenerate returns the record kept when a lookup fails.
func Degenerate(code string) ProductRecord {
	return ProductRecord{Code: code}
}

// Name returns the display name or a placeholder.
func (p ProductRecord) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return "Unnamed product " + p.Code
}

// TagLabel strips the language prefix from an upstream tag ("en:milk" -> "milk").
func TagLabel(tag string) string {
	if i := strings.Index(tag, ":"); i >= 0 && i < len(tag)-1 {
		return strings.ReplaceAll(tag[i+1:], "-", " ")
	}
	return tag
}

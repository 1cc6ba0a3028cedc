package guide

import (
	"fmt"
	"strings"
)

// TierName grades a food from TOP (best) down to E.
type TierName string

const (
	TierTop TierName = "TOP"
	TierA   TierName = "A"
	TierB   TierName = "B"
	TierC   TierName = "C"
	TierD   TierName = "D"
	TierE   TierName = "E"
)

// Tiers in display order.
var Tiers = []TierName{TierTop, TierA, TierB, TierC, TierD, TierE}

func (t TierName) rank() int {
	for i, n := range Tiers {
		if n == t {
			return i
		}
	}
	return len(Tiers)
}

func (t TierName) Valid() bool {
	return t.rank() < len(Tiers)
}

func ParseTier(s string) (TierName, error) {
	t := TierName(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// Tags group a food's attributes for filtering. The same shape is used for
// the selected filter values.
type Tags struct {
	Regions              []string `json:"regions,omitempty"`
	OrganBenefits        []string `json:"organ_benefits,omitempty"`
	DietaryCompatibility []string `json:"dietary_compatibility,omitempty"`
	NutritionalProfile   []string `json:"nutritional_profile,omitempty"`
}

// Filters are the selected tag values; every value in a group must be present
// on a food for it to match.
type Filters = Tags

func (t Tags) Empty() bool {
	return len(t.Regions) == 0 && len(t.OrganBenefits) == 0 &&
		len(t.DietaryCompatibility) == 0 && len(t.NutritionalProfile) == 0
}

func (t Tags) groups() [4][]string {
	return [4][]string{t.Regions, t.OrganBenefits, t.DietaryCompatibility, t.NutritionalProfile}
}

type Food struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Tier   TierName `json:"tier"`
	Info   string   `json:"info"`
	Cons   string   `json:"cons,omitempty"`
	Custom bool     `json:"custom,omitempty"`
	Tags   *Tags    `json:"tags,omitempty"`
}

type Tier struct {
	Name  TierName `json:"name"`
	Foods []Food   `json:"foods"`
}

type Subcategory struct {
	Name  string `json:"name"`
	Tiers []Tier `json:"tiers"`
}

type Category struct {
	Name          string        `json:"name"`
	Icon          string        `json:"icon"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Guide is the whole food guide. Methods never modify the receiver.
type Guide struct {
	Categories []Category `json:"categories"`
}

// Clone returns a deep copy.
func (g Guide) Clone() Guide {
	out := Guide{Categories: make([]Category, len(g.Categories))}
	for i, c := range g.Categories {
		cc := c
		cc.Subcategories = make([]Subcategory, len(c.Subcategories))
		for j, s := range c.Subcategories {
			sc := s
			sc.Tiers = make([]Tier, len(s.Tiers))
			for k, t := range s.Tiers {
				tc := t
				tc.Foods = make([]Food, len(t.Foods))
				for l, f := range t.Foods {
					tc.Foods[l] = f.clone()
				}
				sc.Tiers[k] = tc
			}
			cc.Subcategories[j] = sc
		}
		out.Categories[i] = cc
	}
	return out
}

func (f Food) clone() Food {
	if f.Tags != nil {
		t := Tags{
			Regions:              append([]string(nil), f.Tags.Regions...),
			OrganBenefits:        append([]string(nil), f.Tags.OrganBenefits...),
			DietaryCompatibility: append([]string(nil), f.Tags.DietaryCompatibility...),
			NutritionalProfile:   append([]string(nil), f.Tags.NutritionalProfile...),
		}
		f.Tags = &t
	}
	return f
}

// FoodCount counts every food in the guide.
func (g Guide) FoodCount() int {
	n := 0
	for _, c := range g.Categories {
		for _, s := range c.Subcategories {
			for _, t := range s.Tiers {
				n += len(t.Foods)
			}
		}
	}
	return n
}

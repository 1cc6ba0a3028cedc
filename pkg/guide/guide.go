package guide

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrInvalidTier         = errors.New("invalid tier")
	ErrInvalidFood         = errors.New("invalid food")
)

//go:embed data/guide.json
var builtinJSON []byte

// Builtin returns a fresh copy of the bundled guide.
func Builtin() (Guide, error) {
	var g Guide
	if err := json.Unmarshal(builtinJSON, &g); err != nil {
		return Guide{}, fmt.Errorf("failed to parse bundled guide: %w", err)
	}
	return g, nil
}

// Filter keeps foods whose name contains search (case-insensitive) and that
// carry every selected tag of every group. Tiers, subcategories and
// categories left empty are dropped.
func (g Guide) Filter(search string, filters Filters) Guide {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" && filters.Empty() {
		return g.Clone()
	}

	keep := func(f Food) bool {
		if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
			return false
		}
		return matchesFilters(f, filters)
	}

	var out Guide
	for _, c := range g.Categories {
		cc := Category{Name: c.Name, Icon: c.Icon}
		for _, s := range c.Subcategories {
			sc := Subcategory{Name: s.Name}
			for _, t := range s.Tiers {
				tc := Tier{Name: t.Name}
				for _, f := range t.Foods {
					if keep(f) {
						tc.Foods = append(tc.Foods, f.clone())
					}
				}
				if len(tc.Foods) > 0 {
					sc.Tiers = append(sc.Tiers, tc)
				}
			}
			if len(sc.Tiers) > 0 {
				cc.Subcategories = append(cc.Subcategories, sc)
			}
		}
		if len(cc.Subcategories) > 0 {
			out.Categories = append(out.Categories, cc)
		}
	}
	return out
}

func matchesFilters(f Food, filters Filters) bool {
	if filters.Empty() {
		return true
	}
	if f.Tags == nil {
		return false
	}
	have := f.Tags.groups()
	for i, want := range filters.groups() {
		for _, v := range want {
			if !slices.Contains(have[i], v) {
				return false
			}
		}
	}
	return true
}

// AddFood returns a copy of the guide with food appended to its tier in the
// named subcategory. A missing tier is created and tiers are re-sorted TOP
// first.
func (g Guide) AddFood(category, subcategory string, food Food) (Guide, error) {
	if err := validateFood(food); err != nil {
		return Guide{}, err
	}

	out := g.Clone()
	ci := slices.IndexFunc(out.Categories, func(c Category) bool { return c.Name == category })
	if ci < 0 {
		return Guide{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}
	cat := &out.Categories[ci]
	si := slices.IndexFunc(cat.Subcategories, func(s Subcategory) bool { return s.Name == subcategory })
	if si < 0 {
		return Guide{}, fmt.Errorf("%w: %q in %q", ErrSubcategoryNotFound, subcategory, category)
	}
	sub := &cat.Subcategories[si]

	ti := slices.IndexFunc(sub.Tiers, func(t Tier) bool { return t.Name == food.Tier })
	if ti >= 0 {
		sub.Tiers[ti].Foods = append(sub.Tiers[ti].Foods, food.clone())
	} else {
		sub.Tiers = append(sub.Tiers, Tier{Name: food.Tier, Foods: []Food{food.clone()}})
	}
	sort.SliceStable(sub.Tiers, func(i, j int) bool {
		return sub.Tiers[i].Name.rank() < sub.Tiers[j].Name.rank()
	})
	return out, nil
}

func validateFood(f Food) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFood)
	}
	if !f.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, f.Tier)
	}
	return nil
}

// AvoidList returns every D and E food, E first.
func (g Guide) AvoidList() []Food {
	var e, d []Food
	for _, c := range g.Categories {
		for _, s := range c.Subcategories {
			for _, t := range s.Tiers {
				for _, f := range t.Foods {
					switch f.Tier {
					case TierE:
						e = append(e, f.clone())
					case TierD:
						d = append(d, f.clone())
					}
				}
			}
		}
	}
	return append(e, d...)
}

// FilterOptions collects the distinct tag values used in the guide, sorted.
func (g Guide) FilterOptions() Tags {
	var sets [4]map[string]bool
	for i := range sets {
		sets[i] = map[string]bool{}
	}
	for _, c := range g.Categories {
		for _, s := range c.Subcategories {
			for _, t := range s.Tiers {
				for _, f := range t.Foods {
					if f.Tags == nil {
						continue
					}
					for i, group := range f.Tags.groups() {
						for _, v := range group {
							sets[i][v] = true
						}
					}
				}
			}
		}
	}
	sorted := func(m map[string]bool) []string {
		out := make([]string, 0, len(m))
		for v := range m {
			out = append(out, v)
		}
		sort.Strings(out)
		return out
	}
	return Tags{
		Regions:              sorted(sets[0]),
		OrganBenefits:        sorted(sets[1]),
		DietaryCompatibility: sorted(sets[2]),
		NutritionalProfile:   sorted(sets[3]),
	}
}

// FindFood looks a food up by case-insensitive name.
func (g Guide) FindFood(name string) (Food, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range g.Categories {
		for _, s := range c.Subcategories {
			for _, t := range s.Tiers {
				for _, f := range t.Foods {
					if strings.ToLower(f.Name) == name {
						return f.clone(), true
					}
				}
			}
		}
	}
	return Food{}, false
}

package guide

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/unowned-ai/nutriscan/pkg/store"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

// CustomFood is a user addition together with where it belongs.
type CustomFood struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Food        Food   `json:"food"`
}

// Store merges user additions into the bundled guide. It is the only writer
// of the guide.custom document.
type Store struct {
	doc    *store.Document[[]CustomFood]
	base   Guide
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	base, err := Builtin()
	if err != nil {
		return nil, err
	}
	return &Store{
		doc:    store.NewDocument[[]CustomFood](db, store.KeyGuideCustom, nil),
		base:   base,
		logger: utils.Component(logger, "guide"),
	}, nil
}

// Load returns the bundled guide with every stored addition applied.
// Additions whose category no longer exists are skipped.
func (s *Store) Load(ctx context.Context) (Guide, error) {
	custom, err := s.doc.Load(ctx)
	if err != nil {
		return Guide{}, err
	}
	return s.merge(custom), nil
}

func (s *Store) merge(custom []CustomFood) Guide {
	g := s.base.Clone()
	for _, c := range custom {
		next, err := g.AddFood(c.Category, c.Subcategory, c.Food)
		if err != nil {
			s.logger.Warn("skipping custom food", "food", c.Food.Name, "error", err)
			continue
		}
		g = next
	}
	return g
}

// Add stores a user food and returns it with its assigned id.
func (s *Store) Add(ctx context.Context, category, subcategory string, food Food) (Food, error) {
	food.ID = uuid.NewString()
	food.Custom = true

	_, err := s.doc.Update(ctx, func(current []CustomFood) ([]CustomFood, error) {
		if _, err := s.merge(current).AddFood(category, subcategory, food); err != nil {
			return nil, err
		}
		return append(current, CustomFood{Category: category, Subcategory: subcategory, Food: food}), nil
	})
	if err != nil {
		return Food{}, err
	}
	return food, nil
}

// Custom lists the stored additions in insertion order.
func (s *Store) Custom(ctx context.Context) ([]CustomFood, error) {
	return s.doc.Load(ctx)
}

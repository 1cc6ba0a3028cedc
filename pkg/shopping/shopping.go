package shopping

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/unowned-ai/nutriscan/pkg/store"
)

var (
	ErrItemNotFound = errors.New("shopping item not found")
	ErrEmptyName    = errors.New("item name is required")
)

type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// List owns the persisted shopping list.
type List struct {
	doc *store.Document[[]Item]
}

func NewList(db *sql.DB) *List {
	return &List{doc: store.NewDocument[[]Item](db, store.KeyShopping, nil)}
}

func (l *List) Items(ctx context.Context) ([]Item, error) {
	items, err := l.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Add appends an unchecked item.
func (l *List) Add(ctx context.Context, name string) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrEmptyName
	}
	item := Item{ID: uuid.NewString(), Name: name}
	_, err := l.doc.Update(ctx, func(items []Item) ([]Item, error) {
		return append(items, item), nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// Toggle flips the checked flag and returns the updated item.
func (l *List) Toggle(ctx context.Context, id string) (Item, error) {
	var updated Item
	_, err := l.doc.Update(ctx, func(items []Item) ([]Item, error) {
		i := slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
		if i < 0 {
			return nil, ErrItemNotFound
		}
		items[i].Checked = !items[i].Checked
		updated = items[i]
		return items, nil
	})
	if err != nil {
		return Item{}, err
	}
	return updated, nil
}

func (l *List) Remove(ctx context.Context, id string) error {
	_, err := l.doc.Update(ctx, func(items []Item) ([]Item, error) {
		i := slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
		if i < 0 {
			return nil, ErrItemNotFound
		}
		return slices.Delete(items, i, i+1), nil
	})
	return err
}

// Resolve finds an item by id, id prefix or case-insensitive name. The CLI
// uses it so people do not have to paste full UUIDs.
func Resolve(items []Item, ref string) (Item, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Item{}, ErrItemNotFound
	}
	var match []Item
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
		if strings.HasPrefix(it.ID, ref) || strings.EqualFold(it.Name, ref) {
			match = append(match, it)
		}
	}
	if len(match) != 1 {
		return Item{}, ErrItemNotFound
	}
	return match[0], nil
}

package shopping

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	pkgdb "github.com/unowned-ai/nutriscan/pkg/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := pkgdb.OpenAndUpgrade(":memory:", pkgdb.Options{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestShoppingList(t *testing.T) {
	db := setupTestDB(t)
	l := NewList(db)
	ctx := context.Background()

	items, err := l.Items(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("Expected empty list, got %v %v", items, err)
	}

	milk, err := l.Add(ctx, "  Milk ")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if milk.Name != "Milk" || milk.Checked || milk.ID == "" {
		t.Errorf("Unexpected item %+v", milk)
	}
	eggs, _ := l.Add(ctx, "Eggs")

	toggled, err := l.Toggle(ctx, milk.ID)
	if err != nil || !toggled.Checked {
		t.Errorf("Expected Milk checked, got %+v %v", toggled, err)
	}

	if err := l.Remove(ctx, eggs.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	items, _ = l.Items(ctx)
	if len(items) != 1 || items[0].ID != milk.ID || !items[0].Checked {
		t.Errorf("Unexpected list %+v", items)
	}

	if _, err := l.Add(ctx, " "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if _, err := l.Toggle(ctx, "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
	if err := l.Remove(ctx, "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	items := []Item{
		{ID: "abc-1", Name: "Milk"},
		{ID: "abd-2", Name: "Bread"},
	}
	if it, err := Resolve(items, "milk"); err != nil || it.ID != "abc-1" {
		t.Errorf("Expected Milk by name, got %+v %v", it, err)
	}
	if it, err := Resolve(items, "abd"); err != nil || it.Name != "Bread" {
		t.Errorf("Expected Bread by prefix, got %+v %v", it, err)
	}
	if _, err := Resolve(items, "ab"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ambiguous prefix to fail, got %v", err)
	}
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Document keys. Each persisted document has exactly one owning package.
const (
	KeyProfile     = "profile"
	KeyHistory     = "history"
	KeyGuideCustom = "guide.custom"
	KeyShopping    = "shopping"
	KeySettings    = "settings"
)

// Keys lists every document key nutriscan writes.
var Keys = []string{KeyProfile, KeyHistory, KeyGuideCustom, KeyShopping, KeySettings}

var (
	// ErrCorruptDocument means the stored JSON no longer matches the Go type.
	// Documents are not versioned; the fix is Reset.
	ErrCorruptDocument = errors.New("stored document does not match expected shape")
)

const (
	getDocumentStatement = `
	SELECT value FROM documents WHERE key = ?
	`

	upsertDocumentStatement = `
	INSERT INTO documents (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`

	deleteDocumentStatement = `
	DELETE FROM documents WHERE key = ?
	`
)

// Document is a typed JSON value persisted under a single key. Load returns
// the default value when nothing has been saved yet. Callers always get a
// freshly decoded copy, never a shared reference.
type Document[T any] struct {
	db  *sql.DB
	key string
	def func() T
}

// NewDocument binds a document key to a Go type. def may be nil, in which case
// the zero value of T is the default.
func NewDocument[T any](db *sql.DB, key string, def func() T) *Document[T] {
	if def == nil {
		def = func() T {
			var zero T
			return zero
		}
	}
	return &Document[T]{db: db, key: key, def: def}
}

// Key returns the document key.
func (d *Document[T]) Key() string {
	return d.key
}

// Load reads the document.
func (d *Document[T]) Load(ctx context.Context) (T, error) {
	return d.load(ctx, d.db)
}

// Save replaces the stored document wholesale.
func (d *Document[T]) Save(ctx context.Context, value T) error {
	return d.save(ctx, d.db, value)
}

// Update runs a load-modify-save cycle inside one transaction and returns the
// saved value. If fn returns an error nothing is written.
func (d *Document[T]) Update(ctx context.Context, fn func(current T) (T, error)) (T, error) {
	var zero T

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction for %s: %w", d.key, err)
	}
	defer tx.Rollback()

	current, err := d.load(ctx, tx)
	if err != nil {
		return zero, err
	}

	next, err := fn(current)
	if err != nil {
		return zero, err
	}

	if err := d.save(ctx, tx, next); err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit %s: %w", d.key, err)
	}
	return next, nil
}

// Reset deletes the stored document so the next Load returns the default.
func (d *Document[T]) Reset(ctx context.Context) error {
	return ResetDocument(ctx, d.db, d.key)
}

// ResetDocument deletes a document by key.
func ResetDocument(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, deleteDocumentStatement, key); err != nil {
		return fmt.Errorf("failed to reset document %s: %w", key, err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *Document[T]) load(ctx context.Context, q queryer) (T, error) {
	var raw string
	err := q.QueryRowContext(ctx, getDocumentStatement, d.key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d.def(), nil
		}
		var zero T
		return zero, fmt.Errorf("failed to read document %s: %w", d.key, err)
	}

	value := d.def()
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		var zero T
		return zero, fmt.Errorf("document %s: %w: %v", d.key, ErrCorruptDocument, err)
	}
	return value, nil
}

func (d *Document[T]) save(ctx context.Context, q queryer, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", d.key, err)
	}
	if _, err := q.ExecContext(ctx, upsertDocumentStatement, d.key, string(raw)); err != nil {
		return fmt.Errorf("failed to write document %s: %w", d.key, err)
	}
	return nil
}

package products

import (
	"context"
	"database/sql"

	"github.com/unowned-ai/nutriscan/pkg/store"
)

// HistoryCap is the maximum number of remembered products.
const HistoryCap = 30

// HistoryEntry is the slim view of a resolved product kept in history.
type HistoryEntry struct {
	Code         string `json:"code"`
	DisplayName  string `json:"display_name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func EntryFromRecord(rec ProductRecord) HistoryEntry {
	return HistoryEntry{
		Code:         rec.Code,
		DisplayName:  rec.DisplayName,
		ThumbnailURL: rec.ThumbnailURL,
	}
}

// UpsertEntries returns a new list with entry at the front, any previous
// entry with the same code removed, truncated to limit. The input is not
// modified.
func UpsertEntries(list []HistoryEntry, entry HistoryEntry, limit int) []HistoryEntry {
	out := make([]HistoryEntry, 0, min(len(list)+1, max(limit, 1)))
	out = append(out, entry)
	for _, e := range list {
		if len(out) >= limit {
			break
		}
		if e.Code == entry.Code {
			continue
		}
		out = append(out, e)
	}
	return out
}

// History is the persisted most-recently-used list of resolved products.
// It is the only writer of the history document.
type History struct {
	doc   *store.Document[[]HistoryEntry]
	limit int
}

func NewHistory(db *sql.DB) *History {
	return &History{
		doc:   store.NewDocument[[]HistoryEntry](db, store.KeyHistory, nil),
		limit: HistoryCap,
	}
}

// Upsert moves entry to the front and persists the list before returning.
func (h *History) Upsert(ctx context.Context, entry HistoryEntry) error {
	_, err := h.doc.Update(ctx, func(current []HistoryEntry) ([]HistoryEntry, error) {
		return UpsertEntries(current, entry, h.limit), nil
	})
	return err
}

// List returns a snapshot, most recent first.
func (h *History) List(ctx context.Context) ([]HistoryEntry, error) {
	list, err := h.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []HistoryEntry{}
	}
	return list, nil
}

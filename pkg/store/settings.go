package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Settings holds the user interface preferences.
type Settings struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

var ErrInvalidSetting = errors.New("invalid setting")

// DefaultSettings mirrors a first launch: light theme, Romanian.
func DefaultSettings() Settings {
	return Settings{Theme: "light", Language: "ro"}
}

// SettingsStore owns the settings document.
type SettingsStore struct {
	doc *Document[Settings]
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{doc: NewDocument(db, KeySettings, DefaultSettings)}
}

func (s *SettingsStore) Load(ctx context.Context) (Settings, error) {
	return s.doc.Load(ctx)
}

// Save validates and stores the settings.
func (s *SettingsStore) Save(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.doc.Save(ctx, settings)
}

// ToggleTheme flips between light and dark and returns the new settings.
func (s *SettingsStore) ToggleTheme(ctx context.Context) (Settings, error) {
	return s.doc.Update(ctx, func(cur Settings) (Settings, error) {
		if cur.Theme == "dark" {
			cur.Theme = "light"
		} else {
			cur.Theme = "dark"
		}
		return cur, nil
	})
}

func (s Settings) Validate() error {
	switch s.Theme {
	case "light", "dark":
	default:
		return fmt.Errorf("%w: theme must be light or dark, got %q", ErrInvalidSetting, s.Theme)
	}
	switch s.Language {
	case "ro", "en":
	default:
		return fmt.Errorf("%w: language must be ro or en, got %q", ErrInvalidSetting, s.Language)
	}
	return nil
}

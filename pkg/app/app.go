// Package app wires the stores, the product resolver and the AI service
// around one database handle. The CLI, the MCP server, the HTTP API and the
// TUI all work through an App.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/config"
	"github.com/unowned-ai/nutriscan/pkg/guide"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/profile"
	"github.com/unowned-ai/nutriscan/pkg/shopping"
	"github.com/unowned-ai/nutriscan/pkg/store"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

type App struct {
	DB     *sql.DB
	Config config.Config
	Logger *slog.Logger

	Resolver *products.Resolver
	History  *products.History
	Profile  *profile.Store
	Guide    *guide.Store
	Shopping *shopping.List
	Settings *store.SettingsStore

	genMu     sync.Mutex
	generator ai.Generator
}

type Option func(*App)

// WithGenerator replaces the Gemini client, mostly for tests.
func WithGenerator(g ai.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithResolverOptions passes extra options to the product resolver.
func WithResolverOptions(opts ...products.Option) Option {
	return func(a *App) {
		base := []products.Option{
			products.WithRetryPolicy(a.Config.Retry),
			products.WithHistory(a.History),
			products.WithLogger(a.Logger),
		}
		a.Resolver = products.NewResolver(append(base, opts...)...)
	}
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = utils.DiscardLogger()
	}
	guideStore, err := guide.NewStore(db, logger)
	if err != nil {
		return nil, err
	}
	a := &App{
		DB:       db,
		Config:   cfg,
		Logger:   logger,
		History:  products.NewHistory(db),
		Profile:  profile.NewStore(db),
		Guide:    guideStore,
		Shopping: shopping.NewList(db),
		Settings: store.NewSettingsStore(db),
	}
	a.Resolver = products.NewResolver(
		products.WithRetryPolicy(cfg.Retry),
		products.WithHistory(a.History),
		products.WithLogger(logger),
	)
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AI returns the analysis service, answering in the language stored in the
// settings. The Gemini client is created on first use so commands that never
// call the model work without an API key.
func (a *App) AI(ctx context.Context) (*ai.Service, error) {
	gen, err := a.aiGenerator(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := a.Settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewService(gen, ai.WithLanguage(settings.Language), ai.WithRegion(a.Config.AIRegion)), nil
}

func (a *App) aiGenerator(ctx context.Context) (ai.Generator, error) {
	a.genMu.Lock()
	defer a.genMu.Unlock()
	if a.generator != nil {
		return a.generator, nil
	}
	key, err := a.Config.RequireAPIKey()
	if err != nil {
		return nil, err
	}
	g, err := ai.NewGemini(ctx, key, a.Config.AIModel, a.Logger)
	if err != nil {
		return nil, err
	}
	a.generator = g
	return g, nil
}

// Close checkpoints the WAL and closes the database.
func (a *App) Close() error {
	if _, err := a.DB.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		a.Logger.Warn("WAL checkpoint failed during close", "error", err)
	}
	return a.DB.Close()
}

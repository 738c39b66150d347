// Package cli wires the thread command line client.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/auth"
	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/compose"
	"github.com/debemdeboas/the-thread/internal/config"
	"github.com/debemdeboas/the-thread/internal/db"
	"github.com/debemdeboas/the-thread/internal/events"
	"github.com/debemdeboas/the-thread/internal/interaction"
	"github.com/debemdeboas/the-thread/internal/logger"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/outbox"
	"github.com/debemdeboas/the-thread/internal/repository"
	"github.com/debemdeboas/the-thread/internal/repository/editor"
	"github.com/debemdeboas/the-thread/internal/storage"
)

// App holds the collaborators shared by every command.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	DB           db.DB
	Posts        *repository.DBPostRepository
	Store        storage.ObjectStore
	Uploader     *media.Uploader
	Drafts       *editor.Store
	Auth         *auth.Session
	Cache        *cache.QueryCache
	Hub          *events.Hub
	Interactions *interaction.Service
}

// SetLoggers hands every package a component logger derived from l.
func SetLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	cache.SetLogger(logger.Component(l, "cache"))
	storage.SetLogger(logger.Component(l, "storage"))
	media.SetLogger(logger.Component(l, "media"))
	editor.SetLogger(logger.Component(l, "drafts"))
	repository.SetLogger(logger.Component(l, "repository"))
	auth.SetLogger(logger.Component(l, "auth"))
	outbox.SetLogger(logger.Component(l, "outbox"))
	compose.SetLogger(logger.Component(l, "compose"))
	interaction.SetLogger(logger.Component(l, "interaction"))
}

func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log, Hub: events.NewHub()}

	database := db.NewSQLite(cfg.Database.Path)
	if err := database.InitDB(); err != nil {
		return nil, err
	}
	app.DB = database
	app.Posts = repository.NewDBPostRepository(database)

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error opening object store: %w", err)
	}
	app.Store = store
	app.Uploader = media.NewUploader(store, media.FileOpener{}, cfg.Composer.UploadConcurrency)

	drafts, err := editor.OpenStore(ctx, cfg.Drafts, database)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error opening drafts: %w", err)
	}
	app.Drafts = drafts

	app.Cache, err = cache.NewQueryCache(cfg.Cache.Size, cfg.Cache.StaleAfter())
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Auth = auth.NewSession()
	if err := app.Auth.Init(ctx, auth.NewStaticProvider(cfg.Auth)); err != nil {
		app.Close()
		return nil, err
	}

	app.Interactions = interaction.NewService(app.Posts, app.Invalidator())
	return app, nil
}

// Invalidator drops stale entries from both the query cache and the post
// repository's read-through cache.
func (a *App) Invalidator() cache.Invalidator {
	return cache.Invalidators{a.Cache, a.Posts}
}

func (a *App) ComposeDeps() compose.Deps {
	return compose.Deps{
		Uploader:      a.Uploader,
		Posts:         a.Posts,
		Drafts:        a.Drafts,
		Auth:          a.Auth,
		Invalidator:   a.Invalidator(),
		Hub:           a.Hub,
		MaxCharacters: a.Config.Composer.MaxCharacters,
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

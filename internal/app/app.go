package app

import (
	"context"
	"fmt"
	"time"

	"sitebuilder/internal/blocks"
	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/draft"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/logger"
	"sitebuilder/internal/service"
	"sitebuilder/internal/storage"
)

// App owns the process-wide pieces: storage, the edit session and its
// local draft, and the services built on them.
type App struct {
	cfg     config.Config
	log     *logger.Logger
	emitter service.EventEmitter

	db    *storage.DB
	mongo *storage.MongoSiteStore

	registry *blocks.Registry
	session  *editor.Session
	cache    *draft.FileCache
	autosave *draft.Autosaver
	watcher  *draft.Watcher

	sites  *service.SiteService
	drafts *service.DraftService
}

// New creates an App. Nothing is opened until Startup.
func New(cfg config.Config, log *logger.Logger) *App {
	if log == nil {
		log = logger.Nop()
	}
	return &App{cfg: cfg, log: log, emitter: service.LogEmitter{Log: log}}
}

// SetEmitter replaces the default log emitter. Call before Startup.
func (a *App) SetEmitter(e service.EventEmitter) {
	a.emitter = e
}

// Startup opens storage, builds the session and restores the last draft.
func (a *App) Startup(ctx context.Context) error {
	sites, history, err := a.openStorage(ctx)
	if err != nil {
		return err
	}

	a.registry = blocks.NewRegistry()
	a.cache = draft.NewFileCache(a.cfg.Draft.Path)
	a.autosave = draft.NewAutosaver(a.cache, a.cfg.Draft.FlushSchedule, a.log)
	a.session = editor.New(
		blocks.NewFactory(a.registry, nil),
		editor.WithHistoryLimit(a.cfg.History.Limit),
		editor.WithLogger(a.log),
	)

	a.sites = service.NewSiteService(sites, history, a.session, a.emitter, a.log)
	a.drafts = service.NewDraftService(a.cache, a.session, a.emitter, a.log)

	if _, err := a.drafts.Restore(ctx); err != nil {
		// a broken draft must not keep the editor from starting
		a.log.Warn("draft not restored", "path", a.cfg.Draft.Path, "error", err)
	}
	// observe after restoring so the restored draft is not immediately rewritten
	a.session.Observe(a.autosave)

	if err := a.autosave.Start(); err != nil {
		a.closeStorage(ctx)
		return fmt.Errorf("start autosave: %w", err)
	}
	if a.cfg.Draft.Watch {
		a.watcher = draft.NewWatcher(a.cache, func(d *domain.Draft) {
			a.drafts.Apply(ctx, d)
		}, a.isOwnDraft, a.log)
		if err := a.watcher.Start(ctx); err != nil {
			a.log.Warn("draft watcher disabled", "error", err)
			a.watcher = nil
		}
	}

	a.log.Info("started", "storage", a.cfg.Storage.Driver, "draft", a.cfg.Draft.Path, "history_limit", a.cfg.History.Limit)
	return nil
}

func (a *App) openStorage(ctx context.Context) (domain.SiteStore, service.HistoryStore, error) {
	opts := a.cfg.StorageOptions()
	if opts.Driver == storage.DriverMongo {
		m, err := storage.OpenMongo(ctx, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage: %w", err)
		}
		a.mongo = m
		return m, nil, nil
	}
	db, err := storage.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	a.db = db
	return storage.NewSiteStore(db), storage.NewHistoryStore(db, a.cfg.History.Limit), nil
}

// closeStorage closes whichever backend is open. Safe to call twice.
func (a *App) closeStorage(ctx context.Context) {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close database", "error", err)
		}
		a.db = nil
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.log.Warn("close mongo", "error", err)
		}
		a.mongo = nil
	}
}

func (a *App) isOwnDraft(savedAt time.Time) bool {
	return savedAt.Equal(a.autosave.LastSaved())
}

// Shutdown flushes the draft, waits for saves in flight and closes storage.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.autosave != nil {
		a.autosave.Stop()
	}
	if a.sites != nil {
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := a.sites.WaitSaves(waitCtx); err != nil {
			a.log.Warn("closing storage with saves in flight", "error", err)
		}
		cancel()
	}
	a.closeStorage(ctx)
	a.log.Sync()
}

func (a *App) Session() *editor.Session      { return a.session }
func (a *App) Sites() *service.SiteService   { return a.sites }
func (a *App) Registry() *blocks.Registry    { return a.registry }
func (a *App) Emitter() service.EventEmitter { return a.emitter }
func (a *App) Autosaver() *draft.Autosaver   { return a.autosave }

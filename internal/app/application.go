// Package app assembles the watcher, search, scheduler and notification
// components into one running application.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/pagewatch/internal/interfaces"
	"github.com/raysh454/pagewatch/internal/notify"
	"github.com/raysh454/pagewatch/internal/scheduler"
	"github.com/raysh454/pagewatch/internal/search"
	"github.com/raysh454/pagewatch/internal/utils"
	"github.com/raysh454/pagewatch/internal/watcher"
	"github.com/raysh454/pagewatch/internal/webclient"
)

// Application owns the wired component graph. Construct with New, run the
// scheduler with Run, tear down with Close.
type Application struct {
	Config   *Config
	Logger   interfaces.Logger
	Store    *watcher.StateStore
	Detector *watcher.Detector
	Search   *search.Engine
	Hub      *notify.Hub
	Sched    *scheduler.Scheduler

	persister *watcher.SQLiteStore
	client    webclient.WebClient
}

// New builds the application: opens persistence, restores saved state,
// registers configured URLs, and wires the fetch/detect/notify pipeline.
func New(cfg *Config, logger interfaces.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		return nil, errors.New("app: nil logger provided")
	}

	persister, err := watcher.NewSQLiteStore(cfg.StorageRoot, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	store := watcher.NewStateStore(cfg.Watcher.RetentionLimit)

	saved, err := persister.Load(context.Background())
	if err != nil {
		persister.Close()
		return nil, fmt.Errorf("load saved state: %w", err)
	}
	store.Restore(saved)

	// Configured URLs are added in canonical form; duplicates with already
	// persisted URLs are fine.
	for _, raw := range cfg.URLs {
		canonical, err := utils.Canonicalize(raw, utils.CanonicalizeOptions{DefaultScheme: "https"})
		if err != nil {
			persister.Close()
			return nil, fmt.Errorf("invalid configured url %q: %w", raw, err)
		}
		if err := store.AddURL(canonical); err != nil && !errors.Is(err, watcher.ErrAlreadyMonitored) {
			persister.Close()
			return nil, fmt.Errorf("register url %q: %w", canonical, err)
		}
	}

	hub := notify.NewHub(logger)
	hub.Register(notify.NewLogNotifier(logger))
	if cfg.WebhookURL != "" {
		wh, err := notify.NewWebhookNotifier(cfg.WebhookURL, 0, logger)
		if err != nil {
			persister.Close()
			return nil, fmt.Errorf("configure webhook: %w", err)
		}
		hub.Register(wh)
	}

	detector := watcher.NewDetector(store, logger,
		watcher.WithNotifier(hub),
		watcher.WithPersister(persister),
	)

	client, err := webclient.NewWebClient(&cfg.WebClient, logger)
	if err != nil {
		persister.Close()
		return nil, fmt.Errorf("create webclient: %w", err)
	}

	sched, err := scheduler.New(cfg.Scheduler, client, detector, logger)
	if err != nil {
		client.Close()
		persister.Close()
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	logger.Info("application initialized",
		interfaces.Field{Key: "storage_root", Value: cfg.StorageRoot},
		interfaces.Field{Key: "urls", Value: len(store.URLs())},
		interfaces.Field{Key: "backend", Value: cfg.WebClient.Backend})

	return &Application{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Detector:  detector,
		Search:    search.NewEngine(store),
		Hub:       hub,
		Sched:     sched,
		persister: persister,
		client:    client,
	}, nil
}

// AddURL canonicalizes raw, registers it and persists the new state.
func (a *Application) AddURL(ctx context.Context, raw string) (string, error) {
	canonical, err := utils.Canonicalize(raw, utils.CanonicalizeOptions{DefaultScheme: "https"})
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if err := a.Store.AddURL(canonical); err != nil {
		return "", err
	}
	a.saveState(ctx)
	return canonical, nil
}

// RemoveURL stops monitoring url and persists the new state.
func (a *Application) RemoveURL(ctx context.Context, url string) error {
	if err := a.Store.RemoveURL(url); err != nil {
		return err
	}
	a.saveState(ctx)
	return nil
}

// ClearHistory drops all change records and persists.
func (a *Application) ClearHistory(ctx context.Context) {
	a.Store.ClearHistory()
	a.saveState(ctx)
}

// ClearAll resets everything and persists.
func (a *Application) ClearAll(ctx context.Context) {
	a.Store.ClearAll()
	a.saveState(ctx)
}

func (a *Application) saveState(ctx context.Context) {
	if err := a.persister.Save(ctx, a.Store.Export()); err != nil {
		a.Logger.Warn("state save failed", interfaces.Field{Key: "error", Value: err.Error()})
	}
}

// Run blocks running the periodic scheduler until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	return a.Sched.Run(ctx)
}

// Close flushes state and releases resources.
func (a *Application) Close() error {
	a.saveState(context.Background())

	var firstErr error
	if err := a.client.Close(); err != nil {
		firstErr = err
	}
	if err := a.persister.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

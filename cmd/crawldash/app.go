package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kalambet/crawldash/internal/backend"
	"github.com/kalambet/crawldash/internal/config"
	"github.com/kalambet/crawldash/internal/session"
	"github.com/kalambet/crawldash/internal/storage"
)

// app is everything a command needs, built from configuration.
type app struct {
	cfg   config.Config
	ctrl  *session.Controller
	store *storage.Store
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		printWarning("closing storage: %v", err)
	}
}

var newApp = func() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	var tokens session.TokenStore = store
	if cfg.Session.Store == config.StoreKeychain {
		tokens = config.NewKeychain()
	}

	client := backend.New(cfg.API.BaseURL, cfg.API.Timeout, backend.WithLogger(slog.Default()))
	ctrl, err := session.New(session.Deps{
		API:      client,
		Store:    tokens,
		Notifier: cliNotifier{},
		Logger:   slog.Default(),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{cfg: cfg, ctrl: ctrl, store: store}, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"cardquest/internal/cards"
	"cardquest/internal/combat"
	"cardquest/internal/config"
	"cardquest/internal/game"
	"cardquest/internal/logging"
	"cardquest/internal/session"
	"cardquest/internal/web"
)

var configPath = flag.String("config", "config.yaml", "path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := cards.LoadTable(cfg.Content.Cards)
	if err != nil {
		return fmt.Errorf("load cards: %w", err)
	}
	fights, err := combat.LoadFights(cfg.Content.Fights)
	if err != nil {
		return fmt.Errorf("load fights: %w", err)
	}
	stories, err := game.LoadStories(cfg.Content.Stories)
	if err != nil {
		return fmt.Errorf("load stories: %w", err)
	}
	engine := &game.Engine{Stories: stories, Fights: fights}
	if err := engine.CheckFights(); err != nil {
		return err
	}
	logger.Info("content loaded",
		zap.Int("cards", len(table)),
		zap.Int("fights", len(fights)),
		zap.Strings("stories", game.StoryIDs(stories)),
	)

	tmpl, err := template.ParseGlob(filepath.Join(cfg.Content.Templates, "*.html"))
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	var store session.Store[game.PlayerState]
	switch cfg.Session.Backend {
	case config.BackendPostgres:
		pg, err := session.NewPostgresStore[game.PlayerState](ctx, cfg.Session.DatabaseURL, cfg.Session.Table, logger)
		if err != nil {
			return fmt.Errorf("connect session store: %w", err)
		}
		defer pg.Close()
		store = pg
	default:
		store = session.NewMemoryStore[game.PlayerState]()
	}
	logger.Info("session store ready", zap.String("backend", cfg.Session.Backend))

	srv := &web.Server{
		Engine:        engine,
		Catalog:       cards.Chain{table, cards.Parser{}},
		Rules:         cfg.Combat.Rules(),
		Store:         store,
		Tmpl:          tmpl,
		Log:           logger,
		Pacing:        cfg.Pacing,
		StaticDir:     cfg.Content.Static,
		SecureCookies: cfg.Server.SecureCookies,
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/actgen/internal/api"
	"github.com/dgallion1/actgen/internal/components"
	"github.com/dgallion1/actgen/internal/config"
	"github.com/dgallion1/actgen/internal/pipeline"
	"github.com/dgallion1/actgen/internal/templatestore"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	set := components.Default()
	if cfg.ComponentsFile != "" {
		loaded, err := components.Load(cfg.ComponentsFile)
		if err != nil {
			log.Error("invalid components file", "path", cfg.ComponentsFile, "error", err)
			os.Exit(1)
		}
		set = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the template store when publishing is enabled.
	var (
		ts    *templatestore.Client
		store pipeline.Store
		pages api.PageStore
	)
	if cfg.PublishEnabled() {
		ts = templatestore.NewClient(cfg.TemplateStoreURL, cfg.TemplateStoreAPIKey)
		store, pages = ts, ts
	}

	// Initialize pipeline.
	engine := pipeline.NewEngine(set, pipeline.EngineConfig{
		RootSelector: cfg.DefaultRootSelector,
		Minify:       cfg.MinifyTemplates,
	}, pipeline.NewStats(cfg.StatsWindow), log)
	orch := pipeline.NewOrchestrator(cfg, engine, store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, pages, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ts != nil {
			ts.Close()
		}
	}()

	log.Info("starting actgen", "port", cfg.Port, "publishing", cfg.PublishEnabled(), "root", cfg.DefaultRootSelector)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

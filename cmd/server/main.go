package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/curtainworks/internal/catalog"
	"github.com/Simplici0/curtainworks/internal/config"
	"github.com/Simplici0/curtainworks/internal/curtain"
	"github.com/Simplici0/curtainworks/internal/db"
	"github.com/Simplici0/curtainworks/internal/logger"
	"github.com/Simplici0/curtainworks/internal/migrations"
	"github.com/Simplici0/curtainworks/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewForEnvironment("production").Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Up(database, log.Named("migrations")); err != nil {
		log.Fatal("failed to run database migrations", zap.Error(err))
	}

	if cfg.SeedPath != "" {
		stats, err := seed.Run(database, seed.Config{Path: cfg.SeedPath})
		if err != nil {
			log.Fatal("failed to seed catalog", zap.Error(err))
		}
		log.Info("catalog seeded", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))
	}

	tables := curtain.DefaultTables()
	if cfg.TablesPath != "" {
		if tables, err = curtain.LoadTables(cfg.TablesPath); err != nil {
			log.Fatal("failed to load tables", zap.String("path", cfg.TablesPath), zap.Error(err))
		}
	}

	srv := newServer(log, catalog.New(database, log.Named("catalog")), tables, cfg.DefaultWindowCount)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

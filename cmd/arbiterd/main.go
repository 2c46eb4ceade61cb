// Package main is the arbiter daemon entry point: it wires the identity
// store, session store, template registry, arbiter, notifier, and HTTP
// service into a running process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arbiter-games/coordinator/applications/arbiter"
	"github.com/arbiter-games/coordinator/applications/httpapi"
	"github.com/arbiter-games/coordinator/applications/notifier"
	"github.com/arbiter-games/coordinator/domain/engine"
	"github.com/arbiter-games/coordinator/domain/identity"
	"github.com/arbiter-games/coordinator/domain/session"
	"github.com/arbiter-games/coordinator/domain/template/chess"
	"github.com/arbiter-games/coordinator/domain/template/rps"
	"github.com/arbiter-games/coordinator/infrastructure/config"
	"github.com/arbiter-games/coordinator/infrastructure/database"
	"github.com/arbiter-games/coordinator/infrastructure/database/migrations"
	"github.com/arbiter-games/coordinator/pkg/logger"
)

func main() {
	// Absence of a .env file is normal in production.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, FilePrefix: "arbiterd"})

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	registry := engine.NewRegistry(rps.New(), chess.New())

	identityStore := identity.NewPostgres(db)
	sessionStore := session.NewPostgres(db)
	sessionService := session.NewService(sessionStore, registry, identityStore)
	notify := notifier.New(cfg.NotifierBufferSize)
	arb := arbiter.New(identityStore, sessionStore, registry, notify, cfg.SessionLockShards, chess.TemplateID)

	httpService := httpapi.NewService(httpapi.Config{
		Addr:           cfg.HTTPAddr,
		DB:             db,
		Identity:       identityStore,
		Sessions:       sessionService,
		Arbiter:        arb,
		Registry:       registry,
		Notify:         notify,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
	})

	if err := httpService.Start(ctx); err != nil {
		log.Fatalf("start http service: %v", err)
	}
	log.Infof("arbiterd listening on %s", httpService.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpService.Stop(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}

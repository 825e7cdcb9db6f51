package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trading-journal-go/internal/api"
	"trading-journal-go/internal/bootstrap"
	"trading-journal-go/internal/config"
	"trading-journal-go/internal/logger"
	"trading-journal-go/internal/prefs"
	"trading-journal-go/internal/session"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger, "journal-ui")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open trade store", zap.Error(err))
	}
	defer st.Close()

	sess := session.New(st, prefs.NewFileStore(cfg.Prefs.File), log, session.Options{
		ListLimit: cfg.Store.ListLimit,
		BatchSize: cfg.Store.BatchSize,
	})
	// A failed load is shown as a banner; the server still starts so the user can refresh.
	if err := sess.Load(ctx); err != nil {
		log.Warn("Initial load failed", zap.Error(err))
	}

	server := api.NewAPIServer(cfg.Server.Port, sess, st, log)
	server.Start()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}
	log.Info("Journal server has been shut down.")
}

package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/loanbox/orchestrator/internal/pkg/config"
	"github.com/loanbox/orchestrator/internal/pkg/logging"
	"github.com/loanbox/orchestrator/pkg/orchestrator"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// The logger is built from the initial config; reloads adjust its level.
	bootCfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := bootCfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger, level := logging.New(bootCfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	o, err := orchestrator.New(
		orchestrator.WithLogger(logger),
		orchestrator.WithLevelVar(level),
		orchestrator.WithFileConfig(*configPath),
	)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := o.Start(ctx); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	// Wait for shutdown signal or server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping orchestrator...")
	case err := <-o.Done():
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := o.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

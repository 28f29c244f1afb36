// Package main is the entry point for the Cartlens basket-mining dashboard.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fridell/cartlens/internal/api"
	"github.com/fridell/cartlens/internal/config"
	"github.com/fridell/cartlens/internal/mining"
	"github.com/fridell/cartlens/internal/session"
)

func main() {
	configPath := flag.String("config", os.Getenv("CARTLENS_CONFIG"), "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting cartlens",
		"addr", cfg.ListenAddr,
		"session_ttl", cfg.SessionTTL.Std(),
		"max_items", cfg.MaxItems,
	)

	sessionCfg := session.DefaultConfig()
	sessionCfg.TTL = cfg.SessionTTL.Std()
	sessions := session.New(sessionCfg)
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Error("closing session store", "error", err)
		}
	}()

	minerCfg := mining.DefaultConfig()
	minerCfg.MaxItems = cfg.MaxItems
	miner := mining.NewApriori(minerCfg)

	server, err := api.NewServer(cfg, sessions, miner)
	if err != nil {
		logger.Error("creating server", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutting down server", "error", err)
	}
	logger.Info("shutdown complete")
}

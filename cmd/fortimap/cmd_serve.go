package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/fortimap/internal/config"
	"github.com/HerbHall/fortimap/internal/fortigate"
	"github.com/HerbHall/fortimap/internal/poller"
	"github.com/HerbHall/fortimap/internal/server"
	"github.com/HerbHall/fortimap/internal/snapshot"
	"github.com/HerbHall/fortimap/internal/topology"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	addr := fs.String("addr", "", "listen address (overrides server.host/server.port)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("FortiMap server starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	client := fortigate.NewClient(cfg.Fortigate, logger)
	builder := topology.NewBuilder(client, logger)

	var store *snapshot.Store
	if cfg.Snapshots.Path != "" {
		store, err = snapshot.Open(cfg.Snapshots.Path)
		if err != nil {
			logger.Fatal("failed to open snapshot store",
				zap.String("path", cfg.Snapshots.Path), zap.Error(err))
		}
		defer store.Close()
	}

	appearance, err := loadAppearance(cfg.CatalogFile)
	if err != nil {
		logger.Fatal("failed to load appearance catalog", zap.Error(err))
	}

	p := poller.New(builder, cfg.Poll.Interval, logger)
	if store != nil {
		p.WithStore(store, cfg.Snapshots.Keep)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("poller error", zap.Error(err))
		}
	}()

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	}
	srv := server.New(listenAddr, p, store, appearance, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("FortiMap server ready", zap.String("addr", listenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("FortiMap server stopped")
}

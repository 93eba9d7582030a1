package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/config"
	"github.com/rickgao/market-sync/internal/gateway"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/order"
	"github.com/rickgao/market-sync/internal/poller"
	"github.com/rickgao/market-sync/internal/router"
	"github.com/rickgao/market-sync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/tradesync.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration before the logger so log.level applies from the start.
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tradesync",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"market", cfg.Market.ID,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	// Validated by LoadAndValidate.
	loc, _ := cfg.API.Location()

	apiClient := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, 250*time.Millisecond),
		api.WithLocation(loc),
	)

	logger.Info("matching engine client ready", "api_url", apiClient.BaseURL(), "timeout", cfg.API.Timeout, "timezone", loc)

	// Backend liveness is informational; the loop tolerates an absent backend.
	healthCtx, healthCancel := context.WithTimeout(ctx, cfg.API.Timeout)
	if status, err := apiClient.Health(healthCtx); err != nil {
		logger.Warn("backend not reachable yet", "error", err)
	} else {
		logger.Info("backend status", "status", status.Status)
	}
	healthCancel()

	updates := router.New(router.DefaultConfig(), logger)

	loop := poller.New(poller.Config{
		MarketID:    cfg.Market.ID,
		Interval:    cfg.Poller.Interval,
		Timeout:     cfg.API.Timeout,
		TradesLimit: cfg.Market.TradesLimit,
	}, apiClient, updates, logger, poller.WithMetrics(m))

	if err := loop.Start(ctx); err != nil {
		logger.Error("failed to start sync loop", "error", err)
		os.Exit(1)
	}

	submitter := order.NewSubmitter(apiClient, loop, logger, order.WithMetrics(m))
	form := order.NewForm(order.Defaults{
		AccountID: cfg.Order.AccountID,
		MarketID:  cfg.Market.ID,
		Price:     cfg.Order.DefaultPrice,
		Quantity:  cfg.Order.DefaultQuantity,
	})
	logger.Info("order form ready", "account", form.Request().AccountID)

	var gw *gateway.Server
	if cfg.GatewayEnabled() {
		gw = gateway.New(gateway.Config{
			Addr:           cfg.Gateway.Addr,
			AllowedOrigins: cfg.Gateway.AllowedOrigins,
		}, gateway.Deps{
			Router:    updates,
			Sync:      loop,
			Backend:   apiClient,
			Form:      form,
			Submitter: submitter,
			Registry:  reg,
		}, logger)

		go func() {
			if err := gw.ListenAndServe(); err != nil {
				logger.Error("gateway error", "error", err)
				cancel()
			}
		}()
	}

	logger.Info("tradesync running",
		"interval", cfg.Poller.Interval,
		"gateway", cfg.GatewayEnabled(),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := loop.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("sync loop stop timed out", "error", err)
	}
	updates.Close()
	if gw != nil {
		if err := gw.Shutdown(shutdownCtx); err != nil {
			logger.Warn("gateway shutdown", "error", err)
		}
	}

	stats := loop.Stats()
	logger.Info("tradesync stopped",
		"ticks", stats.Ticks,
		"skipped", stats.Skipped,
		"failures", stats.Failures,
	)
}

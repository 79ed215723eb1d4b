package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-sim/src/config"
	"market-sim/src/engine"
	"market-sim/src/helpers"
	"market-sim/src/interfaces"
	"market-sim/src/logger"
	"market-sim/src/server"
	"market-sim/src/session"
	"market-sim/src/storage"
	"market-sim/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// Setup storage
	var store interfaces.IMarketStore

	switch config.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresStore(config.MConfig, appLogger)
	default:
		// Default to SQLite
		store, err = storage.NewSQLiteStore(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := helpers.RetryWithBackoff(appLogger, "store initialization", 5, time.Second, store.Initialize); err != nil {
		appLogger.Critical("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Setup components
	history := utils.NewHistoryCache(utils.HistoryWindowPoints)
	sessions := session.NewManager(store, history, config.Market.BaselinePrices, config.Session.HeartbeatStalenessSeconds, appLogger)
	tickEngine := engine.NewTickEngine(store, history, appLogger)
	scheduler := utils.NewMarketScheduler(config.Market.MarketHoursOnly, config.Market.ReferenceSymbols, appLogger)

	var srv interfaces.IDataExchanger = server.NewAPIServer(config.MConfig, store, sessions, tickEngine, history, appLogger)

	// Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// Periodic work: market ticks, controller liveness, retention
	tickTicker := time.NewTicker(time.Duration(config.Market.TickIntervalSeconds) * time.Second)
	defer tickTicker.Stop()

	livenessTicker := time.NewTicker(time.Duration(config.Session.SweepIntervalSeconds) * time.Second)
	defer livenessTicker.Stop()

	retentionTicker := time.NewTicker(time.Duration(config.Retention.SweepIntervalSeconds) * time.Second)
	defer retentionTicker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Starting market loop (tick every %ds)...", config.Market.TickIntervalSeconds)

	for {
		select {
		case <-tickTicker.C:
			if !scheduler.ShouldTick(time.Now()) {
				continue
			}
			if state := tickEngine.RunTick(); state != nil {
				srv.PublishLatest()
			}

		case <-livenessTicker.C:
			if swept := sessions.SweepStale(); swept > 0 {
				srv.PublishLatest()
			}

		case <-retentionTicker.C:
			cutoff := time.Now().AddDate(0, 0, -config.Retention.Days).UnixMilli()

			if archived, err := store.ArchiveTradesBefore(cutoff); err != nil {
				appLogger.Error("Retention: failed to archive trades: %v", err)
			} else if archived > 0 {
				appLogger.Info("Retention: archived %d trades older than %d days", archived, config.Retention.Days)
			}

			if deleted, err := store.DeletePriceHistoryBefore(cutoff); err != nil {
				appLogger.Error("Retention: failed to delete price history: %v", err)
			} else if deleted > 0 {
				appLogger.Info("Retention: deleted %d price history rows older than %d days", deleted, config.Retention.Days)
			}

		case <-quit:
			appLogger.Info("Shutting down...")
			srv.Stop()
			return
		}
	}
}

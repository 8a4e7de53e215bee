package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"promoscan/internal/api"
	"promoscan/internal/browser"
	"promoscan/internal/config"
	"promoscan/internal/domain"
	"promoscan/internal/extract"
	"promoscan/internal/fallback"
	"promoscan/internal/monitoring"
	"promoscan/internal/sheets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallbackLogger, _ := zap.NewProduction()
		fallbackLogger.Fatal("could not load config", zap.Error(err))
	}

	// Initialize structured logger
	logger, _ := zap.NewProduction()
	if cfg.LogLevel == "debug" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()
	tracker := api.NewTracker()

	// Status server runs for the lifetime of the scan so progress and
	// Prometheus metrics stay observable.
	server := api.NewServer(cfg, tracker, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server stopped", zap.Error(err))
		}
	}()
	logger.Info("status server started", zap.String("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, tracker, metrics, logger); err != nil {
		logger.Error("scan run degraded", zap.Error(err))
		shutdown(server, logger)
		os.Exit(1)
	}

	shutdown(server, logger)
}

func run(ctx context.Context, cfg *config.Config, tracker *api.Tracker, metrics *monitoring.Metrics, logger *zap.Logger) error {
	creds, err := credentials(cfg)
	if err != nil {
		return err
	}

	store, err := sheets.NewGoogleStore(ctx, creds, cfg.SheetID, cfg.WorksheetTitle, logger)
	if err != nil {
		return err
	}

	csv := fallback.New(cfg.FallbackCSVPath, logger)
	engine := sheets.NewEngine(store, csv, logger, metrics)

	// Pre-flight: a present-but-mismatched header fails here, before any
	// browser work is spent.
	if err := engine.CheckSchema(ctx); err != nil {
		return err
	}

	session, err := browser.NewSession(ctx, cfg.Headless, time.Duration(cfg.NavTimeoutSec)*time.Second, logger, metrics)
	if err != nil {
		return err
	}
	defer session.Close()

	pipeline := extract.NewPipeline(session, extract.Catalog(), logger, metrics).
		WithSettleFloor(time.Duration(cfg.SettleMillis) * time.Millisecond)

	countries := cfg.CountryList()
	tracker.StartRun(countries)

	var batch []domain.Record
	for _, cc := range countries {
		if ctx.Err() != nil {
			break
		}
		tracker.LocaleStarted(cc)
		records := pipeline.Run(ctx, cc)
		tracker.LocaleFinished(cc, len(records))
		logger.Info("locale scanned", zap.String("locale", cc), zap.Int("records", len(records)))
		batch = append(batch, records...)
	}

	err = engine.Sync(ctx, batch)
	tracker.RunFinished(err)
	return err
}

func credentials(cfg *config.Config) ([]byte, error) {
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}
	return os.ReadFile(cfg.CredentialsFile)
}

func shutdown(server *api.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("status server forced to shutdown", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/sos-station-harvester/internal/adapter/csvout"
	httpadapter "github.com/couchcryptid/sos-station-harvester/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sos-station-harvester/internal/adapter/kafka"
	"github.com/couchcryptid/sos-station-harvester/internal/adapter/sos"
	"github.com/couchcryptid/sos-station-harvester/internal/config"
	"github.com/couchcryptid/sos-station-harvester/internal/harvest"
	"github.com/couchcryptid/sos-station-harvester/internal/observability"
	"github.com/couchcryptid/sos-station-harvester/internal/sensorml"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := sos.NewClient(cfg.SOSURL, cfg.RequestTimeout, logger)
	parser := sensorml.NewParser(sensorml.DefaultNamespaces())

	// Kafka publishing is feature-flagged via KAFKA_ENABLED.
	var publisher *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewWriter(cfg, logger, metrics)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	h := harvest.New(client, client, parser, logger, metrics, harvest.Options{
		StationURNs:     cfg.StationURNs,
		Workers:         cfg.Workers,
		ContinueOnError: cfg.ContinueOnError,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, h, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run harvests. With no interval configured the service harvests once
	// and exits; otherwise it re-harvests on a ticker until shut down. The
	// result is delivered over the channel so a signal-initiated shutdown
	// still observes a failed harvest.
	harvestErr := make(chan error, 1)
	go func() {
		defer stop()
		harvestErr <- runHarvests(ctx, cfg, h, publisher, logger)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	exitCode := 0
	select {
	case err := <-harvestErr:
		if err != nil {
			logger.Error("harvest error", "error", err)
			exitCode = 1
		}
	case <-shutdownCtx.Done():
		logger.Warn("harvest did not finish before shutdown deadline")
		exitCode = 1
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}

func runHarvests(ctx context.Context, cfg *config.Config, h *harvest.Harvester, publisher *kafkaadapter.Writer, logger *slog.Logger) error {
	if err := harvestOnce(ctx, cfg, h, publisher, logger); err != nil {
		return err
	}
	if cfg.HarvestInterval == 0 {
		return nil
	}

	ticker := time.NewTicker(cfg.HarvestInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := harvestOnce(ctx, cfg, h, publisher, logger); err != nil {
				return err
			}
		}
	}
}

func harvestOnce(ctx context.Context, cfg *config.Config, h *harvest.Harvester, publisher *kafkaadapter.Writer, logger *slog.Logger) error {
	records, err := h.Run(ctx)
	if err != nil {
		return err
	}

	if err := csvout.WriteFile(cfg.OutputPath, records); err != nil {
		return err
	}
	logger.Info("table written", "path", cfg.OutputPath, "rows", records.Len())

	if publisher != nil {
		if err := publisher.PublishRecords(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

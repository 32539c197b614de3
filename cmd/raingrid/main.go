// Command raingrid runs one rainfall batch: daily station tables to monthly
// sums, month point files and month grids.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/rain-grid-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rain-grid-etl/internal/adapter/kafka"
	"github.com/couchcryptid/rain-grid-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/rain-grid-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/rain-grid-etl/internal/config"
	"github.com/couchcryptid/rain-grid-etl/internal/observability"
	"github.com/couchcryptid/rain-grid-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []pipeline.Option

	// Station lookup by name (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxCountry, cfg.MapboxTimeout, metrics, logger)
		opts = append(opts, pipeline.WithLocator(mapbox.NewCachedLocator(client, cfg.MapboxCacheSize, metrics)))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox station lookup enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox station lookup disabled")
	}

	if cfg.UploadEnabled() {
		uploader, err := objectstore.New(cfg, logger)
		if err != nil {
			logger.Error("object store setup failed", "error", err)
			return 1
		}
		if err := uploader.EnsureBucket(ctx); err != nil {
			logger.Error("object store unavailable", "error", err)
			return 1
		}
		opts = append(opts, pipeline.WithPublishers(uploader))
		logger.Info("artifact upload enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}

	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublishers(writer))
		logger.Info("raster events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	runner, err := pipeline.New(cfg, logger, metrics, opts...)
	if err != nil {
		logger.Error("pipeline setup failed", "error", err)
		return 1
	}

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, runner, runner, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	summary := runner.Run(ctx)
	if summary.Aborted() {
		return 1
	}
	return 0
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/openplume/air-quality-etl/internal/adapter/http"
	influxadapter "github.com/openplume/air-quality-etl/internal/adapter/influx"
	kafkaadapter "github.com/openplume/air-quality-etl/internal/adapter/kafka"
	mqttadapter "github.com/openplume/air-quality-etl/internal/adapter/mqtt"
	"github.com/openplume/air-quality-etl/internal/adapter/registry"
	"github.com/openplume/air-quality-etl/internal/adapter/spool"
	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/openplume/air-quality-etl/internal/observability"
	"github.com/openplume/air-quality-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// A bad threshold table must never classify a single reading.
	policy, err := domain.NewPolicy(cfg.Thresholds)
	if err != nil {
		logger.Error("invalid threshold configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ingest source: Kafka consumer group by default, MQTT for fleets whose
	// collectors publish over it (selected via INGEST_SOURCE).
	var (
		extractor      pipeline.BatchExtractor
		closeExtractor func() error
	)
	switch cfg.IngestSource {
	case "mqtt":
		sub := mqttadapter.NewSubscriber(cfg, logger)
		if err := sub.Connect(ctx); err != nil {
			logger.Error("mqtt connect failed", "error", err)
			os.Exit(1)
		}
		extractor = sub
		closeExtractor = sub.Close
		logger.Info("ingesting from mqtt", "broker", cfg.MQTTBrokerURL, "topic", cfg.MQTTTopic)
	default:
		reader := kafkaadapter.NewReader(cfg, logger)
		extractor = reader
		closeExtractor = reader.Close
		logger.Info("ingesting from kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSourceTopic)
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	loaders := []pipeline.BatchLoader{writer}

	// InfluxDB mirror (feature-flagged via INFLUX_ENABLED / INFLUX_TOKEN).
	var influxWriter *influxadapter.Writer
	if cfg.InfluxEnabled {
		influxWriter, err = influxadapter.NewWriter(ctx, cfg, logger)
		if err != nil {
			logger.Error("influxdb connect failed", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, influxWriter)
		logger.Info("influxdb mirror enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	} else {
		logger.Info("influxdb mirror disabled")
	}

	var loader pipeline.BatchLoader = pipeline.NewFanoutLoader(loaders...)

	// Local spool (feature-flagged via SPOOL_ENABLED) rides out sink outages.
	var store *spool.Store
	if cfg.SpoolEnabled {
		store, err = spool.New(cfg, loader, metrics, logger)
		if err != nil {
			logger.Error("spool open failed", "error", err)
			os.Exit(1)
		}
		loader = store
		go store.Start(ctx)
		logger.Info("spool enabled", "path", cfg.SpoolPath, "sync_interval", cfg.SpoolSyncInterval)
	}

	// Station registry enrichment (feature-flagged via STATION_REGISTRY_URL).
	var directory domain.StationDirectory
	if cfg.StationRegistryEnabled {
		client := registry.NewClient(cfg.StationRegistryURL, cfg.StationRegistryToken, cfg.StationRegistryTimeout, logger)
		directory = registry.NewCachedDirectory(client, cfg.StationRegistryCacheSize)
		logger.Info("station registry enabled", "url", cfg.StationRegistryURL, "cache_size", cfg.StationRegistryCacheSize)
	} else {
		logger.Info("station registry disabled")
	}

	transformer := pipeline.NewTransformer(policy, cfg.BreachFloor, cfg.WindowGranularity, directory, logger)

	p := pipeline.New(extractor, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeExtractor(); err != nil {
		logger.Error("extractor close error", "error", err)
	}
	if store != nil {
		// Last drain attempt so a clean shutdown leaves no deliverable
		// events behind, then close while the sinks are still open.
		if _, err := store.Drain(shutdownCtx); err != nil {
			logger.Warn("final spool drain failed", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("spool close error", "error", err)
		}
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if influxWriter != nil {
		if err := influxWriter.Close(); err != nil {
			logger.Error("influxdb writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	IngestSource     string // "kafka" or "mqtt"
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Classification configuration. Thresholds carries the raw breakpoint
	// table; semantic validation happens in domain.NewPolicy at startup.
	Thresholds        map[domain.Pollutant][]domain.Breakpoint
	BreachFloor       domain.Severity
	WindowGranularity time.Duration
	EpisodeMaxGap     time.Duration

	// MQTT ingest configuration.
	MQTTBrokerURL string
	MQTTTopic     string
	MQTTClientID  string
	MQTTUsername  string
	MQTTPassword  string

	// InfluxDB sink configuration.
	InfluxEnabled bool
	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string

	// Offline spool configuration.
	SpoolEnabled      bool
	SpoolPath         string
	SpoolSyncInterval time.Duration
	SpoolRetention    time.Duration

	// Station registry configuration.
	StationRegistryURL       string
	StationRegistryEnabled   bool
	StationRegistryToken     string
	StationRegistryTimeout   time.Duration
	StationRegistryCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	thresholds, err := Thresholds()
	if err != nil {
		return nil, err
	}

	breachFloor, err := parseBreachFloor()
	if err != nil {
		return nil, err
	}

	windowGranularity, err := parsePositiveDuration("WINDOW_GRANULARITY", "1h")
	if err != nil {
		return nil, err
	}

	episodeMaxGap, err := parsePositiveDuration("EPISODE_MAX_GAP", "10m")
	if err != nil {
		return nil, err
	}

	spoolSyncInterval, err := parsePositiveDuration("SPOOL_SYNC_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	spoolRetention, err := parsePositiveDuration("SPOOL_RETENTION", "720h")
	if err != nil {
		return nil, err
	}

	influxToken := os.Getenv("INFLUX_TOKEN")
	influxEnabled := influxToken != ""
	if v := os.Getenv("INFLUX_ENABLED"); v != "" {
		influxEnabled = v == "true"
	}

	registryTimeout, err := parsePositiveDuration("STATION_REGISTRY_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	registryURL := os.Getenv("STATION_REGISTRY_URL")
	registryEnabled := registryURL != ""
	if v := os.Getenv("STATION_REGISTRY_ENABLED"); v != "" {
		registryEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "air-quality-readings"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "classified-air-quality"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "air-quality-etl"),
		IngestSource:       envOrDefault("INGEST_SOURCE", "kafka"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Thresholds:        thresholds,
		BreachFloor:       breachFloor,
		WindowGranularity: windowGranularity,
		EpisodeMaxGap:     episodeMaxGap,

		MQTTBrokerURL: envOrDefault("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTTopic:     envOrDefault("MQTT_TOPIC", "sensors/air-quality/+"),
		MQTTClientID:  envOrDefault("MQTT_CLIENT_ID", "air-quality-etl"),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),

		InfluxEnabled: influxEnabled,
		InfluxURL:     envOrDefault("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:   influxToken,
		InfluxOrg:     envOrDefault("INFLUX_ORG", "openplume"),
		InfluxBucket:  envOrDefault("INFLUX_BUCKET", "air-quality"),

		SpoolEnabled:      os.Getenv("SPOOL_ENABLED") == "true",
		SpoolPath:         envOrDefault("SPOOL_PATH", "spool.db"),
		SpoolSyncInterval: spoolSyncInterval,
		SpoolRetention:    spoolRetention,

		StationRegistryURL:       registryURL,
		StationRegistryEnabled:   registryEnabled,
		StationRegistryToken:     os.Getenv("STATION_REGISTRY_TOKEN"),
		StationRegistryTimeout:   registryTimeout,
		StationRegistryCacheSize: parseRegistryCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	switch cfg.IngestSource {
	case "kafka":
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
	case "mqtt":
		if cfg.MQTTBrokerURL == "" {
			return nil, errors.New("MQTT_BROKER_URL is required")
		}
		if cfg.MQTTTopic == "" {
			return nil, errors.New("MQTT_TOPIC is required")
		}
	default:
		return nil, fmt.Errorf("invalid INGEST_SOURCE: must be kafka or mqtt, got %q", cfg.IngestSource)
	}
	if cfg.InfluxEnabled && cfg.InfluxToken == "" {
		return nil, errors.New("INFLUX_ENABLED is true but INFLUX_TOKEN is not set")
	}
	if cfg.SpoolEnabled && cfg.SpoolPath == "" {
		return nil, errors.New("SPOOL_ENABLED is true but SPOOL_PATH is not set")
	}
	if cfg.StationRegistryEnabled && cfg.StationRegistryURL == "" {
		return nil, errors.New("STATION_REGISTRY_ENABLED is true but STATION_REGISTRY_URL is not set")
	}

	return cfg, nil
}

// Thresholds builds the breakpoint table from the environment: built-in
// defaults, with each THRESHOLDS_<POLLUTANT> variable overriding that
// pollutant's list. An explicitly empty variable yields an empty list,
// which domain.NewPolicy rejects at startup. Exported so the offline
// classify tool applies the same overrides as the service.
func Thresholds() (map[domain.Pollutant][]domain.Breakpoint, error) {
	thresholds := domain.DefaultPolicy().Breakpoints()
	for _, p := range domain.Pollutants() {
		name := "THRESHOLDS_" + strings.ToUpper(string(p))
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		bps, err := parseBreakpoints(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		thresholds[p] = bps
	}
	return thresholds, nil
}

// parseBreakpoints parses a "value:severity" list, e.g. "800:medium,1000:high".
func parseBreakpoints(raw string) ([]domain.Breakpoint, error) {
	if strings.TrimSpace(raw) == "" {
		return []domain.Breakpoint{}, nil
	}

	parts := strings.Split(raw, ",")
	bps := make([]domain.Breakpoint, 0, len(parts))
	for _, part := range parts {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("malformed breakpoint %q, want value:severity", part)
		}
		value, err := strconv.ParseFloat(pair[0], 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("breakpoint value %q is not a finite number", pair[0])
		}
		severity, err := domain.ParseSeverity(pair[1])
		if err != nil {
			return nil, err
		}
		bps = append(bps, domain.Breakpoint{Value: value, Severity: severity})
	}
	return bps, nil
}

func parseBreachFloor() (domain.Severity, error) {
	raw := envOrDefault("BREACH_FLOOR", "medium")
	floor, err := domain.ParseSeverity(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid BREACH_FLOOR: %w", err)
	}
	return floor, nil
}

func parseRegistryCacheSize() int {
	if s := os.Getenv("STATION_REGISTRY_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

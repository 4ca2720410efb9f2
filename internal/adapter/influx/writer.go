// Package influx mirrors classified events into InfluxDB for dashboards.
// Kafka stays the system of record; this sink exists so Grafana panels can
// query per-station time series without a Kafka consumer.
package influx

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
)

const measurement = "air_quality"

// Writer persists classified events as InfluxDB points.
// It implements pipeline.BatchLoader.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *slog.Logger
}

// NewWriter connects to InfluxDB and verifies credentials with a health
// check, failing fast on a bad URL or token. The blocking write API is
// used deliberately: write errors must surface to the pipeline so it can
// back off and replay the batch.
func NewWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}

	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger:   logger,
	}, nil
}

// LoadBatch writes one point per classified event, stamped with the
// reading's own timestamp so replays land on the same series point.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.ClassifiedEvent) error {
	if len(events) == 0 {
		return nil
	}
	points := make([]*write.Point, len(events))
	for i := range events {
		points[i] = eventToPoint(events[i])
	}
	return w.writeAPI.WritePoint(ctx, points...)
}

func (w *Writer) Close() error {
	w.client.Close()
	return nil
}

// eventToPoint maps a classified event to a point. Station and severity
// are tags so panels can group by them; concentrations and the derived
// risk score are fields.
func eventToPoint(event domain.ClassifiedEvent) *write.Point {
	return write.NewPoint(
		measurement,
		map[string]string{
			"station":  event.Station,
			"severity": event.Overall.String(),
		},
		map[string]any{
			"co2":        event.CO2,
			"no2":        event.NO2,
			"so2":        event.SO2,
			"risk_score": domain.RiskScore(event.Reading),
			"breach":     event.Breach,
		},
		event.Timestamp,
	)
}

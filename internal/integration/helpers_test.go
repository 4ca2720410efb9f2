//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/openplume/air-quality-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address. The container is terminated when the test finishes.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRecords returns a fixed fleet snapshot whose classifications under
// the default policy are known: 7 low, 3 medium, 2 high.
func testRecords() []domain.Record {
	base := time.Date(2024, time.June, 5, 8, 0, 0, 0, time.UTC)
	rec := func(station string, minutes int, co2, no2, so2 float64) domain.Record {
		return domain.Record{
			"station":   station,
			"timestamp": base.Add(time.Duration(minutes) * time.Minute).Format(time.RFC3339),
			"co2":       co2,
			"no2":       no2,
			"so2":       so2,
		}
	}
	return []domain.Record{
		rec("station-north", 0, 420, 31, 8),
		rec("station-north", 30, 480, 36, 9),
		rec("station-north", 60, 850, 42, 11),  // medium: co2
		rec("station-north", 90, 1200, 48, 12), // high: co2
		rec("station-south", 0, 410, 28, 14),
		rec("station-south", 30, 445, 150, 16), // medium: no2
		rec("station-south", 60, 460, 52, 18),
		rec("station-south", 90, 430, 44, 600), // high: so2
		rec("station-harbor", 0, 395, 22, 40),
		rec("station-harbor", 30, 405, 25, 55),
		rec("station-harbor", 60, 415, 27, 300), // medium: so2
		rec("station-harbor", 90, 400, 24, 90),
	}
}

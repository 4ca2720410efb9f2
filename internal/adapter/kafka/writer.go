package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes classified events to the sink Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the batch in a single WriteMessages
// call. Message keys carry the deterministic event ID, so replays after a
// partial failure land on the same partitions and downstream consumers
// can collapse duplicates.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.ClassifiedEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a classified event into a Kafka message.
// Headers are emitted in sorted key order so the wire format is stable.
func serializeToMessage(event domain.ClassifiedEvent) (kafkago.Message, error) {
	out, err := domain.SerializeClassifiedEvent(event)
	if err != nil {
		return kafkago.Message{}, err
	}

	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}

	return kafkago.Message{Key: out.Key, Value: out.Value, Headers: headers}, nil
}

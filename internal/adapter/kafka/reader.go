package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes raw readings from the source Kafka topic as part of a
// consumer group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly by the pipeline, never on an interval,
// so a crash replays uncommitted readings instead of dropping them.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaSourceTopic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafkago.FirstOffset,
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch blocks until at least one message arrives, then keeps
// fetching until the batch is full or the flush interval elapses. The
// partial flush keeps end-to-end latency bounded on quiet topics.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]domain.RawEvent, 0, batchSize)
	events = append(events, r.toRawEvent(first))

	batchCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(events) < batchSize {
		msg, err := r.reader.FetchMessage(batchCtx)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				r.logger.Warn("fetch message failed mid-batch", "error", err)
			}
			break
		}
		events = append(events, r.toRawEvent(msg))
	}

	return events, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// toRawEvent maps a Kafka message and attaches its offset commit.
func (r *Reader) toRawEvent(msg kafkago.Message) domain.RawEvent {
	raw := mapMessageToRawEvent(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawEvent copies the wire-level fields of a Kafka message
// into the pipeline's raw event shape.
func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}

// Package mqtt ingests raw readings from an MQTT broker, for deployments
// where station collectors publish over MQTT instead of Kafka.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
)

const (
	// At-least-once delivery. The pipeline's deterministic IDs make the
	// occasional redelivery harmless downstream.
	atLeastOnce = byte(1)

	// Readings held between ExtractBatch calls. MQTT has no offsets to
	// replay, so under sustained overload we drop with a warning rather
	// than grow without bound.
	eventBufferSize = 1024
)

// Subscriber consumes readings from an MQTT topic.
// It implements pipeline.BatchExtractor.
type Subscriber struct {
	client        paho.Client
	cfg           *config.Config
	logger        *slog.Logger
	flushInterval time.Duration
	events        chan domain.RawEvent

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSubscriber(cfg *config.Config, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		cfg:           cfg,
		logger:        logger,
		flushInterval: cfg.BatchFlushInterval,
		events:        make(chan domain.RawEvent, eventBufferSize),
		stopCh:        make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Subscribing inside the connect callback restores the subscription
	// after every reconnect, not just the first connect.
	opts.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBrokerURL)
		token := c.Subscribe(cfg.MQTTTopic, atLeastOnce, s.handleMessage)
		if !token.WaitTimeout(5 * time.Second) {
			logger.Error("mqtt subscribe timeout", "topic", cfg.MQTTTopic)
			return
		}
		if err := token.Error(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "error", err)
			return
		}
		logger.Info("subscribed to mqtt topic", "topic", cfg.MQTTTopic, "qos", atLeastOnce)
	})

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = paho.NewClient(opts)
	return s
}

// Connect establishes the broker connection, waiting in a ctx-aware loop
// since paho tokens do not take contexts.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errors.New("subscriber stopped")
	default:
	}

	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return errors.New("subscriber stopped")
		default:
		}
	}
}

// ExtractBatch blocks until at least one reading is buffered, then keeps
// draining until the batch is full or the flush interval elapses.
func (s *Subscriber) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	var first domain.RawEvent
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, errors.New("subscriber stopped")
	case first = <-s.events:
	}

	events := make([]domain.RawEvent, 0, batchSize)
	events = append(events, first)

	flush := time.NewTimer(s.flushInterval)
	defer flush.Stop()

	for len(events) < batchSize {
		select {
		case <-ctx.Done():
			return events, nil
		case <-s.stopCh:
			return events, nil
		case <-flush.C:
			return events, nil
		case ev := <-s.events:
			events = append(events, ev)
		}
	}
	return events, nil
}

// Close is idempotent and safe to call while Connect or ExtractBatch block.
func (s *Subscriber) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.logger.Info("mqtt subscriber disconnected")
	return nil
}

// handleMessage buffers an incoming reading. There are no offsets to
// commit on this path, so RawEvent.Commit stays nil.
func (s *Subscriber) handleMessage(_ paho.Client, msg paho.Message) {
	raw := domain.RawEvent{
		Value:     msg.Payload(),
		Topic:     msg.Topic(),
		Timestamp: time.Now(),
	}

	select {
	case s.events <- raw:
	default:
		s.logger.Warn("event buffer full, dropping reading", "topic", msg.Topic())
	}
}

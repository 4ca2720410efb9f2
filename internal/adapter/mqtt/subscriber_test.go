package mqtt

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessage implements paho.Message without a broker.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return atLeastOnce }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func newTestSubscriber(bufferSize int, flushInterval time.Duration) *Subscriber {
	return &Subscriber{
		logger:        slog.Default(),
		flushInterval: flushInterval,
		events:        make(chan domain.RawEvent, bufferSize),
		stopCh:        make(chan struct{}),
	}
}

func TestHandleMessage_BuffersReading(t *testing.T) {
	s := newTestSubscriber(8, 20*time.Millisecond)
	s.handleMessage(nil, fakeMessage{
		topic:   "sensors/air-quality/station-7",
		payload: []byte(`{"station":"station-7"}`),
	})

	events, err := s.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "sensors/air-quality/station-7", events[0].Topic)
	assert.JSONEq(t, `{"station":"station-7"}`, string(events[0].Value))
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Nil(t, events[0].Commit)
}

func TestHandleMessage_DropsWhenFull(t *testing.T) {
	s := newTestSubscriber(1, 20*time.Millisecond)
	s.handleMessage(nil, fakeMessage{topic: "t", payload: []byte("kept")})
	s.handleMessage(nil, fakeMessage{topic: "t", payload: []byte("dropped")})

	events, err := s.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []byte("kept"), events[0].Value)
}

func TestExtractBatch_StopsAtBatchSize(t *testing.T) {
	s := newTestSubscriber(8, time.Second)
	for i := 0; i < 5; i++ {
		s.handleMessage(nil, fakeMessage{topic: "t", payload: []byte{byte('a' + i)}})
	}

	events, err := s.ExtractBatch(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	rest, err := s.ExtractBatch(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestExtractBatch_FlushesPartialBatch(t *testing.T) {
	s := newTestSubscriber(8, 10*time.Millisecond)
	s.handleMessage(nil, fakeMessage{topic: "t", payload: []byte("only")})

	start := time.Now()
	events, err := s.ExtractBatch(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Less(t, time.Since(start), time.Second, "partial batch must flush on the interval")
}

func TestExtractBatch_ContextCancelled(t *testing.T) {
	s := newTestSubscriber(8, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, err := s.ExtractBatch(ctx, 10)
	assert.Nil(t, events)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractBatch_Stopped(t *testing.T) {
	s := newTestSubscriber(8, time.Second)
	close(s.stopCh)

	events, err := s.ExtractBatch(context.Background(), 10)
	assert.Nil(t, events)
	assert.Error(t, err)
}

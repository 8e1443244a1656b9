package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingWriter struct {
	msgs     []kafka.Message
	deadline bool
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{Action: "delete", Entity: "family_tree", EntityID: 9, ActorID: 1, OccurredAt: at})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.True(t, w.deadline)
	assert.Equal(t, "family_tree:9", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "delete", got.Action)
	assert.Equal(t, uint(9), got.EntityID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducerPropagatesWriteError(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{err: errors.New("broker down")})
	assert.EqualError(t, p.Publish(context.Background(), Event{}), "broker down")
}

func TestNilProducerSkips(t *testing.T) {
	var p *Producer
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}

func TestNewWithoutBrokerIsNoop(t *testing.T) {
	pub := New(&config.EventsConfig{Topic: "audit"})
	assert.IsType(t, Noop{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), Event{}))

	pub = New(&config.EventsConfig{Broker: "localhost:9092", Topic: "audit"})
	assert.IsType(t, &Producer{}, pub)
	// constructing the writer opens no connection
	assert.NoError(t, pub.Close())
}

package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqplib "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	published []published
	err       error
	closed    bool
}

type published struct {
	exchange string
	key      string
	msg      amqplib.Publishing
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqplib.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublishRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "quiz.events", nil)
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return ts }

	err := p.Publish(context.Background(), "quiz.completed", map[string]any{"score": 3})
	require.NoError(t, err)
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, "quiz.events", got.exchange)
	assert.Equal(t, "quiz.completed", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "quiz.completed", body["type"])
	assert.Equal(t, got.msg.MessageId, body["id"])
	assert.Equal(t, "2024-03-01T09:00:00Z", body["occurredAt"])
	assert.Equal(t, map[string]any{"score": float64(3)}, body["payload"])
}

func TestPublishReturnsChannelErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, "quiz.events", nil)
	assert.EqualError(t, p.Publish(context.Background(), "quiz.started", nil), "channel closed")
}

func TestPublishHonoursCanceledContext(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "quiz.events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "quiz.started", nil), context.Canceled)
	assert.Empty(t, ch.published)

	p.Close()
	assert.True(t, ch.closed)
}

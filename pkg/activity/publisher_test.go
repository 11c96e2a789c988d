package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeChannel struct {
	exchange  string
	key       string
	published []amqp.Publishing
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.key = key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	publisher := &amqpPublisher{logger: slog.Default(), channel: ch, exchange: "gatherly.activity"}
	actor := primitive.NewObjectID()
	subject := primitive.NewObjectID()

	publisher.Publish(context.Background(), New(EventAttended, actor, subject))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "gatherly.activity", ch.exchange)
	assert.Equal(t, "event.attended", ch.key)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	var got Activity
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.Equal(t, EventAttended, got.Type)
	assert.Equal(t, actor, got.Actor)
	assert.Equal(t, subject, got.Subject)
}

func TestAMQPPublisher_PublishFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ch := &fakeChannel{err: errors.New("channel closed")}
	publisher := &amqpPublisher{logger: logger, channel: ch, exchange: "gatherly.activity"}

	publisher.Publish(context.Background(), New(GroupJoined, primitive.NewObjectID(), primitive.NewObjectID()))

	assert.Contains(t, buf.String(), "Failed to publish activity")
	assert.Contains(t, buf.String(), "channel closed")
}

func TestAMQPPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	publisher := &amqpPublisher{logger: slog.Default(), channel: ch}

	require.NoError(t, publisher.Close())

	assert.True(t, ch.closed)
}

func TestNoopPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoopPublisher().Publish(context.Background(), New(MessageSent, primitive.NewObjectID(), primitive.NewObjectID()))
	})
}

// Package activity publishes records of user activity to a RabbitMQ topic exchange. Consumers such
// as feeds or notification workers bind to the routing keys they care about.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Type string

const (
	EventAttended Type = "event.attended"
	EventLeft     Type = "event.left"
	GroupJoined   Type = "group.joined"
	MessageSent   Type = "message.sent"
)

// Activity is the JSON body of a published message. The routing key is the activity type.
type Activity struct {
	Type       Type               `json:"type"`
	Actor      primitive.ObjectID `json:"actor"`
	Subject    primitive.ObjectID `json:"subject"`
	OccurredAt time.Time          `json:"occurredAt"`
}

func New(activityType Type, actor, subject primitive.ObjectID) Activity {
	return Activity{
		Type:       activityType,
		Actor:      actor,
		Subject:    subject,
		OccurredAt: time.Now(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, activity Activity)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewAMQPPublisher(logger *slog.Logger, url string, exchange string) (*amqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %v", err)
	}

	err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %v", exchange, err)
	}

	return &amqpPublisher{
		logger:   logger,
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

type amqpPublisher struct {
	logger   *slog.Logger
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  channel
	exchange string
}

// Publish is fire and forget. Failures are logged and never returned.
func (p *amqpPublisher) Publish(ctx context.Context, activity Activity) {
	body, err := json.Marshal(activity)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to marshal activity", "type", activity.Type, "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, string(activity.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    activity.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish activity", "type", activity.Type, "error", err)
	}
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NewNoopPublisher returns a publisher used when no broker is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Activity) {}

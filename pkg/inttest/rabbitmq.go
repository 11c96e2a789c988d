package inttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/docker/go-connections/nat"
	amqpgo "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const amqpPort = "5672"
const natAMQPPort = amqpPort + "/tcp"

// SetupRabbitMQAMQP creates a RabbitMQ container with an AMQP client ready to consume the messages
// published to it. The management UI is exposed as well, find its mapped port to debug a test.
func SetupRabbitMQAMQP(t *testing.T) *AMQP {
	t.Helper()
	require := require.New(t)
	ctx := context.Background()

	rabbitMQContainer, err := NewRabbitMQ(ctx)
	t.Cleanup(func() {
		if rabbitMQContainer != nil {
			require.NoError(rabbitMQContainer.Terminate(ctx), "failed to terminate RabbitMQ")
		}
	})
	require.NoError(err, "failed setting up RabbitMQ")

	URI, err := rabbitMQContainer.AMQPURI(ctx)
	require.NoError(err, "failed to get RabbitMQ AMQP URI")
	conn, err := amqpgo.Dial(URI)
	require.NoError(err, "failed setting up AMQP connection")
	t.Cleanup(func() { _ = conn.Close() })
	channel, err := conn.Channel()
	require.NoError(err, "failed setting up AMQP channel")

	return &AMQP{
		URI:     URI,
		conn:    conn,
		Channel: channel,
	}
}

// AMQP allows making requests to RabbitMQ. It does so by opening a connection and channel to
// RabbitMQ via the low-level github.com/rabbitmq/amqp091-go library.
type AMQP struct {
	URI     string
	conn    *amqpgo.Connection
	Channel *amqpgo.Channel
}

// Bind declares an exclusive queue bound to exchange with given routing key and returns its
// deliveries. The exchange has to exist.
func (a *AMQP) Bind(t *testing.T, exchange, routingKey string) <-chan amqpgo.Delivery {
	t.Helper()

	queue, err := a.Channel.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err, "failed to declare queue")
	err = a.Channel.QueueBind(queue.Name, routingKey, exchange, false, nil)
	require.NoErrorf(t, err, "failed to bind queue to exchange %q", exchange)
	deliveries, err := a.Channel.Consume(queue.Name, "", true, true, false, false, nil)
	require.NoError(t, err, "failed to consume queue")
	return deliveries
}

type rabbitmqContainer struct {
	testcontainers.Container
	user string
	pw   string
}

func (rc *rabbitmqContainer) AMQPURI(ctx context.Context) (string, error) {
	ip, err := rc.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := rc.MappedPort(ctx, nat.Port(natAMQPPort))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s", rc.user, rc.pw, ip, port.Port()), nil
}

// NewRabbitMQ creates a RabbitMQ container. The container will be listening and ready to accept
// connections with the default user and password guest.
func NewRabbitMQ(ctx context.Context) (*rabbitmqContainer, error) {
	user := "guest"
	pw := "guest"
	req := testcontainers.ContainerRequest{
		Image: "rabbitmq:3.13-management-alpine",
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": user,
			"RABBITMQ_DEFAULT_PASS": pw,
		},
		ExposedPorts: []string{natAMQPPort, "15672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	return &rabbitmqContainer{
		Container: container,
		user:      user,
		pw:        pw,
	}, nil
}

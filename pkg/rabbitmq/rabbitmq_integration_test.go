//go:build integration
// +build integration

package rabbitmq_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRabbitMQ(t *testing.T) string {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestPublishAndConsume(t *testing.T) {
	url := setupRabbitMQ(t)

	publisher, err := rabbitmq.NewClient(rabbitmq.Config{URL: url})
	require.NoError(t, err)
	defer publisher.Close()

	consumer, err := rabbitmq.NewClient(rabbitmq.Config{URL: url})
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	received := make(chan amqp.Delivery, 2)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(ready)
		done <- consumer.Consume(ctx, "test.order-events", []string{"order.created"}, func(msg amqp.Delivery) error {
			received <- msg
			return nil
		})
	}()
	<-ready
	// Give the consumer time to declare and bind its queue.
	time.Sleep(time.Second)

	require.NoError(t, publisher.Publish(rabbitmq.OrdersExchange, "order.deleted", []byte(`{"event":"order.deleted"}`)))
	require.NoError(t, publisher.Publish(rabbitmq.OrdersExchange, "order.created", []byte(`{"event":"order.created"}`)))

	select {
	case msg := <-received:
		assert.Equal(t, "order.created", msg.RoutingKey)
		assert.Equal(t, "application/json", msg.ContentType)
		assert.JSONEq(t, `{"event":"order.created"}`, string(msg.Body))
	case <-ctx.Done():
		t.Fatal("timed out waiting for the order.created event")
	}

	select {
	case msg := <-received:
		t.Fatalf("unexpected delivery with key %s", msg.RoutingKey)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	assert.NoError(t, <-done)
}

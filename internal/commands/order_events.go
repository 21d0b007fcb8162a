package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"storefront/internal/models"
	"storefront/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

var (
	// order-events flags
	eventsQueue    string
	eventsBindings []string
)

var orderEventsCmd = &cobra.Command{
	Use:   "order-events",
	Short: "Log order lifecycle events published by the order service",
	Long: `Consume order.created, order.updated and order.deleted events from the
"orders" topic exchange and log them.

Examples:
  storefront order-events
  storefront order-events --binding order.created`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required")
		}

		ctx, cancel := signalContext()
		defer cancel()

		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return err
		}
		defer mqClient.Close()

		return mqClient.Consume(ctx, eventsQueue, eventsBindings, handleOrderEvent)
	},
}

func init() {
	rootCmd.AddCommand(orderEventsCmd)

	orderEventsCmd.Flags().StringVar(&eventsQueue, "queue", "storefront.order-events", "Queue to consume from")
	orderEventsCmd.Flags().StringSliceVar(&eventsBindings, "binding", []string{"order.*"}, "Routing key patterns to bind")
}

// handleOrderEvent logs one event. Undecodable messages are rejected.
func handleOrderEvent(msg amqp.Delivery) error {
	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed order event: %w", err)
	}
	if event.Event != msg.RoutingKey {
		log.Printf("Event %q arrived with routing key %q", event.Event, msg.RoutingKey)
	}

	log.Printf("Order event %s: order %s owner %s product %s quantity %d total %s at %s",
		event.Event, event.OrderID, event.OwnerID, event.ProductID, event.Quantity,
		event.Total.StringFixed(2), event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceLookup resolves the current price of a product. ok is false when the
// price is unknown for any reason.
type PriceLookup interface {
	GetPrice(ctx context.Context, productID uuid.UUID) (price decimal.Decimal, ok bool)
}

// EventPublisher publishes a message to a broker exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderService orchestrates order creation and updates around the price lookup
// and enforces that only the owner may see or change an order.
type OrderService struct {
	orderRepo repositories.OrderRepository
	prices    PriceLookup
	publisher EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, prices PriceLookup, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		prices:    prices,
		publisher: publisher,
		now:       time.Now,
	}
}

// ListForOwner returns the owner's orders, newest first.
func (s *OrderService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	return s.orderRepo.ListByOwner(ctx, ownerID)
}

// GetOrder returns the order if it exists and belongs to ownerID.
func (s *OrderService) GetOrder(ctx context.Context, id, ownerID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.OwnerID != ownerID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CreateOrder prices and persists a new order for ownerID.
// Nothing is written when the price cannot be resolved.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest, ownerID uuid.UUID) (*models.Order, error) {
	total, err := s.priceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	orderDate := s.now().UTC()
	if req.OrderDate != nil {
		orderDate = req.OrderDate.UTC()
	}

	order := &models.Order{
		ID:        uuid.New(),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Total:     total,
		ClientID:  req.ClientID,
		OrderDate: orderDate,
		OwnerID:   ownerID,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publish(models.OrderCreated, order)
	return order, nil
}

// UpdateOrder re-prices and overwrites an order owned by ownerID.
// The stored order is left unchanged when the price cannot be resolved.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req models.OrderRequest, ownerID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	total, err := s.priceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	order.ProductID = req.ProductID
	order.Quantity = req.Quantity
	order.Total = total
	order.ClientID = req.ClientID
	if req.OrderDate != nil {
		order.OrderDate = req.OrderDate.UTC()
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}

	s.publish(models.OrderUpdated, order)
	return order, nil
}

// DeleteOrder removes an order owned by ownerID.
func (s *OrderService) DeleteOrder(ctx context.Context, id, ownerID uuid.UUID) error {
	order, err := s.GetOrder(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	s.publish(models.OrderDeleted, order)
	return nil
}

func (s *OrderService) priceOrder(ctx context.Context, req models.OrderRequest) (decimal.Decimal, error) {
	price, ok := s.prices.GetPrice(ctx, req.ProductID)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: product %s", ErrProductUnresolved, req.ProductID)
	}
	return price.Mul(decimal.NewFromInt(int64(req.Quantity))), nil
}

// publish is best-effort: the order is already committed.
func (s *OrderService) publish(event string, order *models.Order) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(models.OrderEvent{
		Event:      event,
		OrderID:    order.ID,
		OwnerID:    order.OwnerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Total:      order.Total,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", event, order.ID, err)
		return
	}

	if err := s.publisher.Publish(rabbitmq.OrdersExchange, event, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", event, order.ID, err)
		return
	}
	log.Printf("Published %s event for order %s", event, order.ID)
}

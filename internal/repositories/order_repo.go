package repositories

import (
	"context"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListByOwner returns the owner's orders, newest order date first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

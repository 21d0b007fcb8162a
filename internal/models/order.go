package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a single-product order owned by the employee who placed it.
type Order struct {
	ID        uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	ProductID uuid.UUID       `json:"productId" gorm:"type:uuid;not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(18,2);not null"`
	ClientID  uuid.UUID       `json:"clientId" gorm:"type:uuid;not null"`
	OrderDate time.Time       `json:"orderDate" gorm:"not null"`
	OwnerID   uuid.UUID       `json:"ownerId" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

// OrderRequest is the body of order create and update calls.
// OrderDate is optional: creation defaults it to now, updates keep the stored one.
type OrderRequest struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	Quantity  int        `json:"quantity" validate:"min=1"`
	ClientID  uuid.UUID  `json:"clientId" validate:"required"`
	OrderDate *time.Time `json:"orderDate,omitempty"`
}

// OrderEvent is published to the broker after an order changes.
type OrderEvent struct {
	Event      string          `json:"event"`
	OrderID    uuid.UUID       `json:"orderId"`
	OwnerID    uuid.UUID       `json:"ownerId"`
	ProductID  uuid.UUID       `json:"productId"`
	Quantity   int             `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurredAt"`
}

const (
	OrderCreated = "order.created"
	OrderUpdated = "order.updated"
	OrderDeleted = "order.deleted"
)

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalogue.
type Product struct {
	ID        uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string          `json:"name" gorm:"type:varchar(200);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(18,2);not null"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

// ProductRequest is the body of product create and update calls.
type ProductRequest struct {
	Name  string          `json:"name" validate:"required,notblank,max=200"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

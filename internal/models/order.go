package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

type Order struct {
	ID              string          `json:"id"`
	Items           []OrderItem     `json:"order_items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Total           decimal.Decimal `json:"total"`
	UserID          string          `json:"user"`
	Email           string          `json:"email,omitempty"`
	Name            string          `json:"name"`
	PhoneNumber     string          `json:"phone_number"`
	Address         string          `json:"address"`
	Status          string          `json:"status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem est une copie figée du panier au moment de la commande.
type OrderItem struct {
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	ProductID string          `json:"product"`
}

// LineTotal = quantité × prix unitaire.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderView est la forme renvoyée à l'utilisateur pour son historique,
// avec les produits complets.
type OrderView struct {
	Order
	Items []OrderItemView `json:"order_items"`
}

type OrderItemView struct {
	OrderItem
	Product *Product `json:"product"`
}

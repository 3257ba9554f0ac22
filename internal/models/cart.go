package models

import "github.com/shopspring/decimal"

type Cart struct {
	UserID      string          `json:"user_id"`
	Items       []CartItem      `json:"items"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	SKUID     string `json:"sku_id"`
	Quantity  int    `json:"quantity"`
}

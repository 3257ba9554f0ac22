package models

import "github.com/shopspring/decimal"

// PlaceholderImage est utilisée quand un produit n'a aucune image.
const PlaceholderImage = "/images/product-placeholder.png"

type Product struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
	SKUs   []SKU    `json:"skus"`
}

type SKU struct {
	ID       string `json:"id"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Price    Price  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Price : Discount est une fraction (0.1 = -10%).
type Price struct {
	Base     decimal.Decimal `json:"base"`
	Discount decimal.Decimal `json:"discount"`
}

// Effective retourne le prix unitaire après remise.
func (p Price) Effective() decimal.Decimal {
	return p.Base.Mul(decimal.NewFromInt(1).Sub(p.Discount))
}

// SKUByID retourne le SKU demandé ou nil.
func (p *Product) SKUByID(id string) *SKU {
	for i := range p.SKUs {
		if p.SKUs[i].ID == id {
			return &p.SKUs[i]
		}
	}
	return nil
}

// CoverImage retourne la première image ou le placeholder.
func (p *Product) CoverImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return PlaceholderImage
}

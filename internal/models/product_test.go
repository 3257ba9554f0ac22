package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceEffective(t *testing.T) {
	p := Price{Base: decimal.NewFromInt(100), Discount: decimal.RequireFromString("0.1")}
	assert.True(t, decimal.NewFromInt(90).Equal(p.Effective()), "got %s", p.Effective())

	noDiscount := Price{Base: decimal.RequireFromString("19.99")}
	assert.True(t, decimal.RequireFromString("19.99").Equal(noDiscount.Effective()))
}

func TestProductSKUByID(t *testing.T) {
	p := Product{SKUs: []SKU{{ID: "s1", Quantity: 3}, {ID: "s2", Quantity: 1}}}

	sku := p.SKUByID("s2")
	if assert.NotNil(t, sku) {
		sku.Quantity = 0
		assert.Equal(t, 0, p.SKUs[1].Quantity, "SKUByID must return a pointer into the product")
	}
	assert.Nil(t, p.SKUByID("missing"))
}

func TestProductCoverImage(t *testing.T) {
	assert.Equal(t, PlaceholderImage, (&Product{}).CoverImage())
	assert.Equal(t, PlaceholderImage, (&Product{Images: []string{""}}).CoverImage())
	assert.Equal(t, "/img/a.png", (&Product{Images: []string{"/img/a.png", "/img/b.png"}}).CoverImage())
}

// Package scylla implémente les stores produits, commandes et audit sur ScyllaDB.
package scylla

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"cedra_orders/internal/models"
	"cedra_orders/internal/store"
)

// maxCASRetries borne les tentatives de compare-and-set d'une décrémentation
// sur un SKU très disputé. Une remise en stock, elle, insiste jusqu'à
// l'annulation du contexte.
const maxCASRetries = 5

// stockQuerier isole les deux requêtes du compare-and-set de stock.
type stockQuerier interface {
	readQuantity(ctx context.Context, pid, sid gocql.UUID) (int, error)
	// casQuantity écrit next si la quantité vaut toujours expected et
	// retourne sinon la valeur courante.
	casQuantity(ctx context.Context, pid, sid gocql.UUID, next, expected int) (applied bool, current int, err error)
}

type sessionStock struct {
	session *gocql.Session
}

func (s sessionStock) readQuantity(ctx context.Context, pid, sid gocql.UUID) (int, error) {
	var quantity int
	err := s.session.Query(`SELECT quantity FROM product_skus WHERE product_id = ? AND sku_id = ?`, pid, sid).
		WithContext(ctx).
		Scan(&quantity)
	return quantity, err
}

func (s sessionStock) casQuantity(ctx context.Context, pid, sid gocql.UUID, next, expected int) (bool, int, error) {
	var current int
	applied, err := s.session.Query(`UPDATE product_skus SET quantity = ?
		WHERE product_id = ? AND sku_id = ? IF quantity = ?`, next, pid, sid, expected).
		WithContext(ctx).
		ScanCAS(&current)
	return applied, current, err
}

type Products struct {
	session *gocql.Session
	stock   stockQuerier
}

func NewProducts(session *gocql.Session) *Products {
	return &Products{session: session, stock: sessionStock{session: session}}
}

func (p *Products) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	productID, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	product := models.Product{ID: id}
	err = p.session.Query(`SELECT name, image_urls FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).
		Scan(&product.Name, &product.Images)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", id, err)
	}

	iter := p.session.Query(`SELECT sku_id, color, size, price_base, price_discount, quantity
		FROM product_skus WHERE product_id = ?`, productID).WithContext(ctx).Iter()

	var (
		skuID          gocql.UUID
		color, size    string
		base, discount *inf.Dec
		quantity       int
	)
	for iter.Scan(&skuID, &color, &size, &base, &discount, &quantity) {
		product.SKUs = append(product.SKUs, models.SKU{
			ID:    skuID.String(),
			Color: color,
			Size:  size,
			Price: models.Price{
				Base:     fromCQLDecimal(base),
				Discount: fromCQLDecimal(discount),
			},
			Quantity: quantity,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture SKUs %s: %w", id, err)
	}

	return &product, nil
}

// DecrementSKU retire qty du stock via une transaction légère (LWT) :
// la mise à jour n'est appliquée que si la quantité lue n'a pas bougé.
func (p *Products) DecrementSKU(ctx context.Context, productID, skuID string, qty int) (int, error) {
	return p.adjust(ctx, productID, skuID, -qty)
}

// RestockSKU remet qty en stock (compensation d'une commande avortée).
func (p *Products) RestockSKU(ctx context.Context, productID, skuID string, qty int) error {
	_, err := p.adjust(ctx, productID, skuID, qty)
	return err
}

func (p *Products) adjust(ctx context.Context, productID, skuID string, delta int) (int, error) {
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return 0, store.ErrNotFound
	}
	sid, err := gocql.ParseUUID(skuID)
	if err != nil {
		return 0, store.ErrNotFound
	}

	current, err := p.stock.readQuantity(ctx, pid, sid)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lecture stock %s/%s: %w", productID, skuID, err)
	}

	for attempt := 1; delta > 0 || attempt <= maxCASRetries; attempt++ {
		next := current + delta
		if next < 0 {
			return current, store.ErrInsufficientStock
		}

		applied, latest, err := p.stock.casQuantity(ctx, pid, sid, next, current)
		if err != nil {
			return 0, fmt.Errorf("mise à jour stock %s/%s: %w", productID, skuID, err)
		}
		if applied {
			return next, nil
		}
		if err := ctx.Err(); err != nil {
			return latest, fmt.Errorf("stock %s/%s non modifié: %w", productID, skuID, err)
		}
		current = latest
		log.Printf("🔁 Stock %s/%s modifié en concurrence (tentative %d), nouvelle valeur %d",
			productID, skuID, attempt, current)
	}

	return current, fmt.Errorf("stock %s/%s après %d tentatives: %w", productID, skuID, maxCASRetries, store.ErrStockContended)
}

// Package memstore fournit des stores en mémoire, utilisés en développement
// (STORE_BACKEND=memory) et dans les tests.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"cedra_orders/internal/models"
	"cedra_orders/internal/store"
)

// Products stocke les produits et applique les décrémentations de stock
// sous verrou.
type Products struct {
	mu       sync.Mutex
	products map[string]*models.Product
}

func NewProducts(products ...models.Product) *Products {
	p := &Products{products: make(map[string]*models.Product)}
	for _, prod := range products {
		p.Put(prod)
	}
	return p
}

// Put remplace ou ajoute un produit.
func (p *Products) Put(product models.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := cloneProduct(&product)
	p.products[product.ID] = cp
}

// Delete retire un produit du catalogue.
func (p *Products) Delete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.products, id)
}

func (p *Products) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prod, ok := p.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProduct(prod), nil
}

func (p *Products) DecrementSKU(ctx context.Context, productID, skuID string, qty int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sku, err := p.sku(productID, skuID)
	if err != nil {
		return 0, err
	}
	if qty < 1 || sku.Quantity < qty {
		return sku.Quantity, store.ErrInsufficientStock
	}
	sku.Quantity -= qty
	return sku.Quantity, nil
}

func (p *Products) RestockSKU(ctx context.Context, productID, skuID string, qty int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	sku, err := p.sku(productID, skuID)
	if err != nil {
		return err
	}
	sku.Quantity += qty
	return nil
}

// Stock retourne la quantité courante d'un SKU, -1 s'il n'existe pas.
func (p *Products) Stock(productID, skuID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sku, err := p.sku(productID, skuID)
	if err != nil {
		return -1
	}
	return sku.Quantity
}

func (p *Products) sku(productID, skuID string) (*models.SKU, error) {
	prod, ok := p.products[productID]
	if !ok {
		return nil, fmt.Errorf("produit %s: %w", productID, store.ErrNotFound)
	}
	sku := prod.SKUByID(skuID)
	if sku == nil {
		return nil, fmt.Errorf("sku %s: %w", skuID, store.ErrNotFound)
	}
	return sku, nil
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.SKUs = append([]models.SKU(nil), p.SKUs...)
	return &cp
}

// Orders conserve les commandes par ID.
type Orders struct {
	mu     sync.Mutex
	orders map[string]models.Order
	// FailCreate force une erreur sur Create (tests de compensation).
	FailCreate error
}

func NewOrders() *Orders {
	return &Orders{orders: make(map[string]models.Order)}
}

func (o *Orders) Create(ctx context.Context, order *models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailCreate != nil {
		return o.FailCreate
	}
	if _, exists := o.orders[order.ID]; exists {
		return fmt.Errorf("commande %s déjà existante", order.ID)
	}
	o.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (o *Orders) Save(ctx context.Context, order *models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.orders[order.ID]; !exists {
		return store.ErrNotFound
	}
	o.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (o *Orders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := cloneOrder(order)
	return &cp, nil
}

func (o *Orders) FindAll(ctx context.Context) ([]models.Order, error) {
	return o.filter(func(models.Order) bool { return true }), nil
}

func (o *Orders) FindByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return o.filter(func(order models.Order) bool { return order.UserID == userID }), nil
}

// Len retourne le nombre de commandes stockées.
func (o *Orders) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.orders)
}

func (o *Orders) filter(keep func(models.Order) bool) []models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Order, 0, len(o.orders))
	for _, order := range o.orders {
		if keep(order) {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

// Carts garde les paniers sérialisés en JSON, comme le store Redis.
type Carts struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewCarts() *Carts {
	return &Carts{carts: make(map[string][]byte)}
}

func (c *Carts) Put(cart models.Cart) {
	data, _ := json.Marshal(cart)
	c.mu.Lock()
	c.carts[cart.UserID] = data
	c.mu.Unlock()
}

func (c *Carts) FindByUser(ctx context.Context, userID string) (*models.Cart, error) {
	c.mu.Lock()
	data, ok := c.carts[userID]
	c.mu.Unlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("décodage panier: %w", err)
	}
	return &cart, nil
}

func (c *Carts) Clear(ctx context.Context, userID string) error {
	cart, err := c.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	cart.Items = []models.CartItem{}
	c.Put(*cart)
	return nil
}

// Package redisstore garde les paniers dans Redis sous la clé cart:<userID>.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cedra_orders/internal/models"
	"cedra_orders/internal/store"
)

// CartKey retourne la clé Redis (et le canal pub/sub) du panier d'un utilisateur.
func CartKey(userID string) string {
	return "cart:" + userID
}

type Carts struct {
	rdb *redis.Client
}

func NewCarts(rdb *redis.Client) *Carts {
	return &Carts{rdb: rdb}
}

func (c *Carts) FindByUser(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := c.rdb.Get(ctx, CartKey(userID)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && data == "") {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture panier %s: %w", userID, err)
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("décodage panier %s: %w", userID, err)
	}
	cart.UserID = userID
	return &cart, nil
}

// Clear vide les articles en gardant les frais de port et le TTL courant,
// puis notifie les websockets panier abonnés.
func (c *Carts) Clear(ctx context.Context, userID string) error {
	cart, err := c.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	cart.Items = []models.CartItem{}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("sérialisation panier: %w", err)
	}
	if err := c.rdb.Set(ctx, CartKey(userID), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("vidage panier %s: %w", userID, err)
	}

	c.rdb.Publish(ctx, CartKey(userID), "cleared")
	return nil
}

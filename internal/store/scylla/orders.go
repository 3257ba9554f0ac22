package scylla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"cedra_orders/internal/models"
	"cedra_orders/internal/store"
)

const orderColumns = `order_id, user_id, email, items, subtotal, shipping_fee, total, name,
	phone_number, address, status, payment_intent_id, created_at, updated_at`

type Orders struct {
	session *gocql.Session
}

func NewOrders(session *gocql.Session) *Orders {
	return &Orders{session: session}
}

func (o *Orders) Create(ctx context.Context, order *models.Order) error {
	id, err := gocql.ParseUUID(order.ID)
	if err != nil {
		return fmt.Errorf("ID commande invalide %q: %w", order.ID, err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("sérialisation articles: %w", err)
	}

	err = o.session.Query(`INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, order.UserID, order.Email, string(items),
		toCQLDecimal(order.Subtotal), toCQLDecimal(order.ShippingFee), toCQLDecimal(order.Total),
		order.Name, order.PhoneNumber, order.Address, order.Status, order.PaymentIntentID,
		order.CreatedAt, order.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insertion commande %s: %w", order.ID, err)
	}
	return nil
}

// Save met à jour les champs modifiables après création (paiement).
func (o *Orders) Save(ctx context.Context, order *models.Order) error {
	id, err := gocql.ParseUUID(order.ID)
	if err != nil {
		return store.ErrNotFound
	}

	applied, err := o.session.Query(`UPDATE orders SET status = ?, payment_intent_id = ?, updated_at = ?
		WHERE order_id = ? IF EXISTS`, order.Status, order.PaymentIntentID, order.UpdatedAt, id).
		WithContext(ctx).
		MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("mise à jour commande %s: %w", order.ID, err)
	}
	if !applied {
		return store.ErrNotFound
	}
	return nil
}

func (o *Orders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	orders, err := o.scanAll(o.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, orderID).
		WithContext(ctx).Iter())
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, store.ErrNotFound
	}
	return &orders[0], nil
}

func (o *Orders) FindAll(ctx context.Context) ([]models.Order, error) {
	return o.scanAll(o.session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter())
}

// FindByUser s'appuie sur l'index secondaire orders(user_id).
func (o *Orders) FindByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return o.scanAll(o.session.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = ?`, userID).
		WithContext(ctx).Iter())
}

func (o *Orders) scanAll(iter *gocql.Iter) ([]models.Order, error) {
	var (
		id                           gocql.UUID
		userID, email, items         string
		subtotal, shippingFee, total *inf.Dec
		name, phone, address, status string
		paymentIntentID              string
		createdAt, updatedAt         time.Time
	)

	orders := []models.Order{}
	for iter.Scan(&id, &userID, &email, &items, &subtotal, &shippingFee, &total, &name,
		&phone, &address, &status, &paymentIntentID, &createdAt, &updatedAt) {
		order := models.Order{
			ID:              id.String(),
			UserID:          userID,
			Email:           email,
			Subtotal:        fromCQLDecimal(subtotal),
			ShippingFee:     fromCQLDecimal(shippingFee),
			Total:           fromCQLDecimal(total),
			Name:            name,
			PhoneNumber:     phone,
			Address:         address,
			Status:          status,
			PaymentIntentID: paymentIntentID,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		}
		if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
			iter.Close()
			return nil, fmt.Errorf("décodage articles commande %s: %w", order.ID, err)
		}
		orders = append(orders, order)
	}
	if err := iter.Close(); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return orders, nil
		}
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}

	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

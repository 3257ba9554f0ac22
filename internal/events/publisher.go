// Package events diffuse les événements de commande : file entrepôt
// RabbitMQ et canaux temps réel Redis.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"cedra_orders/internal/models"
)

const publishTimeout = 5 * time.Second

// WarehousePublisher envoie les commandes à la file de l'entrepôt.
type WarehousePublisher struct {
	pool      *ChannelPool
	queueName string
}

func NewWarehousePublisher(pool *ChannelPool, queueName string) *WarehousePublisher {
	return &WarehousePublisher{pool: pool, queueName: queueName}
}

func (p *WarehousePublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("canal RabbitMQ: %w", err)
	}
	defer p.pool.Put(ch)

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("publication %s: %w", event.Type, err)
	}

	log.Printf("📤 %s %s publié vers %s", event.Type, event.OrderID, p.queueName)
	return nil
}

func newPublishing(event models.OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("sérialisation événement: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    event.Type + ":" + event.OrderID,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// OrdersChannel retourne le canal Redis des mises à jour de commandes d'un utilisateur.
func OrdersChannel(userID string) string {
	return "orders:" + userID
}

// LivePublisher pousse l'événement sur orders:<userID> pour les websockets.
type LivePublisher struct {
	rdb *redis.Client
}

func NewLivePublisher(rdb *redis.Client) *LivePublisher {
	return &LivePublisher{rdb: rdb}
}

func (p *LivePublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("sérialisation événement: %w", err)
	}
	return p.rdb.Publish(ctx, OrdersChannel(event.UserID), body).Err()
}

type publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

// Fanout publie vers chaque destination et agrège les erreurs.
type Fanout []publisher

func (f Fanout) Publish(ctx context.Context, event models.OrderEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

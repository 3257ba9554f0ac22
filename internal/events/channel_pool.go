package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ChannelPool partage une connexion AMQP entre un nombre borné de canaux.
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	mu        sync.Mutex
	closed    bool
	queueName string
}

func NewChannelPool(rabbitmqURL, queueName string, size int) (*ChannelPool, error) {
	if size < 1 {
		size = 1
	}
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("connexion RabbitMQ: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
	}

	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("création canal %d: %w", i, err)
		}
		pool.channels <- ch
	}

	log.Printf("✅ Pool RabbitMQ prêt (%d canaux, file %s)", size, queueName)
	return pool, nil
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	// Déclaration idempotente de la file durable.
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("déclaration file: %w", err)
	}
	return ch, nil
}

// ErrPoolClosed : le pool a été fermé pendant l'attente d'un canal.
var ErrPoolClosed = errors.New("pool RabbitMQ fermé")

// Get attend un canal libre jusqu'à l'expiration de ctx, et recrée
// celui qu'il obtient s'il a été fermé entre-temps.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			return p.createChannel()
		}
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("aucun canal RabbitMQ disponible: %w", ctx.Err())
	}
}

// Put rend un canal au pool ; s'il est plein le canal est fermé. Un canal
// fermé par le broker est remplacé pour ne pas réduire le pool.
func (p *ChannelPool) Put(ch *amqp.Channel) {
	if ch == nil {
		return
	}
	if ch.IsClosed() {
		fresh, err := p.createChannel()
		if err != nil {
			log.Printf("⚠️ Canal RabbitMQ perdu, non remplacé: %v", err)
			return
		}
		ch = fresh
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	log.Println("🔌 Pool RabbitMQ fermé")
}

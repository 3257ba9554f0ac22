package events

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPoolGetWaitsForContext(t *testing.T) {
	pool := &ChannelPool{channels: make(chan *amqp.Channel, 1)}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	ch, err := pool.Get(ctx)
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestChannelPoolGetOnClosedPool(t *testing.T) {
	pool := &ChannelPool{channels: make(chan *amqp.Channel, 1)}
	pool.Close()

	_, err := pool.Get(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestChannelPoolCloseWakesWaiters(t *testing.T) {
	pool := &ChannelPool{channels: make(chan *amqp.Channel, 1)}

	errs := make(chan error, 1)
	go func() {
		_, err := pool.Get(context.Background())
		errs <- err
	}()

	time.Sleep(10 * time.Millisecond)
	pool.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("Get toujours bloqué après Close")
	}
}

func TestWarehousePublisherWaitsForChannel(t *testing.T) {
	pool := &ChannelPool{channels: make(chan *amqp.Channel, 1)}
	p := NewWarehousePublisher(pool, "warehouse_orders")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Publish(ctx, testEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

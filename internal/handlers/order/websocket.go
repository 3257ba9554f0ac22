package order

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"cedra_orders/internal/events"
	"cedra_orders/internal/middleware"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// OrdersWebSocket relaie au client les événements de ses commandes
// publiés sur orders:<user>.
func OrdersWebSocket(sub Subscriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.KeyUserID)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("❌ Erreur upgrade WebSocket: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		pubsub := sub.Subscribe(ctx, events.OrdersChannel(userID))
		defer pubsub.Close()

		// Lecture nécessaire pour détecter la fermeture côté client.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteJSON(gin.H{"type": "connected", "message": "Suivi des commandes activé"}); err != nil {
			return
		}

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					log.Printf("❌ Erreur envoi WebSocket: %v", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

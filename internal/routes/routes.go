package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cedra_orders/internal/audit"
	"cedra_orders/internal/handlers/order"
	"cedra_orders/internal/middleware"
)

type Deps struct {
	Orders    *order.Handler
	JWTSecret []byte
	// Limiter et Live sont optionnels (mode mémoire sans Redis).
	Limiter middleware.Counter
	Live    order.Subscriber
	Audit   *audit.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := r.Group("/api")

	// Stripe signe lui-même ses appels ; sans secret la route n'existe pas.
	if d.Orders.WebhookEnabled() {
		api.POST("/payments/webhook", audit.Middleware(d.Audit, audit.ActionOrderPay), d.Orders.StripeWebhook)
	} else {
		log.Println("⚠️ STRIPE_WEBHOOK_SECRET absent, webhook Stripe désactivé")
	}

	user := api.Group("", middleware.AuthRequired(d.JWTSecret))
	{
		checkout := []gin.HandlerFunc{}
		if d.Limiter != nil {
			checkout = append(checkout, middleware.CheckoutRateLimit(d.Limiter))
		}
		checkout = append(checkout, audit.Middleware(d.Audit, audit.ActionOrderCreate), d.Orders.CreateOrder)

		user.POST("/orders", checkout...)
		user.GET("/orders/me", d.Orders.GetCurrentUserOrders)
		user.GET("/orders/:id", d.Orders.GetSingleOrder)
		user.POST("/orders/:id/payment-intent", d.Orders.CreatePaymentIntent)
		if d.Live != nil {
			user.GET("/ws/orders", order.OrdersWebSocket(d.Live))
		}
	}

	admin := api.Group("/admin", middleware.AuthRequired(d.JWTSecret), middleware.RequireAdmin)
	{
		admin.GET("/orders", d.Orders.GetAllOrders)
		admin.GET("/orders/search", d.Orders.SearchOrders)
		update := audit.Middleware(d.Audit, audit.ActionOrderUpdate)
		admin.PATCH("/orders/:id", update, d.Orders.UpdateOrder)
		admin.PUT("/orders/:id", update, d.Orders.UpdateOrder)
	}
}

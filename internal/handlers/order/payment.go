package order

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cedra_orders/internal/audit"
	"cedra_orders/internal/middleware"
	"cedra_orders/internal/payments"
)

const maxWebhookBytes = int64(65536)

// CreatePaymentIntent ouvre un paiement Stripe pour une commande en attente.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	o, intent, err := h.svc.PreparePayment(ctx, middleware.Identity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": intent.ClientSecret,
		"payment_id":    intent.ID,
		"amount":        payments.AmountCents(o.Total),
	})
}

// StripeWebhook confirme le paiement d'une commande sur payment_intent.succeeded.
func (h *Handler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	p, ok, err := payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if errors.Is(err, payments.ErrWebhookNotConfigured) {
		log.Println("❌ Webhook Stripe reçu sans secret configuré, refusé")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Webhook non configuré"})
		return
	}
	if err != nil {
		log.Println("❌ Webhook Stripe rejeté:", err)
		msg := "Événement invalide"
		if errors.Is(err, payments.ErrInvalidSignature) {
			msg = "Signature invalide"
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if !ok {
		c.Set(audit.SkipKey, true)
		c.Status(http.StatusOK)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	c.Set(audit.ResourceIDKey, p.OrderID)
	o, err := h.svc.UpdateOrder(ctx, p.OrderID, p.IntentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set(audit.ValueKey, gin.H{"status": o.Status, "payment_intent_id": o.PaymentIntentID})
	c.Status(http.StatusOK)
}

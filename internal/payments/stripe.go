// Package payments relie les commandes à Stripe.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"cedra_orders/internal/models"
	"cedra_orders/internal/orders"
)

const (
	Currency = "eur"

	EventPaymentSucceeded = "payment_intent.succeeded"

	MetaOrderID = "order_id"
	MetaUserID  = "user_id"
)

var (
	ErrInvalidSignature = errors.New("signature Stripe invalide")
	// ErrWebhookNotConfigured : aucun secret de webhook, aucun événement
	// ne peut être authentifié.
	ErrWebhookNotConfigured = errors.New("STRIPE_WEBHOOK_SECRET non configuré")
)

// Gateway crée les PaymentIntents via l'API Stripe.
type Gateway struct{}

func NewGateway(secretKey string) *Gateway {
	stripe.Key = secretKey
	return &Gateway{}
}

func (g *Gateway) CreateIntent(ctx context.Context, order *models.Order) (orders.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(AmountCents(order.Total)),
		Currency: stripe.String(Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			MetaOrderID: order.ID,
			MetaUserID:  order.UserID,
		},
	}
	if order.Email != "" {
		params.ReceiptEmail = stripe.String(order.Email)
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return orders.PaymentIntent{}, fmt.Errorf("stripe payment intent: %w", err)
	}
	log.Printf("💳 PaymentIntent créé : %s (%s€) pour la commande %s", intent.ID, order.Total.StringFixed(2), order.ID)
	return orders.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// AmountCents convertit un montant en euros en centimes, arrondi au plus proche.
func AmountCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Payment : paiement confirmé extrait d'un webhook.
type Payment struct {
	IntentID string
	OrderID  string
}

// ParseWebhook vérifie la signature et retourne le paiement confirmé. ok vaut
// false pour les événements à ignorer. Sans secret, tout est refusé.
func ParseWebhook(payload []byte, signature, secret string) (p Payment, ok bool, err error) {
	if secret == "" {
		return Payment{}, false, ErrWebhookNotConfigured
	}
	event, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return Payment{}, false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	if event.Type != EventPaymentSucceeded || event.Data == nil {
		return Payment{}, false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return Payment{}, false, fmt.Errorf("décodage PaymentIntent: %w", err)
	}
	orderID := pi.Metadata[MetaOrderID]
	if orderID == "" {
		log.Printf("⚠️ PaymentIntent %s sans order_id, ignoré", pi.ID)
		return Payment{}, false, nil
	}
	return Payment{IntentID: pi.ID, OrderID: orderID}, true, nil
}

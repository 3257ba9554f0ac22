// Package order expose le workflow de commande en HTTP.
package order

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cedra_orders/internal/audit"
	"cedra_orders/internal/middleware"
	"cedra_orders/internal/orders"
)

const (
	// MyOrdersPath : page de suivi vers laquelle redirige une commande réussie.
	MyOrdersPath = "/order/my-order"

	requestTimeout = 10 * time.Second
)

type Handler struct {
	svc           *orders.Service
	webhookSecret string
}

func NewHandler(svc *orders.Service, webhookSecret string) *Handler {
	return &Handler{svc: svc, webhookSecret: webhookSecret}
}

// WebhookEnabled indique si les webhooks Stripe peuvent être authentifiés.
func (h *Handler) WebhookEnabled() bool { return h.webhookSecret != "" }

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// CreateOrder transforme le panier de l'utilisateur en commande.
func (h *Handler) CreateOrder(c *gin.Context) {
	var input orders.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": orders.MsgInvalidInput, "kind": orders.KindValidation})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	created, err := h.svc.CreateOrder(ctx, middleware.Identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Set(audit.ResourceIDKey, created.ID)
	c.Set(audit.ValueKey, gin.H{"total": created.Total, "items": len(created.Items)})
	c.Redirect(http.StatusSeeOther, MyOrdersPath)
}

// GetAllOrders liste toutes les commandes (admin).
func (h *Handler) GetAllOrders(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.svc.GetAllOrders(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

func (h *Handler) GetSingleOrder(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	o, err := h.svc.GetSingleOrder(ctx, middleware.Identity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// GetCurrentUserOrders retourne l'historique du demandeur, produits inclus.
func (h *Handler) GetCurrentUserOrders(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	views, err := h.svc.GetCurrentUserOrders(ctx, middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "orders": views})
}

// UpdateOrder marque une commande comme payée (admin).
func (h *Handler) UpdateOrder(c *gin.Context) {
	var req struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": orders.MsgPaymentIntentReq, "kind": orders.KindValidation})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	o, err := h.svc.UpdateOrder(ctx, c.Param("id"), req.PaymentIntentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set(audit.ValueKey, gin.H{"status": o.Status, "payment_intent_id": o.PaymentIntentID})
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// SearchOrders : recherche plein texte (admin), ?q=
func (h *Handler) SearchOrders(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.svc.SearchOrders(ctx, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

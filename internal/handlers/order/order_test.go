package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"cedra_orders/internal/audit"
	"cedra_orders/internal/middleware"
	"cedra_orders/internal/models"
	"cedra_orders/internal/orders"
	"cedra_orders/internal/store/memstore"
)

const webhookSecret = "whsec_handler_test"

type stubGateway struct{}

func (stubGateway) CreateIntent(_ context.Context, o *models.Order) (orders.PaymentIntent, error) {
	return orders.PaymentIntent{ID: "pi_" + o.ID, ClientSecret: "secret_" + o.ID}, nil
}

type stubIndex struct{ hits []models.Order }

func (s *stubIndex) IndexOrder(context.Context, models.Order) error { return nil }

func (s *stubIndex) SearchOrders(context.Context, string) ([]models.Order, error) {
	return s.hits, nil
}

type env struct {
	router   *gin.Engine
	products *memstore.Products
	orders   *memstore.Orders
	carts    *memstore.Carts
	index    *stubIndex
	audit    *audit.MemoryRecorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithSecret(t, webhookSecret)
}

func newEnvWithSecret(t *testing.T, secret string) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		products: memstore.NewProducts(models.Product{
			ID: "P1", Name: "Chemise", Images: []string{"/images/p1.png"},
			SKUs: []models.SKU{{
				ID: "S1", Color: "blanc", Size: "M", Quantity: 5,
				Price: models.Price{Base: decimal.NewFromInt(100), Discount: decimal.RequireFromString("0.1")},
			}},
		}),
		orders: memstore.NewOrders(),
		carts:  memstore.NewCarts(),
		index:  &stubIndex{},
		audit:  &audit.MemoryRecorder{},
	}

	seq := 0
	svc := orders.NewService(orders.Deps{
		Products: e.products,
		Orders:   e.orders,
		Carts:    e.carts,
		Indexer:  e.index,
		Payments: stubGateway{},
		NewID: func() string {
			seq++
			return fmt.Sprintf("order-%d", seq)
		},
	})
	h := NewHandler(svc, secret)

	r := gin.New()
	// Identité transmise par en-têtes de test à la place du JWT.
	withIdentity := func(c *gin.Context) {
		c.Set(middleware.KeyUserID, c.GetHeader("X-User"))
		c.Set(middleware.KeyEmail, c.GetHeader("X-User")+"@example.com")
		c.Set(middleware.KeyRole, c.GetHeader("X-Role"))
		c.Next()
	}
	api := r.Group("/api", withIdentity)
	api.POST("/orders", h.CreateOrder)
	api.GET("/orders/me", h.GetCurrentUserOrders)
	api.GET("/orders/:id", h.GetSingleOrder)
	api.POST("/orders/:id/payment-intent", h.CreatePaymentIntent)
	admin := api.Group("/admin", middleware.RequireAdmin)
	admin.GET("/orders", h.GetAllOrders)
	admin.GET("/orders/search", h.SearchOrders)
	admin.PATCH("/orders/:id", h.UpdateOrder)
	r.POST("/api/payments/webhook", audit.Middleware(audit.NewLogger(e.audit), audit.ActionOrderPay), h.StripeWebhook)

	e.router = r
	return e
}

func (e *env) do(method, path, user, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	req.Header.Set("X-Role", role)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) putCart(userID string, qty int) {
	e.carts.Put(models.Cart{
		UserID:      userID,
		Items:       []models.CartItem{{ProductID: "P1", SKUID: "S1", Quantity: qty}},
		ShippingFee: decimal.NewFromInt(10),
	})
}

func (e *env) placeOrder(t *testing.T, userID string) string {
	t.Helper()
	e.putCart(userID, 2)
	w := e.do(http.MethodPost, "/api/orders", userID, "user", validBody())
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	return fmt.Sprintf("order-%d", e.orders.Len())
}

func validBody() gin.H {
	return gin.H{
		"name":        "Jean Dupont",
		"phoneNumber": "0470123456",
		"address": gin.H{
			"city": "Bruxelles", "district": "Ixelles", "sub-district": "Flagey", "street": "Rue du Bailli 12",
		},
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var b errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestCreateOrderRedirects(t *testing.T) {
	e := newEnv(t)
	e.putCart("alice", 2)

	w := e.do(http.MethodPost, "/api/orders", "alice", "user", validBody())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, MyOrdersPath, w.Header().Get("Location"))
	assert.Equal(t, 3, e.products.Stock("P1", "S1"))

	o, err := e.orders.FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(180)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(190)))
	assert.Equal(t, "alice@example.com", o.Email)

	cart, err := e.carts.FindByUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCreateOrderErrors(t *testing.T) {
	tests := []struct {
		name    string
		cartQty int
		body    any
		status  int
		message string
		kind    orders.Kind
	}{
		{name: "malformed json", cartQty: 1, body: "{", status: http.StatusBadRequest, message: orders.MsgInvalidInput, kind: orders.KindValidation},
		{name: "missing phone", cartQty: 1, body: gin.H{"name": "Jean", "address": validBody()["address"]}, status: http.StatusBadRequest, message: orders.MsgInvalidInput, kind: orders.KindValidation},
		{name: "missing cart", cartQty: -1, body: validBody(), status: http.StatusNotFound, message: orders.MsgCartNotFound, kind: orders.KindNotFound},
		{name: "empty cart", cartQty: 0, body: validBody(), status: http.StatusBadRequest, message: orders.MsgCartEmpty, kind: orders.KindValidation},
		{name: "quantity above stock", cartQty: 6, body: validBody(), status: http.StatusBadRequest, message: orders.MsgQuantityInvalid, kind: orders.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			switch {
			case tt.cartQty == 0:
				e.carts.Put(models.Cart{UserID: "alice"})
			case tt.cartQty > 0:
				e.putCart("alice", tt.cartQty)
			}

			w := e.do(http.MethodPost, "/api/orders", "alice", "user", tt.body)

			assert.Equal(t, tt.status, w.Code)
			b := decodeError(t, w)
			assert.Equal(t, tt.message, b.Error)
			assert.Equal(t, string(tt.kind), b.Kind)
			assert.Equal(t, 0, e.orders.Len())
			assert.Equal(t, 5, e.products.Stock("P1", "S1"))
		})
	}
}

func TestGetSingleOrder(t *testing.T) {
	e := newEnv(t)
	id := e.placeOrder(t, "alice")

	w := e.do(http.MethodGet, "/api/orders/"+id, "alice", "user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, id, body.Order.ID)
	assert.Equal(t, "Bruxelles, Ixelles, Flagey, Rue du Bailli 12", body.Order.Address)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/orders/"+id, "bob", "user", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/orders/"+id, "root", "admin", nil).Code)

	w = e.do(http.MethodGet, "/api/orders/nope", "alice", "user", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Aucune commande avec l'id : nope", decodeError(t, w).Error)
}

func TestGetCurrentUserOrders(t *testing.T) {
	e := newEnv(t)
	e.placeOrder(t, "alice")
	e.placeOrder(t, "bob")

	w := e.do(http.MethodGet, "/api/orders/me", "alice", "user", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count  int `json:"count"`
		Orders []struct {
			ID    string `json:"id"`
			Items []struct {
				Product *models.Product `json:"product"`
			} `json:"order_items"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Len(t, body.Orders[0].Items, 1)
	require.NotNil(t, body.Orders[0].Items[0].Product)
	assert.Equal(t, "Chemise", body.Orders[0].Items[0].Product.Name)
}

func TestAdminListing(t *testing.T) {
	e := newEnv(t)
	e.placeOrder(t, "alice")
	e.placeOrder(t, "bob")

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/admin/orders", "alice", "user", nil).Code)

	w := e.do(http.MethodGet, "/api/admin/orders", "root", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count  int            `json:"count"`
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Orders, 2)
}

func TestSearchOrders(t *testing.T) {
	e := newEnv(t)
	e.index.hits = []models.Order{{ID: "order-9", Name: "Jean Dupont"}}

	w := e.do(http.MethodGet, "/api/admin/orders/search?q=dupont", "root", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = e.do(http.MethodGet, "/api/admin/orders/search", "root", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, orders.MsgSearchQueryReq, decodeError(t, w).Error)
}

func TestUpdateOrder(t *testing.T) {
	e := newEnv(t)
	id := e.placeOrder(t, "alice")

	w := e.do(http.MethodPatch, "/api/admin/orders/"+id, "root", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/api/admin/orders/"+id, "root", "admin", gin.H{"paymentIntentId": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, orders.MsgPaymentIntentReq, decodeError(t, w).Error)

	w = e.do(http.MethodPatch, "/api/admin/orders/unknown", "root", "admin", gin.H{"paymentIntentId": "pi_1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPatch, "/api/admin/orders/"+id, "root", "admin", gin.H{"paymentIntentId": "pi_1"})
	require.Equal(t, http.StatusOK, w.Code)
	o, err := e.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	assert.Equal(t, "pi_1", o.PaymentIntentID)
}

func TestCreatePaymentIntent(t *testing.T) {
	e := newEnv(t)
	id := e.placeOrder(t, "alice")

	w := e.do(http.MethodPost, "/api/orders/"+id+"/payment-intent", "alice", "user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"client_secret":"secret_%s","payment_id":"pi_%s","amount":19000}`, id, id), w.Body.String())

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/orders/"+id+"/payment-intent", "bob", "user", nil).Code)

	e.do(http.MethodPatch, "/api/admin/orders/"+id, "root", "admin", gin.H{"paymentIntentId": "pi_x"})
	w = e.do(http.MethodPost, "/api/orders/"+id+"/payment-intent", "alice", "user", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, orders.MsgOrderAlreadyPaid, decodeError(t, w).Error)
}

func signedWebhook(t *testing.T, e *env, eventType, orderID, signature string) *httptest.ResponseRecorder {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":%q,"type":%q,`+
		`"data":{"object":{"id":"pi_live","object":"payment_intent","metadata":{"order_id":%q}}}}`,
		stripe.APIVersion, eventType, orderID))
	if signature == "" {
		signature = webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: payload, Secret: webhookSecret, Timestamp: time.Now(),
		}).Header
	}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestStripeWebhook(t *testing.T) {
	e := newEnv(t)
	id := e.placeOrder(t, "alice")

	assert.Equal(t, http.StatusBadRequest, signedWebhook(t, e, "payment_intent.succeeded", id, "t=1,v1=bad").Code)
	o, _ := e.orders.FindByID(context.Background(), id)
	assert.Equal(t, models.OrderStatusPending, o.Status)

	assert.Equal(t, http.StatusOK, signedWebhook(t, e, "charge.refunded", id, "").Code)
	o, _ = e.orders.FindByID(context.Background(), id)
	assert.Equal(t, models.OrderStatusPending, o.Status)

	assert.Equal(t, http.StatusOK, signedWebhook(t, e, "payment_intent.succeeded", id, "").Code)
	o, _ = e.orders.FindByID(context.Background(), id)
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	assert.Equal(t, "pi_live", o.PaymentIntentID)

	// Redélivrance idempotente.
	assert.Equal(t, http.StatusOK, signedWebhook(t, e, "payment_intent.succeeded", id, "").Code)

	assert.Equal(t, http.StatusNotFound, signedWebhook(t, e, "payment_intent.succeeded", "ghost", "").Code)
}

func TestStripeWebhookWithoutSecretRejectsForgedEvent(t *testing.T) {
	e := newEnvWithSecret(t, "")
	id := e.placeOrder(t, "alice")

	payload := []byte(fmt.Sprintf(`{"id":"evt_forged","object":"event","type":"payment_intent.succeeded",`+
		`"data":{"object":{"id":"pi_x","object":"payment_intent","metadata":{"order_id":%q}}}}`, id))
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	o, err := e.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Empty(t, o.PaymentIntentID)
}

func TestStripeWebhookIgnoredEventNotAudited(t *testing.T) {
	e := newEnv(t)
	id := e.placeOrder(t, "alice")

	assert.Equal(t, http.StatusOK, signedWebhook(t, e, "charge.refunded", id, "").Code)
	assert.Equal(t, http.StatusOK, signedWebhook(t, e, "payment_intent.succeeded", id, "").Code)

	require.Eventually(t, func() bool { return len(e.audit.Entries()) >= 1 }, 2*time.Second, 10*time.Millisecond)
	entries := e.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionOrderPay, entries[0].Action)
	assert.Equal(t, id, entries[0].ResourceID)
	assert.True(t, entries[0].Success)
}

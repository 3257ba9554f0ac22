// Package orders porte le workflow de commande : transformation du panier en
// commande, réservation du stock et consultation/mise à jour des commandes.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cedra_orders/internal/models"
	"cedra_orders/internal/store"
)

type ProductStore interface {
	FindProduct(ctx context.Context, id string) (*models.Product, error)
	// DecrementSKU retire qty du stock seulement s'il en reste assez.
	DecrementSKU(ctx context.Context, productID, skuID string, qty int) (int, error)
	RestockSKU(ctx context.Context, productID, skuID string, qty int) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Save(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	FindByUser(ctx context.Context, userID string) ([]models.Order, error)
}

type CartStore interface {
	FindByUser(ctx context.Context, userID string) (*models.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type Publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

type Notifier interface {
	OrderCreated(ctx context.Context, order models.Order) error
	OrderStatusChanged(ctx context.Context, order models.Order) error
}

type Indexer interface {
	IndexOrder(ctx context.Context, order models.Order) error
	SearchOrders(ctx context.Context, query string) ([]models.Order, error)
}

// ImageSigner transforme une clé d'image stockée en URL consultable.
type ImageSigner interface {
	SignURL(ctx context.Context, key string) (string, error)
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, order *models.Order) (PaymentIntent, error)
}

// Deps : Products, Orders et Carts sont obligatoires, le reste est optionnel.
type Deps struct {
	Products ProductStore
	Orders   OrderStore
	Carts    CartStore

	Publisher Publisher
	Notifier  Notifier
	Indexer   Indexer
	Payments  PaymentGateway
	Images    ImageSigner

	Now   func() time.Time
	NewID func() string
}

type Service struct {
	products ProductStore
	orders   OrderStore
	carts    CartStore

	publisher Publisher
	notifier  Notifier
	indexer   Indexer
	payments  PaymentGateway
	images    ImageSigner

	now   func() time.Time
	newID func() string
}

func NewService(d Deps) *Service {
	s := &Service{
		products:  d.Products,
		orders:    d.Orders,
		carts:     d.Carts,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		indexer:   d.Indexer,
		payments:  d.Payments,
		images:    d.Images,
		now:       d.Now,
		newID:     d.NewID,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// line est un article du panier validé et chiffré, prêt à être réservé.
type line struct {
	item     models.CartItem
	snapshot models.OrderItem
}

// CreateOrder transforme le panier de l'utilisateur en commande.
// Aucune écriture n'a lieu tant que tous les articles ne sont pas validés ;
// si une réservation échoue, les réservations précédentes sont annulées.
func (s *Service) CreateOrder(ctx context.Context, who Identity, input CreateOrderInput) (*models.Order, error) {
	in, err := input.validate()
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByUser(ctx, who.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError(MsgCartNotFound)
	}
	if err != nil {
		return nil, internalError("lecture panier", err)
	}
	if len(cart.Items) == 0 {
		return nil, validationError(MsgCartEmpty)
	}

	lines, subtotal, err := s.priceCart(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	reserved, err := s.reserve(ctx, lines)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:          s.newID(),
		Items:       make([]models.OrderItem, 0, len(lines)),
		Subtotal:    subtotal,
		ShippingFee: cart.ShippingFee,
		Total:       subtotal.Add(cart.ShippingFee),
		UserID:      who.UserID,
		Email:       who.Email,
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address.String(),
		Status:      models.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, l := range lines {
		order.Items = append(order.Items, l.snapshot)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.release(ctx, reserved)
		return nil, internalError("création commande", err)
	}

	if err := s.carts.Clear(ctx, who.UserID); err != nil {
		log.Printf("⚠️ Commande %s créée mais panier de %s non vidé: %v", order.ID, who.UserID, err)
	}

	log.Printf("✅ Commande %s créée pour %s (%d articles, total %s€)",
		order.ID, who.UserID, len(order.Items), order.Total.StringFixed(2))

	s.propagate(ctx, models.EventOrderCreated, order)
	if s.notifier != nil && order.Email != "" {
		if err := s.notifier.OrderCreated(ctx, *order); err != nil {
			log.Printf("❌ Erreur e-mail confirmation %s: %v", order.ID, err)
		}
	}

	return order, nil
}

// priceCart valide chaque article dans l'ordre du panier et construit les
// copies figées. Les quantités d'un même SKU sont cumulées avant comparaison
// au stock.
func (s *Service) priceCart(ctx context.Context, items []models.CartItem) ([]line, decimal.Decimal, error) {
	products := make(map[string]*models.Product)
	requested := make(map[string]int)
	lines := make([]line, 0, len(items))
	subtotal := decimal.Zero

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			p, err := s.products.FindProduct(ctx, item.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return nil, decimal.Zero, notFoundError("Produit introuvable: %s", item.ProductID)
			}
			if err != nil {
				return nil, decimal.Zero, internalError("lecture produit", err)
			}
			products[item.ProductID] = p
			product = p
		}

		sku := product.SKUByID(item.SKUID)
		if sku == nil {
			return nil, decimal.Zero, notFoundError("SKU introuvable: %s", item.SKUID)
		}

		key := item.ProductID + "/" + item.SKUID
		requested[key] += item.Quantity
		if item.Quantity < 1 || requested[key] > sku.Quantity {
			return nil, decimal.Zero, validationError(MsgQuantityInvalid)
		}

		snapshot := models.OrderItem{
			Quantity:  item.Quantity,
			Name:      product.Name,
			Price:     sku.Price.Effective(),
			Image:     product.CoverImage(),
			Color:     sku.Color,
			Size:      sku.Size,
			ProductID: product.ID,
		}
		subtotal = subtotal.Add(snapshot.LineTotal())
		lines = append(lines, line{item: item, snapshot: snapshot})
	}

	return lines, subtotal, nil
}

// reserve décrémente le stock article par article et retourne les lignes
// réservées. En cas d'échec, tout ce qui a été réservé est rendu.
func (s *Service) reserve(ctx context.Context, lines []line) ([]line, error) {
	reserved := make([]line, 0, len(lines))
	for _, l := range lines {
		_, err := s.products.DecrementSKU(ctx, l.item.ProductID, l.item.SKUID, l.item.Quantity)
		if err == nil {
			reserved = append(reserved, l)
			continue
		}

		s.release(ctx, reserved)
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			return nil, conflictError(fmt.Sprintf("Stock insuffisant pour %s", l.snapshot.Name), err)
		case errors.Is(err, store.ErrStockContended):
			return nil, conflictError(MsgStockContended, err)
		case errors.Is(err, store.ErrNotFound):
			return nil, notFoundError("SKU introuvable: %s", l.item.SKUID)
		default:
			return nil, internalError("réservation stock", err)
		}
	}
	return reserved, nil
}

// release remet en stock les lignes réservées, même si la requête a été annulée.
func (s *Service) release(ctx context.Context, reserved []line) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range reserved {
		if err := s.products.RestockSKU(ctx, l.item.ProductID, l.item.SKUID, l.item.Quantity); err != nil {
			log.Printf("❌ Impossible de remettre en stock %d × %s/%s: %v",
				l.item.Quantity, l.item.ProductID, l.item.SKUID, err)
			continue
		}
		log.Printf("↩️ Stock rendu: %d × %s/%s", l.item.Quantity, l.item.ProductID, l.item.SKUID)
	}
}

// GetAllOrders retourne toutes les commandes (administration).
func (s *Service) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, internalError("lecture commandes", err)
	}
	return orders, nil
}

// GetSingleOrder retourne une commande appartenant au demandeur, ou n'importe
// laquelle pour un administrateur.
func (s *Service) GetSingleOrder(ctx context.Context, who Identity, orderID string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !who.canRead(order.UserID) {
		return nil, forbiddenError(MsgOrderForbidden)
	}
	return order, nil
}

// GetCurrentUserOrders retourne l'historique de l'utilisateur avec les
// fiches produit complètes.
func (s *Service) GetCurrentUserOrders(ctx context.Context, who Identity) ([]models.OrderView, error) {
	orders, err := s.orders.FindByUser(ctx, who.UserID)
	if err != nil {
		return nil, internalError("lecture commandes utilisateur", err)
	}

	products := make(map[string]*models.Product)
	views := make([]models.OrderView, 0, len(orders))
	for _, order := range orders {
		view := models.OrderView{Order: order, Items: make([]models.OrderItemView, 0, len(order.Items))}
		for _, item := range order.Items {
			product, seen := products[item.ProductID]
			if !seen {
				p, err := s.products.FindProduct(ctx, item.ProductID)
				switch {
				case errors.Is(err, store.ErrNotFound):
					log.Printf("⚠️ Produit %s de la commande %s introuvable", item.ProductID, order.ID)
				case err != nil:
					return nil, internalError("lecture produit", err)
				}
				if p != nil {
					for i, img := range p.Images {
						p.Images[i] = s.signImage(ctx, img)
					}
				}
				products[item.ProductID] = p
				product = p
			}
			item.Image = s.signImage(ctx, item.Image)
			view.Items = append(view.Items, models.OrderItemView{OrderItem: item, Product: product})
		}
		views = append(views, view)
	}
	return views, nil
}

// UpdateOrder attache l'identifiant de paiement et passe la commande en "paid".
func (s *Service) UpdateOrder(ctx context.Context, orderID, paymentIntentID string) (*models.Order, error) {
	if paymentIntentID == "" {
		return nil, validationError(MsgPaymentIntentReq)
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	wasPaid := order.Status == models.OrderStatusPaid
	order.PaymentIntentID = paymentIntentID
	order.Status = models.OrderStatusPaid
	order.UpdatedAt = s.now()

	if err := s.orders.Save(ctx, order); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("Aucune commande avec l'id : %s", orderID)
		}
		return nil, internalError("mise à jour commande", err)
	}
	log.Printf("💳 Commande %s payée (intent %s)", order.ID, paymentIntentID)

	if wasPaid {
		return order, nil
	}

	s.propagate(ctx, models.EventOrderPaid, order)
	if s.notifier != nil && order.Email != "" {
		if err := s.notifier.OrderStatusChanged(ctx, *order); err != nil {
			log.Printf("❌ Erreur e-mail statut %s: %v", order.ID, err)
		}
	}
	return order, nil
}

// SearchOrders interroge l'index de recherche (administration).
func (s *Service) SearchOrders(ctx context.Context, query string) ([]models.Order, error) {
	if query == "" {
		return nil, validationError(MsgSearchQueryReq)
	}
	if s.indexer == nil {
		return nil, internalError("recherche", errors.New("index de recherche non configuré"))
	}
	orders, err := s.indexer.SearchOrders(ctx, query)
	if err != nil {
		return nil, internalError("recherche commandes", err)
	}
	return orders, nil
}

// PreparePayment crée l'intention de paiement d'une commande en attente.
func (s *Service) PreparePayment(ctx context.Context, who Identity, orderID string) (*models.Order, PaymentIntent, error) {
	order, err := s.GetSingleOrder(ctx, who, orderID)
	if err != nil {
		return nil, PaymentIntent{}, err
	}
	if order.Status == models.OrderStatusPaid {
		return nil, PaymentIntent{}, conflictError(MsgOrderAlreadyPaid, nil)
	}
	if s.payments == nil {
		return nil, PaymentIntent{}, internalError("paiement", errors.New("passerelle de paiement non configurée"))
	}

	intent, err := s.payments.CreateIntent(ctx, order)
	if err != nil {
		return nil, PaymentIntent{}, internalError("création paiement", err)
	}
	log.Printf("💳 PaymentIntent %s créé pour la commande %s (%s€)", intent.ID, order.ID, order.Total.StringFixed(2))
	return order, intent, nil
}

func (s *Service) signImage(ctx context.Context, key string) string {
	if s.images == nil {
		return key
	}
	url, err := s.images.SignURL(ctx, key)
	if err != nil {
		log.Printf("⚠️ URL signée indisponible pour %s: %v", key, err)
		return key
	}
	return url
}

func (s *Service) findOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Aucune commande avec l'id : %s", orderID)
	}
	if err != nil {
		return nil, internalError("lecture commande", err)
	}
	return order, nil
}

// propagate publie l'événement et réindexe la commande. Ces effets ne font
// jamais échouer l'opération.
func (s *Service) propagate(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, models.NewOrderEvent(eventType, order, s.now())); err != nil {
			log.Printf("❌ Publication %s pour %s échouée: %v", eventType, order.ID, err)
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexOrder(ctx, *order); err != nil {
			log.Printf("⚠️ Indexation commande %s échouée: %v", order.ID, err)
		}
	}
}

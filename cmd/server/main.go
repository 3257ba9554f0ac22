package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cedra_orders/internal/audit"
	"cedra_orders/internal/config"
	"cedra_orders/internal/database"
	"cedra_orders/internal/events"
	"cedra_orders/internal/handlers/order"
	"cedra_orders/internal/media"
	"cedra_orders/internal/middleware"
	"cedra_orders/internal/notify"
	"cedra_orders/internal/orders"
	"cedra_orders/internal/payments"
	"cedra_orders/internal/routes"
	"cedra_orders/internal/search"
	"cedra_orders/internal/store/memstore"
	"cedra_orders/internal/store/redisstore"
	"cedra_orders/internal/store/scylla"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET manquant dans .env")
	}
	decimal.MarshalJSONWithoutQuotes = true
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps := orders.Deps{}
	rd := routes.Deps{JWTSecret: []byte(cfg.JWTSecret)}

	switch cfg.StoreBackend {
	case "memory":
		log.Println("⚠️ STORE_BACKEND=memory : données non persistées")
		deps.Products = memstore.NewProducts()
		deps.Orders = memstore.NewOrders()
		deps.Carts = memstore.NewCarts()
		rd.Audit = audit.NewLogger(&audit.MemoryRecorder{})

	default:
		session, err := database.ConnectScylla(cfg)
		if err != nil {
			log.Fatalf("❌ Échec initialisation ScyllaDB: %v", err)
		}
		defer session.Close()

		rdb, err := database.ConnectRedis(ctx, cfg)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		defer rdb.Close()

		deps.Products = scylla.NewProducts(session)
		deps.Orders = scylla.NewOrders(session)
		deps.Carts = redisstore.NewCarts(rdb)
		rd.Audit = audit.NewLogger(scylla.NewAuditLogs(session))
		rd.Limiter = middleware.NewRedisCounter(rdb)
		rd.Live = rdb

		fanout := events.Fanout{events.NewLivePublisher(rdb)}
		if cfg.RabbitMQURL != "" {
			pool, err := events.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.ChannelPoolSize)
			if err != nil {
				log.Fatalf("❌ Connexion RabbitMQ: %v", err)
			}
			defer pool.Close()
			fanout = append(fanout, events.NewWarehousePublisher(pool, cfg.RabbitMQQueue))
		} else {
			log.Println("⚠️ RABBITMQ_URL absent, événements entrepôt désactivés")
		}
		deps.Publisher = fanout
	}

	if cfg.ElasticURL != "" {
		es, err := database.ConnectElastic(cfg)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		deps.Indexer = search.NewOrderIndex(es, search.DefaultIndex)
	}

	if cfg.MinioEndpoint != "" {
		mc, err := database.ConnectMinio(ctx, cfg)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		deps.Images = media.NewSigner(mc, cfg.MinioBucket, cfg.MinioPublicURL, media.DefaultURLTTL)
	}

	if cfg.StripeSecretKey != "" {
		deps.Payments = payments.NewGateway(cfg.StripeSecretKey)
		log.Println("✅ Stripe initialisé")
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY absent, paiements désactivés")
	}

	if cfg.SMTPHost != "" {
		client, err := notify.NewSMTPClient(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
		if err != nil {
			log.Fatalf("❌ Client SMTP: %v", err)
		}
		deps.Notifier = notify.NewMailer(client, cfg.MailFrom, cfg.CompanyName, notify.Payee{
			Name: cfg.CompanyName,
			IBAN: cfg.CompanyIBAN,
			BIC:  cfg.CompanyBIC,
		})
	}

	rd.Orders = order.NewHandler(orders.NewService(deps), cfg.StripeWebhookSecret)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Location", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.RegisterRoutes(r, rd)

	log.Println("🚀 Serveur commandes Cedra lancé sur le port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ ", err)
	}
}

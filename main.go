package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ticketstore/internal/auth"
	backoffice_api "ticketstore/internal/backoffice/api"
	"ticketstore/internal/bank"
	"ticketstore/internal/catalog"
	catalog_api "ticketstore/internal/catalog/api"
	catalogdb "ticketstore/internal/catalog/db"
	"ticketstore/internal/config"
	"ticketstore/internal/coupon"
	"ticketstore/internal/database/migrations"
	"ticketstore/internal/kafka"
	"ticketstore/internal/logger"
	"ticketstore/internal/models"
	"ticketstore/internal/notify"
	"ticketstore/internal/order"
	order_api "ticketstore/internal/order/api"
	orderdb "ticketstore/internal/order/db"
	"ticketstore/internal/pricing/rates"
	"ticketstore/internal/storage"
	"ticketstore/internal/tickets"
	"ticketstore/internal/tickets/qr"
)

// noopPublisher stands in for Kafka when event streaming is disabled.
type noopPublisher struct{}

func (noopPublisher) PublishOrderCreated(models.Order) error  { return nil }
func (noopPublisher) PublishOrderApproved(models.Order) error { return nil }
func (noopPublisher) PublishOrderRejected(models.Order) error { return nil }

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	maxRetries := 5
	var err error
	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		if err = sqldb.Ping(); err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable at %s, rate caching disabled: %v", cfg.Addr, err))
		client.Close()
		return nil
	}
	log.Info("DATABASE", "✅ Redis connection successful to "+cfg.Addr)
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Ticket Store initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	migrateOpts := migrations.DefaultOptions()
	migrateOpts.SeedData = os.Getenv("SEED_DATA") == "true"
	if err := migrations.NewRunner(bunDB, migrateOpts).Run(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	log.Info("DATABASE", "Schema is up to date")

	objectStore, err := storage.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("STORAGE", fmt.Sprintf("Failed to initialize object storage: %v", err))
	}
	log.Info("STORAGE", "Object storage initialized for bucket "+cfg.Storage.Bucket)

	var publisher order.EventPublisher = noopPublisher{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))

		topics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderApproved,
			cfg.Kafka.Topics.OrderRejected,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Info("KAFKA", "Event streaming disabled")
	}

	catalogStore := &catalogdb.DB{Bun: bunDB}
	couponStore := &coupon.DB{Bun: bunDB}
	bankStore := &bank.DB{Bun: bunDB}
	rateStore := &rates.DB{Bun: bunDB}
	orderStore := &orderdb.DB{Bun: bunDB}

	var rateCache rates.Cache
	if redisClient != nil {
		rateCache = redisClient
	}
	rateProvider := rates.NewProvider(rateStore, rateCache, log, cfg.Exchange.DefaultRate, cfg.Exchange.Freshness)

	if cfg.Exchange.RefreshEnabled {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			log.Fatal("RATES", fmt.Sprintf("Failed to create scheduler: %v", err))
		}
		fetcher := rates.NewFetcher(rateStore, nil, log, cfg.Exchange.FeedURL)
		if err := fetcher.Schedule(scheduler, cfg.Exchange.RefreshInterval); err != nil {
			log.Fatal("RATES", fmt.Sprintf("Failed to schedule rate refresh: %v", err))
		}
		scheduler.Start()
		defer scheduler.Shutdown()
		log.Info("RATES", fmt.Sprintf("Rate refresh scheduled every %s", cfg.Exchange.RefreshInterval))
	}

	catalogService := catalog.NewService(catalogStore)
	couponService := coupon.NewService(couponStore, log)
	qrGenerator := qr.NewGenerator(cfg.Tickets.QRSecret)
	ticketIssuer := tickets.NewIssuer(orderStore, objectStore, qrGenerator, log)
	telegram := notify.NewTelegram(cfg.Telegram, orderStore, nil, log)

	orderService := order.NewService(
		orderStore,
		catalogStore,
		bankStore,
		couponService,
		rateProvider,
		objectStore,
		publisher,
		telegram,
		ticketIssuer,
		log,
	)

	catalogHandler := &catalog_api.Handler{Catalog: catalogService}
	orderHandler := &order_api.Handler{
		Orders:  orderService,
		Coupons: couponService,
		Rates:   rateProvider,
	}
	adminHandler := &backoffice_api.Handler{
		Orders:   orderService,
		Catalog:  catalogStore,
		Coupons:  couponStore,
		Banks:    bankStore,
		Receipts: objectStore,
	}

	authMiddleware := auth.DevMiddleware()
	if cfg.OIDC.Issuer != "" {
		authMiddleware = auth.Middleware(cfg.OIDC.Issuer)
		log.Info("AUTH", "OIDC token verification enabled for "+cfg.OIDC.Issuer)
	} else {
		log.Warn("AUTH", "OIDC_ISSUER not set, admin tokens are NOT verified")
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public storefront routes ---
		r.Get("/events", catalogHandler.ListEvents)
		r.Get("/events/{eventId}", catalogHandler.GetEventDetail)
		r.Get("/exchange-rate", orderHandler.GetExchangeRate)
		r.Post("/coupons/validate", orderHandler.ValidateCoupon)
		r.Post("/checkout", orderHandler.Checkout)
		r.Get("/orders/{orderId}", orderHandler.GetOrder)

		// --- Admin back office ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(auth.RequireAdmin)

			r.Get("/orders", adminHandler.ListOrders)
			r.Get("/orders/{orderId}", adminHandler.GetOrder)
			r.Post("/orders/{orderId}/approve", adminHandler.ApproveOrder)
			r.Post("/orders/{orderId}/reject", adminHandler.RejectOrder)

			r.Get("/events", adminHandler.ListEvents)
			r.Post("/events", adminHandler.CreateEvent)
			r.Put("/events/{eventId}", adminHandler.UpdateEvent)

			r.Post("/tiers", adminHandler.CreateTier)
			r.Put("/tiers/{tierId}", adminHandler.UpdateTier)

			r.Get("/coupons", adminHandler.ListCoupons)
			r.Post("/coupons", adminHandler.CreateCoupon)
			r.Put("/coupons/{couponId}", adminHandler.UpdateCoupon)
			r.Delete("/coupons/{couponId}", adminHandler.DeleteCoupon)

			r.Get("/banks", adminHandler.ListBanks)
			r.Post("/banks", adminHandler.CreateBank)
			r.Put("/banks/{bankId}", adminHandler.UpdateBank)
			r.Delete("/banks/{bankId}", adminHandler.DeleteBank)
		})
	})
	log.Info("ROUTER", "Storefront routes registered under /api/v1, back office under /api/v1/admin")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "🚀 Ticket Store running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	}
	log.Info("APP", "Shutdown complete")
}

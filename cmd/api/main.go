package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gbmoto/magazzino-backend/api/routes"
	"github.com/gbmoto/magazzino-backend/internal/auth"
	"github.com/gbmoto/magazzino-backend/internal/bom"
	"github.com/gbmoto/magazzino-backend/internal/catalog"
	"github.com/gbmoto/magazzino-backend/internal/deliveries"
	"github.com/gbmoto/magazzino-backend/internal/fulfillment"
	"github.com/gbmoto/magazzino-backend/internal/inventory"
	"github.com/gbmoto/magazzino-backend/internal/orders"
	"github.com/gbmoto/magazzino-backend/internal/suppliers"
	"github.com/gbmoto/magazzino-backend/internal/users"
	"github.com/gbmoto/magazzino-backend/pkg/auth/session"
	"github.com/gbmoto/magazzino-backend/pkg/config"
	"github.com/gbmoto/magazzino-backend/pkg/db"
	"github.com/gbmoto/magazzino-backend/pkg/logger"
	"github.com/gbmoto/magazzino-backend/pkg/metrics"
	"github.com/gbmoto/magazzino-backend/pkg/migrate"
	"github.com/gbmoto/magazzino-backend/pkg/outbox"
	"github.com/gbmoto/magazzino-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	resolver, err := bom.NewResolver(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create bom resolver", err)
		os.Exit(1)
	}

	meters := metrics.NewFulfillmentMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	inventoryService, err := inventory.NewService(
		inventory.NewRepository(gormDB),
		dbClient,
		outboxService,
		meters,
		cfg.Fulfillment.WriteConflictRetries,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	suppliersRepo := suppliers.NewRepository(gormDB)
	suppliersService, err := suppliers.NewService(suppliersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create suppliers service", err)
		os.Exit(1)
	}

	deliveriesRepo := deliveries.NewRepository(gormDB)
	deliveriesService, err := deliveries.NewService(deliveriesRepo, suppliersRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create deliveries service", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillment.NewService(
		ordersRepo,
		deliveriesRepo,
		inventoryService,
		resolver,
		dbClient,
		outboxService,
		meters,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:        authService,
			Catalog:     catalogService,
			Resolver:    resolver,
			Inventory:   inventoryService,
			Orders:      ordersService,
			Suppliers:   suppliersService,
			Deliveries:  deliveriesService,
			Fulfillment: fulfillmentService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

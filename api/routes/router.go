package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gbmoto/magazzino-backend/api/controllers"
	"github.com/gbmoto/magazzino-backend/api/middleware"
	"github.com/gbmoto/magazzino-backend/internal/auth"
	"github.com/gbmoto/magazzino-backend/internal/bom"
	"github.com/gbmoto/magazzino-backend/internal/catalog"
	"github.com/gbmoto/magazzino-backend/internal/deliveries"
	"github.com/gbmoto/magazzino-backend/internal/fulfillment"
	"github.com/gbmoto/magazzino-backend/internal/inventory"
	"github.com/gbmoto/magazzino-backend/internal/orders"
	"github.com/gbmoto/magazzino-backend/internal/suppliers"
	"github.com/gbmoto/magazzino-backend/pkg/auth/session"
	"github.com/gbmoto/magazzino-backend/pkg/config"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	"github.com/gbmoto/magazzino-backend/pkg/logger"
	"github.com/gbmoto/magazzino-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth        auth.Service
	Catalog     catalog.Service
	Resolver    *bom.Resolver
	Inventory   inventory.Service
	Orders      orders.Service
	Suppliers   suppliers.Service
	Deliveries  deliveries.Service
	Fulfillment fulfillment.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	db controllers.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, db, redisClient, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/components", func(r chi.Router) {
			r.Post("/", controllers.ComponentCreate(svcs.Catalog, logg))
			r.Get("/", controllers.ComponentList(svcs.Catalog, logg))
			r.Get("/scan/{code}", controllers.ComponentScan(svcs.Catalog, logg))
			r.Get("/sku/{sku}", controllers.ComponentFindBySKU(svcs.Catalog, logg))
			r.Route("/{componentID}", func(r chi.Router) {
				r.Get("/", controllers.ComponentGet(svcs.Catalog, logg))
				r.Patch("/", controllers.ComponentUpdate(svcs.Catalog, logg))
				r.Delete("/", controllers.ComponentDelete(svcs.Catalog, logg))
				r.Get("/parts", controllers.ComponentListParts(svcs.Catalog, logg))
				r.Put("/parts/{partID}", controllers.ComponentSetPart(svcs.Catalog, logg))
				r.Delete("/parts/{partID}", controllers.ComponentRemovePart(svcs.Catalog, logg))
				r.Get("/usages", controllers.ComponentListUsages(svcs.Catalog, logg))
				r.Get("/resolve", controllers.ComponentResolve(svcs.Resolver, logg))
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/", controllers.StockList(svcs.Inventory, logg))
			r.Get("/movements", controllers.MovementsList(svcs.Inventory, logg))
			r.Route("/{componentID}", func(r chi.Router) {
				r.Get("/", controllers.StockGet(svcs.Inventory, logg))
				r.Post("/adjust", controllers.StockAdjust(svcs.Inventory, logg))
				r.Post("/verify", controllers.StockVerify(svcs.Inventory, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderImport(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.OrderGet(svcs.Orders, logg))
				r.Post("/begin-pick", controllers.OrderBeginPick(svcs.Fulfillment, logg))
				r.Post("/complete-pick", controllers.OrderCompletePick(svcs.Fulfillment, logg))
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.SupplierCreate(svcs.Suppliers, logg))
			r.Get("/", controllers.SupplierList(svcs.Suppliers, logg))
			r.Route("/{supplierID}", func(r chi.Router) {
				r.Get("/", controllers.SupplierGet(svcs.Suppliers, logg))
				r.Put("/", controllers.SupplierUpdate(svcs.Suppliers, logg))
				r.Delete("/", controllers.SupplierDelete(svcs.Suppliers, logg))
			})
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", controllers.DeliveryCreate(svcs.Deliveries, logg))
			r.Get("/", controllers.DeliveryList(svcs.Deliveries, logg))
			r.Route("/{deliveryID}", func(r chi.Router) {
				r.Get("/", controllers.DeliveryGet(svcs.Deliveries, logg))
				r.Post("/receive", controllers.DeliveryReceive(svcs.Fulfillment, logg))
			})
		})
	})

	// Integrity holds come off only by an admin's hand, and only admins
	// create accounts.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Post("/auth/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/stock/{componentID}/release-hold", controllers.StockReleaseHold(svcs.Inventory, logg))
	})

	return r
}

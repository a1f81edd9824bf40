package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bazaarhq/bazaar-backend/api/controllers"
	"github.com/bazaarhq/bazaar-backend/api/middleware"
	cartsvc "github.com/bazaarhq/bazaar-backend/internal/cart"
	cashiersvc "github.com/bazaarhq/bazaar-backend/internal/cashier"
	checkoutsvc "github.com/bazaarhq/bazaar-backend/internal/checkout"
	paymentsvc "github.com/bazaarhq/bazaar-backend/internal/payment"
	registersvc "github.com/bazaarhq/bazaar-backend/internal/register"
	shippingsvc "github.com/bazaarhq/bazaar-backend/internal/shipping"
	"github.com/bazaarhq/bazaar-backend/pkg/config"
	"github.com/bazaarhq/bazaar-backend/pkg/db"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
	"github.com/bazaarhq/bazaar-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	MetricsRegistry *prometheus.Registry
	CartService     cartsvc.Service
	ShippingService shippingsvc.Service
	CheckoutService checkoutsvc.Service
	PaymentService  paymentsvc.Service
	RegisterService registersvc.Service
	CashierService  cashiersvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var (
		idemStore   redis.IdempotencyStore
		cachePinger redis.Pinger
	)
	if deps.Redis != nil {
		idemStore = deps.Redis
		cachePinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.DB, cachePinger, logg))
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", controllers.CartAdd(deps.CartService, logg))
			r.Get("/", controllers.CartList(deps.CartService, logg))
			r.Get("/items", controllers.CartList(deps.CartService, logg))
			r.Put("/update/{itemId}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/remove/{itemId}", controllers.CartRemoveItem(deps.CartService, logg))

			r.Post("/shipping/add", controllers.ShippingAdd(deps.ShippingService, logg))
			r.Get("/shipping", controllers.ShippingList(deps.ShippingService, logg))

			r.Post("/checkout", controllers.CheckoutPrepare(deps.CheckoutService, logg))
			r.Post("/payment/verify", controllers.PaymentVerify(deps.PaymentService, logg))
		})

		r.Route("/cashier", func(r chi.Router) {
			r.Post("/register/open", controllers.RegisterOpen(deps.RegisterService, logg))
			r.Post("/register/close", controllers.RegisterClose(deps.RegisterService, logg))
			r.Get("/register-status", controllers.RegisterStatus(deps.RegisterService, logg))
			r.Post("/checkout", controllers.CashierCheckout(deps.CashierService, logg))
			r.Get("/products/{id}/pricing", controllers.ProductPricing(deps.CashierService, logg))
			r.Get("/recent-transactions", controllers.RecentTransactions(deps.CashierService, logg))
		})
	})

	return r
}

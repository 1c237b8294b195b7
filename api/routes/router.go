package routes

import (
	"context"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worldtek/canteen-backend/api/controllers"
	"github.com/worldtek/canteen-backend/api/middleware"
	"github.com/worldtek/canteen-backend/internal/auth"
	"github.com/worldtek/canteen-backend/internal/canteens"
	"github.com/worldtek/canteen-backend/internal/cart"
	"github.com/worldtek/canteen-backend/internal/chatbot"
	"github.com/worldtek/canteen-backend/internal/dashboard"
	"github.com/worldtek/canteen-backend/internal/items"
	"github.com/worldtek/canteen-backend/internal/menus"
	"github.com/worldtek/canteen-backend/internal/orders"
	"github.com/worldtek/canteen-backend/internal/wallet"
	"github.com/worldtek/canteen-backend/pkg/config"
	"github.com/worldtek/canteen-backend/pkg/db"
	"github.com/worldtek/canteen-backend/pkg/logger"
	"github.com/worldtek/canteen-backend/pkg/metrics"
	"github.com/worldtek/canteen-backend/pkg/redis"
)

type chatReplySender interface {
	SendText(ctx context.Context, to, text string) error
}

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth      auth.Service
	Canteens  canteens.Service
	Items     items.Service
	Menus     menus.Service
	Cart      cart.Service
	Orders    orders.Service
	Wallet    wallet.Service
	Dashboard dashboard.Service
	Chatbot   chatbot.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	whatsapp chatReplySender,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPMobileLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(otpPolicy, redisClient, logg)).Post("/otp/request", controllers.AuthRequestOTP(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, redisClient, logg)).Post("/otp/resend", controllers.AuthResendOTP(svcs.Auth, logg))
		r.Post("/otp/verify", controllers.AuthVerifyOTP(svcs.Auth, logg))
	})

	// Public catalog browsing and provider callbacks.
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/canteens", controllers.CanteenList(svcs.Canteens, logg))
		r.Get("/menus/available", controllers.MenuAvailability(svcs.Menus, logg))
		r.Get("/menus/{menuId}", controllers.MenuGet(svcs.Menus, logg))
		r.Post("/items/remaining", controllers.ItemRemainingQuantities(svcs.Items, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/whatsapp", controllers.ChatbotWebhook(svcs.Chatbot, whatsapp, logg))
		r.Post("/payments/confirm", controllers.PaymentConfirm(svcs.Orders, logg))
	})

	// Authenticated ordering surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Put("/", controllers.CartUpsert(svcs.Cart, logg))
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderPlace(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", controllers.WalletBalance(svcs.Wallet, logg))
			r.Get("/statement", controllers.WalletStatement(svcs.Wallet, logg))
		})
	})

	// Admin surface: catalog management, counter operations, dashboard.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminKey(cfg.Admin, logg))

		r.Route("/canteens", func(r chi.Router) {
			r.Post("/", controllers.CanteenCreate(svcs.Canteens, logg))
			r.Get("/", controllers.CanteenList(svcs.Canteens, logg))
			r.Get("/{canteenId}", controllers.CanteenGet(svcs.Canteens, logg))
			r.Patch("/{canteenId}", controllers.CanteenUpdate(svcs.Canteens, logg))
			r.Delete("/{canteenId}", controllers.CanteenDeactivate(svcs.Canteens, logg))
			r.Get("/{canteenId}/items", controllers.ItemList(svcs.Items, logg))
			r.Get("/{canteenId}/menus", controllers.MenuList(svcs.Menus, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.ItemCreate(svcs.Items, logg))
			r.Get("/{itemId}", controllers.ItemGet(svcs.Items, logg))
			r.Patch("/{itemId}", controllers.ItemUpdate(svcs.Items, logg))
			r.Delete("/{itemId}", controllers.ItemDeactivate(svcs.Items, logg))
		})

		r.Route("/menus", func(r chi.Router) {
			r.Post("/", controllers.MenuCreate(svcs.Menus, logg))
			r.Patch("/{menuId}", controllers.MenuUpdate(svcs.Menus, logg))
			r.Delete("/{menuId}", controllers.MenuDeactivate(svcs.Menus, logg))
		})

		r.Route("/configurations", func(r chi.Router) {
			r.Post("/", controllers.ConfigurationCreate(svcs.Menus, logg))
			r.Get("/", controllers.ConfigurationList(svcs.Menus, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/complete", controllers.OrderComplete(svcs.Orders, logg))
		})

		r.Post("/wallet/credit", controllers.WalletCredit(svcs.Wallet, logg))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/overview", controllers.DashboardOverview(svcs.Dashboard, logg))
			r.Get("/orders", controllers.DashboardOrders(svcs.Dashboard, logg))
		})
	})

	return r
}

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/worldtek/canteen-backend/api/routes"
	"github.com/worldtek/canteen-backend/internal/auth"
	"github.com/worldtek/canteen-backend/internal/canteens"
	"github.com/worldtek/canteen-backend/internal/cart"
	"github.com/worldtek/canteen-backend/internal/chatbot"
	"github.com/worldtek/canteen-backend/internal/dashboard"
	"github.com/worldtek/canteen-backend/internal/items"
	"github.com/worldtek/canteen-backend/internal/menus"
	"github.com/worldtek/canteen-backend/internal/orders"
	"github.com/worldtek/canteen-backend/internal/users"
	"github.com/worldtek/canteen-backend/internal/wallet"
	"github.com/worldtek/canteen-backend/pkg/config"
	"github.com/worldtek/canteen-backend/pkg/db"
	"github.com/worldtek/canteen-backend/pkg/gateway"
	"github.com/worldtek/canteen-backend/pkg/logger"
	"github.com/worldtek/canteen-backend/pkg/messaging"
	"github.com/worldtek/canteen-backend/pkg/metrics"
	"github.com/worldtek/canteen-backend/pkg/migrate"
	"github.com/worldtek/canteen-backend/pkg/redis"
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

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logg.Error(context.Background(), "failed to load timezone", err)
		os.Exit(1)
	}

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

	gatewayClient, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	// Messaging clients are optional; unconfigured channels stay silent.
	var whatsappClient *messaging.WhatsAppClient
	if cfg.WhatsApp.BaseURL != "" {
		whatsappClient, err = messaging.NewWhatsAppClient(cfg.WhatsApp)
		if err != nil {
			logg.Error(context.Background(), "failed to create whatsapp client", err)
			os.Exit(1)
		}
	}
	var smsClient *messaging.SMSClient
	if cfg.SMS.BaseURL != "" {
		smsClient, err = messaging.NewSMSClient(cfg.SMS)
		if err != nil {
			logg.Error(context.Background(), "failed to create sms client", err)
			os.Exit(1)
		}
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	canteensRepo := canteens.NewRepository(gormDB)
	itemsRepo := items.NewRepository(gormDB)
	menusRepo := menus.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	dashboardRepo := dashboard.NewRepository(gormDB)

	canteensSvc, err := canteens.NewService(canteensRepo)
	requireService(logg, "canteens", err)
	itemsSvc, err := items.NewService(itemsRepo, loc)
	requireService(logg, "items", err)
	menusSvc, err := menus.NewService(menusRepo, loc)
	requireService(logg, "menus", err)
	cartSvc, err := cart.NewService(cartRepo, dbClient, itemsRepo, loc)
	requireService(logg, "cart", err)
	walletSvc, err := wallet.NewService(walletRepo)
	requireService(logg, "wallet", err)
	dashboardSvc, err := dashboard.NewService(dashboardRepo, loc)
	requireService(logg, "dashboard", err)

	// Assign through a local interface so an unconfigured client stays a
	// true nil inside the services.
	var notifier interface {
		SendText(ctx context.Context, to, text string) error
	}
	if whatsappClient != nil {
		notifier = whatsappClient
	}
	ordersSvc, err := orders.NewService(
		ordersRepo,
		cartRepo,
		walletRepo,
		usersRepo,
		dbClient,
		gatewayClient,
		notifier,
		logg,
		cfg.Gateway.SurchargePercent,
		loc,
	)
	requireService(logg, "orders", err)

	var otpSender interface {
		Send(ctx context.Context, mobile, message, templateID string) error
	}
	if smsClient != nil {
		otpSender = smsClient
	}
	authSvc, err := auth.NewService(usersRepo, redisClient, otpSender, cfg.OTP, cfg.JWT)
	requireService(logg, "auth", err)

	chatbotSvc, err := chatbot.NewService(
		canteensSvc,
		menusSvc,
		cartSvc,
		ordersSvc,
		usersRepo,
		redisClient,
		cfg.Chatbot.SessionTTL,
	)
	requireService(logg, "chatbot", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, notifier, routes.Services{
			Auth:      authSvc,
			Canteens:  canteensSvc,
			Items:     itemsSvc,
			Menus:     menusSvc,
			Cart:      cartSvc,
			Orders:    ordersSvc,
			Wallet:    walletSvc,
			Dashboard: dashboardSvc,
			Chatbot:   chatbotSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name+" service", err)
		os.Exit(1)
	}
}

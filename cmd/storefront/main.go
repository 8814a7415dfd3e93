package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-client/config"
	"storefront-client/internal/delivery/http/middleware"
	v1 "storefront-client/internal/delivery/http/v1"
	"storefront-client/internal/domain"
	"storefront-client/internal/infrastructure/backend"
	"storefront-client/internal/infrastructure/cache"
	"storefront-client/internal/infrastructure/razorpay"
	"storefront-client/internal/infrastructure/session"
	"storefront-client/internal/usecase"
	"storefront-client/pkg/logger"

	"github.com/NYTimes/gziphandler"
)

var version = "dev"

// signInNavigator reports forced sign-outs. The UI learns about them from
// the 401 problem body carrying the redirect.
type signInNavigator struct{}

func (signInNavigator) Navigate(path string) {
	logger.Warn().Str("redirect", path).Msg("Session ended, sending user to sign in")
}

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	// Session
	store := session.NewFileStore(cfg.SessionFile, cfg.BackendURL, session.NewMemoryStore(memCache))
	keeper := session.NewKeeper(store, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Backend client with the refresh interceptor
	client, err := backend.NewClient(backend.Options{
		BaseURL:   cfg.BackendURL,
		ImageHost: cfg.ImageHost,
		Timeout:   cfg.HTTPTimeout,
		RPS:       cfg.OutboundRPS,
		Burst:     cfg.OutboundBurst,
	}, keeper, signInNavigator{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build backend client")
	}

	// Payments
	bridge := razorpay.NewBridge(memCache, cfg.PaymentTimeout)
	gateway := razorpay.NewGateway(cfg.RazorpayKeyID, bridge, cfg.PaymentTimeout)

	// --- Modules Initialization ---
	checkoutUC := usecase.NewCheckoutUsecase(client, usecase.CheckoutConfig{
		MaxItemQuantity:          cfg.MaxItemQuantity,
		FailedPaymentOrderStatus: domain.OrderStatus(cfg.FailedPaymentOrderStatus),
	})
	couponUC := usecase.NewCouponUsecase(client, usecase.NewCouponEvaluator(usecase.CouponPolicy{
		EnforceUsageLimit: cfg.CouponEnforceUsageLimit,
	}))
	authUC := usecase.NewAuthUsecase(client, keeper, checkoutUC)
	cartUC := usecase.NewCartUsecase(client, keeper, checkoutUC, couponUC, cfg.MaxItemQuantity)
	orderUC := usecase.NewOrderUsecase(checkoutUC, client, gateway, memCache, cfg.Currency, cfg.PaymentTimeout)

	handlers := v1.Handlers{
		Auth:  v1.NewAuthHandler(authUC),
		Cart:  v1.NewCartHandler(cartUC),
		Order: v1.NewOrderHandler(cartUC, orderUC, bridge, cfg.RazorpayKeyID),
		Config: v1.NewConfigHandler(memCache, v1.PublicConfig{
			GoogleClientID:  cfg.GoogleClientID,
			RazorpayKeyID:   cfg.RazorpayKeyID,
			Currency:        cfg.Currency,
			MaxItemQuantity: cfg.MaxItemQuantity,
		}),
	}

	// Set up Router
	mux := http.NewServeMux()
	v1.Register(mux, handlers, middleware.RequireSession(keeper))

	addr := fmt.Sprintf(":%s", cfg.Port)

	// 20 req/s, burst 40, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		20,
		40,
		time.Minute,
		3*time.Minute,
	)

	// Apply CORS, Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg.AllowedOrigin)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart("storefront", version, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.ServiceStop("storefront")
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

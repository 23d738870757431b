// @title           Decant Boutique API
// @version         1.0.0
// @description     Backend API for a single-seller fragrance decant storefront: catalog and boutique shelf, stock-aware cart validation, Stripe checkout with webhook-driven order reconciliation, and the admin back-office.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"decant-boutique-backend/docs"
	"decant-boutique-backend/internal/config"
	"decant-boutique-backend/internal/database"
	"decant-boutique-backend/internal/events"
	"decant-boutique-backend/internal/handlers"
	"decant-boutique-backend/internal/middleware"
	"decant-boutique-backend/internal/notify"
	"decant-boutique-backend/internal/payments"
	"decant-boutique-backend/internal/removebg"
	"decant-boutique-backend/internal/services"
	"decant-boutique-backend/internal/shippo"
	"decant-boutique-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if baseURL, err := url.Parse(cfg.BaseURL); err == nil && baseURL.Host != "" {
		docs.SwaggerInfo.Host = baseURL.Host
		if baseURL.Scheme == "https" {
			docs.SwaggerInfo.Schemes = []string{"https", "http"}
		} else {
			docs.SwaggerInfo.Schemes = []string{"http", "https"}
		}
	}

	ctx := context.Background()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize migrator", "error", err)
		os.Exit(1)
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	migrator.Close()
	logger.Info("Migrations completed successfully")

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database client", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	// Public catalog reads go through PostgREST when a publishable key is set
	var catalogReader services.CatalogReader = dbClient
	if cfg.Supabase.PublishableKey != "" {
		catalogClient, err := supabase.NewCatalogClient(cfg)
		if err != nil {
			logger.Warn("Catalog client unavailable, reading from database", "error", err)
		} else {
			catalogReader = catalogClient
		}
	}

	var imageStorage services.ImageStorage
	storageKey := cfg.Supabase.ServiceRoleKey
	if storageKey == "" {
		storageKey = cfg.Supabase.PublishableKey
	}
	if storageKey != "" {
		storageClient, err := supabase.NewStorageClient(cfg.Supabase.URL, storageKey, cfg.Supabase.StorageBucket)
		if err != nil {
			logger.Warn("Storage client unavailable, image tools disabled", "error", err)
		} else {
			imageStorage = storageClient
		}
	}

	var ownerID *uuid.UUID
	if cfg.StoreOwnerID != "" {
		id, err := uuid.Parse(cfg.StoreOwnerID)
		if err != nil {
			logger.Error("STORE_OWNER_ID is not a valid UUID", "error", err)
			os.Exit(1)
		}
		ownerID = &id
	}

	stripeClient := payments.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	mailer := notify.NewMailer(cfg.Resend.APIKey, cfg.Resend.From, cfg.AdminEmail, cfg.PublicSiteURL)
	if !mailer.Enabled() {
		logger.Warn("RESEND_API_KEY not set, order emails are disabled")
	}
	publisher := events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	removeBG := removebg.NewClient(cfg.RemoveBG.BaseURL, cfg.RemoveBG.APIKey)
	shippoClient := shippo.NewClient(cfg.Shippo.BaseURL, cfg.Shippo.APIKey, cfg.Shippo.FromAddressID, cfg.Shippo.ParcelTemplate)

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("Invalid REDIS_URL, rate limiting disabled", "error", err)
		} else {
			rdb = redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("Redis unreachable, rate limiting disabled", "error", err)
				rdb.Close()
				rdb = nil
			}
			cancel()
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Services
	discountService := services.NewDiscountService(dbClient, cfg.Stripe.Currency)
	checkoutService := services.NewCheckoutService(dbClient, stripeClient, discountService, services.CheckoutOptions{
		Currency:         cfg.Stripe.Currency,
		ShippingCents:    cfg.Stripe.ShippingFlatCents,
		AllowedCountries: cfg.Stripe.AllowedCountries,
		PublicSiteURL:    cfg.PublicSiteURL,
	})
	reconciler := services.NewReconciler(dbClient, stripeClient, mailer, publisher, logger)
	webhookService := services.NewWebhookService(stripeClient, dbClient, reconciler, logger)
	catalogService := services.NewCatalogService(catalogReader)
	adminCatalogService := services.NewAdminCatalogService(dbClient, imageStorage, ownerID, logger)
	importService := services.NewImportService(dbClient, ownerID, logger)
	storageService := services.NewStorageService(removeBG, dbClient, imageStorage, logger)
	orderService := services.NewOrderService(dbClient, shippoClient, logger)
	shelfService := services.NewShelfService(dbClient)

	// Handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, discountService)
	ordersHandler := handlers.NewOrdersHandler(reconciler, orderService)
	webhookHandler := handlers.NewWebhookHandler(webhookService, orderService, cfg.Shippo.WebhookToken)
	adminHandler := handlers.NewAdminHandler(adminCatalogService, importService)
	imagesHandler := handlers.NewImagesHandler(storageService)
	shelvesHandler := handlers.NewShelvesHandler(shelfService)
	profilesHandler := handlers.NewProfilesHandler(dbClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health checks (no auth)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/ready", handlers.ReadyHandler(dbClient))

	limited := middleware.RateLimit(rdb, middleware.RateLimitConfig{
		Capacity:       cfg.Redis.RateLimitBurst,
		RefillInterval: time.Duration(cfg.Redis.RateLimitEvery) * time.Second,
		Prefix:         "rl:storefront",
	}, logger)

	api := router.Group("/api/v1")

	// Public storefront
	api.GET("/fragrances", catalogHandler.ListFragrances)
	api.GET("/fragrances/:id", catalogHandler.GetFragrance)
	api.GET("/brands", catalogHandler.ListBrands)
	api.GET("/shelves/:user_id", catalogHandler.GetShelf)
	api.POST("/cart/validate", limited, checkoutHandler.ValidateCart)
	api.POST("/discounts/validate", limited, checkoutHandler.ValidateDiscount)
	api.POST("/checkout", limited, checkoutHandler.CreateCheckout)
	api.POST("/orders/ensure", limited, ordersHandler.EnsureOrder)

	// Webhooks (no auth, verified by signature or token)
	api.POST("/webhooks/stripe", webhookHandler.HandleStripe)
	api.POST("/webhooks/shippo", webhookHandler.HandleShippo)

	auth := middleware.AuthMiddleware(cfg)
	api.GET("/me", auth, profilesHandler.GetMe)

	// Shelf editing (owner or admin)
	shelves := api.Group("/shelves/:user_id", auth, middleware.RequireOwnerOrAdmin(dbClient, "user_id"))
	shelves.PUT("/links", shelvesHandler.UpdateLinks)
	shelves.PUT("/brands/:brand_slug", shelvesHandler.SetBrandPosition)

	admin := api.Group("/admin", auth, middleware.RequireAdmin(dbClient))
	admin.POST("/fragrances", adminHandler.CreateFragrance)
	admin.PATCH("/fragrances/:id", adminHandler.UpdateFragrance)
	admin.DELETE("/fragrances/:id", adminHandler.DeleteFragrance)
	admin.PUT("/fragrances/:id/decants", adminHandler.ReplaceDecants)
	admin.POST("/fragrances/:id/remove-background", imagesHandler.RemoveBackground)
	admin.POST("/images/fix", imagesHandler.FixImages)
	admin.POST("/import", adminHandler.Import)
	admin.PUT("/brands/order", adminHandler.SetBrandOrder)
	admin.GET("/orders", ordersHandler.ListOrders)
	admin.GET("/orders/:id", ordersHandler.GetOrder)
	admin.PATCH("/orders/:id/fulfilled", ordersHandler.SetFulfilled)
	admin.PATCH("/orders/:id/comment", ordersHandler.SetComment)
	admin.POST("/orders/:id/label", ordersHandler.PurchaseLabel)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
}

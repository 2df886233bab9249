package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/config"
	paymentControllers "github.com/Justjoseph0/e-commerce-backend/controllers/payment"
	"github.com/Justjoseph0/e-commerce-backend/database"
	"github.com/Justjoseph0/e-commerce-backend/media"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/Justjoseph0/e-commerce-backend/routes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("✅ Starting application...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// Init DB
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ AutoMigrate failed: %v", err)
	}

	gateway := newGateway(cfg)
	hub := notify.NewHub(cfg.CORSOrigins)
	notifier := notify.Multi{notify.LogNotifier{}, hub}

	var images media.ImageStore
	if cfg.CloudinaryURL != "" {
		store, err := media.NewCloudinaryStore(cfg.CloudinaryURL, "products")
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		images = store
	} else {
		log.Println("⚠️ CLOUDINARY_URL not set, image uploads disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Gateway:  gateway,
		Notifier: notifier,
		Hub:      hub,
		Images:   images,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Re-verify payments whose webhook never arrived
	go paymentControllers.RunReconciler(ctx, db, gateway, notifier, paymentControllers.SweepConfig{
		Interval: cfg.ReconcileInterval,
		After:    cfg.ReconcileAfter,
		Expire:   cfg.ReconcileExpire,
	})

	log.Printf("🚀 Server running on port %s (payments via %s)...", cfg.Port, gateway.Name())
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newGateway(cfg *config.Config) payment.Gateway {
	switch cfg.PaymentProvider {
	case "stripe":
		return payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.PaymentSecretKey,
			WebhookSecret: cfg.PaymentWebhookSecret,
			Currency:      cfg.PaymentCurrency,
			Timeout:       cfg.PaymentTimeout,
		})
	case "http":
		return payment.NewHTTPGateway(payment.HTTPConfig{
			BaseURL:       cfg.PaymentBaseURL,
			SecretKey:     cfg.PaymentSecretKey,
			WebhookSecret: cfg.PaymentWebhookSecret,
			Currency:      cfg.PaymentCurrency,
			Timeout:       cfg.PaymentTimeout,
		})
	default:
		log.Fatalf("❌ Unknown PAYMENT_PROVIDER %q", cfg.PaymentProvider)
		return nil
	}
}

// cors rejects credentials together with a wildcard origin.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

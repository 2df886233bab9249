package routes

import (
	"net/http"

	paymentControllers "github.com/Justjoseph0/e-commerce-backend/controllers/payment"
	productcontroller "github.com/Justjoseph0/e-commerce-backend/controllers/product"
	reviewControllers "github.com/Justjoseph0/e-commerce-backend/controllers/review"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes registers the catalog, reviews and the payment webhook.
func SetupPublicRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/products", productcontroller.GetProducts(d.DB))
	r.GET("/products/:id", productcontroller.GetProductByID(d.DB))
	r.GET("/products/:id/reviews", reviewControllers.GetProductReviews(d.DB))
	r.GET("/categories", productcontroller.GetAllCategories(d.DB))

	payment := r.Group("/payment")
	{
		// Webhook endpoint: middleware verifies the gateway signature
		payment.POST("/webhook",
			middleware.PaymentWebhookAuth(d.Gateway),
			paymentControllers.WebhookHandler(d.DB, d.Gateway, d.Notifier),
		)
	}
}

package routes

import (
	addressControllers "github.com/Justjoseph0/e-commerce-backend/controllers/address"
	cartControllers "github.com/Justjoseph0/e-commerce-backend/controllers/cart"
	orderControllers "github.com/Justjoseph0/e-commerce-backend/controllers/order"
	paymentControllers "github.com/Justjoseph0/e-commerce-backend/controllers/payment"
	reviewControllers "github.com/Justjoseph0/e-commerce-backend/controllers/review"
	userControllers "github.com/Justjoseph0/e-commerce-backend/controllers/user"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes registers all “/user/*” endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	db := d.DB
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(d.Config.JWTSecret), middleware.LoadUser(db))
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("/", userControllers.GetUser(db))    // GET /user/
		userGroup.PUT("/", userControllers.UpdateUser(db)) // PUT /user/

		// ──────────────── Addresses ────────────────
		addressGroup := userGroup.Group("/addresses")
		{
			addressGroup.GET("", addressControllers.GetAddresses(db))
			addressGroup.POST("", addressControllers.CreateAddress(db))
			addressGroup.DELETE("/:id", addressControllers.DeleteAddress(db))
		}

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(db))                 // GET /user/cart
			cartGroup.POST("", cartControllers.AddCartItem(db))                // POST /user/cart
			cartGroup.PATCH("", cartControllers.UpdateCartItem(db))            // PATCH /user/cart
			cartGroup.DELETE("", cartControllers.ClearUserCart(db))            // DELETE /user/cart
			cartGroup.DELETE("/items/:id", cartControllers.DeleteCartItem(db)) // DELETE /user/cart/items/:id
			cartGroup.POST("/sync", cartControllers.SyncUserCart(db))          // POST /user/cart/sync
		}

		// ──────────────── Checkout & Orders ────────────────
		userGroup.POST("/checkout", orderControllers.CheckoutHandler(db, d.Gateway, d.Notifier, d.Config.PaymentCallbackURL))
		userGroup.GET("/orders", orderControllers.GetUserOrdersHandler(db))
		userGroup.GET("/orders/:reference", orderControllers.GetOrderHandler(db))
		userGroup.POST("/orders/:reference/pay", orderControllers.PayOrderHandler(db, d.Gateway, d.Config.PaymentCallbackURL))
		userGroup.GET("/payment/verify/:reference", paymentControllers.VerifyHandler(db, d.Gateway, d.Notifier))

		// ──────────────── Reviews ────────────────
		userGroup.GET("/reviews/eligible", reviewControllers.GetEligibleItems(db))
		userGroup.POST("/reviews", reviewControllers.PostReview(db))
	}
}

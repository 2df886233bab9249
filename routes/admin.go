package routes

import (
	"github.com/Justjoseph0/e-commerce-backend/auth"
	orderControllers "github.com/Justjoseph0/e-commerce-backend/controllers/order"
	productcontroller "github.com/Justjoseph0/e-commerce-backend/controllers/product"
	userControllers "github.com/Justjoseph0/e-commerce-backend/controllers/user"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Each group is gated
// on the capability it needs.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	db := d.DB
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateToken(d.Config.JWTSecret), middleware.LoadUser(db))
	{
		// ─────────── User Management ───────────
		adminGroup.GET("/users", middleware.RequireCapability(auth.ViewAllOrders), userControllers.GetAllUsers(db))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		productAdmin.Use(middleware.RequireCapability(auth.ManageCatalog))
		{
			productAdmin.POST("", productcontroller.CreateProductHandler(db))
			productAdmin.PUT("/:id", productcontroller.UpdateProductHandler(db))
			productAdmin.PUT("/:id/sizes", productcontroller.ReplaceSizesHandler(db))
			productAdmin.POST("/:id/image", productcontroller.UploadProductImage(db, d.Images))
			productAdmin.DELETE("/:id", productcontroller.DeleteProductHandler(db))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(db))
			productAdmin.GET("/export-excel", middleware.RequireCapability(auth.ExportReports), productcontroller.ExportProductsToExcel(db))
		}

		// ─────────── Category Management ───────────
		categoryAdmin := adminGroup.Group("/categories")
		categoryAdmin.Use(middleware.RequireCapability(auth.ManageCatalog))
		{
			categoryAdmin.POST("", productcontroller.CreateCategoryHandler(db))
			categoryAdmin.PUT("/:id", productcontroller.UpdateCategory(db))
			categoryAdmin.DELETE("/:id", productcontroller.DeleteCategoryHandler(db))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", middleware.RequireCapability(auth.ViewAllOrders), orderControllers.GetAllOrdersHandler(db))
			orderAdmin.GET("/export-excel", middleware.RequireCapability(auth.ExportReports), orderControllers.ExportOrdersToExcel(db))
			orderAdmin.PUT("/:reference/delivery-status", middleware.RequireCapability(auth.ManageOrders),
				orderControllers.UpdateDeliveryStatusHandler(db, d.Notifier))
		}
	}

	// ─────────── Live Order Feed ───────────
	// Browsers cannot set headers on a websocket handshake, so only this
	// route reads the token from ?token=.
	r.GET("/admin/orders/ws",
		middleware.TokenFromQuery(),
		middleware.ValidateToken(d.Config.JWTSecret),
		middleware.LoadUser(db),
		middleware.RequireCapability(auth.ViewAllOrders),
		orderControllers.OrderFeedHandler(d.Hub),
	)
}

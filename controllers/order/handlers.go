package orderControllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CheckoutInput struct {
	AddressID uint `json:"address_id" binding:"required"`
}

type UpdateDeliveryStatusInput struct {
	DeliveryStatus string `json:"delivery_status" binding:"required"`
}

// POST /user/checkout
func CheckoutHandler(db *gorm.DB, gw payment.Gateway, notifier notify.Notifier, callbackURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CheckoutInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := Checkout(c.Request.Context(), db, gw, notifier, CheckoutRequest{
			UserID:      middleware.UserID(c),
			Email:       middleware.Email(c),
			AddressID:   input.AddressID,
			CallbackURL: callbackURL,
		})
		respondPayment(c, http.StatusCreated, result, err)
	}
}

// POST /user/orders/:reference/pay
func PayOrderHandler(db *gorm.DB, gw payment.Gateway, callbackURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := PayOrder(c.Request.Context(), db, gw, PayRequest{
			UserID:      middleware.UserID(c),
			Email:       middleware.Email(c),
			Reference:   c.Param("reference"),
			CallbackURL: callbackURL,
		})
		respondPayment(c, http.StatusOK, result, err)
	}
}

// respondPayment writes a checkout or payment retry result. A gateway
// failure still names the pending order so the client can retry it.
func respondPayment(c *gin.Context, status int, result *CheckoutResult, err error) {
	if err == nil {
		c.JSON(status, result)
		return
	}
	var appErr *apperr.Error
	if result != nil && errors.As(err, &appErr) && appErr.Kind == apperr.KindPaymentGateway {
		c.JSON(appErr.Status(), gin.H{
			"error":     appErr.Message,
			"retryable": appErr.Retryable,
			"reference": result.Order.Reference,
			"retry_url": "/user/orders/" + result.Order.Reference + "/pay",
		})
		return
	}
	apperr.Respond(c, err)
}

// GET /user/orders
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := ListUserOrders(db, middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /user/orders/:reference
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := GetOrder(db, middleware.UserID(c), middleware.Role(c), c.Param("reference"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := ListOrders(db, OrderFilter{
			Status:         c.Query("status"),
			DeliveryStatus: c.Query("delivery_status"),
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// PUT /admin/orders/:reference/delivery-status
func UpdateDeliveryStatusHandler(db *gorm.DB, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateDeliveryStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := UpdateDeliveryStatus(db, notifier, c.Param("reference"), input.DeliveryStatus)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders/ws
func OrderFeedHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := hub.Serve(c.Writer, c.Request); err != nil {
			log.Printf("⚠️ order feed upgrade failed: %v", err)
		}
	}
}

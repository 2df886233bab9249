package paymentControllers

import (
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /payment/webhook, behind middleware.PaymentWebhookAuth
func WebhookHandler(db *gorm.DB, gw payment.Gateway, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, ok := middleware.PaymentEvent(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated webhook"})
			return
		}

		result, err := HandleWebhook(db, notifier, gw.Name(), ev)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GET /user/payment/verify/:reference
func VerifyHandler(db *gorm.DB, gw payment.Gateway, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := Verify(c.Request.Context(), db, gw, notifier,
			middleware.UserID(c), middleware.Role(c), c.Param("reference"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

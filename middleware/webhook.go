package middleware

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/gin-gonic/gin"
)

const ctxPaymentEvent = "payment_event"

const maxWebhookBody = 1 << 20

// PaymentWebhookAuth authenticates a gateway webhook over the raw body before
// anything else reads it. Rejected deliveries are logged and never processed.
func PaymentWebhookAuth(gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read webhook body"})
			return
		}
		if len(body) > maxWebhookBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "webhook body too large"})
			return
		}

		ev, err := gw.ParseWebhook(body, c.Request.Header)
		if err != nil {
			if errors.Is(err, payment.ErrInvalidSignature) {
				log.Printf("🚫 Rejected %s webhook from %s: %v", gw.Name(), c.ClientIP(), err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
				return
			}
			log.Printf("⚠️ Malformed %s webhook: %v", gw.Name(), err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
			return
		}

		c.Set(ctxPaymentEvent, ev)
		c.Next()
	}
}

// PaymentEvent returns the event authenticated by PaymentWebhookAuth.
func PaymentEvent(c *gin.Context) (*payment.Event, bool) {
	v, ok := c.Get(ctxPaymentEvent)
	if !ok {
		return nil, false
	}
	ev, ok := v.(*payment.Event)
	return ev, ok
}

package paymentControllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/auth"
	orderControllers "github.com/Justjoseph0/e-commerce-backend/controllers/order"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result of applying a gateway outcome to an order.
type ApplyResult struct {
	Order   models.Order `json:"order"`
	Changed bool         `json:"changed"`
	// Ignored is set when the gateway reported a terminal status that
	// contradicts the one already recorded.
	Ignored bool `json:"ignored"`
}

type WebhookResult struct {
	Action    string `json:"action"` // applied, unchanged, ignored, duplicate
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status,omitempty"`
}

type VerifyResult struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	GatewayStatus   string `json:"gateway_status"`
	GatewayResponse string `json:"gateway_response,omitempty"`
	Changed         bool   `json:"changed"`
	AmountMismatch  bool   `json:"amount_mismatch,omitempty"`
	Message         string `json:"message,omitempty"`
}

func targetStatus(outcome payment.Outcome) (models.PaymentStatus, bool) {
	switch outcome {
	case payment.OutcomeSuccess:
		return models.PaymentSuccess, true
	case payment.OutcomeFailed:
		return models.PaymentFailed, true
	}
	return "", false
}

// ApplyOutcome moves an order out of pending. The update is guarded by
// status = 'pending', so a terminal status is never replaced and the
// webhook and the verify poll can race safely. A failed order gives back
// its reserved stock.
func ApplyOutcome(tx *gorm.DB, reference string, outcome payment.Outcome, gatewayResponse string) (*ApplyResult, error) {
	var order models.Order
	if err := tx.Where("reference = ?", reference).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, err
	}

	result := &ApplyResult{Order: order}
	target, ok := targetStatus(outcome)
	if !ok || order.Status == target {
		return result, nil
	}
	if order.Status.Terminal() {
		log.Printf("⚠️ Order %s is %s, ignoring gateway report of %s", reference, order.Status, target)
		result.Ignored = true
		return result, nil
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.PaymentPending).
		Updates(map[string]interface{}{"status": target, "gateway_response": gatewayResponse})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// another path got there first
		if err := tx.First(&order, order.ID).Error; err != nil {
			return nil, err
		}
		result.Order = order
		result.Ignored = order.Status != target
		return result, nil
	}

	if target == models.PaymentFailed {
		if err := orderControllers.ReleaseStock(tx, order.ID); err != nil {
			return nil, err
		}
	}

	order.Status = target
	order.GatewayResponse = gatewayResponse
	result.Order = order
	result.Changed = true
	return result, nil
}

func dispatchChange(db *gorm.DB, notifier notify.Notifier, order *models.Order, previous models.PaymentStatus) {
	var user models.User
	db.Select("email").First(&user, "id = ?", order.UserID)
	log.Printf("💳 Order %s payment %s -> %s", order.Reference, previous, order.Status)
	notify.Dispatch(notifier, notify.OrderEvent{
		Kind:           notify.PaymentStatusChanged,
		Reference:      order.Reference,
		UserID:         order.UserID,
		Email:          user.Email,
		Status:         string(order.Status),
		DeliveryStatus: string(order.DeliveryStatus),
		Previous:       string(previous),
		Total:          order.TotalAmount.StringFixed(2),
	})
}

// HandleWebhook applies an authenticated gateway event. Redelivered events
// are recognised by their dedupe key and acknowledged without effect. The
// dedupe record is written in the same transaction as the status change, so
// an event that fails is not remembered.
func HandleWebhook(db *gorm.DB, notifier notify.Notifier, source string, ev *payment.Event) (*WebhookResult, error) {
	outcome, ok := ev.Outcome()
	if !ok {
		log.Printf("ℹ️ Ignoring %s webhook event %q", source, ev.Type)
		return &WebhookResult{Action: "ignored", Reference: ev.Reference}, nil
	}
	if ev.Reference == "" {
		return nil, apperr.Validation("webhook event has no reference")
	}

	var applied *ApplyResult
	duplicate := false
	err := db.Transaction(func(tx *gorm.DB) error {
		record := models.PaymentEvent{
			Key:        ev.DedupeKey(),
			Event:      ev.Type,
			Reference:  ev.Reference,
			Source:     source,
			ReceivedAt: time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			duplicate = true
			return nil
		}

		var err error
		applied, err = ApplyOutcome(tx, ev.Reference, outcome, ev.Type)
		return err
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		log.Printf("🔁 Duplicate %s webhook for %s acknowledged", source, ev.Reference)
		return &WebhookResult{Action: "duplicate", Reference: ev.Reference}, nil
	}

	result := &WebhookResult{Reference: ev.Reference, Status: string(applied.Order.Status)}
	switch {
	case applied.Changed:
		result.Action = "applied"
		dispatchChange(db, notifier, &applied.Order, models.PaymentPending)
	case applied.Ignored:
		result.Action = "ignored"
	default:
		result.Action = "unchanged"
	}
	return result, nil
}

// Verify asks the gateway for the authoritative transaction status and
// mirrors it onto the order. Only the owner, or a caller allowed to view all
// orders, may verify.
func Verify(ctx context.Context, db *gorm.DB, gw payment.Gateway, notifier notify.Notifier, userID string, role auth.Role, reference string) (*VerifyResult, error) {
	order, err := orderControllers.GetOrder(db, userID, role, reference)
	if err != nil {
		return nil, err
	}
	return verifyOrder(ctx, db, gw, notifier, order)
}

func verifyOrder(ctx context.Context, db *gorm.DB, gw payment.Gateway, notifier notify.Notifier, order *models.Order) (*VerifyResult, error) {
	v, err := gw.Verify(ctx, order.Reference)
	if err != nil {
		log.Printf("❌ Payment verify failed for %s: %v", order.Reference, err)
		return nil, apperr.PaymentGateway("failed to verify payment", payment.IsRetryable(err), err)
	}

	// a success for another amount is not mirrored; the order stays as it is
	if expected := payment.ToMinorUnits(order.TotalAmount); v.Outcome == payment.OutcomeSuccess && v.AmountMinor != expected {
		log.Printf("🚨 Payment amount mismatch for %s: gateway reported %d, order total is %d", order.Reference, v.AmountMinor, expected)
		return &VerifyResult{
			Reference:       order.Reference,
			Status:          string(order.Status),
			GatewayStatus:   v.RawStatus,
			GatewayResponse: v.GatewayResponse,
			AmountMismatch:  true,
			Message:         fmt.Sprintf("gateway reported %d, order total is %d", v.AmountMinor, expected),
		}, nil
	}

	var applied *ApplyResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = ApplyOutcome(tx, order.Reference, v.Outcome, v.GatewayResponse)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Reference:       order.Reference,
		Status:          string(applied.Order.Status),
		GatewayStatus:   v.RawStatus,
		GatewayResponse: v.GatewayResponse,
		Changed:         applied.Changed,
	}
	if applied.Ignored {
		result.Message = "gateway status ignored, order is already " + string(applied.Order.Status)
	}
	if applied.Changed {
		dispatchChange(db, notifier, &applied.Order, order.Status)
	}
	return result, nil
}

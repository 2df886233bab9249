package orderControllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/auth"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// -------- Request Structs --------

type CheckoutRequest struct {
	UserID      string
	Email       string
	AddressID   uint
	CallbackURL string
}

type PayRequest struct {
	UserID      string
	Email       string
	Reference   string
	CallbackURL string
}

type CheckoutResult struct {
	Order         *models.Order          `json:"order"`
	Authorization *payment.Authorization `json:"authorization,omitempty"`
}

type OrderFilter struct {
	Status         string
	DeliveryStatus string
}

// -------- Helpers --------

// newReference returns an unguessable order reference.
func newReference() string {
	return "ORD-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func orderEvent(kind string, order *models.Order, email, previous string) notify.OrderEvent {
	return notify.OrderEvent{
		Kind:           kind,
		Reference:      order.Reference,
		UserID:         order.UserID,
		Email:          email,
		Status:         string(order.Status),
		DeliveryStatus: string(order.DeliveryStatus),
		Previous:       previous,
		Total:          order.TotalAmount.StringFixed(2),
	}
}

// -------- Core Logic --------

// Checkout turns the user's cart into a pending order, reserves its stock and
// starts a payment. The cart itself is left as it is. When the gateway call
// fails the pending order is kept and returned together with the error.
func Checkout(ctx context.Context, db *gorm.DB, gw payment.Gateway, notifier notify.Notifier, req CheckoutRequest) (*CheckoutResult, error) {
	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("added_at ASC, id ASC")
		}).Preload("Items.Product").Where("user_id = ?", req.UserID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(cart.Items) == 0) {
			return apperr.Validation("cart is empty")
		}
		if err != nil {
			return err
		}

		var address models.Address
		if err := tx.Where("id = ? AND user_id = ?", req.AddressID, req.UserID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("address")
			}
			return err
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.Product.ID == 0 {
				return apperr.Validation("a product in your cart is no longer sold")
			}
			if !item.Product.IsAvailable {
				return apperr.Validation("%s is not available", item.Product.Name)
			}
			total = total.Add(item.LineTotal())
			items = append(items, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				UnitPrice:   item.Product.DiscountedPrice,
				Quantity:    item.Quantity,
				Size:        item.Size,
			})
		}
		if !total.IsPositive() {
			return apperr.Validation("cart total must be greater than zero")
		}

		for _, item := range cart.Items {
			if err := reserveStock(tx, item); err != nil {
				return err
			}
		}

		order = models.Order{
			Reference:       newReference(),
			UserID:          req.UserID,
			AddressID:       address.ID,
			ShippingAddress: address.Formatted(),
			Items:           items,
			TotalAmount:     total,
			Status:          models.PaymentPending,
			DeliveryStatus:  models.DeliveryPending,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🛒 Order %s created for %s (%s)", order.Reference, req.UserID, order.TotalAmount.StringFixed(2))
	notify.Dispatch(notifier, orderEvent(notify.OrderCreated, &order, req.Email, ""))

	return startPayment(ctx, db, gw, &order, req.Email, req.CallbackURL)
}

// PayOrder starts payment again for one of the user's pending orders, after
// a failed gateway call or an abandoned payment page. The stored total and
// reference are reused and no stock is reserved again. A stored
// authorization url is handed back without asking the gateway.
func PayOrder(ctx context.Context, db *gorm.DB, gw payment.Gateway, req PayRequest) (*CheckoutResult, error) {
	var order models.Order
	if err := db.Preload("Items").Where("reference = ? AND user_id = ?", req.Reference, req.UserID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, err
	}
	if order.Status != models.PaymentPending {
		return nil, apperr.Validation("order %s is already %s", order.Reference, order.Status)
	}

	if order.AuthorizationURL != "" {
		return &CheckoutResult{
			Order: &order,
			Authorization: &payment.Authorization{
				AuthorizationURL: order.AuthorizationURL,
				Reference:        order.Reference,
			},
		}, nil
	}
	return startPayment(ctx, db, gw, &order, req.Email, req.CallbackURL)
}

// startPayment initializes the gateway transaction for order. On failure the
// order is returned with the error so the caller can retry by reference.
func startPayment(ctx context.Context, db *gorm.DB, gw payment.Gateway, order *models.Order, email, callbackURL string) (*CheckoutResult, error) {
	result := &CheckoutResult{Order: order}
	authz, err := gw.Initialize(ctx, payment.InitializeRequest{
		Email:       email,
		AmountMinor: payment.ToMinorUnits(order.TotalAmount),
		Reference:   order.Reference,
		CallbackURL: callbackURL,
	})
	if err != nil {
		log.Printf("❌ Payment init failed for %s: %v", order.Reference, err)
		return result, apperr.PaymentGateway("failed to initialize payment", payment.IsRetryable(err), err)
	}

	if authz.AuthorizationURL != "" {
		if err := db.Model(order).UpdateColumn("authorization_url", authz.AuthorizationURL).Error; err != nil {
			log.Printf("⚠️ Failed to store authorization url for %s: %v", order.Reference, err)
		}
		order.AuthorizationURL = authz.AuthorizationURL
	}
	result.Authorization = authz
	return result, nil
}

// ListUserOrders returns the user's orders, newest first.
func ListUserOrders(db *gorm.DB, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := db.Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// GetOrder loads an order by reference. Callers without ViewAllOrders only
// see their own orders; others are reported as missing.
func GetOrder(db *gorm.DB, userID string, role auth.Role, reference string) (*models.Order, error) {
	var order models.Order
	q := db.Preload("Items").Where("reference = ?", reference)
	if !auth.Can(role, auth.ViewAllOrders) {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns all orders for the admin views.
func ListOrders(db *gorm.DB, filter OrderFilter) ([]models.Order, error) {
	q := db.Model(&models.Order{})
	if filter.Status != "" {
		status := models.PaymentStatus(strings.ToLower(filter.Status))
		if status != models.PaymentPending && !status.Terminal() {
			return nil, apperr.Validation("invalid status %q", filter.Status)
		}
		q = q.Where("status = ?", status)
	}
	if filter.DeliveryStatus != "" {
		ds, err := models.ParseDeliveryStatus(filter.DeliveryStatus)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		q = q.Where("delivery_status = ?", ds)
	}

	var orders []models.Order
	err := q.Preload("User").Preload("Items").Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

// UpdateDeliveryStatus moves a paid order along its fulfilment states.
func UpdateDeliveryStatus(db *gorm.DB, notifier notify.Notifier, reference, raw string) (*models.Order, error) {
	next, err := models.ParseDeliveryStatus(raw)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	var order models.Order
	var previous models.DeliveryStatus
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reference = ?", reference).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order")
			}
			return err
		}

		if order.Status != models.PaymentSuccess {
			return apperr.Validation("delivery status can only change once payment has succeeded")
		}
		if order.DeliveryStatus == next {
			return apperr.Validation("order is already %s", next)
		}
		if !order.DeliveryStatus.CanMoveTo(next) {
			return apperr.Validation("cannot change delivery status from %s to %s", order.DeliveryStatus, next)
		}

		previous = order.DeliveryStatus
		updates := map[string]interface{}{"delivery_status": next}
		if next == models.DeliveryDelivered && order.DeliveredDate == nil {
			now := time.Now().UTC()
			updates["delivered_date"] = now
			order.DeliveredDate = &now
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND delivery_status = ?", order.ID, previous).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Validation("order %s was changed concurrently, reload and retry", reference)
		}
		order.DeliveryStatus = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	var user models.User
	db.Select("email").First(&user, "id = ?", order.UserID)
	log.Printf("📦 Order %s delivery status %s -> %s", order.Reference, previous, next)
	notify.Dispatch(notifier, orderEvent(notify.DeliveryStatusChanged, &order, user.Email, string(previous)))

	return &order, nil
}

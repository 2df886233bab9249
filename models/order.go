package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the gateway-driven state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// DeliveryStatus is the admin-driven fulfilment state of an order.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "Pending"
	DeliveryProcessing DeliveryStatus = "Processing"
	DeliveryShipped    DeliveryStatus = "Shipped"
	DeliveryDelivered  DeliveryStatus = "Delivered"
	DeliveryCancelled  DeliveryStatus = "Cancelled"
)

// forward position of each non-cancelled state
var deliveryRank = map[DeliveryStatus]int{
	DeliveryPending:    0,
	DeliveryProcessing: 1,
	DeliveryShipped:    2,
	DeliveryDelivered:  3,
}

// ParseDeliveryStatus matches case-insensitively and returns the canonical value.
func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	for _, s := range []DeliveryStatus{DeliveryPending, DeliveryProcessing, DeliveryShipped, DeliveryDelivered, DeliveryCancelled} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", raw)
}

func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// CanMoveTo reports whether s may advance to next. Moves only go forward,
// Cancelled is reachable from any non-terminal state and terminal states
// never change.
func (s DeliveryStatus) CanMoveTo(next DeliveryStatus) bool {
	if s == next || s.Terminal() {
		return false
	}
	if next == DeliveryCancelled {
		return true
	}
	from, ok := deliveryRank[s]
	if !ok {
		return false
	}
	to, ok := deliveryRank[next]
	return ok && to > from
}

type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Reference        string          `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	UserID           string          `gorm:"index;not null" json:"user_id"`
	User             *User           `json:"user,omitempty"`
	AddressID        uint            `json:"address_id"`
	ShippingAddress  string          `json:"shipping_address"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status           PaymentStatus   `gorm:"type:varchar(20);index;not null" json:"status"`
	DeliveryStatus   DeliveryStatus  `gorm:"type:varchar(20);index;not null" json:"delivery_status"`
	DeliveredDate    *time.Time      `json:"delivered_date"`
	AuthorizationURL string          `json:"authorization_url,omitempty"`
	GatewayResponse  string          `json:"gateway_response,omitempty"`
	StockReleased    bool            `gorm:"not null;default:false" json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of one cart line taken at checkout. It is never
// updated afterwards.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Size        Size            `gorm:"type:varchar(4);not null;default:''" json:"size"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

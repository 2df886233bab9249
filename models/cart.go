package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"uniqueIndex;not null" json:"user_id"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is unique per (cart, product, size). Size is SizeNone for
// non-sized products.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"uniqueIndex:idx_cart_line;not null" json:"cart_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_line;not null" json:"product_id"`
	Product   Product   `json:"product"`
	Size      Size      `gorm:"type:varchar(4);uniqueIndex:idx_cart_line;not null;default:''" json:"size"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// LineTotal is discounted_price x quantity. Product must be loaded.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.DiscountedPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

package models

import "time"

// Review is one verified-purchase review. A user reviews each
// (product, size) slot at most once.
type Review struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"uniqueIndex:idx_review_slot;not null" json:"user_id"`
	User        *User     `json:"user,omitempty"`
	ProductID   uint      `gorm:"uniqueIndex:idx_review_slot;not null" json:"product_id"`
	Size        Size      `gorm:"type:varchar(4);uniqueIndex:idx_review_slot;not null;default:''" json:"size"`
	OrderItemID uint      `gorm:"uniqueIndex;not null" json:"order_item_id"`
	Rating      int       `gorm:"not null" json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

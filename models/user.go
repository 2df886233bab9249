package models

import (
	"time"

	"github.com/Justjoseph0/e-commerce-backend/auth"
)

type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone"`
	Role      auth.Role `gorm:"type:varchar(20);not null" json:"role"`
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is a saved shipping address owned by one user.
type Address struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	RecipientName string    `gorm:"not null" json:"recipient_name"`
	Phone         string    `json:"phone"`
	Line1         string    `gorm:"not null" json:"line1"`
	Line2         string    `json:"line2"`
	City          string    `gorm:"not null" json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `gorm:"not null" json:"country"`
	CreatedAt     time.Time `json:"created_at"`
}

// Formatted renders the address as the single text block stored on orders.
func (a Address) Formatted() string {
	out := a.RecipientName
	if a.Phone != "" {
		out += " (" + a.Phone + ")"
	}
	out += "\n" + a.Line1
	if a.Line2 != "" {
		out += "\n" + a.Line2
	}
	out += "\n" + a.City
	if a.State != "" {
		out += ", " + a.State
	}
	if a.PostalCode != "" {
		out += " " + a.PostalCode
	}
	out += "\n" + a.Country
	return out
}

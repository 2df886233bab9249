package models

import "time"

// PaymentEvent records every processed gateway webhook. Key is unique so a
// redelivered event is detected before it is applied twice.
type PaymentEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Key        string    `gorm:"uniqueIndex;size:128;not null" json:"key"`
	Event      string    `gorm:"size:64;not null" json:"event"`
	Reference  string    `gorm:"index;size:64" json:"reference"`
	Source     string    `gorm:"size:16;not null" json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

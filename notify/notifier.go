package notify

import (
	"context"
	"log"
	"time"
)

// Kinds of order events.
const (
	OrderCreated          = "order.created"
	PaymentStatusChanged  = "order.payment_status"
	DeliveryStatusChanged = "order.delivery_status"
)

// OrderEvent is published after an order change has been committed.
type OrderEvent struct {
	Kind           string    `json:"kind"`
	Reference      string    `json:"reference"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email,omitempty"`
	Status         string    `json:"status"`
	DeliveryStatus string    `json:"delivery_status"`
	Previous       string    `json:"previous,omitempty"`
	Total          string    `json:"total,omitempty"`
	At             time.Time `json:"at"`
}

// Notifier delivers order events. Callers ignore the error beyond logging it.
type Notifier interface {
	Notify(ctx context.Context, ev OrderEvent) error
}

// Dispatch runs n in its own goroutine so a slow notifier never holds up
// the request that triggered it.
func Dispatch(n Notifier, ev OrderEvent) {
	if n == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Notify(ctx, ev); err != nil {
			log.Printf("⚠️ notify %s %s failed: %v", ev.Kind, ev.Reference, err)
		}
	}()
}

// LogNotifier writes events to the standard logger. It stands in for the
// customer email sender.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev OrderEvent) error {
	switch ev.Kind {
	case DeliveryStatusChanged:
		log.Printf("📦 Order %s for %s is now %s (was %s)", ev.Reference, ev.Email, ev.DeliveryStatus, ev.Previous)
	case PaymentStatusChanged:
		log.Printf("💳 Order %s payment %s", ev.Reference, ev.Status)
	default:
		log.Printf("🛒 Order %s %s", ev.Reference, ev.Kind)
	}
	return nil
}

// Multi fans an event out to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev OrderEvent) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

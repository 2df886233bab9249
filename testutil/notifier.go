package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/notify"
)

// RecordingNotifier keeps every event it receives.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []notify.OrderEvent
}

func (r *RecordingNotifier) Notify(_ context.Context, ev notify.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *RecordingNotifier) Events() []notify.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.OrderEvent(nil), r.events...)
}

// WaitFor blocks until an event of kind has been recorded for reference.
func (r *RecordingNotifier) WaitFor(t testing.TB, kind, reference string) notify.OrderEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range r.Events() {
			if ev.Kind == kind && ev.Reference == reference {
				return ev
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s event for %s", kind, reference)
	return notify.OrderEvent{}
}

// Count returns how many events of kind were recorded for reference.
func (r *RecordingNotifier) Count(kind, reference string) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Kind == kind && ev.Reference == reference {
			n++
		}
	}
	return n
}

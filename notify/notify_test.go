package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type stubNotifier struct {
	err  error
	got  []OrderEvent
	done chan struct{}
}

func (s *stubNotifier) Notify(_ context.Context, ev OrderEvent) error {
	s.got = append(s.got, ev)
	if s.done != nil {
		close(s.done)
	}
	return s.err
}

func TestMultiCallsEveryNotifier(t *testing.T) {
	a := &stubNotifier{err: errors.New("smtp down")}
	b := &stubNotifier{}

	err := Multi{a, b, LogNotifier{}}.Notify(context.Background(), OrderEvent{Kind: OrderCreated, Reference: "ORD-1"})
	if err == nil || err.Error() != "smtp down" {
		t.Fatalf("expected first error, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("every notifier should be called once: %d, %d", len(a.got), len(b.got))
	}
}

func TestDispatchIsAsync(t *testing.T) {
	n := &stubNotifier{done: make(chan struct{})}
	Dispatch(n, OrderEvent{Kind: PaymentStatusChanged, Reference: "ORD-2"})

	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
	if n.got[0].At.IsZero() {
		t.Fatal("Dispatch should stamp the event time")
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("clients = %d, want 1", hub.Clients())
	}

	if err := hub.Notify(context.Background(), OrderEvent{Kind: DeliveryStatusChanged, Reference: "ORD-3", DeliveryStatus: "Shipped"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev OrderEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Reference != "ORD-3" || ev.DeliveryStatus != "Shipped" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"https://shop.example"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header); err == nil {
		t.Fatal("expected handshake to fail for foreign origin")
	}
}

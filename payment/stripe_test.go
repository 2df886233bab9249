package payment

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

func signedStripePayload(t *testing.T, secret string, payload []byte) http.Header {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	header := http.Header{}
	header.Set("Stripe-Signature", signed.Header)
	return header
}

func TestStripeParseWebhook(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test", Currency: "usd", Timeout: time.Second})
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded","metadata":{"reference":"ORD-7"}}}}`)

	ev, err := g.ParseWebhook(payload, signedStripePayload(t, "whsec_test", payload))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Type != EventChargeSuccess || ev.Reference != "ORD-7" || ev.ID != "evt_1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if out, ok := ev.Outcome(); !ok || out != OutcomeSuccess {
		t.Fatalf("outcome = %q, %v", out, ok)
	}
}

func TestStripeDeclinedAttemptLeavesOrderPending(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test", Timeout: time.Second})
	payload := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","object":"payment_intent","status":"requires_payment_method","metadata":{"reference":"ORD-7"}}}}`)

	ev, err := g.ParseWebhook(payload, signedStripePayload(t, "whsec_test", payload))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Reference != "ORD-7" {
		t.Fatalf("reference = %q", ev.Reference)
	}
	if out, ok := ev.Outcome(); ok {
		t.Fatalf("declined attempt should not change the order, got %q", out)
	}
}

func TestStripeCanceledIntentFails(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test", Timeout: time.Second})
	payload := []byte(`{"id":"evt_3","object":"event","type":"payment_intent.canceled","data":{"object":{"id":"pi_1","object":"payment_intent","status":"canceled","metadata":{"reference":"ORD-7"}}}}`)

	ev, err := g.ParseWebhook(payload, signedStripePayload(t, "whsec_test", payload))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if out, ok := ev.Outcome(); !ok || out != OutcomeFailed || ev.Type != EventChargeFailed {
		t.Fatalf("event = %+v, outcome %q %v", ev, out, ok)
	}
}

func TestStripeParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test", Timeout: time.Second})
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{}}}`)

	_, err := g.ParseWebhook(payload, signedStripePayload(t, "whsec_other", payload))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestIntentOutcome(t *testing.T) {
	cases := []struct {
		pi   stripe.PaymentIntent
		want Outcome
	}{
		{stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}, OutcomeSuccess},
		{stripe.PaymentIntent{Status: stripe.PaymentIntentStatusProcessing}, OutcomePending},
		{stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, OutcomePending},
		{stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresPaymentMethod, LastPaymentError: &stripe.Error{Msg: "declined"}}, OutcomePending},
		{stripe.PaymentIntent{Status: stripe.PaymentIntentStatusCanceled}, OutcomeFailed},
	}
	for _, tc := range cases {
		pi := tc.pi
		if got := intentOutcome(&pi); got != tc.want {
			t.Errorf("status %s: got %q, want %q", pi.Status, got, tc.want)
		}
	}
}

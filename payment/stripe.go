package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeGateway runs payments as Stripe PaymentIntents. The order reference
// travels in the intent metadata so webhooks and verification can find it.
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
	currency      string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

const metadataReference = "reference"

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{HTTPClient: httpClient}),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, &stripe.BackendConfig{HTTPClient: httpClient}),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, &stripe.BackendConfig{HTTPClient: httpClient}),
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, backends)

	return &StripeGateway{
		sc:            sc,
		webhookSecret: cfg.WebhookSecret,
		currency:      strings.ToLower(cfg.Currency),
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.AmountMinor),
		Currency:     stripe.String(g.currency),
		ReceiptEmail: stripe.String(req.Email),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataReference, req.Reference)
	params.SetIdempotencyKey("init-" + req.Reference)

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, stripeError("initialize", err)
	}
	return &Authorization{
		AccessCode: pi.ClientSecret,
		Reference:  req.Reference,
	}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	params := &stripe.PaymentIntentSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['%s']:'%s'", metadataReference, strings.ReplaceAll(reference, "'", "")),
			Context: ctx,
		},
	}

	var latest *stripe.PaymentIntent
	iter := g.sc.PaymentIntents.Search(params)
	for iter.Next() {
		pi := iter.PaymentIntent()
		if latest == nil || pi.Created > latest.Created {
			latest = pi
		}
	}
	if err := iter.Err(); err != nil {
		return nil, stripeError("verify", err)
	}
	if latest == nil {
		return nil, &GatewayError{Op: "verify", StatusCode: http.StatusNotFound, Detail: "no payment intent for reference " + reference}
	}

	v := &Verification{
		Reference:   reference,
		Outcome:     intentOutcome(latest),
		RawStatus:   string(latest.Status),
		AmountMinor: latest.Amount,
	}
	if latest.LastPaymentError != nil {
		v.GatewayResponse = latest.LastPaymentError.Msg
	} else {
		v.GatewayResponse = string(latest.Status)
	}
	return v, nil
}

// intentOutcome maps an intent onto an outcome. Only a canceled intent is
// final on the failure side: after a declined card the customer can still
// pay the same intent with another one.
func intentOutcome(pi *stripe.PaymentIntent) Outcome {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return OutcomeSuccess
	case stripe.PaymentIntentStatusCanceled:
		return OutcomeFailed
	}
	return OutcomePending
}

func (g *StripeGateway) ParseWebhook(body []byte, header http.Header) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(body, header.Get("Stripe-Signature"), g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev := &Event{ID: event.ID, Type: string(event.Type), Raw: body}

	switch string(event.Type) {
	case "payment_intent.succeeded", "payment_intent.canceled", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		ev.Reference = pi.Metadata[metadataReference]
		switch event.Type {
		case "payment_intent.succeeded":
			ev.Type = EventChargeSuccess
			ev.Status = string(OutcomeSuccess)
		case "payment_intent.canceled":
			ev.Type = EventChargeFailed
			ev.Status = string(OutcomeFailed)
		default:
			// a declined attempt; the intent stays payable so the order stays pending
			ev.Status = string(OutcomePending)
		}
	}
	return ev, nil
}

func stripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &GatewayError{Op: op, StatusCode: se.HTTPStatusCode, Detail: se.Msg, Retryable: retryableStatus(se.HTTPStatusCode)}
	}
	return &GatewayError{Op: op, Detail: err.Error(), Retryable: true}
}

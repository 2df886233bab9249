package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/Justjoseph0/e-commerce-backend/payment"
)

const WebhookSecret = "test-webhook-secret"

// FakeGateway records initialize calls and returns scripted verify results.
// Verify reports the amount initialized for the reference unless another is
// scripted. Webhooks are parsed by a real HTTPGateway so signatures are
// checked.
type FakeGateway struct {
	mu          sync.Mutex
	InitErr     error
	VerifyErr   error
	results     map[string]payment.Verification
	amounts     map[string]int64
	Initialized []payment.InitializeRequest
	Verified    []string

	webhooks *payment.HTTPGateway
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		results:  make(map[string]payment.Verification),
		amounts:  make(map[string]int64),
		webhooks: payment.NewHTTPGateway(payment.HTTPConfig{WebhookSecret: WebhookSecret}),
	}
}

func (g *FakeGateway) Name() string { return "fake" }

func (g *FakeGateway) Initialize(_ context.Context, req payment.InitializeRequest) (*payment.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Initialized = append(g.Initialized, req)
	if _, scripted := g.amounts[req.Reference]; !scripted {
		g.amounts[req.Reference] = req.AmountMinor
	}
	if g.InitErr != nil {
		return nil, g.InitErr
	}
	return &payment.Authorization{
		AuthorizationURL: "https://pay.example/" + req.Reference,
		AccessCode:       "code-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

// SetVerify scripts the next Verify answers for reference.
func (g *FakeGateway) SetVerify(reference string, outcome payment.Outcome, response string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[reference] = payment.Verification{
		Reference:       reference,
		Outcome:         outcome,
		RawStatus:       string(outcome),
		GatewayResponse: response,
	}
}

// SetVerifyAmount scripts the amount Verify reports for reference.
func (g *FakeGateway) SetVerifyAmount(reference string, amountMinor int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.amounts[reference] = amountMinor
}

func (g *FakeGateway) Verify(_ context.Context, reference string) (*payment.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Verified = append(g.Verified, reference)
	if g.VerifyErr != nil {
		return nil, g.VerifyErr
	}
	v, ok := g.results[reference]
	if !ok {
		v = payment.Verification{Reference: reference, Outcome: payment.OutcomePending, RawStatus: "ongoing"}
	}
	v.AmountMinor = g.amounts[reference]
	return &v, nil
}

func (g *FakeGateway) ParseWebhook(body []byte, header http.Header) (*payment.Event, error) {
	return g.webhooks.ParseWebhook(body, header)
}

func (g *FakeGateway) InitCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Initialized)
}

func (g *FakeGateway) VerifyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Verified)
}

// SignedWebhook returns the body and signature header of a webhook delivery.
func SignedWebhook(body string) ([]byte, http.Header) {
	header := http.Header{}
	header.Set(payment.SignatureHeader, payment.Sign(WebhookSecret, []byte(body)))
	header.Set("Content-Type", "application/json")
	return []byte(body), header
}

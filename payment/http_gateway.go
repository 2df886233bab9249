package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPGateway talks to a Paystack-style REST API: bearer-authenticated
// initialize and verify endpoints and HMAC-SHA512 signed webhooks.
type HTTPGateway struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	currency      string
	client        *http.Client
}

type HTTPConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

func NewHTTPGateway(cfg HTTPConfig) *HTTPGateway {
	return &HTTPGateway{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		currency:      strings.ToUpper(cfg.Currency),
		client:        &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *HTTPGateway) Name() string { return "http" }

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	GatewayResponse string `json:"gateway_response"`
}

func (g *HTTPGateway) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	payload := map[string]interface{}{
		"email":        req.Email,
		"amount":       req.AmountMinor,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
	}
	if g.currency != "" {
		payload["currency"] = g.currency
	}

	var data initializeData
	if err := g.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}
	if data.AuthorizationURL == "" {
		return nil, &GatewayError{Op: "initialize", Detail: "gateway returned empty authorization url"}
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	return &Authorization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (g *HTTPGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	var data verifyData
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := g.do(ctx, "verify", http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	if data.Reference == "" {
		data.Reference = reference
	}
	return &Verification{
		Reference:       data.Reference,
		Outcome:         outcomeFromStatus(data.Status),
		RawStatus:       data.Status,
		GatewayResponse: data.GatewayResponse,
		AmountMinor:     data.Amount,
	}, nil
}

func outcomeFromStatus(status string) Outcome {
	switch strings.ToLower(status) {
	case "success":
		return OutcomeSuccess
	case "failed", "reversed":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

type webhookBody struct {
	Event string `json:"event"`
	Data  struct {
		ID        transactionID `json:"id"`
		Reference string        `json:"reference"`
		Status    string        `json:"status"`
	} `json:"data"`
}

// transactionID accepts the gateway's transaction id as a JSON number or
// string.
type transactionID string

func (id *transactionID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*id = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = transactionID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}
		*id = transactionID(n.String())
	}
	return nil
}

func (g *HTTPGateway) ParseWebhook(body []byte, header http.Header) (*Event, error) {
	if !VerifySignature(g.webhookSecret, body, header.Get(SignatureHeader)) {
		return nil, ErrInvalidSignature
	}

	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if wb.Event == "" {
		return nil, errors.New("decode webhook: missing event")
	}

	ev := &Event{
		Type:      wb.Event,
		Reference: wb.Data.Reference,
		Status:    strings.ToLower(wb.Data.Status),
		Raw:       body,
	}
	// Transaction id plus event name identifies a delivery; the raw body
	// hash is used when the payload carries no id.
	if id := string(wb.Data.ID); id != "" {
		ev.ID = wb.Event + ":" + id
	}
	return ev, nil
}

// do sends one JSON request and decodes the data field of the envelope.
func (g *HTTPGateway) do(ctx context.Context, op, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &GatewayError{Op: op, Detail: err.Error()}
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return &GatewayError{Op: op, Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("❌ payment %s: %v", op, err)
		return &GatewayError{Op: op, Detail: "gateway unreachable: " + err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Detail: err.Error(), Retryable: true}
	}

	var env apiEnvelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(body))
		if decodeErr == nil && env.Message != "" {
			detail = env.Message
		}
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Detail: detail, Retryable: retryableStatus(resp.StatusCode)}
	}
	if decodeErr != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Detail: "invalid gateway response: " + decodeErr.Error()}
	}
	if !env.Status {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Detail: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &GatewayError{Op: op, StatusCode: resp.StatusCode, Detail: "invalid gateway data: " + err.Error()}
		}
	}
	return nil
}

package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Canonical webhook event names. Provider-specific events are mapped onto
// these before they reach the reconciliation controller.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Outcome is the normalised result of a transaction as reported upstream.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Gateway is a payment provider.
type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	// ParseWebhook authenticates and decodes a webhook delivery. It returns
	// ErrInvalidSignature (possibly wrapped) when the signature does not match.
	ParseWebhook(body []byte, header http.Header) (*Event, error)
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	CallbackURL string
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference"`
}

type Verification struct {
	Reference       string
	Outcome         Outcome
	RawStatus       string
	GatewayResponse string
	AmountMinor     int64
}

type Event struct {
	ID        string // provider event id, empty when the provider sends none
	Type      string
	Reference string
	Status    string
	Raw       []byte
}

// Outcome maps the event onto a payment outcome. ok is false for events
// that do not change order state.
func (e *Event) Outcome() (Outcome, bool) {
	switch e.Type {
	case EventChargeSuccess:
		if e.Status == string(OutcomeSuccess) {
			return OutcomeSuccess, true
		}
	case EventChargeFailed:
		return OutcomeFailed, true
	}
	return "", false
}

// DedupeKey identifies a delivery for duplicate detection.
func (e *Event) DedupeKey() string {
	if e.ID != "" {
		return "evt:" + e.ID
	}
	sum := sha256.Sum256(e.Raw)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// GatewayError describes a failed upstream call.
type GatewayError struct {
	Op         string
	StatusCode int
	Detail     string
	Retryable  bool
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: gateway returned %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// IsRetryable reports whether a failed gateway call may succeed when
// repeated. Timeouts and cancellations count as retryable.
func IsRetryable(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// retryableStatus reports whether an upstream HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500 || code == 0
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a 2dp amount to the smallest currency unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientStock
	KindUnauthorized
	KindForbidden
	KindPaymentGateway
)

// Error is the domain error returned by the core operations.
type Error struct {
	Kind      Kind
	Message   string
	Available *int // set for KindInsufficientStock
	Retryable bool // set for KindPaymentGateway
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindPaymentGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func InsufficientStock(name string, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("not enough stock for %s, only %d available", name, available),
		Available: &available,
	}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func PaymentGateway(msg string, retryable bool, err error) *Error {
	return &Error{Kind: KindPaymentGateway, Message: msg, Retryable: retryable, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, treating gorm.ErrRecordNotFound as NotFound.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Respond writes err as a JSON error body with the matching status code.
// Internal errors are not echoed to the client.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": e.Message}
	switch e.Kind {
	case KindInsufficientStock:
		if e.Available != nil {
			body["available"] = *e.Available
		}
	case KindPaymentGateway:
		body["retryable"] = e.Retryable
		if e.Err != nil {
			body["detail"] = e.Err.Error()
		}
	case KindInternal:
		body["error"] = "Internal server error"
	}
	c.JSON(e.Status(), body)
}

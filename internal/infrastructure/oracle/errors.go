package oracle

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Kind classifies a provider error for the retry policy.
type Kind int

const (
	// KindPermanent errors are not retried and are not the oracle's fault
	// (bad credentials, invalid requests, misconfiguration).
	KindPermanent Kind = iota
	// KindTransient errors (timeouts, rate limits, 5xx, network) are retried.
	KindTransient
	// KindMalformed marks a response that could not be parsed. It is retried
	// like a transient error.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	default:
		return "permanent"
	}
}

// Error is a provider error with its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient marks err as retryable.
func Transient(err error) error {
	return &Error{Kind: KindTransient, Err: err}
}

// Malformed marks err as an unparseable response.
func Malformed(err error) error {
	return &Error{Kind: KindMalformed, Err: err}
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	return &Error{Kind: KindPermanent, Err: err}
}

// KindOf classifies err. Unclassified deadline and network errors are
// transient; anything else is permanent.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindTransient
	}
	return KindPermanent
}

// ForStatus classifies err by the HTTP status code that produced it:
// 408, 429 and 5xx are transient, other 4xx permanent.
func ForStatus(status int, err error) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return Transient(err)
	case status >= 400:
		return Permanent(err)
	default:
		return Transient(err)
	}
}

// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package rdap

import (
	"fmt"
	"time"
)

// ErrorContext annotates a public error with the pipeline state at the
// point of failure, per the propagation policy in §7.
type ErrorContext struct {
	Kind      string
	Attempt   int
	Origin    string
	ElapsedMs int64
}

func (c ErrorContext) String() string {
	return fmt.Sprintf("kind=%s attempt=%d origin=%s elapsedMs=%d", c.Kind, c.Attempt, c.Origin, c.ElapsedMs)
}

// InvalidInputError is returned for a malformed domain/IP/ASN or an
// unknown ClientOptions key. Never retried.
type InvalidInputError struct {
	Kind string // "domain", "ip", "asn", or "option"
	Text string
	Ctx  ErrorContext
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s input: %s", e.Kind, e.Text)
}

// SecurityError is returned for an SSRF rejection or an auth
// misconfiguration. Never retried.
type SecurityError struct {
	Reason string
	Text   string
	Ctx    ErrorContext
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security error (%s): %s", e.Reason, e.Text)
}

// NotFoundError is returned for an upstream 404 for the key. Never retried.
type NotFoundError struct {
	Query string
	Ctx   ErrorContext
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Query)
}

// RateLimitError is returned when the local limiter is exhausted, or the
// upstream server responded 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Text       string
	Ctx        ErrorContext
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %s", e.RetryAfter, e.Text)
}

// TransportError is returned for a network failure or timeout. Retryable.
type TransportError struct {
	Text string
	Err  error
	Ctx  ErrorContext
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s: %s", e.Text, e.Err)
	}
	return fmt.Sprintf("transport error: %s", e.Text)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is returned for malformed RDAP JSON, an object-class
// mismatch, a redirect loop, or an unsupported content encoding. Never
// retried.
type ProtocolError struct {
	Text string
	Ctx  ErrorContext
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Text)
}

// CircuitOpenError is returned when the breaker for an origin is open.
// Not retried within the current call.
type CircuitOpenError struct {
	Origin string
	Ctx    ErrorContext
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s", e.Origin)
}

// BootstrapError is returned for a bootstrap download failure, or when
// no bootstrap entry matches the key.
type BootstrapError struct {
	Reason string
	Text   string
	Ctx    ErrorContext
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap error (%s): %s", e.Reason, e.Text)
}

// QueueFullError is returned by the optional priority queue when
// maxPending is exceeded.
type QueueFullError struct {
	Ctx ErrorContext
}

func (e *QueueFullError) Error() string {
	return "priority queue is full"
}

// CancelledError is returned when the caller's cancellation signal was
// observed at a suspension point.
type CancelledError struct {
	Ctx ErrorContext
}

func (e *CancelledError) Error() string {
	return "cancelled"
}

package rdap

import (
	"context"
	"errors"
	"time"

	"github.com/rdapify/rdapify/bootstrap"
	"github.com/rdapify/rdapify/internal/fetch"
	"github.com/rdapify/rdapify/internal/normalize"
	"github.com/rdapify/rdapify/internal/queue"
	"github.com/rdapify/rdapify/internal/ratelimit"
	"github.com/rdapify/rdapify/internal/ssrf"
	"github.com/rdapify/rdapify/internal/validate"
)

// mapErr translates an error from one of the internal pipeline
// packages onto the public taxonomy of §7. Each internal package keeps
// its own local Error type to stay import-cycle free from the root
// package (documented on each); this is the single place those get
// reconciled into InvalidInputError/SecurityError/etc.
func mapErr(err error, kind, origin string, attempt int, elapsed time.Duration) error {
	if err == nil {
		return nil
	}

	ctx := ErrorContext{Kind: kind, Attempt: attempt, Origin: origin, ElapsedMs: elapsed.Milliseconds()}

	var inputErr *validate.InputError
	if errors.As(err, &inputErr) {
		return &InvalidInputError{Kind: string(inputErr.Kind), Text: inputErr.Text, Ctx: ctx}
	}

	var ssrfErr *ssrf.Error
	if errors.As(err, &ssrfErr) {
		return &SecurityError{Reason: "ssrf", Text: ssrfErr.Error(), Ctx: ctx}
	}

	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		return &RateLimitError{RetryAfter: rlErr.RetryAfter, Text: rlErr.Error(), Ctx: ctx}
	}

	var bsErr *bootstrap.Error
	if errors.As(err, &bsErr) {
		return &BootstrapError{Reason: bsErr.Reason, Text: bsErr.Text, Ctx: ctx}
	}

	var normErr *normalize.Error
	if errors.As(err, &normErr) {
		return &ProtocolError{Text: normErr.Error(), Ctx: ctx}
	}

	var qErr *queue.Error
	if errors.As(err, &qErr) {
		if qErr.Reason == "full" {
			return &QueueFullError{Ctx: ctx}
		}
		return &CancelledError{Ctx: ctx}
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		switch fetchErr.Kind {
		case "not_found":
			return &NotFoundError{Query: origin, Ctx: ctx}
		case "rate_limited":
			return &RateLimitError{RetryAfter: fetchErr.RetryAfter, Text: fetchErr.Error(), Ctx: ctx}
		case "circuit_open":
			return &CircuitOpenError{Origin: origin, Ctx: ctx}
		case "cancelled":
			return &CancelledError{Ctx: ctx}
		case "protocol":
			return &ProtocolError{Text: fetchErr.Error(), Ctx: ctx}
		default:
			return &TransportError{Text: fetchErr.Error(), Err: fetchErr.Err, Ctx: ctx}
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &CancelledError{Ctx: ctx}
	}

	return &TransportError{Text: err.Error(), Err: err, Ctx: ctx}
}

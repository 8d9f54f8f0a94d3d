// Package fetch implements the L2 fetcher (§4.6): a single outbound
// RDAP GET, wrapped in the retry strategy and circuit breaker of §4.7.
// It has no knowledge of bootstrap discovery, caching, or redaction;
// it only knows how to turn a URL into bytes or a classified error.
package fetch

import (
	"fmt"
	"time"
)

// Error is the fetcher's own classification of a failed attempt. The
// orchestrator maps Kind onto the root error taxonomy (errs.go); kept
// separate here to avoid an import cycle between internal/fetch and
// the root package.
type Error struct {
	Kind       string // "not_found", "rate_limited", "transport", "protocol", "circuit_open", "cancelled", "ssrf"
	StatusCode int
	RetryAfter time.Duration
	Err        error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch: %s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch: %s (status %d)", e.Kind, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

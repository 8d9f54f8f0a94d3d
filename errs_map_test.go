package rdap

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdapify/rdapify/bootstrap"
	"github.com/rdapify/rdapify/internal/fetch"
	"github.com/rdapify/rdapify/internal/normalize"
	"github.com/rdapify/rdapify/internal/queue"
	"github.com/rdapify/rdapify/internal/ratelimit"
	"github.com/rdapify/rdapify/internal/ssrf"
	"github.com/rdapify/rdapify/internal/validate"
)

func TestMapErrNil(t *testing.T) {
	assert.Nil(t, mapErr(nil, "domain", "example.com", 0, 0))
}

func TestMapErrInputError(t *testing.T) {
	in := &validate.InputError{Kind: validate.KindDomain, Text: "empty domain"}
	out := mapErr(in, "domain", "", 0, 0)

	var ie *InvalidInputError
	require.ErrorAs(t, out, &ie)
	assert.Equal(t, "domain", ie.Kind)
	assert.Equal(t, "empty domain", ie.Text)
}

func TestMapErrSSRF(t *testing.T) {
	in := &ssrf.Error{Addr: netip.MustParseAddr("127.0.0.1"), Reason: ssrf.ReasonLoopback}
	out := mapErr(in, "domain", "example.com", 0, 0)

	var se *SecurityError
	require.ErrorAs(t, out, &se)
	assert.Equal(t, "ssrf", se.Reason)
}

func TestMapErrRateLimit(t *testing.T) {
	in := &ratelimit.Error{Key: "https://rdap.example.org", RetryAfter: 2 * time.Second}
	out := mapErr(in, "domain", "example.com", 0, 0)

	var rl *RateLimitError
	require.ErrorAs(t, out, &rl)
	assert.Equal(t, 2*time.Second, rl.RetryAfter)
}

func TestMapErrBootstrap(t *testing.T) {
	in := &bootstrap.Error{Reason: "no-match", Text: "example.invalid"}
	out := mapErr(in, "domain", "example.invalid", 0, 0)

	var be *BootstrapError
	require.ErrorAs(t, out, &be)
	assert.Equal(t, "no-match", be.Reason)
}

func TestMapErrNormalize(t *testing.T) {
	in := &normalize.Error{Reason: "class_mismatch", Text: "expected domain, got ip network"}
	out := mapErr(in, "domain", "example.com", 0, 0)

	var pe *ProtocolError
	require.ErrorAs(t, out, &pe)
}

func TestMapErrQueueFull(t *testing.T) {
	in := &queue.Error{Reason: "full"}
	out := mapErr(in, "domain", "example.com", 0, 0)

	var qf *QueueFullError
	require.ErrorAs(t, out, &qf)
}

func TestMapErrQueueClosed(t *testing.T) {
	in := &queue.Error{Reason: "closed"}
	out := mapErr(in, "domain", "example.com", 0, 0)

	var ce *CancelledError
	require.ErrorAs(t, out, &ce)
}

func TestMapErrFetchKinds(t *testing.T) {
	tests := []struct {
		kind string
		want any
	}{
		{"not_found", &NotFoundError{}},
		{"rate_limited", &RateLimitError{}},
		{"circuit_open", &CircuitOpenError{}},
		{"cancelled", &CancelledError{}},
		{"protocol", &ProtocolError{}},
		{"transport", &TransportError{}},
	}

	for _, tt := range tests {
		in := &fetch.Error{Kind: tt.kind, Err: errors.New("boom")}
		out := mapErr(in, "domain", "example.com", 0, 0)
		assert.IsType(t, tt.want, out, tt.kind)
	}
}

func TestMapErrContextCancelled(t *testing.T) {
	out := mapErr(context.Canceled, "domain", "example.com", 0, 0)
	var ce *CancelledError
	require.ErrorAs(t, out, &ce)

	out = mapErr(context.DeadlineExceeded, "domain", "example.com", 0, 0)
	require.ErrorAs(t, out, &ce)
}

func TestMapErrFallsBackToTransport(t *testing.T) {
	out := mapErr(errors.New("something unclassified"), "domain", "example.com", 0, 0)
	var te *TransportError
	require.ErrorAs(t, out, &te)
}

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdapify/rdapify/internal/rlog"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Retry = RetryPolicy{Strategy: StrategyFixed, MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	cfg.Logger = rlog.Nop()
	return New(cfg)
}

func TestFetchSuccess(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://rdap.example.org/domain/example.com",
		httpmock.NewStringResponder(200, `{"objectClassName":"domain"}`))

	f := newTestFetcher(t)
	body, stats, err := f.Fetch(context.Background(), "https://rdap.example.org/domain/example.com")

	require.NoError(t, err)
	assert.JSONEq(t, `{"objectClassName":"domain"}`, string(body))
	assert.Equal(t, 200, stats.StatusCode)
	assert.Equal(t, 1, stats.Attempts)
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder("GET", "https://rdap.example.org/domain/missing.com",
		func(req *http.Request) (*http.Response, error) {
			calls++
			return httpmock.NewStringResponse(404, `{}`), nil
		})

	f := newTestFetcher(t)
	_, _, err := f.Fetch(context.Background(), "https://rdap.example.org/domain/missing.com")

	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "not_found", fe.Kind)
	assert.Equal(t, 1, calls)
}

func TestFetchRetriesOn5xxThenSucceeds(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder("GET", "https://rdap.example.org/domain/flaky.com",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(503, `{}`), nil
			}
			return httpmock.NewStringResponse(200, `{"objectClassName":"domain"}`), nil
		})

	f := newTestFetcher(t)
	body, stats, err := f.Fetch(context.Background(), "https://rdap.example.org/domain/flaky.com")

	require.NoError(t, err)
	assert.JSONEq(t, `{"objectClassName":"domain"}`, string(body))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, stats.Attempts)
}

func TestFetchRateLimitedNotRetriedPastMaxAttempts(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://rdap.example.org/domain/busy.com",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(429, `{}`)
			resp.Header.Set("Retry-After", "1")
			return resp, nil
		})

	f := newTestFetcher(t)
	_, _, err := f.Fetch(context.Background(), "https://rdap.example.org/domain/busy.com")

	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rate_limited", fe.Kind)
	assert.Equal(t, time.Second, fe.RetryAfter)
}

func TestFetchRejectsRedirectLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/domain/example.com", http.StatusFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, _, err := f.Fetch(context.Background(), srv.URL+"/domain/example.com")

	require.Error(t, err)
}

func TestFetchHonorsCancellation(t *testing.T) {
	f := newTestFetcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := f.Fetch(ctx, "https://rdap.example.org/domain/example.com")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "cancelled", fe.Kind)
}

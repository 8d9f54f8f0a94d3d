package rdap

import (
	"fmt"
	"time"

	"github.com/rdapify/rdapify/internal/fetch"
	"github.com/rdapify/rdapify/internal/rlog"
	"github.com/rdapify/rdapify/internal/transport"
)

// CacheBackendKind selects the response cache's storage backend (§4.9).
type CacheBackendKind string

const (
	CacheBackendMemory CacheBackendKind = "memory"
	CacheBackendFile   CacheBackendKind = "file"
)

// CacheOptions configures the L2 response cache.
type CacheOptions struct {
	Enabled          bool
	Backend          CacheBackendKind
	Path             string // FileBackend only; defaults under $HOME/.rdapify
	MaxSize          int
	TTLDomain        time.Duration
	TTLIP            time.Duration
	TTLASN           time.Duration
	SnapshotInterval time.Duration
}

// RateLimitOptions configures the L1 token-bucket limiter (§4.3).
type RateLimitOptions struct {
	Enabled bool
	Max     int
	Window  time.Duration
	KeyBy   string // "host" or "caller"
}

// ConnectionPoolOptions configures the L1 connection pool (§4.4).
type ConnectionPoolOptions struct {
	MaxConnectionsPerHost int
	IdleTimeout           time.Duration
	KeepAlive             bool
}

// CircuitBreakerOptions configures the per-origin breaker (§4.7).
type CircuitBreakerOptions struct {
	Enabled   bool
	Threshold uint32
	Timeout   time.Duration
}

// RetryOptions configures the fetcher's retry strategy and breaker (§4.7).
type RetryOptions struct {
	Strategy       fetch.Strategy
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	CircuitBreaker CircuitBreakerOptions
}

// BootstrapOptions overrides the IANA bootstrap source and its TTL (§4.8).
type BootstrapOptions struct {
	BaseURL string
	TTL     time.Duration
}

// LoggingOptions configures the L4 logger (§4.14).
type LoggingOptions struct {
	Level   rlog.Level
	Enabled bool
}

// PriorityOptions enables the optional admission queue in front of the
// orchestrator (§4.13).
type PriorityOptions struct {
	Enabled     bool
	Concurrency int
	MaxPending  int
}

// clientConfig is the fully-resolved configuration built by applying
// every Option to defaultConfig(). It is unexported: callers only ever
// see ClientOptions keys through Option constructors, following the
// pattern of datum-labs-rdap's functional-options Client.
type clientConfig struct {
	cache           CacheOptions
	includeRaw      bool
	redactPII       bool
	allowPrivateIPs bool
	timeout         time.Duration
	retry           RetryOptions
	rateLimit       RateLimitOptions
	pool            ConnectionPoolOptions
	auth            transport.Auth
	proxy           *transport.Proxy
	compression     transport.Compression
	bootstrap       BootstrapOptions
	logging         LoggingOptions
	priority        PriorityOptions
}

func defaultConfig() clientConfig {
	return clientConfig{
		cache: CacheOptions{
			Enabled:   true,
			Backend:   CacheBackendMemory,
			MaxSize:   4096,
			TTLDomain: time.Hour,
			TTLIP:     30 * time.Minute,
			TTLASN:    2 * time.Hour,
		},
		redactPII:       true,
		allowPrivateIPs: false,
		timeout:         10 * time.Second,
		retry: RetryOptions{
			Strategy:     fetch.StrategyExponentialJitter,
			MaxAttempts:  3,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			CircuitBreaker: CircuitBreakerOptions{
				Enabled:   true,
				Threshold: 5,
				Timeout:   30 * time.Second,
			},
		},
		pool: ConnectionPoolOptions{
			MaxConnectionsPerHost: 8,
			IdleTimeout:           90 * time.Second,
			KeepAlive:             true,
		},
		compression: transport.DefaultCompression(),
		bootstrap: BootstrapOptions{
			TTL: 24 * time.Hour,
		},
		logging: LoggingOptions{
			Level:   rlog.InfoLevel,
			Enabled: false,
		},
	}
}

// Option configures a Client at construction time, following the
// functional-options shape of the teacher's own client constructors.
type Option func(*clientConfig)

// WithCache configures the response cache (§4.9).
func WithCache(opts CacheOptions) Option {
	return func(c *clientConfig) { c.cache = opts }
}

// WithIncludeRaw attaches the upstream JSON to every response.
func WithIncludeRaw(enabled bool) Option {
	return func(c *clientConfig) { c.includeRaw = enabled }
}

// WithRedactPII toggles PII redaction on read (default true).
func WithRedactPII(enabled bool) Option {
	return func(c *clientConfig) { c.redactPII = enabled }
}

// WithAllowPrivateIPs disables the SSRF guard's rejection of private
// address ranges (default false).
func WithAllowPrivateIPs(allow bool) Option {
	return func(c *clientConfig) { c.allowPrivateIPs = allow }
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithRetry configures the retry strategy and circuit breaker (§4.7).
func WithRetry(opts RetryOptions) Option {
	return func(c *clientConfig) { c.retry = opts }
}

// WithRateLimit configures the token-bucket limiter (§4.3).
func WithRateLimit(opts RateLimitOptions) Option {
	return func(c *clientConfig) { c.rateLimit = opts }
}

// WithConnectionPool configures the pool (§4.4).
func WithConnectionPool(opts ConnectionPoolOptions) Option {
	return func(c *clientConfig) { c.pool = opts }
}

// WithAuth configures outbound authentication (§4.5).
func WithAuth(a transport.Auth) Option {
	return func(c *clientConfig) { c.auth = a }
}

// WithProxy configures an outbound proxy (§4.5).
func WithProxy(p transport.Proxy) Option {
	return func(c *clientConfig) { c.proxy = &p }
}

// WithCompression configures advertised/accepted content codings (§4.5).
func WithCompression(comp transport.Compression) Option {
	return func(c *clientConfig) { c.compression = comp }
}

// WithBootstrap overrides the IANA bootstrap source and its TTL (§4.8).
//
// The teacher's bootstrap.Client resolves all four registry filenames
// (dns.json, ipv4.json, ipv6.json, asn.json) against a single BaseURL,
// so per-registry source overrides from §6's {dns?,ipv4?,ipv6?,asn?}
// shape aren't independently addressable; only a single override base
// is supported here (see DESIGN.md).
func WithBootstrap(opts BootstrapOptions) Option {
	return func(c *clientConfig) { c.bootstrap = opts }
}

// WithLogging configures the structured logger (§4.14).
func WithLogging(opts LoggingOptions) Option {
	return func(c *clientConfig) { c.logging = opts }
}

// WithPriority enables the admission queue fronting the orchestrator (§4.13).
func WithPriority(opts PriorityOptions) Option {
	return func(c *clientConfig) { c.priority = opts }
}

// optionAllowlist is the fixed set of top-level keys FromMap accepts;
// anything else is rejected at construction rather than silently
// ignored.
var optionAllowlist = map[string]bool{
	"cache":           true,
	"includeRaw":      true,
	"redactPII":       true,
	"allowPrivateIPs": true,
	"timeoutMs":       true,
	"logging":         true,
}

// FromMap builds an Option from a dynamic map[string]any, the one
// escape hatch §6 allows for config-file loading. Unknown keys are
// rejected with InvalidInputError{Kind:"option"} rather than ignored.
func FromMap(m map[string]any) (Option, error) {
	for key := range m {
		if !optionAllowlist[key] {
			return nil, &InvalidInputError{Kind: "option", Text: fmt.Sprintf("unknown option key %q", key)}
		}
	}

	return func(c *clientConfig) {
		if v, ok := m["includeRaw"].(bool); ok {
			c.includeRaw = v
		}
		if v, ok := m["redactPII"].(bool); ok {
			c.redactPII = v
		}
		if v, ok := m["allowPrivateIPs"].(bool); ok {
			c.allowPrivateIPs = v
		}
		if v, ok := m["timeoutMs"].(float64); ok {
			c.timeout = time.Duration(v) * time.Millisecond
		}
		if v, ok := m["cache"].(bool); ok {
			c.cache.Enabled = v
		}
		if v, ok := m["logging"].(map[string]any); ok {
			if enabled, ok := v["enabled"].(bool); ok {
				c.logging.Enabled = enabled
			}
		}
	}, nil
}

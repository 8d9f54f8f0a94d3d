package rdap

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rdapify/rdapify/internal/metrics"
	"github.com/rdapify/rdapify/internal/normalize"
	"github.com/rdapify/rdapify/internal/rcache"
	"github.com/rdapify/rdapify/internal/redact"
	"github.com/rdapify/rdapify/internal/schema"
	"github.com/rdapify/rdapify/internal/validate"
)

// correlationSeq backs newCorrelationID; a process-wide monotonic
// counter is enough to tell concurrent orchestrations apart in a log
// stream without pulling in a UUID dependency the pack never carries
// for this purpose.
var correlationSeq uint64

func newCorrelationID() string {
	n := atomic.AddUint64(&correlationSeq, 1)
	return fmt.Sprintf("q-%x", n)
}

// domain implements the §4.12 pipeline for a domain key.
func (c *Client) domain(ctx context.Context, name string) (*Domain, error) {
	start := time.Now()

	v, err := validate.ValidateDomain(name)
	if err != nil {
		return nil, mapErr(err, "domain", name, 0, time.Since(start))
	}

	return runPipeline(ctx, c, pipelineArgs[*schema.Domain]{
		kind:          "domain",
		class:         rcache.ClassDomain,
		normalizedKey: v.LDHName,
		cache:         c.domainCache,
		discover: func(ctx context.Context) (string, error) {
			return c.bootstrapClient.DiscoverDomain(ctx, v.LDHName)
		},
		buildURL: func(server string) string {
			return fmt.Sprintf("%s/domain/%s", server, v.LDHName)
		},
		expectedClass: schema.ClassDomain,
		extract: func(v interface{}) (*schema.Domain, error) {
			d, ok := v.(*schema.Domain)
			if !ok {
				return nil, fmt.Errorf("normalize returned %T, want *schema.Domain", v)
			}
			return d, nil
		},
		redact: redact.Domain,
	})
}

// ip implements the §4.12 pipeline for an IP key.
func (c *Client) ip(ctx context.Context, addr string) (*IPNetwork, error) {
	start := time.Now()

	v, err := validate.ValidateIP(addr)
	if err != nil {
		return nil, mapErr(err, "ip", addr, 0, time.Since(start))
	}

	canonical := v.Addr.String()

	return runPipeline(ctx, c, pipelineArgs[*schema.IPNetwork]{
		kind:          "ip",
		class:         rcache.ClassIP,
		normalizedKey: canonical,
		cache:         c.ipCache,
		discover: func(ctx context.Context) (string, error) {
			if v.Version == "v6" {
				return c.bootstrapClient.DiscoverIPv6(ctx, canonical)
			}
			return c.bootstrapClient.DiscoverIPv4(ctx, canonical)
		},
		buildURL: func(server string) string {
			return fmt.Sprintf("%s/ip/%s", server, canonical)
		},
		expectedClass: schema.ClassIPNetwork,
		extract: func(v interface{}) (*schema.IPNetwork, error) {
			n, ok := v.(*schema.IPNetwork)
			if !ok {
				return nil, fmt.Errorf("normalize returned %T, want *schema.IPNetwork", v)
			}
			return n, nil
		},
		redact: redact.IPNetwork,
	})
}

// asn implements the §4.12 pipeline for an ASN key.
func (c *Client) asn(ctx context.Context, input string) (*Autnum, error) {
	start := time.Now()

	v, err := validate.ValidateASN(input)
	if err != nil {
		return nil, mapErr(err, "asn", input, 0, time.Since(start))
	}

	normalizedKey := strconv.FormatUint(uint64(v.Start), 10)

	return runPipeline(ctx, c, pipelineArgs[*schema.Autnum]{
		kind:          "asn",
		class:         rcache.ClassASN,
		normalizedKey: normalizedKey,
		cache:         c.asnCache,
		discover: func(ctx context.Context) (string, error) {
			return c.bootstrapClient.DiscoverASN(ctx, normalizedKey)
		},
		buildURL: func(server string) string {
			return fmt.Sprintf("%s/autnum/%s", server, normalizedKey)
		},
		expectedClass: schema.ClassAutnum,
		extract: func(v interface{}) (*schema.Autnum, error) {
			a, ok := v.(*schema.Autnum)
			if !ok {
				return nil, fmt.Errorf("normalize returned %T, want *schema.Autnum", v)
			}
			return a, nil
		},
		redact: redact.Autnum,
	})
}

// pipelineArgs bundles what's specific to one object class's
// orchestration so runPipeline can stay a single generic function
// shared by all three (§4.12's three pipelines differ only in these).
type pipelineArgs[V any] struct {
	kind          string
	class         rcache.Class
	normalizedKey string
	cache         *rcache.Cache[V]
	discover      func(context.Context) (string, error)
	buildURL      func(server string) string
	expectedClass schema.ObjectClass
	extract       func(interface{}) (V, error)
	redact        func(V, redact.Policy) V
}

// runPipeline implements §4.12's orchestrate(kind, input):
//
//	cacheKey = (kind, normalized)
//	if entry := cache.Get(cacheKey): return redact(entry)
//	return singleflight(cacheKey, () -> {
//	    if entry := cache.Get(cacheKey): return entry  // double-check
//	    server = bootstrap.Discover<kind>(normalized)
//	    url    = buildUrl(server, kind, normalized)
//	    raw    = fetcher.Fetch(url)
//	    entry  = normalizer.Normalize(raw, kind, server)
//	    cache.Set(cacheKey, entry)
//	    return entry
//	}) |> redact
//
// The cache-hit check and the single-flight double-check both live
// inside rcache.Cache.GetOrLoad; this function only supplies the
// loader closure (discover -> fetch -> normalize) and the metrics/log
// wrapping around it.
func runPipeline[V any](ctx context.Context, c *Client, args pipelineArgs[V]) (V, error) {
	var zero V
	start := time.Now()

	qid := newCorrelationID()
	log := c.logger.With(qid)
	if !log.Disabled() {
		log.Debug("query start", map[string]string{"kind": args.kind, "key": args.normalizedKey})
	}

	load := func() (V, error) {
		server, err := args.discover(ctx)
		if err != nil {
			return zero, err
		}

		raw, _, err := c.fetcher.Fetch(ctx, args.buildURL(server))
		if err != nil {
			return zero, err
		}

		normalized, err := normalize.Normalize(raw, args.expectedClass, server, c.cfg.includeRaw)
		if err != nil {
			return zero, err
		}

		return args.extract(normalized)
	}

	var value V
	var cacheHit bool
	var err error

	if args.cache != nil {
		value, cacheHit, err = args.cache.GetOrLoad(rcache.Key{Class: args.class, Normalized: args.normalizedKey}, 0, load)
	} else {
		value, err = load()
	}

	elapsed := time.Since(start)

	if err != nil {
		mapped := mapErr(err, args.kind, args.normalizedKey, 0, elapsed)
		if c.metrics != nil {
			c.metrics.Record(metrics.Record{
				Kind:       args.kind,
				Outcome:    "error",
				DurationMs: elapsed.Milliseconds(),
				CacheHit:   cacheHit,
				ErrorKind:  errorKindName(mapped),
				Timestamp:  start,
			})
		}
		if !log.Disabled() {
			log.Error("query failed", mapped, map[string]string{"kind": args.kind})
		}
		return zero, mapped
	}

	if c.metrics != nil {
		c.metrics.Record(metrics.Record{
			Kind:       args.kind,
			Outcome:    "success",
			DurationMs: elapsed.Milliseconds(),
			CacheHit:   cacheHit,
			Timestamp:  start,
		})
	}

	if !log.Disabled() {
		log.Debug("query complete", map[string]string{"kind": args.kind, "cacheHit": strconv.FormatBool(cacheHit)})
	}

	if c.cfg.redactPII {
		value = args.redact(value, c.redactPolicy)
	}

	return value, nil
}

// errorKindName reports the taxonomy kind of a mapped public error,
// for the metrics collector's errorsByType breakdown.
func errorKindName(err error) string {
	switch err.(type) {
	case *InvalidInputError:
		return "invalid_input"
	case *SecurityError:
		return "security"
	case *NotFoundError:
		return "not_found"
	case *RateLimitError:
		return "rate_limit"
	case *TransportError:
		return "transport"
	case *ProtocolError:
		return "protocol"
	case *CircuitOpenError:
		return "circuit_open"
	case *BootstrapError:
		return "bootstrap"
	case *QueueFullError:
		return "queue_full"
	case *CancelledError:
		return "cancelled"
	default:
		return "unknown"
	}
}

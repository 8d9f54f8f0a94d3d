// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

// Package rdap implements a client for the Registration Data Access
// Protocol (RDAP): the successor to WHOIS for looking up registration
// metadata for DNS domains, IP address blocks, and Autonomous System
// Numbers.
//
// Given a domain name, IP address, or ASN, the client discovers the
// authoritative RDAP server via the IANA bootstrap registries, fetches
// the JSON response over HTTPS, normalizes it into a uniform shape,
// caches it, and returns it with personally-identifiable entity fields
// redacted by default.
//
// Quick usage:
//
//	client, err := rdap.NewClient()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	domain, err := client.Domain(context.Background(), "google.cz")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(domain.LDHName, domain.Status)
//
// Construction takes functional options (see Option) to configure the
// response cache, retry/circuit-breaker behavior, rate limiting,
// connection pooling, authentication, proxying, compression,
// bootstrap source overrides, logging, and the optional priority
// queue. Unrecognized option keys passed through the FromMap escape
// hatch are rejected rather than silently ignored.
package rdap

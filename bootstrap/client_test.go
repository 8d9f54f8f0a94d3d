// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package bootstrap

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
)

func newTestClient() *Client {
	c := NewClient()
	httpmock.ActivateNonDefault(c.HTTP)
	return c
}

func TestDownload(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/dns.json",
		httpmock.NewStringResponder(200, dnsRegistryFixture))

	err := c.Download(context.Background(), DNS)
	if err != nil {
		t.Fatalf("Download() error: %s", err)
	}

	if c.ASN() != nil || c.DNS() == nil || c.IPv4() != nil || c.IPv6() != nil {
		t.Fatalf("Download() populated the wrong registries")
	}
}

func TestDownloadHTTPError(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/dns.json",
		httpmock.NewStringResponder(500, "server error"))

	err := c.Download(context.Background(), DNS)
	if err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestDiscoverDomain(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/dns.json",
		httpmock.NewStringResponder(200, dnsRegistryFixture))

	got, err := c.DiscoverDomain(context.Background(), "example.org")
	if err != nil {
		t.Fatalf("DiscoverDomain() error: %s", err)
	}

	if got != "https://registry.example.org/rdap" {
		t.Fatalf("DiscoverDomain() = %q", got)
	}
}

func TestDiscoverDomainNoMatch(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/dns.json",
		httpmock.NewStringResponder(200, dnsRegistryFixture))

	_, err := c.DiscoverDomain(context.Background(), "example.invalid")
	if err == nil {
		t.Fatal("expected no-match error")
	}
}

func TestDiscoverIPv4(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/ipv4.json",
		httpmock.NewStringResponder(200, ipv4RegistryFixture))

	got, err := c.DiscoverIPv4(context.Background(), "41.0.0.1")
	if err != nil {
		t.Fatalf("DiscoverIPv4() error: %s", err)
	}

	if got != "https://rdap.afrinic.net/rdap" && got != "http://rdap.afrinic.net/rdap" {
		t.Fatalf("DiscoverIPv4() = %q", got)
	}
}

func TestDiscoverASN(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/asn.json",
		httpmock.NewStringResponder(200, `{"services":[[["1-2000"],["https://rdap.apnic.net/"]]]}`))

	got, err := c.DiscoverASN(context.Background(), "as1768")
	if err != nil {
		t.Fatalf("DiscoverASN() error: %s", err)
	}

	if got != "https://rdap.apnic.net" {
		t.Fatalf("DiscoverASN() = %q", got)
	}
}

func TestDiscoverFailsOnDownloadError(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/dns.json",
		httpmock.NewStringResponder(500, "server error"))

	_, err := c.DiscoverDomain(context.Background(), "example.br")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDiscoverServesStaleCacheWithoutBlocking(t *testing.T) {
	c := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://data.iana.org/rdap/dns.json",
		httpmock.NewStringResponder(200, dnsRegistryFixture))

	if _, err := c.DiscoverDomain(context.Background(), "example.org"); err != nil {
		t.Fatalf("initial DiscoverDomain() error: %s", err)
	}

	c.Cache.SetTimeout(0)

	got, err := c.DiscoverDomain(context.Background(), "example.org")
	if err != nil {
		t.Fatalf("stale DiscoverDomain() error: %s", err)
	}
	if got != "https://registry.example.org/rdap" {
		t.Fatalf("stale DiscoverDomain() = %q", got)
	}
}

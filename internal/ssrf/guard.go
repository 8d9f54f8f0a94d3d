// Package ssrf implements the L1 SSRF guard: classifying a resolved
// host/IP as public or private, and refusing the latter unless the
// caller explicitly opted in (§4.2).
package ssrf

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// unsafePrefixes are the ranges §4.2 names as unsafe for both address
// families. IPv4-mapped IPv6 variants are checked via Unmap() in
// ClassifyAddr, rather than listed again here.
var unsafePrefixes = mustParsePrefixes([]string{
	// IPv4
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"100.64.0.0/10", // CGNAT
	"0.0.0.0/8",
	"224.0.0.0/4", // multicast
	// IPv6
	"::1/128",
	"fc00::/7",
	"fe80::/10",
	"ff00::/8", // multicast
})

func mustParsePrefixes(cidrs []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p := netip.MustParsePrefix(c)
		out = append(out, p)
	}
	return out
}

var broadcastAddr = netip.MustParseAddr("255.255.255.255")

// Reason describes why ClassifyAddr rejected an address.
type Reason string

const (
	ReasonPrivate     Reason = "private"
	ReasonLoopback    Reason = "loopback"
	ReasonLinkLocal   Reason = "link-local"
	ReasonCGNAT       Reason = "cgnat"
	ReasonMulticast   Reason = "multicast"
	ReasonBroadcast   Reason = "broadcast"
	ReasonUnspecified Reason = "unspecified"
)

// Error reports that an address was rejected as unsafe for an outbound
// request.
type Error struct {
	Addr   netip.Addr
	Reason Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("address %s is unsafe for outbound requests (%s)", e.Addr, e.Reason)
}

// Resolver resolves a hostname to IP literals. *net.Resolver satisfies
// this directly through its LookupHost method.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Guard classifies outbound targets and refuses unsafe ones.
type Guard struct {
	Resolver        Resolver
	AllowPrivateIPs bool
}

// NewGuard creates a Guard using net.DefaultResolver.
func NewGuard(allowPrivateIPs bool) *Guard {
	return &Guard{Resolver: net.DefaultResolver, AllowPrivateIPs: allowPrivateIPs}
}

// ClassifyAddr reports whether addr is unsafe to contact, and why.
func ClassifyAddr(addr netip.Addr) (unsafe bool, reason Reason) {
	unmapped := addr.Unmap()

	if unmapped == broadcastAddr {
		return true, ReasonBroadcast
	}
	if unmapped.IsLoopback() {
		return true, ReasonLoopback
	}
	if unmapped.IsUnspecified() {
		return true, ReasonUnspecified
	}
	if unmapped.IsLinkLocalUnicast() || unmapped.IsLinkLocalMulticast() {
		return true, ReasonLinkLocal
	}
	if unmapped.IsMulticast() {
		return true, ReasonMulticast
	}

	for _, p := range unsafePrefixes {
		if p.Contains(unmapped) {
			if p.Bits() == 10 && p.Addr().Is4() {
				return true, ReasonCGNAT
			}
			return true, ReasonPrivate
		}
	}

	return false, ""
}

// CheckHost resolves host and refuses the request if any resolved
// address is unsafe, unless AllowPrivateIPs is set. A literal IP host
// is classified directly without a resolver round-trip.
func (g *Guard) CheckHost(ctx context.Context, host string) error {
	if addr, err := netip.ParseAddr(host); err == nil {
		return g.checkAddr(addr)
	}

	addrs, err := g.Resolver.LookupHost(ctx, host)
	if err != nil {
		return fmt.Errorf("ssrf guard: resolving %s: %w", host, err)
	}

	for _, a := range addrs {
		addr, err := netip.ParseAddr(a)
		if err != nil {
			continue
		}
		if err := g.checkAddr(addr); err != nil {
			return err
		}
	}

	return nil
}

func (g *Guard) checkAddr(addr netip.Addr) error {
	unsafe, reason := ClassifyAddr(addr)
	if !unsafe {
		return nil
	}
	if g.AllowPrivateIPs {
		return nil
	}
	return &Error{Addr: addr, Reason: reason}
}

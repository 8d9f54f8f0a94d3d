package validate

import (
	"fmt"
	"net/netip"
	"strings"
)

// IP is the canonical form of a validated IPv4/IPv6 address.
type IP struct {
	Addr    netip.Addr
	Version string // "v4" or "v6"
	Zone    string // IPv6 zone identifier, parsed out but never forwarded upstream.
}

// ValidateIP accepts an IPv4 dotted-quad or an IPv6 address (optionally
// with a "%zone" suffix, RFC 5952 canonical or compressed form). The
// zone is parsed out for diagnostics only; it is never forwarded
// upstream (§3).
func ValidateIP(input string) (IP, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return IP{}, &InputError{KindIP, "empty address"}
	}
	if strings.ContainsAny(raw, " \t") {
		return IP{}, &InputError{KindIP, "embedded whitespace"}
	}

	zone := ""
	addrPart := raw
	if idx := strings.IndexByte(raw, '%'); idx != -1 {
		zone = raw[idx+1:]
		addrPart = raw[:idx]
		if zone == "" {
			return IP{}, &InputError{KindIP, "empty zone identifier"}
		}
	}

	addr, err := netip.ParseAddr(addrPart)
	if err != nil {
		return IP{}, &InputError{KindIP, fmt.Sprintf("unparseable address: %s", err)}
	}

	if addr.Is4() {
		if zone != "" {
			return IP{}, &InputError{KindIP, "zone identifier on IPv4 address"}
		}
		if !isStrictIPv4(addrPart) {
			return IP{}, &InputError{KindIP, "malformed IPv4 dotted-quad"}
		}
		return IP{Addr: addr, Version: "v4"}, nil
	}

	return IP{Addr: addr, Version: "v6", Zone: zone}, nil
}

// isStrictIPv4 rejects leading zeros (other than a bare "0") which
// netip.ParseAddr already rejects, but is kept explicit per §4.1's
// requirement that each octet have "no leading zeros beyond a single 0".
func isStrictIPv4(s string) bool {
	for _, octet := range strings.Split(s, ".") {
		if len(octet) > 1 && octet[0] == '0' {
			return false
		}
	}
	return true
}

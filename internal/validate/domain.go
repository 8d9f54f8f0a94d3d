// Package validate implements L0 of the query pipeline: canonicalizing
// and rejecting malformed domain, IP, and ASN inputs (§4.1). Success
// implies the value is safe to forward to the HTTP layer.
package validate

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

const maxDomainLength = 253
const maxLabelLength = 63

// idnaProfile performs non-transitional, strict IDN ToASCII conversion,
// matching the teacher's reliance on golang.org/x/net for IDN handling.
var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(true),
)

// Domain is the canonical form of a validated domain name: an ASCII,
// lowercase LDH name, plus the Unicode form when the input was an IDN.
type Domain struct {
	LDHName     string
	UnicodeName string
}

// Kind identifies which input kind an InvalidInputError describes.
type Kind string

const (
	KindDomain Kind = "domain"
	KindIP     Kind = "ip"
	KindASN    Kind = "asn"
)

// InputError reports a malformed domain/IP/ASN input (§4.1).
type InputError struct {
	Kind Kind
	Text string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s input: %s", e.Kind, e.Text)
}

// ValidateDomain canonicalizes a raw domain name: trims whitespace,
// converts non-ASCII input via Punycode, lowercases it, and rejects
// empty labels, labels over 63 octets, and a total length over 253
// octets.
func ValidateDomain(input string) (Domain, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Domain{}, &InputError{KindDomain, "empty domain"}
	}

	var unicodeName string
	ascii := raw
	if !isASCII(raw) {
		unicodeName = raw

		converted, err := idnaProfile.ToASCII(raw)
		if err != nil {
			return Domain{}, &InputError{KindDomain, fmt.Sprintf("IDN conversion failed: %s", err)}
		}
		ascii = converted
	}

	ascii = strings.ToLower(strings.TrimSuffix(ascii, "."))

	if len(ascii) > maxDomainLength {
		return Domain{}, &InputError{KindDomain, fmt.Sprintf("domain exceeds %d octets", maxDomainLength)}
	}

	labels := strings.Split(ascii, ".")
	for _, label := range labels {
		if label == "" {
			return Domain{}, &InputError{KindDomain, "empty label"}
		}
		if len(label) > maxLabelLength {
			return Domain{}, &InputError{KindDomain, fmt.Sprintf("label exceeds %d octets", maxLabelLength)}
		}
		if !isValidLDHLabel(label) {
			return Domain{}, &InputError{KindDomain, fmt.Sprintf("label %q has disallowed characters", label)}
		}
	}

	return Domain{LDHName: ascii, UnicodeName: unicodeName}, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isValidLDHLabel(label string) bool {
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
			// Underscore is not RFC-legal but tolerated for service
			// records (_dmarc etc.) the same way popular resolvers do.
		default:
			return false
		}
	}
	return true
}

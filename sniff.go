package rdap

import (
	"strings"

	"github.com/rdapify/rdapify/internal/validate"
)

// Sniff guesses whether input is a domain, an IP address, or an ASN,
// so a caller that doesn't already know can decide which of
// Client.Domain/IP/ASN to call. It doesn't change the three
// orchestration pipelines; it's purely an input-classification
// convenience, grounded on the teacher's NewAutoQuery (client/query.go).
func Sniff(input string) (kind string, err error) {
	trimmed := strings.TrimSpace(input)

	if _, err := validate.ValidateIP(trimmed); err == nil {
		return "ip", nil
	}

	if _, err := validate.ValidateASN(trimmed); err == nil {
		if looksLikeASN(trimmed) {
			return "asn", nil
		}
	}

	if _, err := validate.ValidateDomain(trimmed); err == nil {
		return "domain", nil
	}

	return "", &InvalidInputError{Kind: "option", Text: "input did not match a domain, IP, or ASN form"}
}

// looksLikeASN requires an explicit "AS"/"as" prefix or guards against
// a bare decimal number being mistaken for one: a bare number like
// "5400" is ambiguous, but §3 names ASN as one of three input kinds a
// caller may hand in directly, so a bare integer is accepted as an ASN
// unless it also parses as a domain label sequence (it never will,
// since domains require a '.' after IDN conversion is irrelevant here
// — bare numerics are plain ASNs).
func looksLikeASN(s string) bool {
	if len(s) >= 2 && (s[0] == 'A' || s[0] == 'a') && (s[1] == 'S' || s[1] == 's') {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// ASN is the canonical form of a validated Autonomous System Number
// query. Range is non-zero only when the input carried "AS<n>-AS<m>"
// range metadata; a single query still targets Start (§3, open question
// in spec.md §9: a single ASN call resolves exactly one number).
type ASN struct {
	Start uint32
	End   uint32
	// HasRange is true when the input supplied "AS<n>-AS<m>" metadata.
	HasRange bool
}

// ValidateASN parses an unsigned decimal ASN, stripping an optional
// "AS"/"as" prefix. A range form "AS<n>-AS<m>" yields {Start,End} as
// input metadata (§4.1); callers targeting a single query use Start.
func ValidateASN(input string) (ASN, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return ASN{}, &InputError{KindASN, "empty ASN"}
	}

	if idx := strings.IndexByte(raw, '-'); idx != -1 {
		loPart := stripASPrefix(raw[:idx])
		hiPart := stripASPrefix(raw[idx+1:])

		lo, err := parseUint32(loPart)
		if err != nil {
			return ASN{}, &InputError{KindASN, fmt.Sprintf("bad range start: %s", err)}
		}
		hi, err := parseUint32(hiPart)
		if err != nil {
			return ASN{}, &InputError{KindASN, fmt.Sprintf("bad range end: %s", err)}
		}
		if lo > hi {
			lo, hi = hi, lo
		}

		return ASN{Start: lo, End: hi, HasRange: true}, nil
	}

	n, err := parseUint32(stripASPrefix(raw))
	if err != nil {
		return ASN{}, &InputError{KindASN, err.Error()}
	}

	return ASN{Start: n, End: n}, nil
}

func stripASPrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == 'A' || s[0] == 'a') && (s[1] == 'S' || s[1] == 's') {
		return s[2:]
	}
	return s
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not a valid ASN: %s", s)
	}
	return uint32(n), nil
}

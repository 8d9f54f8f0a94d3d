package normalize

import (
	"strings"

	"github.com/rdapify/rdapify/internal/schema"
	"github.com/rdapify/rdapify/jcard"
)

// applyVCard decodes an entity's vcardArray (jCard, RFC 7095) and fills
// in the fields §4.10 extracts from it: fn, org, the first email, the
// first tel, and the first adr. Unknown properties are ignored. A
// vcardArray that fails to parse leaves entity untouched — it degrades
// to an entity carrying only handle and roles.
func applyVCard(entity *schema.Entity, vcardArray []byte) {
	card, err := jcard.NewJCard(vcardArray)
	if err != nil {
		return
	}

	if fn := card.Get("fn"); len(fn) > 0 {
		if v := fn[0].Values(); len(v) > 0 {
			entity.Name = v[0]
		}
	}

	if org := card.Get("org"); len(org) > 0 {
		if v := org[0].Values(); len(v) > 0 {
			entity.Organization = v[0]
		}
	}

	if email := card.Get("email"); len(email) > 0 {
		if v := email[0].Values(); len(v) > 0 {
			entity.Email = v[0]
		}
	}

	if tel := card.Get("tel"); len(tel) > 0 {
		if v := tel[0].Values(); len(v) > 0 {
			entity.Phone = v[0]
		}
	}

	if adr := card.Get("adr"); len(adr) > 0 {
		entity.Address = formatAddress(adr[0].Values())
	}
}

// formatAddress joins the structured "adr" components (RFC 6350 §6.3.1:
// post-office-box, extended-address, street-address, locality, region,
// postal-code, country-name) into a single display string, dropping
// empty components.
func formatAddress(parts []string) string {
	// Indices 2..6 are street/city/region/postal/country; 0 and 1 (PO
	// box, extended address) are rarely populated and skipped.
	var wanted []string
	for i, p := range parts {
		if i < 2 || i > 6 {
			continue
		}
		if p == "" {
			continue
		}
		wanted = append(wanted, p)
	}

	return strings.Join(wanted, ", ")
}

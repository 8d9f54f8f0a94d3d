package normalize

import (
	"testing"

	"github.com/rdapify/rdapify/internal/schema"
)

func TestApplyVCardMalformedDegradesGracefully(t *testing.T) {
	entity := &schema.Entity{Handle: "H1", Roles: []string{"registrant"}}

	applyVCard(entity, []byte("not a jcard"))

	if entity.Handle != "H1" || len(entity.Roles) != 1 {
		t.Fatalf("expected handle/roles preserved, got %+v", entity)
	}
	if entity.Name != "" || entity.Email != "" {
		t.Fatalf("expected no fields populated from malformed vcard, got %+v", entity)
	}
}

func TestApplyVCardIgnoresUnknownProperties(t *testing.T) {
	entity := &schema.Entity{}
	vcard := []byte(`["vcard", [
		["version", {}, "text", "4.0"],
		["x-custom", {}, "text", "whatever"],
		["fn", {}, "text", "Jane Doe"]
	]]`)

	applyVCard(entity, vcard)

	if entity.Name != "Jane Doe" {
		t.Fatalf("Name = %q", entity.Name)
	}
}

func TestFormatAddressSkipsEmptyComponents(t *testing.T) {
	got := formatAddress([]string{"", "", "123 Main St", "", "IL", "62704", "US"})
	want := "123 Main St, IL, 62704, US"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Package redact implements the L3 PII redactor of §4.11: for every
// entity in a response, recursively, the fields {email, phone,
// address, and personal name when the entity has a registrant-like
// role} are removed or replaced with a placeholder. handle, roles,
// organization, and country are never touched — they aren't
// considered PII under the default policy.
package redact

import "github.com/rdapify/rdapify/internal/schema"

// Mode selects how a redacted field is treated.
type Mode int

const (
	// ModeRemove clears the field to its zero value.
	ModeRemove Mode = iota
	// ModePlaceholder replaces the field with Policy.Placeholder.
	ModePlaceholder
)

// personalNameRoles are the entity roles under which the "name" field
// is treated as PII; "handle", "organization" and "country" are never
// redacted regardless of role.
var personalNameRoles = map[string]bool{
	"registrant":     true,
	"administrative": true,
	"technical":      true,
	"billing":        true,
}

// Policy configures redaction behaviour.
type Policy struct {
	Mode        Mode
	Placeholder string
}

// DefaultPolicy replaces redacted fields with "[redacted]".
func DefaultPolicy() Policy {
	return Policy{Mode: ModePlaceholder, Placeholder: "[redacted]"}
}

func (p Policy) apply(field string) string {
	if field == "" {
		return field
	}
	if p.Mode == ModeRemove {
		return ""
	}
	return p.Placeholder
}

// Domain returns a redacted copy of d; d itself is not mutated.
func Domain(d *schema.Domain, policy Policy) *schema.Domain {
	if d == nil {
		return nil
	}
	out := *d
	out.Entities = entities(d.Entities, policy)
	return &out
}

// IPNetwork returns a redacted copy of n; n itself is not mutated.
func IPNetwork(n *schema.IPNetwork, policy Policy) *schema.IPNetwork {
	if n == nil {
		return nil
	}
	out := *n
	out.Entities = entities(n.Entities, policy)
	return &out
}

// Autnum returns a redacted copy of a; a itself is not mutated.
func Autnum(a *schema.Autnum, policy Policy) *schema.Autnum {
	if a == nil {
		return nil
	}
	out := *a
	out.Entities = entities(a.Entities, policy)
	return &out
}

// entities returns a redacted deep copy of es. Entities not carrying a
// personal-name role still have email/phone/address redacted — those
// three fields are PII for any entity, regardless of role; only the
// "name" field is conditioned on role per §4.11.
func entities(es []schema.Entity, policy Policy) []schema.Entity {
	if es == nil {
		return nil
	}

	out := make([]schema.Entity, len(es))
	for i, e := range es {
		redacted := e

		redacted.Email = policy.apply(e.Email)
		redacted.Phone = policy.apply(e.Phone)
		redacted.Address = policy.apply(e.Address)

		if hasPersonalNameRole(e.Roles) {
			redacted.Name = policy.apply(e.Name)
		}

		redacted.Entities = entities(e.Entities, policy)

		out[i] = redacted
	}
	return out
}

func hasPersonalNameRole(roles []string) bool {
	for _, r := range roles {
		if personalNameRoles[r] {
			return true
		}
	}
	return false
}

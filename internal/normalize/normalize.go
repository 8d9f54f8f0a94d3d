// Package normalize implements the L3 normalizer of §4.10: it turns a
// raw RDAP JSON document into one of the uniform response shapes
// (internal/schema Domain/IPNetwork/Autnum), recursing into entities
// and decoding any vCard carried on them (vcard.go).
package normalize

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rdapify/rdapify/internal/schema"
)

// Error is normalize's own classification of a decoding failure. The
// orchestrator maps Reason onto the root errs.ProtocolError; kept
// separate here to avoid an import cycle with the root package.
type Error struct {
	Reason string // "class_mismatch", "malformed"
	Text   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize: %s: %s: %s", e.Reason, e.Text, e.Err)
	}
	return fmt.Sprintf("normalize: %s: %s", e.Reason, e.Text)
}

func (e *Error) Unwrap() error { return e.Err }

// rawLink, rawEvent and rawEntity mirror the upstream RDAP JSON shape;
// field names match the wire format (RFC 9083), not the normalized
// output names.
type rawLink struct {
	Href     string   `json:"href"`
	Rel      string   `json:"rel"`
	Type     string   `json:"type"`
	HrefLang []string `json:"hreflang"`
}

type rawEvent struct {
	EventAction string `json:"eventAction"`
	EventDate   string `json:"eventDate"`
	EventActor  string `json:"eventActor"`
}

type rawEntity struct {
	Handle     string          `json:"handle"`
	Roles      []string        `json:"roles"`
	VCardArray json.RawMessage `json:"vcardArray"`
	Entities   []rawEntity     `json:"entities"`
}

type rawNameserver struct {
	LDHName string `json:"ldhName"`
}

type rawSecureDNS struct {
	ZoneSigned       bool `json:"zoneSigned"`
	DelegationSigned bool `json:"delegationSigned"`
}

type rawCIDR0 struct {
	V4Prefix string `json:"v4prefix"`
	V6Prefix string `json:"v6prefix"`
	Length   int    `json:"length"`
}

type rawObject struct {
	ObjectClassName string          `json:"objectClassName"`
	Handle          string          `json:"handle"`
	LDHName         string          `json:"ldhName"`
	UnicodeName     string          `json:"unicodeName"`
	Status          []string        `json:"status"`
	Nameservers     []rawNameserver `json:"nameservers"`
	Events          []rawEvent      `json:"events"`
	Entities        []rawEntity     `json:"entities"`
	SecureDNS       *rawSecureDNS   `json:"secureDNS"`
	Links           []rawLink       `json:"links"`
	Port43          string          `json:"port43"`
	RDAPConformance []string        `json:"rdapConformance"`
	StartAddress    string          `json:"startAddress"`
	EndAddress      string          `json:"endAddress"`
	IPVersion       string          `json:"ipVersion"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Country         string          `json:"country"`
	ParentHandle    string          `json:"parentHandle"`
	CIDR0Cidrs      []rawCIDR0      `json:"cidr0_cidrs"`
	StartAutnum     *uint32         `json:"startAutnum"`
	EndAutnum       *uint32         `json:"endAutnum"`
}

// Normalize decodes raw into the uniform response shape matching
// expectedClass, recursing into entities and vCards. originServerURL
// is carried through for callers that want to attribute the response
// to the server that produced it (it is not embedded in the output).
func Normalize(raw []byte, expectedClass schema.ObjectClass, originServerURL string, includeRaw bool) (interface{}, error) {
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &Error{Reason: "malformed", Text: "decoding RDAP response", Err: err}
	}

	actual := classFromWire(obj.ObjectClassName)
	if actual == "" {
		return nil, &Error{Reason: "class_mismatch", Text: fmt.Sprintf("missing or unknown objectClassName %q", obj.ObjectClassName)}
	}
	if actual != expectedClass {
		return nil, &Error{Reason: "class_mismatch", Text: fmt.Sprintf("expected %s, got %s", expectedClass, actual)}
	}

	var rawResponse json.RawMessage
	if includeRaw {
		rawResponse = append(json.RawMessage(nil), raw...)
	}

	switch expectedClass {
	case schema.ClassDomain:
		return normalizeDomain(&obj, rawResponse), nil
	case schema.ClassIPNetwork:
		return normalizeIPNetwork(&obj, rawResponse), nil
	case schema.ClassAutnum:
		return normalizeAutnum(&obj, rawResponse), nil
	default:
		return nil, &Error{Reason: "class_mismatch", Text: fmt.Sprintf("unsupported class %s", expectedClass)}
	}
}

func classFromWire(name string) schema.ObjectClass {
	switch name {
	case "domain":
		return schema.ClassDomain
	case "ip network":
		return schema.ClassIPNetwork
	case "autnum":
		return schema.ClassAutnum
	default:
		return ""
	}
}

func normalizeDomain(obj *rawObject, rawResponse json.RawMessage) *schema.Domain {
	d := &schema.Domain{
		ObjectClass:     schema.ClassDomain,
		LDHName:         obj.LDHName,
		UnicodeName:     obj.UnicodeName,
		Status:          obj.Status,
		Events:          normalizeEvents(obj.Events),
		Entities:        normalizeEntities(obj.Entities),
		Links:           normalizeLinks(obj.Links),
		Port43:          obj.Port43,
		RDAPConformance: obj.RDAPConformance,
		RawResponse:     rawResponse,
	}

	if d.LDHName == "" {
		d.LDHName = obj.UnicodeName
	}

	for _, ns := range obj.Nameservers {
		if ns.LDHName != "" {
			d.Nameservers = append(d.Nameservers, ns.LDHName)
		}
	}

	if obj.SecureDNS != nil {
		d.SecureDNS = &schema.SecureDNS{
			ZoneSigned:       obj.SecureDNS.ZoneSigned,
			DelegationSigned: obj.SecureDNS.DelegationSigned,
		}
	}

	return d
}

func normalizeIPNetwork(obj *rawObject, rawResponse json.RawMessage) *schema.IPNetwork {
	n := &schema.IPNetwork{
		ObjectClass:     schema.ClassIPNetwork,
		Handle:          obj.Handle,
		StartAddress:    obj.StartAddress,
		EndAddress:      obj.EndAddress,
		Name:            obj.Name,
		Type:            obj.Type,
		Country:         obj.Country,
		ParentHandle:    obj.ParentHandle,
		Status:          obj.Status,
		Events:          normalizeEvents(obj.Events),
		Entities:        normalizeEntities(obj.Entities),
		Links:           normalizeLinks(obj.Links),
		RDAPConformance: obj.RDAPConformance,
		RawResponse:     rawResponse,
	}

	n.IPVersion = obj.IPVersion
	if n.IPVersion == "" {
		n.IPVersion = inferIPVersion(obj.StartAddress)
	}

	for _, c := range obj.CIDR0Cidrs {
		n.CIDR0Cidrs = append(n.CIDR0Cidrs, schema.CIDR0Cidr{
			V4Prefix: c.V4Prefix,
			V6Prefix: c.V6Prefix,
			Length:   c.Length,
		})
	}

	return n
}

func inferIPVersion(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	if ip.To4() != nil {
		return "v4"
	}
	return "v6"
}

func normalizeAutnum(obj *rawObject, rawResponse json.RawMessage) *schema.Autnum {
	a := &schema.Autnum{
		ObjectClass:     schema.ClassAutnum,
		Handle:          obj.Handle,
		Name:            obj.Name,
		Type:            obj.Type,
		Country:         obj.Country,
		Status:          obj.Status,
		Events:          normalizeEvents(obj.Events),
		Entities:        normalizeEntities(obj.Entities),
		Links:           normalizeLinks(obj.Links),
		RDAPConformance: obj.RDAPConformance,
		RawResponse:     rawResponse,
	}

	switch {
	case obj.StartAutnum != nil && obj.EndAutnum != nil:
		a.StartAutnum = *obj.StartAutnum
		a.EndAutnum = *obj.EndAutnum
	case obj.Handle != "":
		if n, ok := parseASHandle(obj.Handle); ok {
			a.StartAutnum, a.EndAutnum = n, n
		}
	}

	return a
}

func parseASHandle(handle string) (uint32, bool) {
	trimmed := strings.TrimPrefix(strings.ToUpper(handle), "AS")
	n, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func normalizeEvents(events []rawEvent) []schema.Event {
	if len(events) == 0 {
		return nil
	}

	out := make([]schema.Event, 0, len(events))
	for _, e := range events {
		if _, err := time.Parse(time.RFC3339, e.EventDate); err != nil {
			// An event with no parseable date is dropped rather than
			// coerced to a zero value.
			continue
		}
		out = append(out, schema.Event{Action: e.EventAction, Date: e.EventDate, Actor: e.EventActor})
	}
	return out
}

func normalizeLinks(links []rawLink) []schema.Link {
	if len(links) == 0 {
		return nil
	}

	out := make([]schema.Link, 0, len(links))
	for _, l := range links {
		out = append(out, schema.Link{
			Href:     l.Href,
			Rel:      strings.ToLower(l.Rel),
			Type:     l.Type,
			HrefLang: l.HrefLang,
		})
	}
	return out
}

func normalizeEntities(entities []rawEntity) []schema.Entity {
	if len(entities) == 0 {
		return nil
	}

	out := make([]schema.Entity, 0, len(entities))
	for _, e := range entities {
		entity := schema.Entity{
			Handle:   e.Handle,
			Roles:    e.Roles,
			Entities: normalizeEntities(e.Entities),
		}

		if len(e.VCardArray) > 0 {
			applyVCard(&entity, e.VCardArray)
		}

		out = append(out, entity)
	}
	return out
}

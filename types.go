// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package rdap

import "github.com/rdapify/rdapify/internal/schema"

// The uniform response types (§3) are defined in internal/schema so
// that internal pipeline stages (normalize, redact) can build them
// without importing this package. These are plain aliases: from a
// caller's perspective they are this package's own types.
type (
	Link      = schema.Link
	Event     = schema.Event
	Entity    = schema.Entity
	Domain    = schema.Domain
	SecureDNS = schema.SecureDNS
	IPNetwork = schema.IPNetwork
	Autnum    = schema.Autnum
	CIDR0Cidr = schema.CIDR0Cidr

	ObjectClass = schema.ObjectClass
)

const (
	ClassDomain    = schema.ClassDomain
	ClassIPNetwork = schema.ClassIPNetwork
	ClassAutnum    = schema.ClassAutnum
)

// Result is the shape returned for each input of a batch operation (§6).
type Result[T any] = schema.Result[T]

// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package bootstrap

// dnsRegistryFixture is shared by the file parser, DNSRegistry, and
// Client tests: four entries ("com", "net", "org", "mytld") in two
// services; multi-label queries such as "a.b.example.org" exercise the
// label walk-up in DNSRegistry.Lookup down to "org".
const dnsRegistryFixture = `{
  "version": "1.0",
  "publication": "2024-01-01T00:00:00Z",
  "services": [
    [["com", "net"], ["https://registry.example.com/rdap/", "http://registry.example.com/rdap/"]],
    [["org", "mytld"], ["https://registry.example.org/rdap/"]]
  ]
}`

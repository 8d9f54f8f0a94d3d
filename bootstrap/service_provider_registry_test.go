// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package bootstrap

import "testing"

const serviceProviderRegistryFixture = `{
  "description": "Some text",
  "publication": "2016-01-01T00:00:00Z",
  "version": "1.0",
  "services": [
    [["VRSN"], ["https://rdap.verisignlabs.com/rdap/v1"]]
  ]
}`

func TestServiceProviderRegistryLookups(t *testing.T) {
	s, err := NewServiceProviderRegistry([]byte(serviceProviderRegistryFixture))
	if err != nil {
		t.Fatal(err)
	}

	tests := []registryTest{
		{
			"",
			false,
			"",
			[]string{},
		},
		{
			"~",
			false,
			"",
			[]string{},
		},
		{
			"X~VRSN~",
			false,
			"",
			[]string{},
		},
		{
			"12345~VRSN",
			false,
			"VRSN",
			[]string{"https://rdap.verisignlabs.com/rdap/v1"},
		},
		{
			"*~VRSN",
			false,
			"VRSN",
			[]string{"https://rdap.verisignlabs.com/rdap/v1"},
		},
		{
			"~VRSN",
			false,
			"VRSN",
			[]string{"https://rdap.verisignlabs.com/rdap/v1"},
		},
	}

	runRegistryTests(t, tests, s)
}

func TestServiceProviderRegistryFileExposesDocument(t *testing.T) {
	s, err := NewServiceProviderRegistry([]byte(serviceProviderRegistryFixture))
	if err != nil {
		t.Fatal(err)
	}

	if s.File() == nil {
		t.Fatal("File() returned nil")
	}

	if s.File().Version != "1.0" {
		t.Fatalf("expected version 1.0, got %s", s.File().Version)
	}
}

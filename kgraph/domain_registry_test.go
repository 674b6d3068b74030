package kgraph

import (
	"errors"
	"testing"
)

func TestRegisterDomainAndGetDomain(t *testing.T) {
	d := testDomain(t)
	RegisterDomain(d)

	got, err := GetDomain("test")
	if err != nil {
		t.Fatalf("GetDomain: %v", err)
	}
	if got != d {
		t.Fatalf("GetDomain returned a different instance than was registered")
	}

	found := false
	for _, name := range ListDomains() {
		if name == "test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListDomains() = %v, want it to include \"test\"", ListDomains())
	}
}

func TestGetDomainUnknownName(t *testing.T) {
	_, err := GetDomain("no-such-domain")
	if err == nil {
		t.Fatal("GetDomain: want error for unregistered domain, got nil")
	}
	var unknown *UnknownDomainError
	if !errors.As(err, &unknown) {
		t.Fatalf("error type = %T, want *UnknownDomainError", err)
	}
}

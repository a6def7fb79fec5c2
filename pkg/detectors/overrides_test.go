package detectors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	ipFile := filepath.Join(dir, "ips.json")
	uaFile := filepath.Join(dir, "agents.json")

	if err := os.WriteFile(ipFile, []byte(`{"alice": "10.0.0.5", "  ": "ignored"}`), 0o644); err != nil {
		t.Fatalf("write ip file: %v", err)
	}
	if err := os.WriteFile(uaFile, []byte(`{"alice": "AliceAgent/1.0"}`), 0o644); err != nil {
		t.Fatalf("write ua file: %v", err)
	}

	overrides, err := LoadOverrides(ipFile, uaFile)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	if ip, ok := overrides.IPFor("alice"); !ok || ip != "10.0.0.5" {
		t.Fatalf("IPFor(alice) = %s, %v", ip, ok)
	}
	if _, ok := overrides.IPFor("bob"); ok {
		t.Fatalf("IPFor(bob) should miss")
	}
	if ua, ok := overrides.UserAgentFor("alice"); !ok || ua != "AliceAgent/1.0" {
		t.Fatalf("UserAgentFor(alice) = %s, %v", ua, ok)
	}
}

func TestLoadOverridesEmptyPaths(t *testing.T) {
	overrides, err := LoadOverrides("", "")
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if _, ok := overrides.IPFor("anyone"); ok {
		t.Fatalf("empty tables should never match")
	}
}

func TestOverridesNilSafe(t *testing.T) {
	var overrides *Overrides
	if _, ok := overrides.IPFor("alice"); ok {
		t.Fatalf("nil overrides should miss")
	}
	if _, ok := overrides.UserAgentFor("alice"); ok {
		t.Fatalf("nil overrides should miss")
	}
}

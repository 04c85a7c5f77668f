package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeFile(t, "config.toml", `
database = "/tmp/scorch.db"
ref_map = "/tmp/refs.yaml"

[audit]
enabled = true
path = "/tmp/audit.jsonl"

[ui]
accent = "39"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Database != "/tmp/scorch.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.RefMap != "/tmp/refs.yaml" {
		t.Errorf("RefMap = %q", cfg.RefMap)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Path != "/tmp/audit.jsonl" {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if cfg.UI.Accent != "39" {
		t.Errorf("Accent = %q", cfg.UI.Accent)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	path := writeFile(t, "config.toml", `database = [`)
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestDatabasePathFallback(t *testing.T) {
	cfg := &Config{}
	if got := cfg.DatabasePath("scorch.db"); got != "scorch.db" {
		t.Errorf("DatabasePath = %q, want fallback", got)
	}
	cfg.Database = "/data/store.db"
	if got := cfg.DatabasePath("scorch.db"); got != "/data/store.db" {
		t.Errorf("DatabasePath = %q, want configured", got)
	}
}

func TestAuditPath(t *testing.T) {
	cfg := &Config{}
	if got := cfg.AuditPath("/data/store.db"); got != "/data/store.db.audit.jsonl" {
		t.Errorf("AuditPath = %q", got)
	}
	if got := cfg.AuditPath(":memory:"); got != "" {
		t.Errorf("AuditPath for memory db = %q, want empty", got)
	}
	cfg.Audit.Path = "/logs/audit.jsonl"
	if got := cfg.AuditPath("/data/store.db"); got != "/logs/audit.jsonl" {
		t.Errorf("AuditPath = %q, want configured", got)
	}
}

func TestLoadRefMap(t *testing.T) {
	path := writeFile(t, "refs.yaml", `
x-custom-object:device_ref: hardware
peer_refs: [ipv4-addr, ipv6-addr]
`)

	refMap, err := LoadRefMap(path)
	if err != nil {
		t.Fatalf("LoadRefMap: %v", err)
	}
	if got := refMap["x-custom-object:device_ref"]; len(got) != 1 || got[0] != "hardware" {
		t.Errorf("device_ref = %v", got)
	}
	if got := refMap["peer_refs"]; len(got) != 2 || got[0] != "ipv4-addr" {
		t.Errorf("peer_refs = %v", got)
	}
}

func TestLoadRefMapEmptyPath(t *testing.T) {
	refMap, err := LoadRefMap("")
	if err != nil || refMap != nil {
		t.Errorf("LoadRefMap(\"\") = %v, %v", refMap, err)
	}
}

func TestLoadRefMapBadValue(t *testing.T) {
	path := writeFile(t, "refs.yaml", `peer_refs: 7`)
	if _, err := LoadRefMap(path); err == nil {
		t.Error("expected error for non-string target")
	}
}

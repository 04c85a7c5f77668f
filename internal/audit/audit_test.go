package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogStatementAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger := New(path, true)

	logger.LogStatement("exec", `INSERT INTO "url" VALUES (?)`, 1, nil)
	logger.LogStatement("query", `SELECT * FROM "url"`, 0, errors.New("no such table: url"))

	entries, err := logger.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Operation != "exec" || entries[0].ArgCount != 1 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[0].Error != "" {
		t.Errorf("entry 0 error = %q, want empty", entries[0].Error)
	}
	if entries[1].Error != "no such table: url" {
		t.Errorf("entry 1 error = %q", entries[1].Error)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestReadSince(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger := New(path, true)

	old := Entry{Timestamp: time.Now().Add(-time.Hour), Operation: "exec", Statement: "old"}
	if err := logger.Log(old); err != nil {
		t.Fatalf("Log: %v", err)
	}
	logger.LogStatement("exec", "recent", 0, nil)

	entries, err := logger.ReadSince(time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReadSince: %v", err)
	}
	if len(entries) != 1 || entries[0].Statement != "recent" {
		t.Errorf("ReadSince = %+v", entries)
	}
}

func TestDisabledLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger := New(path, false)

	logger.LogStatement("exec", "never written", 0, nil)
	if logger.Enabled() {
		t.Error("Enabled() = true for disabled logger")
	}
	entries, err := logger.Read()
	if err != nil || entries != nil {
		t.Errorf("Read on disabled logger = %v, %v", entries, err)
	}
}

func TestNilLogger(t *testing.T) {
	var logger *Logger
	logger.LogStatement("exec", "ignored", 0, nil)
	if logger.Enabled() {
		t.Error("Enabled() = true for nil logger")
	}
	if err := logger.Log(Entry{}); err != nil {
		t.Errorf("Log on nil logger: %v", err)
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger := New(path, true)
	logger.LogStatement("exec", "good", 0, nil)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()
	logger.LogStatement("exec", "also good", 0, nil)

	entries, err := logger.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2 (malformed skipped)", len(entries))
	}
}

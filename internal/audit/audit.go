// Package audit provides an append-only JSONL log of executed SQL
// statements, for debugging query translation against a live store.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Operation string    `json:"op"`             // exec, query, ddl
	Statement string    `json:"stmt"`
	ArgCount  int       `json:"args,omitempty"` // bound parameter count, never values
	Error     string    `json:"error,omitempty"`
}

// Logger handles writing to the audit log.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// New creates a new audit logger writing to path.
// If enabled is false, the logger will be a no-op.
func New(path string, enabled bool) *Logger {
	if !enabled || path == "" {
		return &Logger{enabled: false}
	}
	return &Logger{path: path, enabled: true}
}

// Log writes an entry to the audit log.
func (l *Logger) Log(entry Entry) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// LogStatement logs one executed statement with its parameter count.
// Parameter values are deliberately not recorded.
func (l *Logger) LogStatement(op, stmt string, argCount int, execErr error) {
	entry := Entry{Operation: op, Statement: stmt, ArgCount: argCount}
	if execErr != nil {
		entry.Error = execErr.Error()
	}
	// Logging failures never mask the statement's own error.
	_ = l.Log(entry)
}

// Read reads all entries from the audit log.
func (l *Logger) Read() ([]Entry, error) {
	if l == nil || !l.enabled {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var entries []Entry
	for _, line := range splitLines(string(data)) {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // Skip malformed entries
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ReadSince reads entries from the audit log since the given time.
func (l *Logger) ReadSince(since time.Time) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}

	var filtered []Entry
	for _, entry := range all {
		if entry.Timestamp.After(since) || entry.Timestamp.Equal(since) {
			filtered = append(filtered, entry)
		}
	}

	return filtered, nil
}

// Enabled returns true if the audit logger is enabled.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

package ui

import (
	"strings"
	"testing"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "9.9.9.9", "9.9.9.9"},
		{"integer float", float64(443), "443"},
		{"fractional float", 1.5, "1.50"},
		{"int64", int64(3), "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.in); got != tt.want {
				t.Errorf("FormatCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"averylongvalue", 10, "averylo..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestCalculateWidthsFitsTerminal(t *testing.T) {
	display := NewDisplayContextWithWidth(40)
	table := NewResultsTable(display, []string{"value", "notes"})
	table.AddRow(map[string]any{
		"value": "10.0.0.1",
		"notes": strings.Repeat("x", 100),
	})

	widths := table.calculateWidths()
	if len(widths) != 2 {
		t.Fatalf("widths = %v", widths)
	}
	if widths[0] < len("value") {
		t.Errorf("value width %d shrank below its header", widths[0])
	}
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum > display.TermWidth {
		t.Errorf("total width %d exceeds terminal %d", sum, display.TermWidth)
	}
}

func TestRenderIncludesHeadersAndRows(t *testing.T) {
	display := NewDisplayContextWithWidth(80)
	table := NewResultsTable(display, []string{"value", "dst_port"})
	table.AddRow(map[string]any{"value": "9.9.9.9", "dst_port": int64(443)})
	table.AddRow(map[string]any{"value": "10.0.0.1", "dst_port": nil})

	out := table.Render()
	for _, want := range []string{"value", "dst_port", "9.9.9.9", "443", "10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptyColumns(t *testing.T) {
	table := NewResultsTable(NewDisplayContextWithWidth(80), nil)
	if out := table.Render(); out != "" {
		t.Errorf("Render() = %q, want empty", out)
	}
}

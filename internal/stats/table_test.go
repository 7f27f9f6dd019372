package stats

import "testing"

func TestRenderTableAlignsNumericColumns(t *testing.T) {
	rows := [][]string{
		{"2024-01-02", "9120", "412 min"},
		{"2024-01-01", "830"},
	}

	lines := renderTable(dateColumns([]string{"Steps", "Sleep"}), rows)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Date       Steps   Sleep" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "2024-01-02  9120 412 min" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "2024-01-01   830        " {
		t.Fatalf("unexpected short row: %q", lines[2])
	}
	if renderTable(nil, rows) != nil {
		t.Fatalf("expected no lines without columns")
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("bpm"); got != 3 {
		t.Fatalf("expected width 3, got %d", got)
	}
	if got := displayWidth("心拍"); got != 4 {
		t.Fatalf("expected width 4, got %d", got)
	}
	if got := padCell("心", 4, false); got != "心  " {
		t.Fatalf("unexpected padding %q", got)
	}
}

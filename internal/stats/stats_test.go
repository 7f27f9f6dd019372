package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/verte-zerg/healthdash/internal/health"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	raw := []float64{1, 2}
	copyOut := MovingAverage(raw, 1)
	copyOut[0] = 99
	if raw[0] != 1 {
		t.Fatalf("expected input to be left untouched")
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
	if got := Sparkline([]float64{0, 5, 10}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestSeriesFlattensDays(t *testing.T) {
	days := []health.ProcessedDay{
		{Date: "2024-01-01", Metrics: map[health.MeasurementType]health.Aggregate{health.HeartRate: {Sum: 120, Count: 2}}},
		{Date: "2024-01-02", Sleep: 30},
	}
	got := Series(days, "heartRate")
	if len(got) != 2 || got[0] != 60 || got[1] != 0 {
		t.Fatalf("unexpected series %v", got)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, health.Result{}); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No health data found.") {
		t.Fatalf("unexpected empty summary %q", buf.String())
	}

	result := health.Assemble([]health.ProcessedDay{{
		Date:  "2024-01-01",
		Sleep: 420,
		Metrics: map[health.MeasurementType]health.Aggregate{
			health.StepCount: {Sum: 8123, Count: 1},
			health.HeartRate: {Sum: 144, Count: 2, Min: 70, Max: 74, HasRange: true},
		},
	}}, health.DefaultHistoryLimit)
	buf.Reset()
	if err := RenderSummary(&buf, result); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Latest day: 2024-01-01", "Steps", "8123", "72.0 bpm", "420 min"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestRenderDailyTable(t *testing.T) {
	days := []health.ProcessedDay{
		{Date: "2024-01-01", Sleep: 400, Metrics: map[health.MeasurementType]health.Aggregate{health.StepCount: {Sum: 500, Count: 1}}},
		{Date: "2024-01-02", Sleep: 0, Metrics: map[health.MeasurementType]health.Aggregate{health.HeartRate: {Sum: 61, Count: 1}}},
	}
	var buf bytes.Buffer
	if err := RenderDailyTable(&buf, days, []string{"stepCount", "heartRate"}); err != nil {
		t.Fatalf("render table: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "Date") || !strings.Contains(lines[0], "Heart Rate") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-01-02") || !strings.Contains(lines[1], "-") {
		t.Fatalf("expected newest day first with a gap, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "500") {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestRenderTrend(t *testing.T) {
	days := []health.ProcessedDay{
		{Date: "2024-01-01", Metrics: map[health.MeasurementType]health.Aggregate{health.StepCount: {Sum: 5000, Count: 1}}},
		{Date: "2024-01-02", Metrics: map[health.MeasurementType]health.Aggregate{health.StepCount: {Sum: 10000, Count: 1}}},
	}
	var buf bytes.Buffer
	if err := RenderTrend(&buf, days, "stepCount", TrendOptions{Width: 40}); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "Steps" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	barWidth := BarWidthFor(40, 5)
	if !strings.Contains(lines[2], strings.Repeat("█", barWidth)) {
		t.Fatalf("expected full bar for peak day: %q", lines[2])
	}
	if strings.Count(lines[1], "█") != barWidth/2 {
		t.Fatalf("expected half bar, got %q", lines[1])
	}
	if utf8.RuneCountInString(lines[1]) != utf8.RuneCountInString(lines[2]) {
		t.Fatalf("rows should have equal width: %q vs %q", lines[1], lines[2])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no color when writing to a buffer")
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(0, 10, 4); got != "    " {
		t.Fatalf("unexpected empty bar %q", got)
	}
	if got := renderBar(10, 10, 4); got != "████" {
		t.Fatalf("unexpected full bar %q", got)
	}
	if got := renderBar(1, 8, 1); got != "▏" {
		t.Fatalf("unexpected eighth bar %q", got)
	}
	if got := renderBar(5, 0, 3); got != "   " {
		t.Fatalf("unexpected bar for zero peak %q", got)
	}
}

func TestBarWidthFor(t *testing.T) {
	if got := BarWidthFor(0, 5); got != minBarWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := BarWidthFor(80, 8); got != 80-dateColumnWidth-8-2 {
		t.Fatalf("unexpected width %d", got)
	}
}

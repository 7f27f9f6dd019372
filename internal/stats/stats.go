// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/verte-zerg/healthdash/internal/health"
)

const sparkChars = " .:-=+*#%@"

// Labels and units for the metrics worth a friendly name.
var metricLabels = map[string]struct {
	label string
	unit  string
}{
	health.SleepKey:                         {"Sleep", "min"},
	string(health.StepCount):                {"Steps", ""},
	string(health.HeartRate):                {"Heart Rate", "bpm"},
	string(health.RestingHeartRate):         {"Resting HR", "bpm"},
	string(health.HeartRateVariabilitySDNN): {"HRV (SDNN)", "ms"},
	string(health.ActiveEnergyBurned):       {"Active Energy", "kcal"},
	string(health.BasalEnergyBurned):        {"Basal Energy", "kcal"},
	string(health.DistanceWalkingRunning):   {"Distance", "km"},
	string(health.FlightsClimbed):           {"Flights", ""},
	string(health.OxygenSaturation):         {"SpO2", ""},
	string(health.RespiratoryRate):          {"Respiratory Rate", "/min"},
	string(health.BodyMass):                 {"Weight", "kg"},
	string(health.VO2Max):                   {"VO2 Max", ""},
	string(health.AppleExerciseTime):        {"Exercise", "min"},
	string(health.StandTime):                {"Stand", "min"},
}

// MetricLabel returns a display name for key.
func MetricLabel(key string) string {
	if m, ok := metricLabels[key]; ok {
		return m.label
	}
	return key
}

// FormatValue renders v with the unit for key.
func FormatValue(key string, v float64) string {
	unit := metricLabels[key].unit
	var s string
	switch {
	case key == string(health.StepCount) || key == string(health.FlightsClimbed):
		s = fmt.Sprintf("%.0f", v)
	case math.Abs(v) >= 100:
		s = fmt.Sprintf("%.0f", v)
	default:
		s = fmt.Sprintf("%.1f", v)
	}
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// Series extracts the flattened value of key for each day. Days without the
// metric contribute 0.
func Series(days []health.ProcessedDay, key string) []float64 {
	return lo.Map(days, func(day health.ProcessedDay, _ int) float64 {
		return health.Flatten(day)[key]
	})
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := lo.Min(values), lo.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the flattened metrics of the latest day.
func RenderSummary(w io.Writer, result health.Result) error {
	if result.Latest.IsZero() {
		_, err := fmt.Fprintln(w, "No health data found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Latest day: %s (%d days of history)\n", result.Latest.Date, len(result.History)); err != nil {
		return err
	}
	keys := lo.Keys(result.Metrics)
	sort.Slice(keys, func(i, j int) bool {
		return MetricLabel(keys[i]) < MetricLabel(keys[j])
	})
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		kind := "avg"
		if health.IsDailyTotal(k) || k == health.SleepKey {
			kind = "total"
		}
		rows = append(rows, []string{MetricLabel(k), FormatValue(k, result.Metrics[k]), kind})
	}
	for _, line := range renderTable([]column{{title: "Metric"}, {title: "Value", numeric: true}, {}}, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// DefaultDailyColumns are shown by RenderDailyTable when no keys are given.
var DefaultDailyColumns = []string{
	string(health.StepCount),
	string(health.HeartRate),
	health.SleepKey,
	string(health.ActiveEnergyBurned),
}

// RenderDailyTable prints one row per day, newest first.
func RenderDailyTable(w io.Writer, days []health.ProcessedDay, keys []string) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No days found.")
		return err
	}
	if len(keys) == 0 {
		keys = DefaultDailyColumns
	}
	lines := renderTable(dateColumns(metricLabelList(keys)), DailyRows(days, keys))
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// DailyHeaders returns the column titles for keys, led by Date.
func DailyHeaders(keys []string) []string {
	return append([]string{"Date"}, metricLabelList(keys)...)
}

// DailyRows formats days newest first. Missing metrics show as "-".
func DailyRows(days []health.ProcessedDay, keys []string) [][]string {
	rows := make([][]string, 0, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		flat := health.Flatten(days[i])
		row := []string{string(days[i].Date)}
		for _, k := range keys {
			if v, ok := flat[k]; ok {
				row = append(row, FormatValue(k, v))
			} else {
				row = append(row, "-")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func metricLabelList(keys []string) []string {
	return lo.Map(keys, func(k string, _ int) string { return MetricLabel(k) })
}

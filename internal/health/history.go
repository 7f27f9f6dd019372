package health

import "sort"

// DefaultHistoryLimit is the number of most recent days kept in a Result.
const DefaultHistoryLimit = 365

// Metrics flattened to their daily total rather than a per-sample average.
var totalMetrics = map[string]struct{}{
	string(StepCount):              {},
	string(ActiveEnergyBurned):     {},
	string(DistanceWalkingRunning): {},
	string(FlightsClimbed):         {},
}

// IsDailyTotal reports whether key flattens to its sum instead of its mean.
func IsDailyTotal(key string) bool {
	_, ok := totalMetrics[key]
	return ok
}

// Assemble orders days by date, keeps the most recent limit entries and
// flattens the latest day. A non-positive limit keeps every day.
func Assemble(days []ProcessedDay, limit int) Result {
	sorted := append([]ProcessedDay(nil), days...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var latest ProcessedDay
	if len(sorted) > 0 {
		latest = sorted[len(sorted)-1]
	}
	history := sorted
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if history == nil {
		history = []ProcessedDay{}
	}
	return Result{
		History: history,
		Latest:  latest,
		Metrics: Flatten(latest),
	}
}

// Flatten reduces a day to one number per key: sleep passes through, daily
// totals use their sum and every other metric its mean.
func Flatten(day ProcessedDay) map[string]float64 {
	out := map[string]float64{}
	for _, v := range day.Values() {
		switch v.Kind {
		case ScalarValue:
			out[v.Key] = v.Scalar
		case AggregateValue:
			if IsDailyTotal(v.Key) {
				out[v.Key] = v.Agg.Sum
			} else {
				out[v.Key] = v.Agg.Mean()
			}
		}
	}
	return out
}

package health

import (
	"sort"
	"strings"
	"time"
)

// Metrics at risk of double counting when several devices record the same activity.
var dedupMetrics = map[MeasurementType]struct{}{
	StepCount:              {},
	DistanceWalkingRunning: {},
	ActiveEnergyBurned:     {},
}

// IsDeduplicated reports whether key is resolved to a single source per day.
func IsDeduplicated(key MeasurementType) bool {
	_, ok := dedupMetrics[key]
	return ok
}

// ProcessDay resolves source duplication and merges sleep for one day.
func ProcessDay(day *DailyAggregate) ProcessedDay {
	out := ProcessedDay{
		Date:    day.Date,
		Metrics: make(map[MeasurementType]Aggregate, len(day.Metrics)),
	}
	for key, acc := range day.Metrics {
		if IsDeduplicated(key) {
			_, total := DedupSources(acc)
			out.Metrics[key] = Aggregate{Sum: total, Count: 1}
			continue
		}
		out.Metrics[key] = Aggregate{
			Sum:      acc.Sum,
			Count:    acc.Count,
			Min:      acc.Min,
			Max:      acc.Max,
			HasRange: true,
		}
	}
	out.Sleep = MergeSleep(day.SleepIntervals)
	return out
}

// DedupSources picks the authoritative source for a cumulative metric. The
// first-seen source whose name contains "watch" wins; otherwise the source with
// the largest total, ties broken by the lexically smallest name.
func DedupSources(acc *MetricAccumulator) (string, float64) {
	sources := acc.sources
	if len(sources) == 0 {
		for name := range acc.BySource {
			sources = append(sources, name)
		}
		sort.Strings(sources)
	}
	for _, name := range sources {
		if strings.Contains(strings.ToLower(name), "watch") {
			return name, acc.BySource[name]
		}
	}
	best := ""
	bestTotal := 0.0
	for i, name := range sources {
		total := acc.BySource[name]
		if i == 0 || total > bestTotal || (total == bestTotal && name < best) {
			best, bestTotal = name, total
		}
	}
	return best, bestTotal
}

// MergeSleep unions overlapping or touching intervals and returns the total
// asleep minutes. The input slice is sorted in place.
func MergeSleep(intervals []SleepInterval) float64 {
	if len(intervals) == 0 {
		return 0
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
	var total time.Duration
	current := intervals[0]
	for _, next := range intervals[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		total += current.End.Sub(current.Start)
		current = next
	}
	total += current.End.Sub(current.Start)
	return total.Minutes()
}

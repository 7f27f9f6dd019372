package stats

import (
	"sort"

	"github.com/verte-zerg/healthdash/internal/health"
)

// DayValue pairs a date with one flattened metric value.
type DayValue struct {
	Date  health.DayKey
	Value float64
}

// LowestDays returns up to n days with the smallest value of key, skipping days
// without it. Ties go to the earlier date.
func LowestDays(days []health.ProcessedDay, key string, n int) []DayValue {
	candidates := make([]DayValue, 0, len(days))
	for _, d := range days {
		if v, ok := health.Flatten(d)[key]; ok {
			if key == health.SleepKey && v == 0 {
				continue
			}
			candidates = append(candidates, DayValue{Date: d.Date, Value: v})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Value == candidates[j].Value {
			return candidates[i].Date < candidates[j].Date
		}
		return candidates[i].Value < candidates[j].Value
	})
	if n > 0 && n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates
}

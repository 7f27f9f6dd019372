package stats

import (
	"sort"

	"github.com/samber/lo"
	"github.com/verte-zerg/healthdash/internal/health"
)

// TopMetrics returns the n metric keys present on the most days. Sleep counts
// when a day has any asleep minutes. A non-positive n returns every key.
func TopMetrics(days []health.ProcessedDay, n int) []string {
	coverage := map[string]int{}
	for _, d := range days {
		if d.Sleep > 0 {
			coverage[health.SleepKey]++
		}
		for k := range d.Metrics {
			coverage[string(k)]++
		}
	}
	keys := lo.Keys(coverage)
	sort.Slice(keys, func(i, j int) bool {
		if coverage[keys[i]] == coverage[keys[j]] {
			return keys[i] < keys[j]
		}
		return coverage[keys[i]] > coverage[keys[j]]
	})
	if n > 0 && n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

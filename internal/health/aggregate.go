package health

import (
	"sort"

	"github.com/samber/lo"
)

// MetricAccumulator is the running summary of one metric on one day.
type MetricAccumulator struct {
	Sum   float64
	Count int
	Min   float64
	Max   float64

	// BySource holds the per-source share of Sum.
	BySource map[string]float64
	// sources records first-seen order of BySource keys.
	sources []string
}

func newAccumulator(seed float64) *MetricAccumulator {
	return &MetricAccumulator{Min: seed, Max: seed, BySource: map[string]float64{}}
}

// Add folds one sample value from source into the accumulator.
func (m *MetricAccumulator) Add(value float64, source string) {
	if source == "" {
		source = unknownSource
	}
	m.Sum += value
	m.Count++
	if value < m.Min {
		m.Min = value
	}
	if value > m.Max {
		m.Max = value
	}
	if _, ok := m.BySource[source]; !ok {
		m.sources = append(m.sources, source)
	}
	m.BySource[source] += value
}

// Sources returns source names in the order they were first seen.
func (m *MetricAccumulator) Sources() []string {
	return append([]string(nil), m.sources...)
}

// DailyAggregate collects every metric and sleep interval for one day.
type DailyAggregate struct {
	Date           DayKey
	Metrics        map[MeasurementType]*MetricAccumulator
	SleepIntervals []SleepInterval
}

func newDailyAggregate(day DayKey) *DailyAggregate {
	return &DailyAggregate{Date: day, Metrics: map[MeasurementType]*MetricAccumulator{}}
}

// Aggregator buckets samples by day and metric. It is not safe for concurrent use.
type Aggregator struct {
	days map[DayKey]*DailyAggregate
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{days: map[DayKey]*DailyAggregate{}}
}

// Add folds a classified sample into its day. It reports whether the sample
// contributed; sleep samples that are not asleep or carry unparseable
// timestamps do not.
func (a *Aggregator) Add(s RawSample) bool {
	day := DayKeyOf(s.StartDate)
	if s.IsSleep() {
		if !s.Asleep {
			return false
		}
		start, err := ParseTimestamp(s.StartDate)
		if err != nil {
			return false
		}
		end, err := ParseTimestamp(s.EndDate)
		if err != nil {
			return false
		}
		agg := a.day(day)
		agg.SleepIntervals = append(agg.SleepIntervals, SleepInterval{Start: start, End: end})
		return true
	}

	agg := a.day(day)
	acc, ok := agg.Metrics[s.Type]
	if !ok {
		acc = newAccumulator(s.Quantity)
		agg.Metrics[s.Type] = acc
	}
	acc.Add(s.Quantity, s.SourceName)
	return true
}

func (a *Aggregator) day(key DayKey) *DailyAggregate {
	agg, ok := a.days[key]
	if !ok {
		agg = newDailyAggregate(key)
		a.days[key] = agg
	}
	return agg
}

// Len returns the number of distinct days seen so far.
func (a *Aggregator) Len() int {
	return len(a.days)
}

// Day returns the aggregate for key, if any.
func (a *Aggregator) Day(key DayKey) (*DailyAggregate, bool) {
	agg, ok := a.days[key]
	return agg, ok
}

// Days returns every day aggregate in ascending date order and releases them
// from the Aggregator.
func (a *Aggregator) Days() []*DailyAggregate {
	keys := lo.Keys(a.days)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*DailyAggregate, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.days[k])
	}
	a.days = map[DayKey]*DailyAggregate{}
	return out
}

package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Aggregate is the emitted summary of one metric on one day. Deduplicated
// cumulative metrics carry no range.
type Aggregate struct {
	Sum      float64
	Count    int
	Min      float64
	Max      float64
	HasRange bool
}

// Mean returns Sum/Count, or 0 for an empty aggregate.
func (a Aggregate) Mean() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

type aggregateJSON struct {
	Sum   float64  `json:"sum"`
	Count int      `json:"count"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// MarshalJSON emits {sum, count[, min, max]}.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	out := aggregateJSON{Sum: a.Sum, Count: a.Count}
	if a.HasRange {
		out.Min = &a.Min
		out.Max = &a.Max
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	var in aggregateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Aggregate{Sum: in.Sum, Count: in.Count}
	if in.Min != nil && in.Max != nil {
		a.Min, a.Max, a.HasRange = *in.Min, *in.Max, true
	}
	return nil
}

// ValueKind tags a MetricValue.
type ValueKind int

const (
	// ScalarValue is a plain number such as sleep minutes.
	ScalarValue ValueKind = iota
	// AggregateValue is a {sum, count, ...} summary.
	AggregateValue
)

// MetricValue is one non-date entry of a ProcessedDay.
type MetricValue struct {
	Key    string
	Kind   ValueKind
	Scalar float64
	Agg    Aggregate
}

// ProcessedDay is the finished summary for one day.
type ProcessedDay struct {
	Date    DayKey
	Sleep   float64
	Metrics map[MeasurementType]Aggregate
}

// IsZero reports whether d is the empty day.
func (d ProcessedDay) IsZero() bool {
	return d.Date == "" && d.Sleep == 0 && len(d.Metrics) == 0
}

// Metric returns the aggregate stored under key.
func (d ProcessedDay) Metric(key MeasurementType) (Aggregate, bool) {
	a, ok := d.Metrics[key]
	return a, ok
}

// Values lists sleep followed by every metric in key order.
func (d ProcessedDay) Values() []MetricValue {
	if d.IsZero() {
		return nil
	}
	keys := lo.Keys(d.Metrics)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]MetricValue, 0, len(keys)+1)
	out = append(out, MetricValue{Key: SleepKey, Kind: ScalarValue, Scalar: d.Sleep})
	for _, k := range keys {
		out = append(out, MetricValue{Key: string(k), Kind: AggregateValue, Agg: d.Metrics[k]})
	}
	return out
}

// MarshalJSON writes the flat {date, sleep, <metric>: {...}} object. The empty
// day marshals to {}.
func (d ProcessedDay) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	date, err := json.Marshal(d.Date)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"date":`)
	buf.Write(date)
	for _, v := range d.Values() {
		key, err := json.Marshal(v.Key)
		if err != nil {
			return nil, err
		}
		var val []byte
		switch v.Kind {
		case ScalarValue:
			val, err = json.Marshal(v.Scalar)
		case AggregateValue:
			val, err = json.Marshal(v.Agg)
		}
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat object written by MarshalJSON.
func (d *ProcessedDay) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = ProcessedDay{}
	for key, val := range raw {
		switch key {
		case "date":
			if err := json.Unmarshal(val, &d.Date); err != nil {
				return fmt.Errorf("date: %w", err)
			}
		case SleepKey:
			if err := json.Unmarshal(val, &d.Sleep); err != nil {
				return fmt.Errorf("sleep: %w", err)
			}
		default:
			var agg Aggregate
			if err := json.Unmarshal(val, &agg); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if d.Metrics == nil {
				d.Metrics = map[MeasurementType]Aggregate{}
			}
			d.Metrics[MeasurementType(key)] = agg
		}
	}
	return nil
}

// Result is the output of parsing one export.
type Result struct {
	History []ProcessedDay     `json:"history"`
	Latest  ProcessedDay       `json:"latest"`
	Metrics map[string]float64 `json:"metrics"`
}

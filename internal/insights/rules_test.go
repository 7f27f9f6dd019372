package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(r Report) []string {
	out := make([]string, len(r.Insights))
	for i, in := range r.Insights {
		out[i] = in.Title
	}
	return out
}

func TestEvaluateRules(t *testing.T) {
	cases := []struct {
		name        string
		metrics     map[string]float64
		titles      []string
		suggestions int
	}{
		{"elevated heart rate", map[string]float64{"heartRate": 104}, []string{"Elevated Heart Rate"}, 1},
		{"athlete heart", map[string]float64{"heartRate": 52}, []string{"Athlete's Heart"}, 2},
		{"low activity", map[string]float64{"stepCount": 1200}, []string{"Low Activity"}, 1},
		{"active day", map[string]float64{"stepCount": 12000}, []string{"Active Day"}, 1},
		{"sleep debt", map[string]float64{"sleep": 300}, []string{"Sleep Debt"}, 1},
		{"combined", map[string]float64{"heartRate": 110, "stepCount": 2000, "sleep": 200}, []string{"Elevated Heart Rate", "Low Activity", "Sleep Debt"}, 3},
		{"ordinary day", map[string]float64{"heartRate": 72, "stepCount": 5000, "sleep": 450}, []string{"Balanced Metrics"}, 2},
		{"boundaries", map[string]float64{"heartRate": 100, "stepCount": 3000, "sleep": 360}, []string{"Balanced Metrics"}, 2},
		{"zero values ignored", map[string]float64{"heartRate": 0, "stepCount": 0, "sleep": 0}, []string{"Balanced Metrics"}, 2},
		{"empty", nil, []string{"Balanced Metrics"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Evaluate(tc.metrics)
			assert.Equal(t, tc.titles, titles(r))
			assert.Len(t, r.Suggestions, tc.suggestions)
		})
	}
}

func TestEvaluateDefaults(t *testing.T) {
	r := Evaluate(map[string]float64{})
	require.Len(t, r.Insights, 1)
	assert.Equal(t, Positive, r.Insights[0].Tone)
	assert.Equal(t, []string{"Maintain a consistent sleep schedule.", "Drink 2L of water daily."}, r.Suggestions)
}

func TestAthleteHeartKeepsDefaultSuggestions(t *testing.T) {
	r := Evaluate(map[string]float64{"heartRate": 55})
	assert.Equal(t, []string{"Athlete's Heart"}, titles(r))
	assert.Equal(t, []string{"Maintain a consistent sleep schedule.", "Drink 2L of water daily."}, r.Suggestions)
}

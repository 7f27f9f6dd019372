// Package insights turns daily metrics into coaching messages.
package insights

import "github.com/verte-zerg/healthdash/internal/health"

// Tone classifies an insight for display.
type Tone string

const (
	Alert    Tone = "alert"
	Positive Tone = "positive"
)

// Insight is one observation about the latest day.
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tone        Tone   `json:"tone"`
}

// Report is the result of Evaluate.
type Report struct {
	Insights    []Insight `json:"insights"`
	Suggestions []string  `json:"suggestions"`
}

const sleepDebtMinutes = 6 * 60

// Evaluate applies the built-in rules to a flattened metrics map. A zero or
// missing metric never fires a rule. It always returns at least one insight
// and one suggestion.
func Evaluate(metrics map[string]float64) Report {
	var r Report

	if hr := metrics[string(health.HeartRate)]; hr != 0 {
		switch {
		case hr > 100:
			r.add(Insight{"Elevated Heart Rate", "Your average heart rate is high today. Consider verifying with a manual measurement or resting.", Alert},
				"Avoid caffeine and heavy meals.")
		case hr > 40 && hr < 60:
			r.add(Insight{"Athlete's Heart", "Resting heart rate indicates excellent cardiovascular fitness.", Positive}, "")
		}
	}

	if steps := metrics[string(health.StepCount)]; steps != 0 {
		switch {
		case steps < 3000:
			r.add(Insight{"Low Activity", "Step count is below the recommended 5,000 daily minimum.", Alert},
				"Take a 15-minute walk after dinner.")
		case steps > 8000:
			r.add(Insight{"Active Day", "You've met the daily activity goal!", Positive},
				"Great job! Stay hydrated.")
		}
	}

	if sleep := metrics[health.SleepKey]; sleep > 0 && sleep < sleepDebtMinutes {
		r.add(Insight{"Sleep Debt", "Less than 6 hours of sleep detected.", Alert},
			"Try to sleep 30 minutes earlier tonight.")
	}

	if len(r.Insights) == 0 {
		r.Insights = append(r.Insights, Insight{"Balanced Metrics", "Your vitals are within normal range today.", Positive})
	}
	if len(r.Suggestions) == 0 {
		r.Suggestions = append(r.Suggestions, "Maintain a consistent sleep schedule.", "Drink 2L of water daily.")
	}
	return r
}

func (r *Report) add(in Insight, suggestion string) {
	r.Insights = append(r.Insights, in)
	if suggestion != "" {
		r.Suggestions = append(r.Suggestions, suggestion)
	}
}

package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	ResultID int64
	StoredAt time.Time
	Result   health.Result
	// Days is Result.History narrowed by the report filters.
	Days []health.ProcessedDay
}

// Empty reports whether no stored export was found.
func (r Report) Empty() bool {
	return r.ResultID == 0
}

// BuildReport loads the newest stored export and applies cfg's filters. A store
// without any export yields an empty report.
func BuildReport(ctx context.Context, st store.Store, cfg model.ReportConfig) (Report, error) {
	stored, err := st.LatestResult(ctx, model.KindAppleHealth)
	if errors.Is(err, store.ErrNotFound) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, err
	}
	var result health.Result
	if err := json.Unmarshal(stored.Data, &result); err != nil {
		return Report{}, fmt.Errorf("failed to decode stored result %d: %w", stored.ID, err)
	}
	return Report{
		ResultID: stored.ID,
		StoredAt: stored.CreatedAt,
		Result:   result,
		Days:     FilterDays(result.History, cfg.Since, cfg.Last),
	}, nil
}

// FilterDays keeps days on or after since, then the last n of those.
func FilterDays(days []health.ProcessedDay, since *time.Time, last int) []health.ProcessedDay {
	out := days
	if since != nil {
		cutoff := health.DayKey(since.Format("2006-01-02"))
		start := len(out)
		for i, d := range out {
			if d.Date >= cutoff {
				start = i
				break
			}
		}
		out = out[start:]
	}
	if last > 0 && len(out) > last {
		out = out[len(out)-last:]
	}
	return out
}

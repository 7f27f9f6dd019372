package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/healthdash/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "healthdash.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestSaveAndListResults(t *testing.T) {
	st := openTestStore(t)
	st.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		payload := map[string]int{"n": i}
		if _, err := st.SaveResult(ctx, model.KindAppleHealth, payload); err != nil {
			t.Fatalf("save result %d: %v", i, err)
		}
	}

	results, err := st.ListResults(ctx, 0)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != DefaultListLimit {
		t.Fatalf("expected %d results, got %d", DefaultListLimit, len(results))
	}
	var first map[string]int
	if err := json.Unmarshal(results[0].Data, &first); err != nil {
		t.Fatalf("decode newest: %v", err)
	}
	if first["n"] != 11 {
		t.Fatalf("expected newest result first, got %v", first)
	}
	if !results[0].CreatedAt.After(results[1].CreatedAt) {
		t.Fatalf("expected descending created_at: %v then %v", results[0].CreatedAt, results[1].CreatedAt)
	}

	results, err = st.ListResults(ctx, 3)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestSaveResultRawJSON(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.SaveResult(ctx, model.KindECG, json.RawMessage(`{"type":"electrocardiogram"}`)); err != nil {
		t.Fatalf("save raw result: %v", err)
	}
	if _, err := st.SaveResult(ctx, model.KindECG, json.RawMessage(`{broken`)); err == nil {
		t.Fatalf("expected invalid JSON to be rejected")
	}
	got, err := st.LatestResult(ctx, model.KindECG)
	if err != nil {
		t.Fatalf("latest result: %v", err)
	}
	if string(got.Data) != `{"type":"electrocardiogram"}` {
		t.Fatalf("unexpected data %s", got.Data)
	}
}

func TestLatestResultByKind(t *testing.T) {
	st := openTestStore(t)
	st.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := st.LatestResult(ctx, model.KindAppleHealth); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	firstID, err := st.SaveResult(ctx, model.KindAppleHealth, map[string]string{"v": "old"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	secondID, err := st.SaveResult(ctx, model.KindAppleHealth, map[string]string{"v": "new"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := st.SaveResult(ctx, model.KindECG, map[string]string{"v": "ecg"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.LatestResult(ctx, model.KindAppleHealth)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != secondID || got.ID == firstID {
		t.Fatalf("expected id %d, got %d", secondID, got.ID)
	}
	if got.Kind != model.KindAppleHealth {
		t.Fatalf("unexpected kind %q", got.Kind)
	}
}

func TestNotes(t *testing.T) {
	st := openTestStore(t)
	st.now = fixedClock(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := st.AddNote(ctx, "   "); err == nil {
		t.Fatalf("expected blank note to be rejected")
	}
	first, err := st.AddNote(ctx, "  slept badly ")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if first.Text != "slept badly" || first.ID == 0 {
		t.Fatalf("unexpected note %+v", first)
	}
	if _, err := st.AddNote(ctx, "long run"); err != nil {
		t.Fatalf("add note: %v", err)
	}

	notes, err := st.ListNotes(ctx)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Text != "long run" || notes[1].Text != "slept badly" {
		t.Fatalf("expected newest first, got %+v", notes)
	}
	if !notes[1].CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", notes[1].CreatedAt, first.CreatedAt)
	}
}

func TestTimeline(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.AddTimelineEvent(ctx, model.TimelineEvent{Title: "no date"}); err == nil {
		t.Fatalf("expected missing date to be rejected")
	}
	if _, err := st.AddTimelineEvent(ctx, model.TimelineEvent{EventDate: "2024-01-01"}); err == nil {
		t.Fatalf("expected missing title to be rejected")
	}

	events := []model.TimelineEvent{
		{EventDate: "2024-03-10", Category: "lab", Title: "Blood panel"},
		{EventDate: "2023-11-02", Category: "visit", Title: "Annual checkup", Details: "All normal"},
		{EventDate: "2024-01-15", Title: "Flu shot"},
	}
	for _, ev := range events {
		saved, err := st.AddTimelineEvent(ctx, ev)
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		if saved.ID == 0 || saved.CreatedAt.IsZero() {
			t.Fatalf("expected id and created_at, got %+v", saved)
		}
	}

	got, err := st.ListTimeline(ctx)
	if err != nil {
		t.Fatalf("list timeline: %v", err)
	}
	want := []string{"Annual checkup", "Flu shot", "Blood panel"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Fatalf("event %d: expected %q, got %q", i, title, got[i].Title)
		}
	}
	if got[0].Details != "All normal" || got[0].Category != "visit" {
		t.Fatalf("unexpected event %+v", got[0])
	}
}

func TestConnectRequiresTarget(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error without path or url")
	}
	st, err := Connect(context.Background(), Options{Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	_ = st.Close()
}

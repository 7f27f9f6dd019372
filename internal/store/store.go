// Package store persists parsed results, notes and timeline events.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/healthdash/internal/model"
)

// DefaultListLimit is used when ListResults is called with a non-positive limit.
const DefaultListLimit = 10

// ErrNotFound is returned when no stored row matches a lookup.
var ErrNotFound = errors.New("not found")

// Store is implemented by the SQLite and PostgreSQL backends.
type Store interface {
	// Results
	SaveResult(ctx context.Context, kind string, payload any) (int64, error)
	ListResults(ctx context.Context, limit int) ([]model.StoredResult, error)
	LatestResult(ctx context.Context, kind string) (model.StoredResult, error)

	// Notes
	AddNote(ctx context.Context, text string) (model.Note, error)
	ListNotes(ctx context.Context) ([]model.Note, error)

	// Timeline
	AddTimelineEvent(ctx context.Context, ev model.TimelineEvent) (model.TimelineEvent, error)
	ListTimeline(ctx context.Context) ([]model.TimelineEvent, error)

	Close() error
}

// Options selects a backend. A non-empty DatabaseURL means PostgreSQL.
type Options struct {
	Path        string
	DatabaseURL string
}

// Connect opens the backend described by opts.
func Connect(ctx context.Context, opts Options) (Store, error) {
	if opts.DatabaseURL != "" {
		return OpenPostgres(ctx, opts.DatabaseURL)
	}
	if opts.Path == "" {
		return nil, errors.New("store: no database path or url")
	}
	return Open(opts.Path)
}

func encodePayload(payload any) (string, error) {
	switch v := payload.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return "", errors.New("store: payload is not valid JSON")
		}
		return string(v), nil
	case []byte:
		if !json.Valid(v) {
			return "", errors.New("store: payload is not valid JSON")
		}
		return string(v), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

func validateEvent(ev model.TimelineEvent) error {
	if ev.EventDate == "" {
		return errors.New("timeline event date is required")
	}
	if ev.Title == "" {
		return errors.New("timeline event title is required")
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verte-zerg/healthdash/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS health_data (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS daily_notes (
	id BIGSERIAL PRIMARY KEY,
	note_text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS medical_timeline (
	id BIGSERIAL PRIMARY KEY,
	event_date DATE NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_health_data_type ON health_data(type);
CREATE INDEX IF NOT EXISTS idx_medical_timeline_event_date ON medical_timeline(event_date);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL, pings it and creates the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveResult stores payload as JSON under kind.
func (s *PostgresStore) SaveResult(ctx context.Context, kind string, payload any) (int64, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO health_data (type, data) VALUES ($1, $2) RETURNING id`,
		kind, data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save result: %w", err)
	}
	return id, nil
}

// ListResults returns the newest results first.
func (s *PostgresStore) ListResults(ctx context.Context, limit int) ([]model.StoredResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, type, data, created_at FROM health_data
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []model.StoredResult
	for rows.Next() {
		r, err := scanPostgresResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// LatestResult returns the newest result of kind.
func (s *PostgresStore) LatestResult(ctx context.Context, kind string) (model.StoredResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, type, data, created_at FROM health_data
		 WHERE type = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, kind)
	r, err := scanPostgresResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StoredResult{}, ErrNotFound
	}
	return r, err
}

func scanPostgresResult(row pgx.Row) (model.StoredResult, error) {
	var r model.StoredResult
	var data string
	if err := row.Scan(&r.ID, &r.Kind, &data, &r.CreatedAt); err != nil {
		return model.StoredResult{}, err
	}
	r.Data = []byte(data)
	return r, nil
}

// AddNote stores a note. Surrounding whitespace is trimmed.
func (s *PostgresStore) AddNote(ctx context.Context, text string) (model.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Note{}, errors.New("note text is required")
	}
	n := model.Note{Text: text}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO daily_notes (note_text) VALUES ($1) RETURNING id, created_at`,
		text).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return model.Note{}, fmt.Errorf("failed to add note: %w", err)
	}
	return n, nil
}

// ListNotes returns notes newest first.
func (s *PostgresStore) ListNotes(ctx context.Context) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, note_text, created_at FROM daily_notes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// AddTimelineEvent stores ev and returns it with its id and creation time.
func (s *PostgresStore) AddTimelineEvent(ctx context.Context, ev model.TimelineEvent) (model.TimelineEvent, error) {
	if err := validateEvent(ev); err != nil {
		return model.TimelineEvent{}, err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO medical_timeline (event_date, category, title, details)
		 VALUES ($1::date, $2, $3, $4) RETURNING id, created_at`,
		ev.EventDate, ev.Category, ev.Title, ev.Details).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return model.TimelineEvent{}, fmt.Errorf("failed to add timeline event: %w", err)
	}
	return ev, nil
}

// ListTimeline returns events in ascending event date.
func (s *PostgresStore) ListTimeline(ctx context.Context) ([]model.TimelineEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, to_char(event_date, 'YYYY-MM-DD'), category, title, details, created_at
		 FROM medical_timeline
		 ORDER BY event_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	var events []model.TimelineEvent
	for rows.Next() {
		var ev model.TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.EventDate, &ev.Category, &ev.Title, &ev.Details, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

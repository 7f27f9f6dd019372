package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/healthdash/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps everything in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	st := &SQLiteStore{db: db, now: time.Now}
	if err := st.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return st, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS health_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_text TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS medical_timeline (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_date TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_health_data_type ON health_data(type);`,
		`CREATE INDEX IF NOT EXISTS idx_medical_timeline_event_date ON medical_timeline(event_date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

// SaveResult stores payload as JSON under kind.
func (s *SQLiteStore) SaveResult(ctx context.Context, kind string, payload any) (int64, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO health_data (type, data, created_at) VALUES (?, ?, ?)`,
		kind, data, s.stamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListResults returns the newest results first.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]model.StoredResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, data, created_at FROM health_data
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// LatestResult returns the newest result of kind.
func (s *SQLiteStore) LatestResult(ctx context.Context, kind string) (model.StoredResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, data, created_at FROM health_data
		 WHERE type = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, kind)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StoredResult{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (model.StoredResult, error) {
	var r model.StoredResult
	var data, createdAt string
	if err := sc.Scan(&r.ID, &r.Kind, &data, &createdAt); err != nil {
		return model.StoredResult{}, err
	}
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return model.StoredResult{}, err
	}
	r.Data = []byte(data)
	r.CreatedAt = parsed
	return r, nil
}

// AddNote stores a note. Surrounding whitespace is trimmed.
func (s *SQLiteStore) AddNote(ctx context.Context, text string) (model.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Note{}, errors.New("note text is required")
	}
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_notes (note_text, created_at) VALUES (?, ?)`,
		text, now.Format(timeLayout))
	if err != nil {
		return model.Note{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Note{}, err
	}
	return model.Note{ID: id, Text: text, CreatedAt: now}, nil
}

// ListNotes returns notes newest first.
func (s *SQLiteStore) ListNotes(ctx context.Context) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, note_text, created_at FROM daily_notes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		var createdAt string
		if err := rows.Scan(&n.ID, &n.Text, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		n.CreatedAt = parsed
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

// AddTimelineEvent stores ev and returns it with its id and creation time.
func (s *SQLiteStore) AddTimelineEvent(ctx context.Context, ev model.TimelineEvent) (model.TimelineEvent, error) {
	if err := validateEvent(ev); err != nil {
		return model.TimelineEvent{}, err
	}
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO medical_timeline (event_date, category, title, details, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.EventDate, ev.Category, ev.Title, ev.Details, now.Format(timeLayout))
	if err != nil {
		return model.TimelineEvent{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimelineEvent{}, err
	}
	ev.ID = id
	ev.CreatedAt = now
	return ev, nil
}

// ListTimeline returns events in ascending event date.
func (s *SQLiteStore) ListTimeline(ctx context.Context) ([]model.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_date, category, title, details, created_at
		 FROM medical_timeline
		 ORDER BY event_date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.TimelineEvent
	for rows.Next() {
		var ev model.TimelineEvent
		var createdAt string
		if err := rows.Scan(&ev.ID, &ev.EventDate, &ev.Category, &ev.Title, &ev.Details, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		ev.CreatedAt = parsed
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

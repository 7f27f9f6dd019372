package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/store"
)

const maxJSONBody = 1 << 20

type storedResultJSON struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

type noteJSON struct {
	ID        int64     `json:"id"`
	NoteText  string    `json:"note_text"`
	CreatedAt time.Time `json:"created_at"`
}

type timelineEventJSON struct {
	ID        int64     `json:"id"`
	EventDate string    `json:"event_date"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type insightsJSON struct {
	ResultID    int64              `json:"result_id"`
	Date        health.DayKey      `json:"date,omitempty"`
	Insights    []insights.Insight `json:"insights"`
	Suggestions []string           `json:"suggestions"`
	Commentary  string             `json:"commentary,omitempty"`
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Backend is running"})
}

func (s *Server) listData(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListResults(r.Context(), store.DefaultListLimit)
	if err != nil {
		s.log.Error("list results failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]storedResultJSON, len(rows))
	for i, row := range rows {
		out[i] = storedResultJSON{ID: row.ID, Type: row.Kind, Data: row.Data, CreatedAt: row.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]noteJSON, len(notes))
	for i, n := range notes {
		out[i] = toNoteJSON(n)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NoteText string `json:"note_text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.NoteText) == "" {
		writeError(w, http.StatusBadRequest, "note_text is required")
		return
	}
	note, err := s.store.AddNote(r.Context(), req.NoteText)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toNoteJSON(note))
}

func (s *Server) listTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListTimeline(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]timelineEventJSON, len(events))
	for i, ev := range events {
		out[i] = toTimelineJSON(ev)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addTimelineEvent(w http.ResponseWriter, r *http.Request) {
	var req timelineEventJSON
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.EventDate) == "" || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "event_date and title are required")
		return
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(req.EventDate)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event_date; use YYYY-MM-DD")
		return
	}
	ev, err := s.store.AddTimelineEvent(r.Context(), model.TimelineEvent{
		EventDate: strings.TrimSpace(req.EventDate),
		Category:  req.Category,
		Title:     req.Title,
		Details:   req.Details,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toTimelineJSON(ev))
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	stored, err := s.store.LatestResult(r.Context(), model.KindAppleHealth)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no Apple Health data uploaded yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var result health.Result
	if err := json.Unmarshal(stored.Data, &result); err != nil {
		writeError(w, http.StatusInternalServerError, "stored result is not valid health data")
		return
	}
	report := insights.Evaluate(result.Metrics)
	out := insightsJSON{
		ResultID:    stored.ID,
		Date:        result.Latest.Date,
		Insights:    report.Insights,
		Suggestions: report.Suggestions,
	}
	if wantsAI(r) {
		if s.cfg.Commentator == nil {
			writeError(w, http.StatusServiceUnavailable, "AI commentary is not configured; set ANTHROPIC_API_KEY")
			return
		}
		text, err := s.cfg.Commentator.Comment(r.Context(), result)
		if err != nil {
			s.log.Error("commentary failed", "result", stored.ID, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to generate commentary", "details": err.Error()})
			return
		}
		out.Commentary = text
	}
	writeJSON(w, http.StatusOK, out)
}

func wantsAI(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("ai")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func toNoteJSON(n model.Note) noteJSON {
	return noteJSON{ID: n.ID, NoteText: n.Text, CreatedAt: n.CreatedAt}
}

func toTimelineJSON(ev model.TimelineEvent) timelineEventJSON {
	return timelineEventJSON{
		ID:        ev.ID,
		EventDate: ev.EventDate,
		Category:  ev.Category,
		Title:     ev.Title,
		Details:   ev.Details,
		CreatedAt: ev.CreatedAt,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"time"
)

// Result kinds stored in health_data.type.
const (
	KindAppleHealth   = "apple_health"
	KindECG           = "electrocardiogram"
	KindMedicalReport = "medical_report"
)

// StoredResult is one parsed upload as persisted.
type StoredResult struct {
	ID        int64
	Kind      string
	Data      json.RawMessage
	CreatedAt time.Time
}

// Note is a free-text daily note.
type Note struct {
	ID        int64
	Text      string
	CreatedAt time.Time
}

// TimelineEvent is one entry of the medical timeline.
type TimelineEvent struct {
	ID        int64
	EventDate string
	Category  string
	Title     string
	Details   string
	CreatedAt time.Time
}

// ReportConfig defines filters and options for terminal reports.
type ReportConfig struct {
	Since  *time.Time
	Last   int
	Window int
	Metric string
}

// IngestConfig defines how exports are parsed and kept.
type IngestConfig struct {
	HistoryDays int
	Format      string
	Save        bool
	Notify      bool
}

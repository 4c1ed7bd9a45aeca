package pkg

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is one line of the run audit log. Entries are appended, never edited.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"timestamp"`
	Severity Severity  `json:"type"`
	Message  string    `json:"message"`
	Detail   string    `json:"details,omitempty"`
}

func NewEntry(severity Severity, message string, detail string) Entry {
	return Entry{
		ID:       uuid.New().String(),
		Time:     time.Now(),
		Severity: severity,
		Message:  message,
		Detail:   detail,
	}
}

// Journal is owned by the caller of an acquisition run; the orchestrator only appends.
type Journal interface {
	Append(entry Entry)
}

// Journals fans one entry out to several sinks.
type Journals []Journal

func (j Journals) Append(entry Entry) {
	for _, sink := range j {
		sink.Append(entry)
	}
}

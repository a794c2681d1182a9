package domain

import "time"

type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
	CategoryPause   Category = "pause"
	CategorySpecial Category = "special"
)

type LogEvent struct {
	SessionID string    `json:"sessionId,omitempty"`
	At        time.Time `json:"at"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
}

// ApplyOutcome tracks one posting through a single submission attempt.
type ApplyOutcome string

const (
	ApplyIdle             ApplyOutcome = "idle"
	ApplyGeneratingLetter ApplyOutcome = "generating_letter"
	ApplySubmitting       ApplyOutcome = "submitting"
	ApplySucceeded        ApplyOutcome = "succeeded"
	ApplyFailed           ApplyOutcome = "failed"
)

// ApplyMode records which flow produced an application.
type ApplyMode string

const (
	ModeBot    ApplyMode = "bot"
	ModeManual ApplyMode = "manual"
)

// Application is one successful submission, kept for history.
type Application struct {
	ID        int64     `json:"id"`
	PostingID string    `json:"postingId"`
	Title     string    `json:"title"`
	Employer  string    `json:"employer"`
	URL       string    `json:"url"`
	SessionID string    `json:"sessionId,omitempty"`
	Mode      ApplyMode `json:"mode"`
	Letter    string    `json:"letter"`
	AppliedAt time.Time `json:"appliedAt"`
}

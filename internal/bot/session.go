package bot

import (
	"context"
	"time"

	"autoapply-engine/internal/config"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
)

// Active reports a status that holds the job board.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusStopping
}

// View is the read-only picture of a session handed to callers.
type View struct {
	ID             string     `json:"id,omitempty"`
	Status         Status     `json:"status"`
	Query          string     `json:"query,omitempty"`
	Target         *int       `json:"target"`
	Sent           int        `json:"sent"`
	Page           int        `json:"page"`
	TotalPages     int        `json:"totalPages"`
	ActionRequired bool       `json:"actionRequired"`
	ChallengeURL   string     `json:"challengeUrl,omitempty"`
	EndReason      string     `json:"endReason,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
}

// session is owned by the loop goroutine; every field below snap is guarded
// by Engine.mu.
type session struct {
	id     string
	snap   config.Snapshot
	cancel context.CancelFunc
	done   chan struct{}

	status         Status
	finishing      bool
	sent           int
	page           int
	totalPages     int
	actionRequired bool
	challengeURL   string
	endReason      Reason
	startedAt      time.Time
	endedAt        time.Time
}

func (s *session) targetReached() bool {
	return s.snap.Target != nil && s.sent >= *s.snap.Target
}

func (s *session) view() View {
	v := View{
		ID:             s.id,
		Status:         s.status,
		Query:          s.snap.Query,
		Sent:           s.sent,
		Page:           s.page,
		TotalPages:     s.totalPages,
		ActionRequired: s.actionRequired,
		ChallengeURL:   s.challengeURL,
		EndReason:      string(s.endReason),
	}
	if s.snap.Target != nil {
		n := *s.snap.Target
		v.Target = &n
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		v.StartedAt = &t
	}
	if !s.endedAt.IsZero() {
		t := s.endedAt
		v.EndedAt = &t
	}
	return v
}

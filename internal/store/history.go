package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autoapply-engine/internal/domain"

	"go.uber.org/zap"
)

// History keeps bot sessions, their log and every sent application.
type History struct {
	db  *sql.DB
	log *zap.Logger
}

func NewHistory(db *sql.DB, logger *zap.Logger) *History {
	return &History{db: db, log: logger.Named("history")}
}

type Session struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	Target    *int       `json:"target"`
	Sent      int        `json:"sent"`
	EndReason string     `json:"endReason,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func (h *History) StartSession(ctx context.Context, id, query string, target *int, at time.Time) error {
	var t sql.NullInt64
	if target != nil {
		t = sql.NullInt64{Int64: int64(*target), Valid: true}
	}
	_, err := h.db.ExecContext(ctx, `
INSERT INTO sessions(id, query, target, started_at)
VALUES(?,?,?,?);`, id, query, t, formatTime(at))
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (h *History) EndSession(ctx context.Context, id, reason string, sent int, at time.Time) error {
	_, err := h.db.ExecContext(ctx, `
UPDATE sessions SET end_reason = ?, sent = ?, ended_at = ?
WHERE id = ?;`, reason, sent, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (h *History) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
SELECT id, query, target, sent, end_reason, started_at, ended_at
FROM sessions
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var target sql.NullInt64
		var started, ended string
		if err := rows.Scan(&s.ID, &s.Query, &target, &s.Sent, &s.EndReason, &started, &ended); err != nil {
			return nil, err
		}
		if target.Valid {
			n := int(target.Int64)
			s.Target = &n
		}
		s.StartedAt = parseTime(started)
		if ended != "" {
			t := parseTime(ended)
			s.EndedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (h *History) RecordApplication(ctx context.Context, app domain.Application) error {
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx, `
INSERT INTO applications(posting_id, title, employer, url, session_id, mode, letter, applied_at)
VALUES(?,?,?,?,?,?,?,?);`,
		app.PostingID, app.Title, app.Employer, app.URL, app.SessionID, string(app.Mode), app.Letter, formatTime(app.AppliedAt))
	if err != nil {
		return fmt.Errorf("record application: %w", err)
	}
	return nil
}

type ListApplicationsOpts struct {
	SessionID string
	Limit     int
}

// ListApplications returns the newest applications first.
func (h *History) ListApplications(ctx context.Context, opts ListApplicationsOpts) ([]domain.Application, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 200
	}

	where, args := "", []any{}
	if opts.SessionID != "" {
		where = "WHERE session_id = ?"
		args = append(args, opts.SessionID)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, posting_id, title, employer, url, session_id, mode, letter, applied_at
FROM applications
%s
ORDER BY applied_at DESC, id DESC
LIMIT ?;`, where)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		var a domain.Application
		var mode, appliedAt string
		if err := rows.Scan(&a.ID, &a.PostingID, &a.Title, &a.Employer, &a.URL, &a.SessionID, &mode, &a.Letter, &appliedAt); err != nil {
			return nil, err
		}
		a.Mode = domain.ApplyMode(mode)
		a.AppliedAt = parseTime(appliedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (h *History) AppendEvent(ctx context.Context, ev domain.LogEvent) error {
	_, err := h.db.ExecContext(ctx, `
INSERT INTO log_events(session_id, at, category, message)
VALUES(?,?,?,?);`, ev.SessionID, formatTime(ev.At), string(ev.Category), ev.Message)
	return err
}

// SessionEvents returns a session's log in the order it was written.
func (h *History) SessionEvents(ctx context.Context, sessionID string) ([]domain.LogEvent, error) {
	rows, err := h.db.QueryContext(ctx, `
SELECT session_id, at, category, message
FROM log_events
WHERE session_id = ?
ORDER BY id ASC;`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LogEvent
	for rows.Next() {
		var ev domain.LogEvent
		var at, cat string
		if err := rows.Scan(&ev.SessionID, &at, &cat, &ev.Message); err != nil {
			return nil, err
		}
		ev.At = parseTime(at)
		ev.Category = domain.Category(cat)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Emit stores ev. It makes History a log Sink; failures are only logged.
func (h *History) Emit(ev domain.LogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.AppendEvent(ctx, ev); err != nil {
		h.log.Warn("append log event", zap.String("session", ev.SessionID), zap.Error(err))
	}
}

// CleanupOldEvents drops log events older than retention. Applications are
// kept.
func (h *History) CleanupOldEvents(ctx context.Context, retention time.Duration) (deleted int64, err error) {
	cutoff := formatTime(time.Now().Add(-retention))
	res, err := h.db.ExecContext(ctx, `
DELETE FROM log_events
WHERE at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

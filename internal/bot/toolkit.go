package bot

import (
	"context"
	"time"

	"autoapply-engine/internal/config"
	"autoapply-engine/internal/domain"
	"autoapply-engine/internal/pipeline"
)

type Searcher interface {
	Run(ctx context.Context, query string, page int, report pipeline.Reporter) (domain.PipelineResult, error)
}

type Submitter interface {
	SubmitApplication(ctx context.Context, postingID, resumeID, letter string) error
}

type LetterWriter interface {
	GenerateCoverLetter(ctx context.Context, posting domain.Posting, selfDescription, displayName string) (string, error)
}

// Toolkit is the set of collaborators bound to one snapshot's credentials.
type Toolkit struct {
	Search  Searcher
	Board   Submitter
	Letters LetterWriter
}

// ToolkitFactory builds collaborators for a snapshot. It must not do network
// I/O.
type ToolkitFactory func(ctx context.Context, snap config.Snapshot) (Toolkit, error)

// History persists sessions and successful applications. Failures are logged
// and never stop the bot.
type History interface {
	StartSession(ctx context.Context, id, query string, target *int, at time.Time) error
	EndSession(ctx context.Context, id, reason string, sent int, at time.Time) error
	RecordApplication(ctx context.Context, app domain.Application) error
}

// Timing holds every wait the bot and manual flow make.
type Timing struct {
	PacingMin      time.Duration
	PacingMax      time.Duration
	ItemCooldown   time.Duration
	RetryCooldown  time.Duration
	ExhaustedPause time.Duration
	SuccessDisplay time.Duration
	ErrorDisplay   time.Duration
}

func TimingFromConfig(cfg config.Config) Timing {
	b := cfg.Bot
	return Timing{
		PacingMin:      time.Duration(b.PacingMinSeconds) * time.Second,
		PacingMax:      time.Duration(b.PacingMaxSeconds) * time.Second,
		ItemCooldown:   time.Duration(b.ItemCooldownSeconds) * time.Second,
		RetryCooldown:  time.Duration(b.RetryCooldownSeconds) * time.Second,
		ExhaustedPause: time.Duration(b.ExhaustedPauseSeconds) * time.Second,
		SuccessDisplay: time.Duration(b.SuccessDisplayMillis) * time.Millisecond,
		ErrorDisplay:   time.Duration(b.ErrorDisplayMillis) * time.Millisecond,
	}
}

func DefaultTiming() Timing {
	return TimingFromConfig(config.Default())
}

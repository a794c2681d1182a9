package bot

import (
	"context"
	"time"

	"autoapply-engine/internal/config"
	"autoapply-engine/internal/domain"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/scheduler"
	"autoapply-engine/internal/telemetry"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ManualApplier submits one user-picked posting outside the bot loop. It
// never paces itself.
type ManualApplier struct {
	tools   ToolkitFactory
	gate    *Gate
	timing  Timing
	history History
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time
	log     *zap.Logger
}

func NewManualApplier(tools ToolkitFactory, gate *Gate, timing Timing, history History, logger *zap.Logger) *ManualApplier {
	return &ManualApplier{
		tools:   tools,
		gate:    gate,
		timing:  timing,
		history: history,
		sleep:   scheduler.Sleep,
		now:     time.Now,
		log:     logger.Named("manual"),
	}
}

// Apply walks posting through GeneratingLetter and Submitting to Succeeded or
// Failed, reporting each step to onStatus. After a failure the status falls
// back to Idle once the error display delay has passed. The gate is held only
// while the job board is being called.
func (m *ManualApplier) Apply(ctx context.Context, posting domain.Posting, snap config.Snapshot, onStatus func(domain.ApplyOutcome)) error {
	if onStatus == nil {
		onStatus = func(domain.ApplyOutcome) {}
	}
	if err := snap.ValidateForApply(); err != nil {
		return err
	}

	release, err := m.gate.TryAcquire(OwnerManual)
	if err != nil {
		return err
	}
	defer release()

	tk, err := m.tools(ctx, snap)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return apperrors.Internal("building collaborators", err)
	}

	ctx, span := tracer.Start(ctx, "manual.apply")
	defer span.End()
	span.SetAttributes(telemetry.String("vacancy_id", posting.ID))

	letter, err := m.submit(ctx, tk, posting, snap, onStatus)
	release()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.log.Info("manual application failed", zap.String("vacancy_id", posting.ID), zap.Error(err))
		onStatus(domain.ApplyFailed)
		if ctx.Err() == nil {
			_ = m.sleep(ctx, m.timing.ErrorDisplay)
		}
		onStatus(domain.ApplyIdle)
		return err
	}

	m.record(ctx, posting, letter)
	m.log.Info("manual application sent", zap.String("vacancy_id", posting.ID))
	onStatus(domain.ApplySucceeded)
	_ = m.sleep(ctx, m.timing.SuccessDisplay)
	return nil
}

func (m *ManualApplier) submit(ctx context.Context, tk Toolkit, posting domain.Posting, snap config.Snapshot, onStatus func(domain.ApplyOutcome)) (string, error) {
	onStatus(domain.ApplyGeneratingLetter)
	letter, err := tk.Letters.GenerateCoverLetter(ctx, posting, snap.SelfDescription, snap.DisplayName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	onStatus(domain.ApplySubmitting)
	if err := tk.Board.SubmitApplication(ctx, posting.ID, snap.ResumeID, letter); err != nil {
		return "", err
	}
	return letter, nil
}

func (m *ManualApplier) record(ctx context.Context, posting domain.Posting, letter string) {
	if m.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	app := domain.Application{
		PostingID: posting.ID,
		Title:     posting.Title,
		Employer:  posting.Employer,
		URL:       posting.URL,
		Mode:      domain.ModeManual,
		Letter:    letter,
		AppliedAt: m.now(),
	}
	if err := m.history.RecordApplication(ctx, app); err != nil {
		m.log.Warn("record application", zap.String("vacancy_id", posting.ID), zap.Error(err))
	}
}

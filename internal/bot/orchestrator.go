package bot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"autoapply-engine/internal/config"
	"autoapply-engine/internal/domain"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/events"
	"autoapply-engine/internal/scheduler"
	"autoapply-engine/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("autoapply-engine/bot")

const historyTimeout = 5 * time.Second

type Option func(*Engine)

func WithTiming(t Timing) Option { return func(e *Engine) { e.timing = t } }

func WithHistory(h History) Option { return func(e *Engine) { e.history = h } }

func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithSleep replaces the cancellable wait used for every pause.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(e *Engine) { e.sleep = fn }
}

// Engine runs at most one auto-apply session at a time.
type Engine struct {
	tools   ToolkitFactory
	sink    events.Sink
	gate    *Gate
	log     *zap.Logger
	timing  Timing
	history History
	rng     *rand.Rand
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time

	// emitMu orders sink delivery to match entries. Lock order: emitMu, mu.
	// A sink may only call Stop once the session is finishing.
	emitMu  sync.Mutex
	mu      sync.Mutex
	sess    *session
	entries []domain.LogEvent
}

func New(tools ToolkitFactory, sink events.Sink, gate *Gate, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		tools:  tools,
		sink:   sink,
		gate:   gate,
		log:    logger.Named("bot"),
		timing: DefaultTiming(),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		sleep:  scheduler.Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = events.Discard
	}
	return e
}

// Start validates snap, claims the gate and launches a session. A non-nil
// target overrides the snapshot's.
func (e *Engine) Start(snap config.Snapshot, target *int) (View, error) {
	if target != nil {
		snap = snap.WithTarget(target)
	}
	if err := snap.Validate(); err != nil {
		return e.Status(), err
	}

	release, err := e.gate.TryAcquire(OwnerBot)
	if err != nil {
		return e.Status(), err
	}

	ctx, cancel := context.WithCancel(context.Background())
	tk, err := e.tools(ctx, snap)
	if err != nil {
		cancel()
		release()
		if _, ok := apperrors.As(err); ok {
			return e.Status(), err
		}
		return e.Status(), apperrors.Internal("building collaborators", err)
	}

	s := &session{
		id:        uuid.NewString(),
		snap:      snap,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusRunning,
		startedAt: e.now(),
	}

	e.mu.Lock()
	e.sess = s
	e.entries = nil
	v := s.view()
	e.mu.Unlock()

	if e.history != nil {
		hctx, hcancel := context.WithTimeout(context.Background(), historyTimeout)
		if err := e.history.StartSession(hctx, s.id, snap.Query, snap.Target, s.startedAt); err != nil {
			e.log.Warn("record session start", zap.String("session", s.id), zap.Error(err))
		}
		hcancel()
	}

	e.log.Info("session started", zap.String("session", s.id), zap.String("query", snap.Query))
	e.emit(s, domain.CategorySpecial, fmt.Sprintf("Bot started. Target: %s applications.", goal(snap.Target)))

	go e.run(ctx, s, tk, release)
	return v, nil
}

// Stop raises cancellation for the running session. The session reaches
// Stopped once the in-flight step unwinds.
func (e *Engine) Stop() (View, error) {
	if v, done, err := e.stopNoop(); done {
		return v, err
	}

	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	if v, done, err := e.stopNoopLocked(); done {
		e.mu.Unlock()
		return v, err
	}
	s := e.sess
	s.status = StatusStopping
	ev := e.appendLocked(s, domain.CategorySpecial, "Stop requested. Finishing the current operation...")
	s.cancel()
	v := s.view()
	e.mu.Unlock()

	e.sink.Emit(ev)
	e.log.Info("stop requested", zap.String("session", s.id))
	return v, nil
}

func (e *Engine) stopNoop() (View, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopNoopLocked()
}

// stopNoopLocked answers Stop without a transition: no session, one already
// stopping, or one whose termination is being logged.
func (e *Engine) stopNoopLocked() (View, bool, error) {
	s := e.sess
	if s == nil || !s.status.Active() {
		return e.viewLocked(), true, apperrors.Conflict("the bot is not running", nil)
	}
	if s.status == StatusStopping || s.finishing {
		return s.view(), true, nil
	}
	return View{}, false, nil
}

func (e *Engine) Status() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	if e.sess == nil {
		return View{Status: StatusIdle}
	}
	return e.sess.view()
}

// Log returns a copy of the current session's events.
func (e *Engine) Log() []domain.LogEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.entries)
}

// Wait blocks until the current session is Stopped.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	s := e.sess
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops any running session and waits for it.
func (e *Engine) Shutdown(ctx context.Context) error {
	if _, err := e.Stop(); err != nil && !apperrors.IsType(err, apperrors.ErrTypeConflict) {
		return err
	}
	return e.Wait(ctx)
}

func (e *Engine) run(ctx context.Context, s *session, tk Toolkit, release func()) {
	ctx, span := tracer.Start(ctx, "bot.session")
	span.SetAttributes(telemetry.String("session", s.id))

	reason := e.loop(ctx, s, tk)
	e.finish(s, reason)

	span.SetAttributes(
		telemetry.String("reason", string(reason)),
		telemetry.Bool("action_required", reason == ReasonFatal),
	)
	if reason == ReasonFatal {
		span.SetStatus(codes.Error, "fatal")
	}
	span.End()

	s.cancel()
	release()
	close(s.done)
}

func (e *Engine) loop(ctx context.Context, s *session, tk Toolkit) Reason {
	for {
		c := e.cycle(ctx, s, tk)
		switch c.action {
		case actTerminate:
			return c.reason
		case actAdvancePage:
			e.update(s, func(s *session) { s.page++ })
		case actResetAndPause:
			e.emit(s, domain.CategoryPause, fmt.Sprintf(
				"No new vacancies across the whole search. Pausing %s before a new pass.", humanize(e.timing.ExhaustedPause)))
			if err := e.sleep(ctx, e.timing.ExhaustedPause); err != nil {
				return ReasonCancelled
			}
			e.update(s, func(s *session) { s.page = 0 })
		case actContinue:
		}
	}
}

// checkpoint is evaluated before every network step.
func (e *Engine) checkpoint(ctx context.Context, s *session) (control, bool) {
	if ctx.Err() != nil {
		return terminate(ReasonCancelled), true
	}
	e.mu.Lock()
	reached := s.targetReached()
	e.mu.Unlock()
	if reached {
		return terminate(ReasonTargetReached), true
	}
	return control{}, false
}

func (e *Engine) cycle(ctx context.Context, s *session, tk Toolkit) control {
	if c, stop := e.checkpoint(ctx, s); stop {
		return c
	}

	e.mu.Lock()
	page := s.page
	e.mu.Unlock()

	e.emit(s, domain.CategoryInfo, fmt.Sprintf("Starting a new search cycle (page %d).", page+1))
	res, err := tk.Search.Run(ctx, s.snap.Query, page, func(cat domain.Category, msg string) {
		e.emit(s, cat, msg)
	})
	if err != nil {
		if ctx.Err() != nil {
			return terminate(ReasonCancelled)
		}
		e.log.Warn("search cycle failed", zap.String("session", s.id), zap.Int("page", page), zap.Error(err))
		e.emit(s, domain.CategoryError, "Search cycle failed: "+describe(err))
		e.emit(s, domain.CategoryPause, fmt.Sprintf("Pausing %s before retrying.", humanize(e.timing.RetryCooldown)))
		if err := e.sleep(ctx, e.timing.RetryCooldown); err != nil {
			return terminate(ReasonCancelled)
		}
		return proceed
	}
	e.update(s, func(s *session) { s.totalPages = res.TotalPages })

	for _, posting := range res.Postings {
		if c, stop := e.checkpoint(ctx, s); stop {
			return c
		}
		if c := e.applyOne(ctx, s, tk, posting); c.action == actTerminate {
			return c
		}
	}

	if c, stop := e.checkpoint(ctx, s); stop {
		return c
	}
	if page < res.TotalPages-1 {
		return advancePage
	}
	return resetAndWait
}

func (e *Engine) applyOne(ctx context.Context, s *session, tk Toolkit, posting domain.Posting) control {
	ctx, span := tracer.Start(ctx, "bot.apply")
	defer span.End()
	span.SetAttributes(telemetry.String("vacancy_id", posting.ID))

	e.emit(s, domain.CategoryInfo, fmt.Sprintf("Generating a cover letter for %q (responses: %s)...", posting.Title, responses(posting)))
	letter, err := tk.Letters.GenerateCoverLetter(ctx, posting, s.snap.SelfDescription, s.snap.DisplayName)
	if err == nil {
		if ctx.Err() != nil {
			return terminate(ReasonCancelled)
		}
		e.emit(s, domain.CategoryInfo, fmt.Sprintf("Submitting the application to %q...", posting.Title))
		err = tk.Board.SubmitApplication(ctx, posting.ID, s.snap.ResumeID, letter)
	}
	if err != nil {
		span.RecordError(err)
		return e.onApplyError(ctx, s, posting, err)
	}

	var sent int
	var reached bool
	e.update(s, func(s *session) {
		s.sent++
		sent = s.sent
		reached = s.targetReached()
	})
	e.record(ctx, s, posting, letter)
	e.emit(s, domain.CategorySuccess, fmt.Sprintf("Application sent to %q! (%d/%s)", posting.Title, sent, goal(s.snap.Target)))

	if reached {
		return proceed
	}

	d := scheduler.Uniform(e.rng, e.timing.PacingMin, e.timing.PacingMax)
	e.emit(s, domain.CategoryPause, fmt.Sprintf("Pausing %s...", humanize(d)))
	if err := e.sleep(ctx, d); err != nil {
		return terminate(ReasonCancelled)
	}
	return proceed
}

func (e *Engine) onApplyError(ctx context.Context, s *session, posting domain.Posting, err error) control {
	out := Classify(ctx, err)
	switch out.Kind {
	case KindCancelled:
		return terminate(ReasonCancelled)
	case KindFatal:
		e.update(s, func(s *session) {
			s.actionRequired = true
			s.challengeURL = out.ChallengeURL
		})
		msg := "CAPTCHA REQUIRED! The bot was stopped."
		if out.ChallengeURL != "" {
			msg += " Solve it at: " + out.ChallengeURL
		}
		e.log.Error("challenge required", zap.String("session", s.id), zap.String("vacancy_id", posting.ID))
		e.emit(s, domain.CategoryError, msg)
		return terminate(ReasonFatal)
	default:
		e.log.Info("application failed", zap.String("vacancy_id", posting.ID), zap.Error(err))
		e.emit(s, domain.CategoryError, fmt.Sprintf("Failed to apply to %q: %s", posting.Title, out.Message))
		if err := e.sleep(ctx, e.timing.ItemCooldown); err != nil {
			return terminate(ReasonCancelled)
		}
		return proceed
	}
}

func (e *Engine) finish(s *session, reason Reason) {
	e.update(s, func(s *session) { s.finishing = true })

	switch reason {
	case ReasonCancelled:
		e.emit(s, domain.CategorySpecial, "Bot stopped on request.")
	case ReasonTargetReached:
		e.emit(s, domain.CategorySpecial, fmt.Sprintf("Target of %s applications reached.", goal(s.snap.Target)))
	default:
		e.emit(s, domain.CategorySpecial, "Bot run finished.")
	}
	e.emit(s, domain.CategorySpecial, "Session ended.")

	var sent int
	e.update(s, func(s *session) {
		s.status = StatusStopped
		s.endReason = reason
		s.endedAt = e.now()
		sent = s.sent
	})

	if e.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := e.history.EndSession(ctx, s.id, string(reason), sent, e.now()); err != nil {
			e.log.Warn("record session end", zap.String("session", s.id), zap.Error(err))
		}
	}
	e.log.Info("session ended", zap.String("session", s.id), zap.String("reason", string(reason)), zap.Int("sent", sent))
}

func (e *Engine) record(ctx context.Context, s *session, posting domain.Posting, letter string) {
	if e.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	app := domain.Application{
		PostingID: posting.ID,
		Title:     posting.Title,
		Employer:  posting.Employer,
		URL:       posting.URL,
		SessionID: s.id,
		Mode:      domain.ModeBot,
		Letter:    letter,
		AppliedAt: e.now(),
	}
	if err := e.history.RecordApplication(ctx, app); err != nil {
		e.log.Warn("record application", zap.String("vacancy_id", posting.ID), zap.Error(err))
	}
}

func (e *Engine) update(s *session, fn func(*session)) {
	e.mu.Lock()
	fn(s)
	e.mu.Unlock()
}

func (e *Engine) emit(s *session, cat domain.Category, msg string) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	ev := e.appendLocked(s, cat, msg)
	e.mu.Unlock()
	e.sink.Emit(ev)
}

// appendLocked adds to the visible log only while s is the current session.
func (e *Engine) appendLocked(s *session, cat domain.Category, msg string) domain.LogEvent {
	ev := domain.LogEvent{SessionID: s.id, At: e.now(), Category: cat, Message: msg}
	if e.sess == s {
		e.entries = append(e.entries, ev)
	}
	return ev
}

func describe(err error) string {
	if de, ok := apperrors.As(err); ok {
		if de.Err != nil {
			return de.Message + ": " + de.Err.Error()
		}
		return de.Message
	}
	return err.Error()
}

func goal(target *int) string {
	if target == nil {
		return "∞"
	}
	return strconv.Itoa(*target)
}

func responses(p domain.Posting) string {
	if p.Responses == nil {
		return "N/A"
	}
	return strconv.Itoa(*p.Responses)
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d min", int(d/time.Minute))
	case d >= time.Second:
		return fmt.Sprintf("%d s", int(d.Round(time.Second)/time.Second))
	default:
		return d.String()
	}
}

package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"autoapply-engine/internal/config"
	"autoapply-engine/internal/domain"
	"autoapply-engine/internal/events"
	"autoapply-engine/internal/pipeline"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intp(n int) *int { return &n }

func testSnapshot() config.Snapshot {
	return config.Snapshot{
		Query:           "golang developer",
		Tokens:          config.Tokens{AccessToken: "hh-token", LLMKey: "llm-key"},
		ResumeID:        "resume-1",
		SelfDescription: "Backend engineer, 5 years of Go.",
		DisplayName:     "Alex",
	}
}

func vacancy(id string, responses *int) domain.Posting {
	return domain.Posting{ID: id, Title: "Go developer " + id, Employer: "Acme", Responses: responses}
}

type fakeSearch struct {
	mu      sync.Mutex
	pages   []int
	reports int
	fn      func(ctx context.Context, call, page int) (domain.PipelineResult, error)
}

func (f *fakeSearch) Run(ctx context.Context, query string, page int, report pipeline.Reporter) (domain.PipelineResult, error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	call := len(f.pages)
	f.mu.Unlock()
	for i := 0; i < f.reports; i++ {
		report(domain.CategoryInfo, "searching")
	}
	return f.fn(ctx, call, page)
}

func (f *fakeSearch) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

type fakeBoard struct {
	mu        sync.Mutex
	submitted []string
	fn        func(ctx context.Context, call int, postingID string) error
}

func (f *fakeBoard) SubmitApplication(ctx context.Context, postingID, resumeID, letter string) error {
	f.mu.Lock()
	f.submitted = append(f.submitted, postingID)
	call := len(f.submitted)
	f.mu.Unlock()
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, call, postingID)
}

func (f *fakeBoard) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

type fakeLetters struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeLetters) GenerateCoverLetter(ctx context.Context, posting domain.Posting, selfDescription, displayName string) (string, error) {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "Dear " + posting.Employer + ", regards " + displayName, nil
}

type sinkRecorder struct {
	mu     sync.Mutex
	events []domain.LogEvent
	notify chan domain.LogEvent
	onEmit func(ev domain.LogEvent)
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{notify: make(chan domain.LogEvent, 256)}
}

func (s *sinkRecorder) Emit(ev domain.LogEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	if s.onEmit != nil {
		s.onEmit(ev)
	}
	select {
	case s.notify <- ev:
	default:
	}
}

func (s *sinkRecorder) all() []domain.LogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LogEvent(nil), s.events...)
}

func (s *sinkRecorder) count(cat domain.Category) int {
	n := 0
	for _, ev := range s.all() {
		if ev.Category == cat {
			n++
		}
	}
	return n
}

func (s *sinkRecorder) index(sub string) int {
	for i, ev := range s.all() {
		if strings.Contains(ev.Message, sub) {
			return i
		}
	}
	return -1
}

// waitFor blocks until an event of cat arrives.
func (s *sinkRecorder) waitFor(t *testing.T, cat domain.Category) domain.LogEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-s.notify:
			if ev.Category == cat {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", cat)
		}
	}
}

type sleepRecorder struct {
	mu        sync.Mutex
	durations []time.Duration
	hook      func(n int, d time.Duration)
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.durations = append(r.durations, d)
	n := len(r.durations)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(n, d)
	}
	return ctx.Err()
}

func (r *sleepRecorder) all() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.durations...)
}

type fakeHistory struct {
	mu       sync.Mutex
	started  []string
	ended    map[string]string
	apps     []domain.Application
	sentSeen map[string]int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{ended: map[string]string{}, sentSeen: map[string]int{}}
}

func (h *fakeHistory) StartSession(ctx context.Context, id, query string, target *int, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, id)
	return nil
}

func (h *fakeHistory) EndSession(ctx context.Context, id, reason string, sent int, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ended[id] = reason
	h.sentSeen[id] = sent
	return nil
}

func (h *fakeHistory) RecordApplication(ctx context.Context, app domain.Application) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.apps = append(h.apps, app)
	return nil
}

type harness struct {
	search  *fakeSearch
	board   *fakeBoard
	letters *fakeLetters
	sink    *sinkRecorder
	sleeps  *sleepRecorder
	history *fakeHistory
	gate    *Gate
	engine  *Engine
}

// newHarness wires an Engine to fakes. With recordSleeps every pause returns
// at once and is recorded; otherwise the real cancellable delay is used.
func newHarness(t *testing.T, timing Timing, recordSleeps bool, extra ...Option) *harness {
	t.Helper()
	h := &harness{
		search:  &fakeSearch{},
		board:   &fakeBoard{},
		letters: &fakeLetters{},
		sink:    newSinkRecorder(),
		sleeps:  &sleepRecorder{},
		history: newFakeHistory(),
		gate:    NewGate(),
	}
	tools := func(ctx context.Context, snap config.Snapshot) (Toolkit, error) {
		return Toolkit{Search: h.search, Board: h.board, Letters: h.letters}, nil
	}
	opts := []Option{WithTiming(timing), WithHistory(h.history)}
	if recordSleeps {
		opts = append(opts, WithSleep(h.sleeps.sleep))
	}
	opts = append(opts, extra...)
	h.engine = New(tools, events.Fanout{h.sink}, h.gate, zap.NewNop(), opts...)
	return h
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.engine.Wait(ctx))
}

func fastTiming() Timing {
	return Timing{
		PacingMin:      time.Millisecond,
		PacingMax:      2 * time.Millisecond,
		ItemCooldown:   time.Millisecond,
		RetryCooldown:  time.Millisecond,
		ExhaustedPause: time.Millisecond,
		SuccessDisplay: time.Millisecond,
		ErrorDisplay:   time.Millisecond,
	}
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"autoapply-engine/internal/domain"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intp(n int) *int { return &n }

func posting(id string, responses *int) domain.Posting {
	return domain.Posting{ID: id, Title: "Vacancy " + id, Responses: responses}
}

type fakeBoard struct {
	mu          sync.Mutex
	location    domain.SearchPage
	remote      domain.SearchPage
	locationErr error
	remoteErr   error
	details     map[string]domain.Posting
	detailCalls [][]string
	searchCalls int
}

func (b *fakeBoard) SearchByLocation(ctx context.Context, text string, page int) (domain.SearchPage, error) {
	b.mu.Lock()
	b.searchCalls++
	b.mu.Unlock()
	return b.location, b.locationErr
}

func (b *fakeBoard) SearchByRemote(ctx context.Context, text string, page int) (domain.SearchPage, error) {
	b.mu.Lock()
	b.searchCalls++
	b.mu.Unlock()
	return b.remote, b.remoteErr
}

func (b *fakeBoard) FetchDetails(ctx context.Context, ids []string) []domain.Posting {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detailCalls = append(b.detailCalls, ids)
	var out []domain.Posting
	for _, id := range ids {
		if p, ok := b.details[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

type fakeModel struct {
	expanded     string
	expandErr    error
	relevance    llm.RelevanceSet
	relevanceErr error
	onExpand     func()

	gotCandidates []domain.Candidate
	gotQuery      string
	filterCalls   int
}

func (m *fakeModel) ExpandQuery(ctx context.Context, text string) (string, error) {
	if m.onExpand != nil {
		m.onExpand()
	}
	return m.expanded, m.expandErr
}

func (m *fakeModel) FilterRelevant(ctx context.Context, candidates []domain.Candidate, query string) (llm.RelevanceSet, error) {
	m.filterCalls++
	m.gotCandidates = candidates
	m.gotQuery = query
	return m.relevance, m.relevanceErr
}

func keepAll(ids ...string) llm.RelevanceSet {
	set := llm.RelevanceSet{IDs: map[string]struct{}{}}
	for _, id := range ids {
		set.IDs[id] = struct{}{}
	}
	return set
}

type recorder struct {
	events []domain.LogEvent
}

func (r *recorder) report(c domain.Category, msg string) {
	r.events = append(r.events, domain.LogEvent{Category: c, Message: msg})
}

func (r *recorder) contains(sub string) bool {
	for _, e := range r.events {
		if strings.Contains(e.Message, sub) {
			return true
		}
	}
	return false
}

func detailsFor(ps ...domain.Posting) map[string]domain.Posting {
	m := map[string]domain.Posting{}
	for _, p := range ps {
		m[p.ID] = p
	}
	return m
}

func TestRunHappyPath(t *testing.T) {
	applied := posting("x", nil)
	applied.HasNegotiations = true

	board := &fakeBoard{
		location: domain.SearchPage{Postings: []domain.Posting{posting("a", nil), posting("b", nil), applied}, TotalPages: 3},
		remote:   domain.SearchPage{Postings: []domain.Posting{posting("b", nil), posting("c", nil)}, TotalPages: 5},
		details:  detailsFor(posting("a", nil), posting("b", intp(7)), posting("c", intp(2))),
	}
	model := &fakeModel{expanded: `"go" OR "golang"`, relevance: keepAll("a", "b", "c")}
	p := New(board, model, zap.NewNop())

	res, err := p.Run(context.Background(), "go", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalPages)

	var ids []string
	for _, posting := range res.Postings {
		ids = append(ids, posting.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	// relevance sees titles of unapplied postings only, with the original query
	assert.Equal(t, "go", model.gotQuery)
	assert.Equal(t, []domain.Candidate{{ID: "a", Title: "Vacancy a"}, {ID: "b", Title: "Vacancy b"}, {ID: "c", Title: "Vacancy c"}}, model.gotCandidates)
	require.Len(t, board.detailCalls, 1)
	assert.Equal(t, []string{"a", "b", "c"}, board.detailCalls[0])
}

func TestRunExpansionFailure(t *testing.T) {
	board := &fakeBoard{}
	model := &fakeModel{expandErr: errors.New("bad key")}

	_, err := New(board, model, zap.NewNop()).Run(context.Background(), "go", 0, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeQueryExpansion))
	assert.Zero(t, board.searchCalls)
}

func TestRunOnePartitionFails(t *testing.T) {
	board := &fakeBoard{
		locationErr: errors.New("timeout"),
		remote:      domain.SearchPage{Postings: []domain.Posting{posting("r", intp(1))}, TotalPages: 2},
		details:     detailsFor(posting("r", intp(1))),
	}
	model := &fakeModel{expanded: `"go"`, relevance: keepAll("r")}

	res, err := New(board, model, zap.NewNop()).Run(context.Background(), "go", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Postings, 1)
}

func TestRunBothPartitionsFail(t *testing.T) {
	board := &fakeBoard{locationErr: errors.New("a"), remoteErr: errors.New("b")}
	model := &fakeModel{expanded: `"go"`}

	_, err := New(board, model, zap.NewNop()).Run(context.Background(), "go", 0, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFetch))
}

func TestRunAllAppliedKeepsPageCount(t *testing.T) {
	applied := posting("a", nil)
	applied.HasNegotiations = true
	board := &fakeBoard{location: domain.SearchPage{Postings: []domain.Posting{applied}, TotalPages: 4}}
	model := &fakeModel{expanded: `"go"`}

	res, err := New(board, model, zap.NewNop()).Run(context.Background(), "go", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Equal(t, 4, res.TotalPages)
	assert.Zero(t, model.filterCalls)
	assert.Empty(t, board.detailCalls)
}

func TestRunEmptyRelevanceSet(t *testing.T) {
	board := &fakeBoard{location: domain.SearchPage{Postings: []domain.Posting{posting("a", nil)}, TotalPages: 1}}
	model := &fakeModel{expanded: `"go"`, relevance: keepAll()}

	res, err := New(board, model, zap.NewNop()).Run(context.Background(), "go", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Equal(t, 1, res.TotalPages)
	assert.Empty(t, board.detailCalls)
}

func TestRunRelevanceDegraded(t *testing.T) {
	for name, model := range map[string]*fakeModel{
		"call error": {expanded: `"go"`, relevanceErr: errors.New("boom")},
		"unparsable": {expanded: `"go"`, relevance: llm.DecodeRelevance("not json", nil)},
	} {
		t.Run(name, func(t *testing.T) {
			all := []domain.Posting{posting("a", intp(3)), posting("b", intp(1))}
			board := &fakeBoard{
				location: domain.SearchPage{Postings: all, TotalPages: 1},
				details:  detailsFor(all...),
			}
			rec := &recorder{}

			res, err := New(board, model, zap.NewNop()).Run(context.Background(), "go", 0, rec.report)
			require.NoError(t, err)
			require.Len(t, board.detailCalls, 1)
			assert.Equal(t, []string{"a", "b"}, board.detailCalls[0])
			assert.Len(t, res.Postings, 2)
			assert.True(t, rec.contains("Relevance filter unavailable"))
		})
	}
}

func TestRunCancelledBeforeFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	board := &fakeBoard{}
	model := &fakeModel{expanded: `"go"`, onExpand: cancel}

	_, err := New(board, model, zap.NewNop()).Run(ctx, "go", 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, board.searchCalls)
	assert.Empty(t, board.detailCalls)
}

func TestRunEmptyQuery(t *testing.T) {
	board := &fakeBoard{}
	model := &fakeModel{expanded: ""}
	res, err := New(board, model, zap.NewNop()).Run(context.Background(), "", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Zero(t, board.searchCalls)
}

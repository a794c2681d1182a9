package pipeline

import (
	"context"
	"fmt"

	"autoapply-engine/internal/domain"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/llm"
	"autoapply-engine/internal/telemetry"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = telemetry.GetTracer("autoapply-engine/pipeline")

// Board is the job-board half of the pipeline.
type Board interface {
	SearchByLocation(ctx context.Context, text string, page int) (domain.SearchPage, error)
	SearchByRemote(ctx context.Context, text string, page int) (domain.SearchPage, error)
	FetchDetails(ctx context.Context, ids []string) []domain.Posting
}

// Model is the language-model half of the pipeline.
type Model interface {
	ExpandQuery(ctx context.Context, text string) (string, error)
	FilterRelevant(ctx context.Context, candidates []domain.Candidate, query string) (llm.RelevanceSet, error)
}

// Reporter receives human-readable progress lines.
type Reporter func(category domain.Category, message string)

func nopReporter(domain.Category, string) {}

type Pipeline struct {
	board Board
	model Model
	log   *zap.Logger
}

func New(board Board, model Model, logger *zap.Logger) *Pipeline {
	return &Pipeline{board: board, model: model, log: logger.Named("pipeline")}
}

// Run produces the ranked, unapplied, relevant postings for one page of
// query. Every stage that yields nothing ends the run with an empty list and
// the page count seen so far.
func (p *Pipeline) Run(ctx context.Context, query string, page int, report Reporter) (domain.PipelineResult, error) {
	if report == nil {
		report = nopReporter
	}

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(telemetry.String("query", query), telemetry.Int("page", page))

	res, err := p.run(ctx, query, page, report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PipelineResult{}, err
	}
	span.SetAttributes(telemetry.Int("postings", len(res.Postings)), telemetry.Int("total_pages", res.TotalPages))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, query string, page int, report Reporter) (domain.PipelineResult, error) {
	// 1. expansion
	if err := ctx.Err(); err != nil {
		return domain.PipelineResult{}, err
	}
	report(domain.CategoryInfo, "Expanding the search query...")
	expanded, err := p.model.ExpandQuery(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return domain.PipelineResult{}, ctx.Err()
		}
		return domain.PipelineResult{}, apperrors.QueryExpansion("query expansion failed", err)
	}
	if expanded == "" {
		return domain.PipelineResult{}, nil
	}

	// 2. partitioned fetch
	if err := ctx.Err(); err != nil {
		return domain.PipelineResult{}, err
	}
	report(domain.CategoryInfo, fmt.Sprintf("Searching vacancies (location + remote) for: %s", expanded))
	merged, totalPages, err := p.fetchPartitions(ctx, expanded, page)
	if err != nil {
		return domain.PipelineResult{}, err
	}
	if len(merged) == 0 {
		report(domain.CategoryInfo, "No vacancies found on this page.")
		return domain.PipelineResult{TotalPages: totalPages}, nil
	}

	// 3. applied filter
	unapplied := make([]domain.Posting, 0, len(merged))
	for _, posting := range merged {
		if !posting.HasNegotiations {
			unapplied = append(unapplied, posting)
		}
	}
	report(domain.CategoryInfo, fmt.Sprintf("Found %d vacancies, %d not applied to yet.", len(merged), len(unapplied)))
	if len(unapplied) == 0 {
		return domain.PipelineResult{TotalPages: totalPages}, nil
	}

	// 4. relevance filter on titles, against the original query
	if err := ctx.Err(); err != nil {
		return domain.PipelineResult{}, err
	}
	relevant, err := p.filterRelevant(ctx, unapplied, query, report)
	if err != nil {
		return domain.PipelineResult{}, err
	}
	if len(relevant) == 0 {
		report(domain.CategoryInfo, "No relevant vacancies left after filtering.")
		return domain.PipelineResult{TotalPages: totalPages}, nil
	}
	report(domain.CategoryInfo, fmt.Sprintf("%d relevant vacancies after filtering.", len(relevant)))

	// 5. details
	if err := ctx.Err(); err != nil {
		return domain.PipelineResult{}, err
	}
	ids := make([]string, len(relevant))
	for i, posting := range relevant {
		ids[i] = posting.ID
	}
	report(domain.CategoryInfo, "Fetching details to rank by popularity...")
	detailed := p.board.FetchDetails(ctx, ids)
	if err := ctx.Err(); err != nil {
		return domain.PipelineResult{}, err
	}
	if dropped := len(ids) - len(detailed); dropped > 0 {
		p.log.Debug("details dropped", zap.Int("dropped", dropped))
	}

	// 6. ranking
	Rank(detailed)
	return domain.PipelineResult{Postings: detailed, TotalPages: totalPages}, nil
}

// fetchPartitions searches both partitions concurrently. One failing is
// tolerated; both failing fails the stage.
func (p *Pipeline) fetchPartitions(ctx context.Context, text string, page int) ([]domain.Posting, int, error) {
	var (
		location, remote       domain.SearchPage
		locationErr, remoteErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		location, locationErr = p.board.SearchByLocation(ctx, text, page)
		return nil
	})
	g.Go(func() error {
		remote, remoteErr = p.board.SearchByRemote(ctx, text, page)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if locationErr != nil && remoteErr != nil {
		return nil, 0, apperrors.Fetch("both search partitions failed", fmt.Errorf("location: %v; remote: %w", locationErr, remoteErr))
	}
	if locationErr != nil {
		p.log.Warn("location partition failed", zap.Error(locationErr))
	}
	if remoteErr != nil {
		p.log.Warn("remote partition failed", zap.Error(remoteErr))
	}

	merged := Merge(location.Postings, remote.Postings)
	return merged, max(location.TotalPages, remote.TotalPages), nil
}

func (p *Pipeline) filterRelevant(ctx context.Context, postings []domain.Posting, query string, report Reporter) ([]domain.Posting, error) {
	candidates := make([]domain.Candidate, len(postings))
	for i, posting := range postings {
		candidates[i] = posting.Candidate()
	}

	report(domain.CategoryInfo, "Filtering vacancies by title relevance...")
	set, err := p.model.FilterRelevant(ctx, candidates, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		set = llm.Degraded(err.Error())
	}
	if set.Degraded {
		p.log.Warn("relevance filter degraded", zap.String("reason", set.Reason))
		report(domain.CategoryInfo, "Relevance filter unavailable, keeping all vacancies.")
		return postings, nil
	}

	out := make([]domain.Posting, 0, len(postings))
	for _, posting := range postings {
		if set.Keep(posting.ID) {
			out = append(out, posting)
		}
	}
	return out, nil
}

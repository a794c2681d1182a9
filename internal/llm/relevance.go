package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"autoapply-engine/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// RelevanceSet is the decoded answer of the relevance filter. A degraded set
// keeps every candidate.
type RelevanceSet struct {
	IDs      map[string]struct{}
	Degraded bool
	Reason   string
}

func Degraded(reason string) RelevanceSet {
	return RelevanceSet{Degraded: true, Reason: reason}
}

func (r RelevanceSet) Keep(id string) bool {
	if r.Degraded {
		return true
	}
	_, ok := r.IDs[id]
	return ok
}

// Empty reports a valid answer that selected nothing.
func (r RelevanceSet) Empty() bool {
	return !r.Degraded && len(r.IDs) == 0
}

// FilterRelevant asks the model which titles match the original query. Only
// cancellation is returned as an error; any other failure degrades.
func (c *Client) FilterRelevant(ctx context.Context, candidates []domain.Candidate, query string) (RelevanceSet, error) {
	if len(candidates) == 0 {
		return RelevanceSet{IDs: map[string]struct{}{}}, nil
	}

	var b strings.Builder
	for _, cand := range candidates {
		fmt.Fprintf(&b, "ID: %s, Title: %q\n", cand.ID, cand.Title)
	}
	user := fmt.Sprintf("Original user query: %q\n\nVacancy list:\n%s", query, b.String())

	out, err := c.complete(ctx, relevanceSystemPrompt, user,
		llms.WithTemperature(0.1),
		llms.WithJSONMode(),
	)
	if err != nil {
		if ctx.Err() != nil {
			return RelevanceSet{}, ctx.Err()
		}
		c.log.Warn("relevance filter call failed", zap.Error(err))
		return Degraded("model call failed: " + err.Error()), nil
	}
	return DecodeRelevance(out, candidates), nil
}

// DecodeRelevance validates a raw model reply against the candidates. Ids the
// model invented are ignored.
func DecodeRelevance(raw string, candidates []domain.Candidate) RelevanceSet {
	raw = stripFences(raw)
	if raw == "" {
		return Degraded("empty response")
	}

	var body struct {
		IDs *[]any `json:"relevantVacancyIds"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return Degraded("unparsable response: " + err.Error())
	}
	if body.IDs == nil {
		return Degraded("response has no relevantVacancyIds array")
	}

	known := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		known[cand.ID] = struct{}{}
	}

	ids := make(map[string]struct{})
	for _, v := range *body.IDs {
		var id string
		switch t := v.(type) {
		case string:
			id = strings.TrimSpace(t)
		case float64:
			id = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			continue
		}
		if _, ok := known[id]; ok {
			ids[id] = struct{}{}
		}
	}
	return RelevanceSet{IDs: ids}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package llm

import (
	"context"
	"fmt"
	"strings"

	apperrors "autoapply-engine/internal/errors"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// ExpandQuery turns a free-text query into a disjunction of quoted synonyms.
// A reply that is not such a disjunction falls back to the quoted query.
func (c *Client) ExpandQuery(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	key := "expand:" + strings.ToLower(text)
	if c.cache != nil {
		if v, err := c.cache.Get(ctx, key); err == nil && v != "" {
			return v, nil
		}
	}

	out, err := c.complete(ctx, expandSystemPrompt, fmt.Sprintf("Expand this query: %q", text),
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(1024),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.Upstream("llm: expand query", err)
	}

	expanded := acceptExpansion(out, text)
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, expanded, c.cacheTTL); err != nil {
			c.log.Warn("expansion cache set failed", zap.Error(err))
		}
	}
	return expanded, nil
}

func acceptExpansion(out, text string) string {
	if strings.Contains(out, " OR ") && strings.HasPrefix(out, `"`) {
		return out
	}
	return `"` + text + `"`
}

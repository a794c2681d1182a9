package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoapply-engine/internal/cache"
	"autoapply-engine/internal/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// NewModel builds the langchaingo model for the configured provider. Groq is
// reached through its OpenAI-compatible endpoint.
func NewModel(ctx context.Context, cfg config.Config, apiKey string) (llms.Model, error) {
	switch cfg.LLM.Provider {
	case "googleai":
		m, err := googleai.New(ctx,
			googleai.WithAPIKey(apiKey),
			googleai.WithDefaultModel(cfg.LLM.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("googleai: %w", err)
		}
		return m, nil
	case "openai":
		m, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(cfg.LLM.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		return m, nil
	default:
		base := cfg.LLM.BaseURL
		if base == "" {
			base = config.Default().LLM.BaseURL
		}
		m, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(cfg.LLM.Model),
			openai.WithBaseURL(base),
		)
		if err != nil {
			return nil, fmt.Errorf("groq: %w", err)
		}
		return m, nil
	}
}

// Client is the language-model collaborator: query expansion, relevance
// filtering and cover letters.
type Client struct {
	model    llms.Model
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// New wraps model. c may be nil to disable the expansion cache.
func New(model llms.Model, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{
		model:    model,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      logger.Named("llm"),
	}
}

func (c *Client) complete(ctx context.Context, system, user string, opts ...llms.CallOption) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := c.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

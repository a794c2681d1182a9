package llm

import (
	"context"
	"fmt"
	"strings"

	"autoapply-engine/internal/domain"
	apperrors "autoapply-engine/internal/errors"

	"github.com/tmc/langchaingo/llms"
)

var highlightTags = strings.NewReplacer("<highlighttext>", "", "</highlighttext>", "")

// GenerateCoverLetter writes a letter for posting signed with displayName.
func (c *Client) GenerateCoverLetter(ctx context.Context, posting domain.Posting, selfDescription, displayName string) (string, error) {
	req := "No specific requirements listed."
	if r := highlightTags.Replace(posting.Snippet.Requirement); strings.TrimSpace(r) != "" {
		req = "Key requirements: " + r
	}

	user := fmt.Sprintf(coverLetterUserPrompt, displayName, selfDescription, posting.Title, posting.Employer, req)
	out, err := c.complete(ctx, coverLetterSystemPrompt, user,
		llms.WithTemperature(0.5),
		llms.WithMaxTokens(1500),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.Upstream("llm: cover letter", err)
	}

	letter := strings.TrimSpace(highlightTags.Replace(out))
	if letter == "" {
		return "", apperrors.Upstream("llm returned an empty cover letter", nil)
	}
	return letter, nil
}

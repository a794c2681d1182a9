package hh

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// SubmitApplication posts a negotiation (an application) with a cover letter.
func (c *Client) SubmitApplication(ctx context.Context, postingID, resumeID, letter string) error {
	q := url.Values{}
	q.Set("vacancy_id", postingID)
	q.Set("resume_id", resumeID)
	q.Set("message", letter)

	if err := c.do(ctx, http.MethodPost, "/negotiations", q, nil); err != nil {
		return err
	}
	c.log.Info("application submitted", zap.String("vacancy_id", postingID))
	return nil
}

// ListResumes returns the token owner's resumes.
func (c *Client) ListResumes(ctx context.Context) ([]Resume, error) {
	var list resumeList
	if err := c.do(ctx, http.MethodGet, "/resumes/mine", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

package hh

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"autoapply-engine/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SearchByLocation searches the configured area partition.
func (c *Client) SearchByLocation(ctx context.Context, text string, page int) (domain.SearchPage, error) {
	return c.search(ctx, text, page, "area", c.opts.AreaID)
}

// SearchByRemote searches the remote-schedule partition.
func (c *Client) SearchByRemote(ctx context.Context, text string, page int) (domain.SearchPage, error) {
	return c.search(ctx, text, page, "schedule", "remote")
}

func (c *Client) search(ctx context.Context, text string, page int, key, value string) (domain.SearchPage, error) {
	q := url.Values{}
	q.Set("text", text)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.opts.PerPage))
	q.Set(key, value)

	var list vacancyList
	if err := c.do(ctx, http.MethodGet, "/vacancies", q, &list); err != nil {
		return domain.SearchPage{}, err
	}

	c.log.Debug("search page",
		zap.String(key, value),
		zap.Int("page", page),
		zap.Int("items", len(list.Items)),
		zap.Int("pages", list.Pages))

	return domain.SearchPage{Postings: toPostings(list.Items), TotalPages: list.Pages}, nil
}

// FetchDetail loads one vacancy with its counters.
func (c *Client) FetchDetail(ctx context.Context, id string) (domain.Posting, error) {
	var v vacancy
	if err := c.do(ctx, http.MethodGet, "/vacancies/"+id, nil, &v); err != nil {
		return domain.Posting{}, err
	}
	return v.toPosting(), nil
}

// FetchDetails loads every id concurrently. Ids that fail are dropped; the
// rest keep their input order.
func (c *Client) FetchDetails(ctx context.Context, ids []string) []domain.Posting {
	slots := make([]*domain.Posting, len(ids))

	var g errgroup.Group
	g.SetLimit(c.opts.DetailWorkers)

	for i, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			p, err := c.FetchDetail(ctx, id)
			if err != nil {
				c.log.Debug("detail fetch dropped", zap.String("id", id), zap.Error(err))
				return nil
			}
			slots[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Posting, 0, len(ids))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

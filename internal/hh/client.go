package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autoapply-engine/internal/config"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/util"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type Options struct {
	BaseURL       string
	UserAgent     string
	AreaID        string
	PerPage       int
	DetailWorkers int
	Timeout       time.Duration
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		BaseURL:       cfg.HH.BaseURL,
		UserAgent:     cfg.HH.UserAgent,
		AreaID:        cfg.Search.AreaID,
		PerPage:       cfg.Search.PerPage,
		DetailWorkers: cfg.HH.DetailWorkers,
		Timeout:       time.Duration(cfg.HH.TimeoutSeconds) * time.Second,
	}
}

// Client talks to the hh.ru REST API on behalf of one access token.
type Client struct {
	opts    Options
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.Logger
}

func New(opts Options, accessToken string, limiter *util.HostLimiter, logger *zap.Logger) *Client {
	if opts.PerPage <= 0 {
		opts.PerPage = 20
	}
	if opts.DetailWorkers <= 0 {
		opts.DetailWorkers = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = opts.Timeout

	return &Client{
		opts:    opts,
		hc:      hc,
		limiter: limiter,
		log:     logger.Named("hh"),
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	if err := c.limiter.WaitURL(ctx, u); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.RateLimit("hh limiter", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return apperrors.Internal("hh request", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.Unavailable(fmt.Sprintf("hh %s %s", method, path), err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperrors.Upstream(fmt.Sprintf("hh decode %s", path), err)
	}
	return nil
}

// Package judge talks to the external judging platform. It owns the only
// process-wide shared mutable state in the system: the submission cache,
// the in-flight request group, and the upstream rate limiter.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// Client is the read surface the rest of the system needs from the judge.
type Client interface {
	// Submissions returns a user's recent submissions, newest first.
	Submissions(ctx context.Context, handle string) ([]Submission, error)
	// Problemset returns the full problem catalog.
	Problemset(ctx context.Context) ([]CatalogProblem, error)
	// Solved returns the set of problem keys the handle has accepted verdicts for.
	Solved(ctx context.Context, handle string) (map[string]struct{}, error)
}

// HTTPClient implements Client against the judge's REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics metrics.FeedMetrics
}

// ClientOptions configures the HTTP client.
type ClientOptions struct {
	BaseURL        string
	RequestSpacing time.Duration
	Timeout        time.Duration
}

// NewHTTPClient builds a judge client. RequestSpacing is the minimum delay
// between the start of successive upstream requests, shared by all callers.
func NewHTTPClient(opts ClientOptions, logger *slog.Logger, m metrics.FeedMetrics) *HTTPClient {
	spacing := opts.RequestSpacing
	if spacing <= 0 {
		spacing = 250 * time.Millisecond
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPClient{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		logger:  logger,
		metrics: m,
	}
}

// envelope is the judge API's response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

type problemsetResult struct {
	Problems []CatalogProblem `json:"problems"`
}

func (c *HTTPClient) Submissions(ctx context.Context, handle string) ([]Submission, error) {
	var subs []Submission
	q := url.Values{"handle": {handle}, "count": {"100"}}
	if err := c.get(ctx, "user.status", q, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *HTTPClient) Problemset(ctx context.Context) ([]CatalogProblem, error) {
	var result problemsetResult
	if err := c.get(ctx, "problemset.problems", nil, &result); err != nil {
		return nil, err
	}
	return result.Problems, nil
}

func (c *HTTPClient) Solved(ctx context.Context, handle string) (map[string]struct{}, error) {
	var subs []Submission
	q := url.Values{"handle": {handle}}
	if err := c.get(ctx, "user.status", q, &subs); err != nil {
		return nil, err
	}
	solved := make(map[string]struct{})
	for _, s := range subs {
		if s.Verdict == VerdictOK {
			solved[s.Problem.Key()] = struct{}{}
		}
	}
	return solved, nil
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	// The limiter enforces start-to-start spacing across all endpoints, so
	// concurrent pollers never hammer the upstream.
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	u := c.baseURL + "/" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.RecordUpstreamDuration(ctx, endpoint, time.Since(start))
	if err != nil {
		c.metrics.RecordUpstreamError(ctx, endpoint)
		return fmt.Errorf("upstream %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		c.metrics.RecordUpstreamError(ctx, endpoint)
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordUpstreamError(ctx, endpoint)
		return fmt.Errorf("upstream %s returned %d", endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.metrics.RecordUpstreamError(ctx, endpoint)
		return fmt.Errorf("decode %s envelope: %w", endpoint, err)
	}
	if env.Status != "OK" {
		c.metrics.RecordUpstreamError(ctx, endpoint)
		c.logger.WarnContext(ctx, "Judge API rejected request",
			attr.String("endpoint", endpoint),
			attr.String("comment", env.Comment),
		)
		return fmt.Errorf("upstream %s status %q: %s", endpoint, env.Status, env.Comment)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		c.metrics.RecordUpstreamError(ctx, endpoint)
		return fmt.Errorf("decode %s result: %w", endpoint, err)
	}
	return nil
}

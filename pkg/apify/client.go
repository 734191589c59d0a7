// Package apify runs Apify actors synchronously and returns their dataset
// items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/resilience"
)

// DefaultBaseURL is the public Apify API host.
const DefaultBaseURL = "https://api.apify.com"

// Client runs actors and collects their dataset items.
type Client interface {
	// RunSync starts an actor with input and blocks until its dataset is
	// available. A response body that is not a JSON array yields no items.
	RunSync(ctx context.Context, actorID string, input any, opts ...RunOption) ([]Item, error)
}

// RunError is an actor run that failed permanently or ran out of attempts.
type RunError struct {
	ActorID    string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("apify: run %s failed after %d attempt(s): %v", e.ActorID, e.Attempts, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// RunOption configures a single actor run.
type RunOption func(*runOpts)

type runOpts struct {
	waitForFinish int
}

// WithWaitForFinish sets how many seconds the API waits for the run to
// finish before answering.
func WithWaitForFinish(secs int) RunOption {
	return func(o *runOpts) {
		o.waitForFinish = secs
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API host (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. Synchronous runs can take
// minutes.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

// WithRateLimit paces requests to the API. A zero rate disables pacing.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithCircuitBreaker fails runs fast, per actor, once an actor keeps
// failing transiently. Rejected runs are not retried.
func WithCircuitBreaker(cfg resilience.BreakerConfig) Option {
	return func(c *httpClient) {
		c.breakers = resilience.NewBreakers(cfg)
	}
}

type httpClient struct {
	token    string
	baseURL  string
	http     *http.Client
	policy   resilience.Policy
	limiter  *rate.Limiter
	breakers *resilience.Breakers
}

// NewClient creates an Apify client authenticating with token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 600 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy:  resilience.DefaultPolicy(),
		limiter: rate.NewLimiter(2, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) RunSync(ctx context.Context, actorID string, input any, opts ...RunOption) ([]Item, error) {
	ro := runOpts{waitForFinish: 600}
	for _, opt := range opts {
		opt(&ro)
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "apify: marshal input")
	}

	q := url.Values{}
	q.Set("token", c.token)
	q.Set("waitForFinish", strconv.Itoa(ro.waitForFinish))
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?%s", c.baseURL, url.PathEscape(actorID), q.Encode())

	policy := c.policy
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.LogRetry(actorID)
	}

	var breaker *resilience.Breaker
	if c.breakers != nil {
		breaker = c.breakers.Get(actorID)
	}

	start := time.Now()
	var lastStatus int
	items, attempts, err := resilience.Do(ctx, policy, func(ctx context.Context) ([]Item, error) {
		if breaker == nil {
			items, status, err := c.post(ctx, endpoint, payload)
			lastStatus = status
			return items, err
		}

		if err := breaker.Allow(); err != nil {
			return nil, eris.Wrapf(err, "apify: actor %s", actorID)
		}
		items, status, err := c.post(ctx, endpoint, payload)
		lastStatus = status
		if ctx.Err() != nil {
			breaker.Abandon()
		} else {
			breaker.Record(err)
		}
		return items, err
	})
	if err != nil {
		return nil, &RunError{ActorID: actorID, Attempts: attempts, StatusCode: lastStatus, Err: err}
	}

	zap.L().Debug("apify: actor run complete",
		zap.String("actor", actorID),
		zap.Int("items", len(items)),
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return items, nil
}

// post performs one attempt. Transport failures and retryable statuses come
// back as resilience.TransientError.
func (c *httpClient) post(ctx context.Context, endpoint string, payload []byte) ([]Item, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "apify: rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, eris.Wrap(err, "apify: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, eris.Wrap(err, "apify: send request")
		}
		return nil, 0, resilience.NewTransientError(eris.Wrap(err, "apify: send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resilience.NewTransientError(eris.Wrap(err, "apify: read response"), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := eris.Errorf("apify: unexpected status %d: %s", resp.StatusCode, truncate(body, 300))
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resp.StatusCode, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, resp.StatusCode, statusErr
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, resp.StatusCode, resilience.NewTransientError(err, resp.StatusCode)
	}
	return items, resp.StatusCode, nil
}

// decodeItems parses a dataset body. Anything other than a JSON array is
// treated as an empty dataset; array entries that are not objects are
// dropped.
func decodeItems(body []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []Item{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "apify: decode dataset")
	}

	items := make([]Item, 0, len(raw))
	for _, el := range raw {
		if obj, ok := el.(map[string]any); ok {
			items = append(items, Item(obj))
		}
	}
	return items, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

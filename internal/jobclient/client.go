// Package jobclient issues requests to the six-hats analysis service. Each
// operation is a single request/response exchange without retries.
package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fakeyudi/hats/internal/session"
)

// maxErrorBody caps how much of a non-2xx body is kept for diagnostics.
const maxErrorBody = 4 << 10

// Client talks to the analysis service rooted at a base URL such as
// http://127.0.0.1:8000/api.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no client-side timeout. The
// timeout is set on a copy of the HTTP client, so a client passed to
// WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger for request/response debug lines.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for base.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.base }

// CreateSession registers a new analysis session and returns its id.
func (c *Client) CreateSession(ctx context.Context, in session.Input) (string, error) {
	const op = "create session"
	body := createSessionRequest{
		ProblemStatement:  in.ProblemStatement,
		BackgroundContext: in.BackgroundContext,
	}
	var out createSessionResponse
	if err := c.do(ctx, op, http.MethodPost, "/sessions", body, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", &TransportError{Op: op, Sentinel: ErrBadResponse, Detail: "missing session_id"}
	}
	return out.SessionID, nil
}

// StartAnalysis launches the multi-perspective analysis for id.
func (c *Client) StartAnalysis(ctx context.Context, id string) error {
	return c.do(ctx, "start analysis", http.MethodPost, sessionPath(id, "analyze"), nil, nil)
}

// FetchProgress returns the current status of id. A "failed" status is a
// normal response.
func (c *Client) FetchProgress(ctx context.Context, id string) (session.Progress, error) {
	const op = "fetch progress"
	var out progressResponse
	if err := c.do(ctx, op, http.MethodGet, sessionPath(id, "progress"), nil, &out); err != nil {
		return session.Progress{}, err
	}
	p, err := out.toProgress()
	if err != nil {
		return session.Progress{}, &TransportError{Op: op, Sentinel: ErrBadResponse, Err: err}
	}
	return p, nil
}

// FetchResults returns the result bundle of a completed session.
func (c *Client) FetchResults(ctx context.Context, id string) (*session.ResultBundle, error) {
	const op = "fetch results"
	var out resultsResponse
	if err := c.do(ctx, op, http.MethodGet, sessionPath(id, "results"), nil, &out); err != nil {
		return nil, err
	}
	b, err := out.toBundle()
	if err != nil {
		return nil, &TransportError{Op: op, Sentinel: ErrBadResponse, Err: err}
	}
	if b.SessionID == "" {
		b.SessionID = id
	}
	return b, nil
}

// Health checks that the service is reachable and answering.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health check", http.MethodGet, "/health", nil, nil)
}

func sessionPath(id, action string) string {
	return "/sessions/" + url.PathEscape(id) + "/" + action
}

// do performs one exchange. in is JSON-encoded when non-nil; a 2xx body is
// decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &TransportError{Op: op, Sentinel: ErrUnavailable, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("op", op).Str("request_id", reqID).Err(err).Msg("request failed")
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			err = ctxErr
		}
		return &TransportError{Op: op, Sentinel: ErrUnavailable, Err: err}
	}
	defer res.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Str("request_id", reqID).
		Int("status", res.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("service exchange")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &TransportError{
			Op:       op,
			Sentinel: statusSentinel(res.StatusCode),
			Status:   res.StatusCode,
			Detail:   detailText(raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Sentinel: ErrBadResponse, Status: res.StatusCode, Err: err}
	}
	return nil
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/dmitrijs2005/mediaxfer/internal/logging"
	"github.com/dmitrijs2005/mediaxfer/internal/netx"
	"github.com/dustin/go-humanize"
)

// Metrics receives pipeline events. internal/metrics provides the
// prometheus-backed implementation.
type Metrics interface {
	ObserveAttempt(outcome string)
	ObserveRetry()
	ObserveResult(kind string, bytes int64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAttempt(string)       {}
func (noopMetrics) ObserveRetry()               {}
func (noopMetrics) ObserveResult(string, int64) {}

// Attempt outcomes as reported to Metrics.
const (
	AttemptOK          = "ok"
	AttemptTimeout     = "timeout"
	AttemptServerError = "server_error"
	AttemptUnresolved  = "unresolved"
	AttemptNetwork     = "network"
	AttemptNoResult    = "no_result"
	AttemptBadResponse = "bad_response"
)

// Client runs the media transfer pipeline against one backend.
type Client struct {
	baseURL   *url.URL
	tokens    TokenProvider
	transport FileTransport
	builder   *RequestBuilder
	http      netx.Doer
	log       logging.Logger
	retry     RetryPolicy
	timeout   time.Duration
	metrics   Metrics
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient. Its own Timeout, if any, adds
// to the per-attempt timeout.
func WithHTTPClient(d netx.Doer) Option {
	return func(c *Client) { c.http = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithTimeout sets the per-attempt timeout (180s by default).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithMetrics(m Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client for the backend at baseURL. tokens may be nil, then
// every request is anonymous.
func New(baseURL string, tokens TokenProvider, transport FileTransport, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if transport == nil {
		return nil, errors.New("file transport is required")
	}
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) (string, bool) { return "", false })
	}

	c := &Client{
		baseURL:   u,
		tokens:    tokens,
		transport: transport,
		builder:   NewRequestBuilder(transport),
		http:      http.DefaultClient,
		log:       logging.Discard(),
		retry:     DefaultRetryPolicy(),
		timeout:   common.DefaultRequestTimeout,
		metrics:   noopMetrics{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout <= 0 {
		c.timeout = common.DefaultRequestTimeout
	}
	return c, nil
}

// attemptResult is a classified response whose context is still alive.
type attemptResult struct {
	ctx      context.Context
	cancel   context.CancelFunc
	outcome  Outcome
	filename string
}

func (a *attemptResult) close() {
	if d, ok := a.outcome.(DirectResult); ok && d.Body != nil {
		_ = d.Body.Close()
	}
	a.cancel()
}

// ProcessMedia uploads spec to the backend and materializes the processed
// file through the transport.
//
// Token lookup, request building, the POST and response classification form
// one attempt, repeated according to the retry policy. Only the last
// attempt's error is returned. Materialization runs once, after a successful
// attempt, and its failures are final.
func (c *Client) ProcessMedia(ctx context.Context, spec UploadSpec) (ProcessingResult, error) {
	target, err := c.endpointURL(spec.Endpoint)
	if err != nil {
		return ProcessingResult{}, err
	}

	log := c.log.With("endpoint", spec.Endpoint)

	var att *attemptResult
	err = c.retry.Do(ctx, func(ctx context.Context, n int) error {
		r, err := c.attempt(ctx, target, spec)
		c.metrics.ObserveAttempt(attemptOutcome(err))
		if err != nil {
			return err
		}
		att = r
		return nil
	}, func(n int, err error) {
		log.Warn(ctx, "processing attempt failed, retrying", "attempt", n, "error", err)
		c.metrics.ObserveRetry()
	})
	if err != nil {
		log.Error(ctx, "processing failed", "error", err)
		return ProcessingResult{}, err
	}
	defer att.close()

	res, err := c.transport.Materialize(att.ctx, att.outcome, att.filename, c)
	if err != nil {
		if errors.Is(att.ctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err)
		}
		log.Error(ctx, "materialization failed", "error", err)
		return ProcessingResult{}, err
	}

	kind := outcomeKind(att.outcome)
	c.metrics.ObserveResult(kind, res.Size)

	size := "unknown"
	if res.Size >= 0 {
		size = humanize.Bytes(uint64(res.Size))
	}
	log.Info(ctx, "media processed", "kind", kind, "filename", res.Filename, "size", size)

	return res, nil
}

func (c *Client) attempt(ctx context.Context, target *url.URL, spec UploadSpec) (*attemptResult, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)

	fail := func(err error) (*attemptResult, error) {
		cancel()
		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err)
		}
		return nil, err
	}

	token, _ := c.tokens.Token(actx)

	req, err := c.builder.Build(actx, target.String(), spec, token)
	if err != nil {
		return fail(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(fmt.Errorf("post %s: %w", spec.Endpoint, err))
	}

	filename := ExtractFilename(resp.Header.Get("Content-Disposition"))

	out, err := Classify(resp, target)
	if err != nil {
		return fail(err)
	}

	return &attemptResult{ctx: actx, cancel: cancel, outcome: out, filename: filename}, nil
}

// Download performs the authenticated GET of an indirect result. The bearer
// token is looked up again. Non-2xx answers yield *DownloadError.
func (c *Client) Download(ctx context.Context, link string) (*http.Response, error) {
	token, _ := c.tokens.Token(ctx)

	resp, err := netx.GetWithBearer(ctx, c.http, link, token)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", link, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &DownloadError{Status: resp.StatusCode}
	}
	return resp, nil
}

// Share offers a materialized result through the transport. The message is
// meant for the user, also when sharing is unavailable.
func (c *Client) Share(ctx context.Context, res ProcessingResult) (string, error) {
	return c.transport.Share(ctx, res)
}

func (c *Client) endpointURL(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, errors.New("empty endpoint")
	}
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return u, nil
	}

	raw := strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.TrimLeft(endpoint, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	return u, nil
}

func attemptOutcome(err error) string {
	var (
		se *ServerError
		re *ResponseError
	)
	switch {
	case err == nil:
		return AttemptOK
	case errors.Is(err, ErrTimeout):
		return AttemptTimeout
	case errors.As(err, &se):
		return AttemptServerError
	case errors.Is(err, ErrUnresolvedFile):
		return AttemptUnresolved
	case errors.Is(err, ErrNoResult):
		return AttemptNoResult
	case errors.As(err, &re):
		return AttemptBadResponse
	}
	return AttemptNetwork
}

func outcomeKind(o Outcome) string {
	if _, ok := o.(IndirectResult); ok {
		return "indirect"
	}
	return "direct"
}

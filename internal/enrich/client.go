package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/gravelscan/internal/fetcher"
	"github.com/nao1215/gravelscan/internal/model"
)

// Defaults of the generation client.
const (
	// DefaultURL is the address of a local Ollama daemon.
	DefaultURL = "http://localhost:11434"
	// DefaultModel is the text model used for every analysis stage.
	DefaultModel = "deepseek-r1:14b"
	// DefaultTimeout bounds one HTTP request to the server.
	DefaultTimeout = 10 * time.Second
	// DefaultRequestsPerSecond limits how fast requests are sent.
	DefaultRequestsPerSecond = 5
)

// DefaultBackoff is waited between consecutive generation attempts.
// Its length plus one is the number of attempts.
var DefaultBackoff = []time.Duration{1 * time.Second, 3 * time.Second}

var (
	// ErrModelUnavailable is returned when the configured model is not
	// installed on the server.
	ErrModelUnavailable = errors.New("LLM model is unavailable")
	// ErrUnparsableResponse is returned when a generation does not contain
	// a JSON object.
	ErrUnparsableResponse = errors.New("response does not contain a JSON object")
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
}

// Client talks to the Ollama HTTP API.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	backoff    []time.Duration
	clock      fetcher.Clock
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel sets the model name sent with generation requests.
func WithModel(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the deadline of one request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the request rate and burst.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithBackoff sets the waits between generation attempts.
func WithBackoff(waits []time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = append([]time.Duration(nil), waits...)
	}
}

// WithClientClock sets the clock used for backoff waits.
func WithClientClock(clock fetcher.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the server at baseURL.
// An empty baseURL uses DefaultURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      DefaultModel,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		backoff:    append([]time.Duration(nil), DefaultBackoff...),
		clock:      fetcher.RealClock{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model name used for generation.
func (c *Client) Model() string {
	return c.model
}

// Attempts returns how many times a generation is tried.
func (c *Client) Attempts() int {
	return len(c.backoff) + 1
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models returns the names of the models installed on the server.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var out tagsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether the configured model is installed.
// A name without a tag matches the ":latest" tag.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	names, err := c.Models(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == c.model || name == c.model+":latest" {
			return true, nil
		}
	}
	return false, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends prompt once and returns the raw generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	}
	var out generateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// GenerateJSON sends prompt and parses the generation as a JSON object.
// Failed requests and unparsable or empty objects are retried with the
// configured backoff. The last error is returned when every attempt failed.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (model.AnalysisResult, error) {
	var lastErr error
	for attempt := range c.Attempts() {
		result, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		c.logger.Warn("generation attempt failed",
			"attempt", attempt+1,
			"model", c.model,
			"error", err,
		)
		if attempt < len(c.backoff) {
			if err := c.clock.Sleep(ctx, c.backoff[attempt]); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (model.AnalysisResult, error) {
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	result, err := ParseResponse(text)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrUnparsableResponse
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"
)

// DefaultCooldown is waited after every attempt regardless of its outcome.
const DefaultCooldown = 500 * time.Millisecond

// DefaultUserAgents is the rotation pool of desktop browser identities.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Fetcher retrieves pages with retries, backoff and identity rotation.
// It is safe for concurrent use.
type Fetcher struct {
	backend    Backend
	clock      Clock
	policy     Policy
	userAgents []string
	cooldown   time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBackend sets the retrieval backend.
func WithBackend(b Backend) Option {
	return func(f *Fetcher) {
		f.backend = b
	}
}

// WithClock sets the clock used for backoff and cooldown waits.
func WithClock(c Clock) Option {
	return func(f *Fetcher) {
		f.clock = c
	}
}

// WithPolicy sets the retry policy.
func WithPolicy(p Policy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithUserAgents replaces the user agent pool. An empty pool is ignored.
func WithUserAgents(agents []string) Option {
	return func(f *Fetcher) {
		if len(agents) > 0 {
			f.userAgents = append([]string(nil), agents...)
		}
	}
}

// WithCooldown sets the wait after every attempt.
func WithCooldown(d time.Duration) Option {
	return func(f *Fetcher) {
		f.cooldown = d
	}
}

// WithTimeout sets the total deadline of one attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher. Without options it uses plain HTTP, the wall
// clock and DefaultPolicy.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		clock:      RealClock{},
		policy:     DefaultPolicy(),
		userAgents: DefaultUserAgents,
		cooldown:   DefaultCooldown,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.backend == nil {
		f.backend = NewHTTPBackend(nil)
	}
	return f
}

// Clock returns the clock used by the fetcher.
func (f *Fetcher) Clock() Clock {
	return f.clock
}

// Fetch retrieves rawURL and returns its markup, or "" when the page is
// unavailable.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	var body string
	st := f.policy.Next(State{Kind: StateIdle}, Outcome{})

	for !st.Terminal() {
		switch st.Kind {
		case StateAttempting:
			var out Outcome
			body, out = f.attempt(ctx, rawURL, st.Attempt)
			st = f.policy.Next(st, out)
			f.logAttempt(rawURL, st, out)

			if st.Kind == StateBackoff {
				if err := f.clock.Sleep(ctx, st.Delay); err != nil {
					st = f.policy.Next(st, Outcome{Kind: OutcomeCancelled, Err: err})
				}
			}
			_ = f.clock.Sleep(ctx, f.cooldown) //nolint:errcheck // cancellation is seen by the next transition

		case StateBackoff:
			out := Outcome{}
			if err := ctx.Err(); err != nil {
				out = Outcome{Kind: OutcomeCancelled, Err: err}
			}
			st = f.policy.Next(st, out)

		default:
			st = f.policy.Next(st, Outcome{})
		}
	}

	if st.Kind == StateSucceeded {
		return body
	}
	f.logger.Warn("page unavailable", "url", rawURL, "attempts", st.Attempt)
	return ""
}

// attempt performs attempt number n (1-based).
func (f *Fetcher) attempt(ctx context.Context, rawURL string, n int) (string, Outcome) {
	if err := ctx.Err(); err != nil {
		return "", Outcome{Kind: OutcomeCancelled, Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	userAgent := f.userAgents[(n-1)%len(f.userAgents)]
	resp, err := f.backend.Get(attemptCtx, rawURL, userAgent)
	if err != nil {
		if ctx.Err() != nil {
			return "", Outcome{Kind: OutcomeCancelled, Err: ctx.Err()}
		}
		return "", Outcome{Kind: classifyError(err), Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, Outcome{Kind: OutcomeOK, StatusCode: resp.StatusCode}
	case http.StatusNotFound:
		return "", Outcome{Kind: OutcomeNotFound, StatusCode: resp.StatusCode}
	case http.StatusTooManyRequests:
		return "", Outcome{Kind: OutcomeRateLimited, StatusCode: resp.StatusCode}
	default:
		return "", Outcome{Kind: OutcomeStatus, StatusCode: resp.StatusCode}
	}
}

func (f *Fetcher) logAttempt(rawURL string, next State, out Outcome) {
	switch out.Kind {
	case OutcomeOK:
		f.logger.Debug("page fetched", "url", rawURL, "attempt", next.Attempt)
	case OutcomeNotFound:
		f.logger.Info("page not found", "url", rawURL)
	case OutcomeCancelled:
		f.logger.Debug("fetch cancelled", "url", rawURL)
	default:
		attrs := []any{"url", rawURL, "attempt", next.Attempt, "outcome", out.Kind.String()}
		if out.StatusCode != 0 {
			attrs = append(attrs, "status", out.StatusCode)
		}
		if out.Err != nil {
			attrs = append(attrs, "error", out.Err)
		}
		if next.Kind == StateBackoff {
			attrs = append(attrs, "backoff", next.Delay)
		}
		f.logger.Warn("fetch attempt failed", attrs...)
	}
}

// classifyError separates network-level failures from generic transport
// failures. Timeouts are generic even when they surface as *net.OpError.
func classifyError(err error) OutcomeKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrReadTimeout) {
		return OutcomeTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTransport
	}

	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
		errno  syscall.Errno
	)
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.As(err, &errno),
		errors.Is(err, net.ErrClosed):
		return OutcomeNetwork
	default:
		return OutcomeTransport
	}
}

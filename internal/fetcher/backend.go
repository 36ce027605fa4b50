package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	"golang.org/x/net/html/charset"
)

// Deadlines of a single attempt.
const (
	// DefaultTimeout is the total deadline of one attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultConnectTimeout bounds TCP connection setup.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultReadTimeout bounds both waiting for response headers and
	// reading the body.
	DefaultReadTimeout = 10 * time.Second
	// DefaultMaxBodySize limits how much of a page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// AcceptLanguage is sent with every request.
const AcceptLanguage = "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7"

// ErrReadTimeout is returned when the body is not read within the read deadline.
var ErrReadTimeout = errors.New("response body read timed out")

// Response is the part of an HTTP response the fetcher needs.
type Response struct {
	StatusCode int
	// Body is the UTF-8 page markup. It is only filled for 200 responses.
	Body string
}

// Backend performs one page retrieval.
type Backend interface {
	Get(ctx context.Context, rawURL, userAgent string) (*Response, error)
}

// DialContextFunc dials a network connection.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewTransport creates an HTTP transport with the connect and header
// deadlines applied. A nil dial uses a direct net.Dialer; proxies pass
// their own dial function.
func NewTransport(dial DialContextFunc) *http.Transport {
	if dial == nil {
		d := &net.Dialer{Timeout: DefaultConnectTimeout, KeepAlive: 30 * time.Second}
		dial = d.DialContext
	}
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           dial,
		TLSHandshakeTimeout:   DefaultConnectTimeout,
		ResponseHeaderTimeout: DefaultReadTimeout,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// NewHTTPClient creates an HTTP client over transport with a cookie jar and
// a limit of 10 redirects. A nil transport uses NewTransport(nil).
func NewHTTPClient(transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = NewTransport(nil)
	}
	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options
	return &http.Client{
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// HTTPBackend retrieves pages with net/http.
type HTTPBackend struct {
	client      *http.Client
	readTimeout time.Duration
	maxBodySize int64
}

// NewHTTPBackend creates a backend using client. A nil client uses
// NewHTTPClient(nil).
func NewHTTPBackend(client *http.Client) *HTTPBackend {
	if client == nil {
		client = NewHTTPClient(nil)
	}
	return &HTTPBackend{
		client:      client,
		readTimeout: DefaultReadTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
}

// Get implements Backend. Non-200 responses are returned without a body and
// without an error; the caller classifies the status code.
func (b *HTTPBackend) Get(ctx context.Context, rawURL, userAgent string) (*Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", AcceptLanguage)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return &Response{StatusCode: resp.StatusCode}, nil
	}

	var timedOut atomic.Bool
	timer := time.AfterFunc(b.readTimeout, func() {
		timedOut.Store(true)
		cancel()
	})
	body, err := readBody(io.LimitReader(resp.Body, b.maxBodySize), resp.Header.Get("Content-Type"))
	timer.Stop()
	if err != nil {
		if timedOut.Load() {
			return nil, fmt.Errorf("%w: %s", ErrReadTimeout, rawURL)
		}
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// readBody converts the body to UTF-8 using the Content-Type charset or the
// document's meta tags.
func readBody(r io.Reader, contentType string) (string, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

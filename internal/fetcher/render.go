package fetcher

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// RenderBackend retrieves pages with a headless Chrome so that markup built
// by client-side scripts is included. The reported status is the one of
// the first document response of the navigation.
type RenderBackend struct {
	execPath string
	settle   time.Duration
}

// RenderOption configures a RenderBackend.
type RenderOption func(*RenderBackend)

// WithExecPath sets the Chrome binary. Empty means chromedp's lookup.
func WithExecPath(path string) RenderOption {
	return func(r *RenderBackend) {
		r.execPath = path
	}
}

// WithSettleTime sets how long to wait after the body is ready for
// late scripts to finish.
func WithSettleTime(d time.Duration) RenderOption {
	return func(r *RenderBackend) {
		r.settle = d
	}
}

// NewRenderBackend creates a headless browser backend.
func NewRenderBackend(opts ...RenderOption) *RenderBackend {
	r := &RenderBackend{settle: 2 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get implements Backend. Each call starts a fresh browser with the given
// user agent and returns the outer HTML of the document.
func (r *RenderBackend) Get(ctx context.Context, rawURL, userAgent string) (*Response, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	status := &documentStatus{}
	chromedp.ListenTarget(tabCtx, status.observe)

	var markup string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settle),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: status.code(), Body: markup}, nil
}

// documentStatus keeps the status of the first document response seen in a
// tab. Redirects do not emit a response event, so the first one belongs to
// the final main document; frames load later.
type documentStatus struct {
	mu     sync.Mutex
	status int
}

func (d *documentStatus) observe(ev interface{}) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == 0 {
		d.status = int(e.Response.Status)
	}
}

// code returns the recorded status, or 200 when no document response was
// observed.
func (d *documentStatus) code() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == 0 {
		return http.StatusOK
	}
	return d.status
}

package model

// Progress stages reported by long-running operations.
const (
	StageIndex    = "index"
	StageListings = "listings"
	StageAnalysis = "analysis"
	StageDone     = "done"
)

// ProgressEvent is a structured progress notification.
type ProgressEvent struct {
	Stage   string `json:"stage,omitempty"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
}

// Observer receives progress events. Implementations must be safe for
// concurrent use.
type Observer interface {
	Observe(event ProgressEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event ProgressEvent)

// Observe calls f(event).
func (f ObserverFunc) Observe(event ProgressEvent) {
	f(event)
}

// NopObserver discards events.
type NopObserver struct{}

// Observe does nothing.
func (NopObserver) Observe(ProgressEvent) {}

package api

import (
	"sync"

	"github.com/nao1215/gravelscan/internal/harvest"
	"github.com/nao1215/gravelscan/internal/model"
)

// Analysis status messages.
const (
	statusIdle     = "Not started"
	statusStarting = "Initializing analysis"
	statusFinished = "Analysis finished"
)

// analysisProgress tracks the background analysis and forwards its events
// to the hub.
type analysisProgress struct {
	hub *harvest.ProgressHub

	mu      sync.Mutex
	event   model.ProgressEvent
	running bool
	jobID   string
}

func newAnalysisProgress(hub *harvest.ProgressHub) *analysisProgress {
	return &analysisProgress{
		hub:   hub,
		event: model.ProgressEvent{Status: statusIdle},
	}
}

// begin marks a job as running. It returns false when one already is.
func (p *analysisProgress) begin(jobID string) bool {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return false
	}
	p.running = true
	p.jobID = jobID
	p.event = model.ProgressEvent{Stage: model.StageAnalysis, Status: statusStarting}
	event := p.event
	p.mu.Unlock()

	p.hub.Publish(event)
	return true
}

// Observe records an event of the running job. A done event of the
// enrichment itself is reported as analysis progress; only finish ends
// the job.
func (p *analysisProgress) Observe(e model.ProgressEvent) {
	if e.Stage == model.StageDone {
		e.Stage = model.StageAnalysis
	}
	p.mu.Lock()
	p.event = e
	p.mu.Unlock()
	p.hub.Publish(e)
}

// finish ends the running job with a final status.
func (p *analysisProgress) finish(status string) {
	p.mu.Lock()
	p.running = false
	p.event.Stage = model.StageDone
	p.event.Status = status
	p.event.URL = ""
	event := p.event
	p.mu.Unlock()

	p.hub.Publish(event)
}

func (p *analysisProgress) snapshot() (model.ProgressEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.event, p.running
}

func (p *analysisProgress) job() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID
}

package preview

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
)

// Recorder retains the latest document and probe report of one session
type Recorder struct {
	mu        sync.RWMutex
	doc       playground.Document
	report    Report
	hasDoc    bool
	hasReport bool
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Render implements playground.Sink. Older versions never replace newer ones.
func (r *Recorder) Render(_ context.Context, doc playground.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasDoc && doc.Version < r.doc.Version {
		return nil
	}
	r.doc = doc
	r.hasDoc = true
	return nil
}

// Record stores a probe report
func (r *Recorder) Record(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasReport && report.Version < r.report.Version {
		return
	}
	r.report = report
	r.hasReport = true
}

// Document returns the latest document
func (r *Recorder) Document() (playground.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc, r.hasDoc
}

// Report returns the latest probe report
func (r *Recorder) Report() (Report, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.report, r.hasReport
}

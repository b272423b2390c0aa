package model

import (
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// RunReport is the accumulated outcome of one pipeline run.
// Pipeline steps fill it in order: fetch, merge, publish.
type RunReport struct {
	// ID identifies the run in logs and in the history database.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// Sources holds one result per configured source, in source order.
	Sources []SourceResult `json:"sources"`

	// ProductCount is the number of products in the merged catalog.
	ProductCount int `json:"product_count"`

	// ProductNames lists the display name of every merged product in order.
	ProductNames []string `json:"product_names,omitempty"`

	// Catalog is the merged document. Set by the merge step.
	Catalog *etree.Document `json:"-"`

	// Publish is set once the catalog was published.
	Publish *PublishResult `json:"publish,omitempty"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the error that ended the run. Nil for a completed run.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for reports.
	ErrorMessage string `json:"error,omitempty"`

	// Cancelled is true when the run was interrupted.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewRunReport creates a report for a run over the given sources.
func NewRunReport(sources []string) *RunReport {
	r := &RunReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Sources:   make([]SourceResult, len(sources)),
	}
	for i, u := range sources {
		r.Sources[i] = SourceResult{Index: i, URL: u}
	}
	return r
}

// SourceURLs returns the configured source URLs in order.
func (r *RunReport) SourceURLs() []string {
	urls := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		urls[i] = s.URL
	}
	return urls
}

// Documents returns the parsed documents of the successful sources, in
// source order.
func (r *RunReport) Documents() []*etree.Document {
	docs := make([]*etree.Document, 0, len(r.Sources))
	for i := range r.Sources {
		if r.Sources[i].OK() && r.Sources[i].Document != nil {
			docs = append(docs, r.Sources[i].Document)
		}
	}
	return docs
}

// SucceededCount returns the number of sources that produced a document.
func (r *RunReport) SucceededCount() int {
	n := 0
	for i := range r.Sources {
		if r.Sources[i].OK() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of sources that failed.
func (r *RunReport) FailedCount() int {
	return len(r.Sources) - r.SucceededCount()
}

// Published reports whether the catalog reached its destination.
func (r *RunReport) Published() bool {
	return r.Publish != nil
}

// Duration returns the run time. Zero while the run is in progress.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status returns a one-word summary of the run outcome.
func (r *RunReport) Status() string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.ErrorMessage != "" || r.Error != nil:
		return "failed"
	case r.Published():
		return "published"
	default:
		return "incomplete"
	}
}

package model

import (
	"time"

	"github.com/beevik/etree"
)

// SourceResult is the outcome of fetching one feed.
// Once the fetch has finished, either Valid is true and Document is set, or
// Err is set.
type SourceResult struct {
	// Index is the position of the source in the configured list.
	Index int `json:"index"`

	// URL is the feed address.
	URL string `json:"url"`

	// Document is the parsed feed. Nil when the fetch failed.
	Document *etree.Document `json:"-"`

	// Valid is true when the source produced a document. Unlike Document
	// it survives the history round trip.
	Valid bool `json:"valid"`

	// Err is the fetch failure. Nil on success.
	Err error `json:"-"`

	// ErrorMessage is Err rendered for reports.
	ErrorMessage string `json:"error,omitempty"`

	// FailureKind is "transport", "status" or "parse" for failed fetches.
	FailureKind string `json:"failure_kind,omitempty"`

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int `json:"status_code,omitempty"`

	// ProductCount is the number of product elements found in the document.
	ProductCount int `json:"product_count"`

	// Duration is the time spent fetching and parsing.
	Duration time.Duration `json:"duration"`
}

// OK reports whether the source produced a document.
func (s *SourceResult) OK() bool {
	return s != nil && s.Valid && s.Err == nil
}

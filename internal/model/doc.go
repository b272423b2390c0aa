// Package model defines the data structures shared by the xmlmerge pipeline,
// the report writers and the run history database.
//
// This package contains the following main types:
//   - SourceResult: The outcome of fetching one feed
//   - PublishResult: Where and how the merged catalog was published
//   - RunReport: The accumulated outcome of one fetch, merge and publish run
//
// The parsed documents and the merged catalog are carried in the report while
// a run is in progress but are excluded from JSON so that reports and history
// rows only hold the outcome.
package model

// Package pipeline runs one merge job as a sequence of steps.
//
// A run goes through three steps: fetch every source, merge the products of
// the sources that succeeded, publish the merged catalog. Each step receives
// the model.RunReport and records its outcome there, so a report always
// describes how far the run got.
//
// Fetching fans out over the sources with a bounded errgroup (FetchGroup).
// Results are stored by source index, so the merge order is the configured
// source order regardless of which fetch finished first.
package pipeline

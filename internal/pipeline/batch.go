package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/xmlmerge/internal/catalog"
	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/model"
)

// SourceFetcher fetches a single source. *fetcher.Fetcher implements it.
type SourceFetcher interface {
	FetchSource(ctx context.Context, index int, url string) model.SourceResult
}

// FetchGroup fetches a list of sources with bounded concurrency.
//
// A failing source never cancels the others: errors are carried in the
// SourceResult, not returned to the errgroup. Results are written by index,
// so the returned slice is in source order.
type FetchGroup struct {
	// fetcher performs each individual fetch.
	fetcher SourceFetcher

	// concurrency is the maximum number of fetches in flight.
	concurrency int

	// logger is used for group-level logging.
	logger *slog.Logger
}

// FetchGroupOption configures a FetchGroup.
type FetchGroupOption func(*FetchGroup)

// WithFetchGroupLogger sets a custom logger.
func WithFetchGroupLogger(logger *slog.Logger) FetchGroupOption {
	return func(g *FetchGroup) {
		g.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent fetches.
// Non-positive values are ignored.
func WithConcurrency(n int) FetchGroupOption {
	return func(g *FetchGroup) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewFetchGroup creates a FetchGroup. It fetches sequentially unless
// WithConcurrency raises the limit.
func NewFetchGroup(fetcher SourceFetcher, opts ...FetchGroupOption) *FetchGroup {
	g := &FetchGroup{
		fetcher:     fetcher,
		concurrency: config.DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.Default()
	}

	return g
}

// FetchAll fetches every url and returns one result per url, in url order.
// ProductCount is filled in for every successful source.
//
// Sources that never started because ctx ended carry ctx's error. The error
// return is non-nil only when ctx ended.
func (g *FetchGroup) FetchAll(ctx context.Context, urls []string) ([]model.SourceResult, error) {
	g.logger.Info("fetching sources",
		"total_sources", len(urls),
		"concurrency", g.concurrency,
	)
	startTime := time.Now()

	results := make([]model.SourceResult, len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, url := range urls {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i] = model.SourceResult{
					Index:        i,
					URL:          url,
					Err:          err,
					ErrorMessage: err.Error(),
				}
				return nil
			}

			result := g.fetcher.FetchSource(egCtx, i, url)
			if result.OK() {
				result.ProductCount = catalog.CountProducts(result.Document)
			} else {
				g.logger.Warn("source failed",
					"url", url,
					"error", result.Err,
				)
			}
			// each goroutine owns results[i]
			results[i] = result
			return nil
		})
	}

	_ = eg.Wait() //nolint:errcheck // goroutines never return errors

	g.logger.Info("fetching complete",
		"total_sources", len(urls),
		"elapsed", time.Since(startTime),
	)

	return results, ctx.Err()
}

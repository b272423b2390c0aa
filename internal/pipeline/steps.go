package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/xmlmerge/internal/catalog"
	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/credentials"
	"github.com/nao1215/xmlmerge/internal/fetcher"
	"github.com/nao1215/xmlmerge/internal/model"
	"github.com/nao1215/xmlmerge/internal/publish"
)

// FetchStep fetches every source of the run.
// It fails with ErrNoValidSource when none of them produced a document.
type FetchStep struct {
	group *FetchGroup
	out   io.Writer
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchOutput sets where progress lines are printed.
func WithFetchOutput(w io.Writer) FetchStepOption {
	return func(s *FetchStep) {
		if w != nil {
			s.out = w
		}
	}
}

// NewFetchStep creates a fetch step around group.
func NewFetchStep(group *FetchGroup, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		group: group,
		out:   io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, report *model.RunReport) error {
	fmt.Fprintf(s.out, "Fetching %d sources\n", len(report.Sources))

	results, err := s.group.FetchAll(ctx, report.SourceURLs())
	report.Sources = results
	if err != nil {
		return err
	}

	valid := report.SucceededCount()
	if valid == 0 {
		fmt.Fprintln(s.out, "No valid XML source found")
		return ErrNoValidSource
	}
	fmt.Fprintf(s.out, "%d of %d sources valid\n", valid, len(report.Sources))
	return nil
}

// MergeStep merges the products of the successful sources into one catalog.
type MergeStep struct {
	merger *catalog.Merger
}

// NewMergeStep creates a merge step.
func NewMergeStep(merger *catalog.Merger) *MergeStep {
	return &MergeStep{merger: merger}
}

// Name returns the step name.
func (s *MergeStep) Name() string {
	return "merge"
}

// Do executes the merge step.
func (s *MergeStep) Do(ctx context.Context, report *model.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.Catalog = s.merger.Merge(report.Documents())
	report.ProductCount = catalog.CountProducts(report.Catalog)
	report.ProductNames = catalog.ProductNames(report.Catalog)
	return nil
}

// PublishStep obtains the destination and publishes the merged catalog.
// The provider is consulted only here, so a run that never reaches this
// step never asks for credentials.
type PublishStep struct {
	provider  credentials.Provider
	publisher publish.Publisher
	filename  string
	out       io.Writer
	logger    *slog.Logger
}

// PublishStepOption configures a PublishStep.
type PublishStepOption func(*PublishStep)

// WithPublishOutput sets where progress lines are printed.
func WithPublishOutput(w io.Writer) PublishStepOption {
	return func(s *PublishStep) {
		if w != nil {
			s.out = w
		}
	}
}

// WithPublishLogger sets a custom logger.
func WithPublishLogger(logger *slog.Logger) PublishStepOption {
	return func(s *PublishStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPublishStep creates a publish step storing the catalog as filename.
func NewPublishStep(provider credentials.Provider, publisher publish.Publisher, filename string, opts ...PublishStepOption) *PublishStep {
	s := &PublishStep{
		provider:  provider,
		publisher: publisher,
		filename:  filename,
		out:       io.Discard,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PublishStep) Name() string {
	return "publish"
}

// Do executes the publish step.
func (s *PublishStep) Do(ctx context.Context, report *model.RunReport) error {
	dest, err := s.provider.Destination(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain destination: %w", err)
	}

	fmt.Fprintf(s.out, "Publishing to %s\n", describeDestination(dest))

	result, err := s.publisher.Publish(ctx, report.Catalog, dest, s.filename)
	if err != nil {
		return fmt.Errorf("failed to publish catalog: %w", err)
	}
	report.Publish = result

	if result.DirectoryFallback {
		fmt.Fprintf(s.out, "Warning: directory %s not found, uploaded to the default directory\n", dest.Directory)
	}
	fmt.Fprintf(s.out, "Published %s (%d bytes)\n", result.Location, result.Bytes)
	s.logger.Debug("catalog digest", "sha3_256", result.Digest)
	return nil
}

func describeDestination(dest config.Destination) string {
	switch dest.EffectiveKind() {
	case config.DestinationS3:
		return "s3 bucket " + dest.Bucket
	case config.DestinationFile:
		return dest.Directory
	default:
		return dest.Host
	}
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Concurrency is the maximum number of fetches in flight.
	Concurrency int

	// Timeout bounds each source fetch.
	Timeout time.Duration

	// UserAgent is sent with every feed request.
	UserAgent string

	// MaxBodySize limits how much of a feed is read.
	MaxBodySize int64

	// Filename is the name of the published catalog.
	Filename string

	// Output receives human progress lines. Defaults to io.Discard.
	Output io.Writer
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConcurrency sets the fetch concurrency.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineTimeout sets the per-source fetch timeout.
func WithPipelineTimeout(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Timeout = timeout
	}
}

// WithPipelineUserAgent sets the User-Agent header for feed requests.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.UserAgent = userAgent
	}
}

// WithPipelineMaxBodySize sets the maximum feed body size in bytes.
func WithPipelineMaxBodySize(maxBodySize int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxBodySize = maxBodySize
	}
}

// WithPipelineFilename sets the name of the published catalog.
func WithPipelineFilename(filename string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Filename = filename
	}
}

// WithPipelineOutput sets where progress lines are printed.
func WithPipelineOutput(w io.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Output = w
	}
}

// DefaultPipeline creates the fetch, merge, publish pipeline.
//
// client carries the feed requests. provider and publisher are only used by
// the publish step.
func DefaultPipeline(
	client *http.Client,
	provider credentials.Provider,
	publisher publish.Publisher,
	pipelineOpts []Option,
	configOpts ...DefaultPipelineOption,
) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Concurrency: config.DefaultConcurrency,
		Timeout:     config.DefaultTimeout,
		UserAgent:   config.DefaultUserAgent,
		MaxBodySize: config.DefaultMaxBodySize,
		Filename:    config.DefaultFilename,
		Output:      io.Discard,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	f := fetcher.New(client,
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithLogger(p.logger),
		fetcher.WithOutput(cfg.Output),
	)
	group := NewFetchGroup(f,
		WithConcurrency(cfg.Concurrency),
		WithFetchGroupLogger(p.logger),
	)

	p.AddSteps(
		NewFetchStep(group, WithFetchOutput(cfg.Output)),
		NewMergeStep(catalog.NewMerger(
			catalog.WithMergerLogger(p.logger),
			catalog.WithMergerOutput(cfg.Output),
		)),
		NewPublishStep(provider, publisher, cfg.Filename,
			WithPublishOutput(cfg.Output),
			WithPublishLogger(p.logger),
		),
	)

	return p
}

package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/model"
)

// Fetcher retrieves and parses feeds. It is safe for concurrent use.
type Fetcher struct {
	// client carries the transport (direct or SOCKS5).
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// timeout bounds one fetch from dial to the last body byte.
	timeout time.Duration

	// maxBodySize is the number of body bytes read at most.
	// Larger bodies are truncated and then fail to parse.
	maxBodySize int64

	logger *slog.Logger

	// out receives one human-readable status line per fetch.
	out io.Writer
	mu  sync.Mutex
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithMaxBodySize sets the body size limit. Zero disables the limit.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithOutput sets the writer for status lines. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(f *Fetcher) {
		f.out = w
	}
}

// New creates a Fetcher using client for all requests.
// A nil client means http.DefaultClient.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:      client,
		userAgent:   config.DefaultUserAgent,
		timeout:     config.DefaultTimeout,
		maxBodySize: config.DefaultMaxBodySize,
		logger:      slog.Default(),
		out:         io.Discard,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves url and parses the body as XML.
// A non-nil error is always an *Error and means the source is absent.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*etree.Document, error) {
	doc, _, err := f.fetch(ctx, url)
	return doc, err
}

// FetchSource fetches the source at position index and returns its outcome.
// ProductCount is left for the caller.
func (f *Fetcher) FetchSource(ctx context.Context, index int, url string) model.SourceResult {
	start := time.Now()
	doc, status, err := f.fetch(ctx, url)

	result := model.SourceResult{
		Index:      index,
		URL:        url,
		Document:   doc,
		Valid:      err == nil,
		Err:        err,
		StatusCode: status,
		Duration:   time.Since(start),
	}
	if err != nil {
		result.ErrorMessage = err.Error()
		result.FailureKind = string(KindOf(err))
	}
	return result
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*etree.Document, int, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	body, status, err := f.get(ctx, url)
	if err != nil {
		f.logger.Warn("fetch failed", "url", url, "kind", KindOf(err), "error", err)
		f.printf("skipping source: %v\n", err)
		return nil, status, err
	}

	doc, err := parse(body)
	if err != nil {
		ferr := &Error{URL: url, Kind: KindParse, StatusCode: status, Err: err}
		f.logger.Warn("fetch failed", "url", url, "kind", KindParse, "error", err)
		f.printf("skipping source: %v\n", ferr)
		return nil, status, ferr
	}

	f.logger.Debug("fetched source", "url", url, "status", status, "bytes", len(body), "root", doc.Root().Tag)
	f.printf("fetched %s (%d bytes)\n", url, len(body))
	return doc, status, nil
}

// get performs the request and reads the (possibly truncated) body.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &Error{URL: url, Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, &Error{URL: url, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &Error{
			URL:        url,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status),
		}
	}

	var reader io.Reader = resp.Body
	if f.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodySize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, &Error{URL: url, Kind: KindTransport, StatusCode: resp.StatusCode, Err: err}
	}
	return body, resp.StatusCode, nil
}

// parse builds a document from body. A body without exactly one element, or
// with text outside of it, is an error.
func parse(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(bytes.NewReader(body)); err != nil {
		return nil, err
	}

	elements := 0
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			elements++
		case *etree.CharData:
			if !t.IsWhitespace() {
				return nil, fmt.Errorf("%w: text %q", ErrJunkAfterRoot, strings.TrimSpace(t.Data))
			}
		}
	}
	switch {
	case elements == 0:
		return nil, ErrNoRootElement
	case elements > 1:
		return nil, fmt.Errorf("%w: %d top-level elements", ErrJunkAfterRoot, elements)
	}
	return doc, nil
}

func (f *Fetcher) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.out, format, args...)
}

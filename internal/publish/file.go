package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/model"
)

// FilePublisher writes the catalog into a local directory.
// The file is written to a temporary name and renamed into place, so readers
// never see a partial catalog.
type FilePublisher struct {
	logger *slog.Logger
}

// FileOption configures a FilePublisher.
type FileOption func(*FilePublisher)

// WithFileLogger sets a custom logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(p *FilePublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewFilePublisher creates a FilePublisher.
func NewFilePublisher(opts ...FileOption) *FilePublisher {
	p := &FilePublisher{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish implements Publisher. Only dest.Directory is used.
func (p *FilePublisher) Publish(ctx context.Context, doc *etree.Document, dest config.Destination, filename string) (*model.PublishResult, error) {
	pl, err := prepare(doc, dest)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(dest.Directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDestination, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	target := filepath.Join(dir, filepath.Base(filename))
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(pl.data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // the catalog is meant to be served
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	result := &model.PublishResult{
		Kind:     string(config.DestinationFile),
		Location: "file://" + filepath.ToSlash(target),
		Filename: filepath.Base(filename),
		Bytes:    int64(len(pl.data)),
		Digest:   pl.digest,
	}
	p.logger.Info("catalog written", "location", result.Location, "bytes", result.Bytes)
	return result, nil
}

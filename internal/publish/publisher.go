package publish

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/xmlmerge/internal/catalog"
	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/model"
)

// Publisher delivers a catalog to a destination.
type Publisher interface {
	// Publish serializes catalog and stores it under filename.
	Publish(ctx context.Context, catalog *etree.Document, dest config.Destination, filename string) (*model.PublishResult, error)
}

// ContextDialer opens network connections. *transport.Client and
// *net.Dialer both satisfy it.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// payload is a serialized catalog ready for upload.
type payload struct {
	data   []byte
	digest string
}

// prepare checks dest and serializes doc. It never touches the network.
func prepare(doc *etree.Document, dest config.Destination) (*payload, error) {
	if err := checkDestination(dest); err != nil {
		return nil, err
	}
	data, err := catalog.Serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize catalog: %w", err)
	}
	sum := sha3.Sum256(data)
	return &payload{data: data, digest: hex.EncodeToString(sum[:])}, nil
}

// checkDestination maps destination validation onto publish errors.
func checkDestination(dest config.Destination) error {
	err := dest.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, config.ErrIncompleteDestination):
		return fmt.Errorf("%w: %w", ErrMissingCredentials, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidDestination, err)
	}
}

// Router dispatches to the publisher of the destination's kind.
type Router struct {
	publishers map[config.DestinationKind]Publisher
}

// NewRouter creates a Router. Kinds without a publisher fail with
// ErrUnsupportedKind.
func NewRouter(publishers map[config.DestinationKind]Publisher) *Router {
	return &Router{publishers: publishers}
}

// NewDefaultRouter wires the FTP, S3 and file publishers around one dialer.
// A non-positive timeout falls back to config.DefaultPublishTimeout.
func NewDefaultRouter(dialer ContextDialer, timeout time.Duration, logger *slog.Logger) *Router {
	if timeout <= 0 {
		timeout = config.DefaultPublishTimeout
	}
	return NewRouter(map[config.DestinationKind]Publisher{
		config.DestinationFTP:  NewFTPPublisher(WithFTPDialer(dialer), WithFTPTimeout(timeout), WithFTPLogger(logger)),
		config.DestinationS3:   NewS3Publisher(WithS3Dialer(dialer), WithS3Timeout(timeout), WithS3Logger(logger)),
		config.DestinationFile: NewFilePublisher(WithFileLogger(logger)),
	})
}

// Publish implements Publisher.
func (r *Router) Publish(ctx context.Context, doc *etree.Document, dest config.Destination, filename string) (*model.PublishResult, error) {
	p, ok := r.publishers[dest.EffectiveKind()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, dest.EffectiveKind())
	}
	return p.Publish(ctx, doc, dest, filename)
}

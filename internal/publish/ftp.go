package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/jlaffaye/ftp"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/model"
)

// FTPPublisher uploads the catalog over FTP.
type FTPPublisher struct {
	// dialer opens the control and passive data connections.
	dialer ContextDialer

	// timeout bounds the whole session, from dial to quit.
	timeout time.Duration

	logger *slog.Logger
}

// FTPOption configures an FTPPublisher.
type FTPOption func(*FTPPublisher)

// WithFTPDialer routes the session through dialer, e.g. a SOCKS5 client.
func WithFTPDialer(dialer ContextDialer) FTPOption {
	return func(p *FTPPublisher) {
		if dialer != nil {
			p.dialer = dialer
		}
	}
}

// WithFTPTimeout sets the session timeout.
func WithFTPTimeout(timeout time.Duration) FTPOption {
	return func(p *FTPPublisher) {
		p.timeout = timeout
	}
}

// WithFTPLogger sets a custom logger.
func WithFTPLogger(logger *slog.Logger) FTPOption {
	return func(p *FTPPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewFTPPublisher creates an FTPPublisher.
func NewFTPPublisher(opts ...FTPOption) *FTPPublisher {
	p := &FTPPublisher{
		dialer:  &net.Dialer{},
		timeout: config.DefaultPublishTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish implements Publisher.
//
// The session is: connect, login, change into dest.Directory (warning only
// on failure), STOR filename, quit. The connection is closed on every path
// once it was opened.
func (p *FTPPublisher) Publish(ctx context.Context, doc *etree.Document, dest config.Destination, filename string) (*model.PublishResult, error) {
	pl, err := prepare(doc, dest)
	if err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	addr := dest.Address()
	p.logger.Info("connecting to FTP server", "address", addr, "user", dest.User)

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithDialFunc(p.dialFunc(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}

	if err := conn.Login(dest.User, dest.Password); err != nil {
		p.quit(conn)
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	dir := strings.TrimSpace(dest.Directory)
	fallback := false
	if dir != "" {
		if err := conn.ChangeDir(dir); err != nil {
			p.logger.Warn("remote directory not available, using default directory",
				"directory", dir,
				"error", err,
			)
			fallback = true
			dir = ""
		}
	}

	if err := conn.Stor(filename, bytes.NewReader(pl.data)); err != nil {
		p.quit(conn)
		return nil, fmt.Errorf("%w: STOR %s: %w", ErrTransfer, filename, err)
	}
	p.quit(conn)

	result := &model.PublishResult{
		Kind:              string(config.DestinationFTP),
		Location:          ftpLocation(dest, dir, filename),
		Filename:          filename,
		Bytes:             int64(len(pl.data)),
		Digest:            pl.digest,
		DirectoryFallback: fallback,
	}
	p.logger.Info("catalog uploaded", "location", result.Location, "bytes", result.Bytes)
	return result, nil
}

// dialFunc adapts the dialer to the FTP client. Every connection gets the
// session deadline, so a stalled server cannot outlive ctx.
func (p *FTPPublisher) dialFunc(ctx context.Context) func(network, address string) (net.Conn, error) {
	return func(network, address string) (net.Conn, error) {
		c, err := p.dialer.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close()
				return nil, err
			}
		}
		return c, nil
	}
}

// quit ends the session. Errors are logged only: the outcome is already decided.
func (p *FTPPublisher) quit(conn *ftp.ServerConn) {
	if err := conn.Quit(); err != nil {
		p.logger.Debug("FTP quit failed", "error", err)
	}
}

// ftpLocation returns ftp://host[:port]/dir/filename.
func ftpLocation(dest config.Destination, dir, filename string) string {
	host := dest.Host
	if _, _, err := net.SplitHostPort(host); err != nil && dest.Port != 0 && dest.Port != config.DefaultFTPPort {
		host = dest.Address()
	}
	return "ftp://" + host + path.Join("/", dir, filename)
}

package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single source fetch, from dial to the last body byte.
	DefaultTimeout = 30 * time.Second

	// DefaultPublishTimeout bounds the whole publish session (dial, login, upload, quit).
	DefaultPublishTimeout = 2 * time.Minute

	// DefaultConcurrency keeps fetching sequential: one request in flight at a time.
	// Raise it with --concurrency to fan out across sources.
	DefaultConcurrency = 1

	// DefaultFilename is the remote file name of the merged catalog.
	DefaultFilename = "tumurunler2.xml"

	// DefaultFTPPort is the standard FTP control port.
	DefaultFTPPort = 21

	// DefaultUserAgent mimics a desktop browser. Several feed hosts reject
	// requests carrying a library User-Agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits how much of a feed is read. Catalog feeds with
	// images inlined as base64 can get large, so this is generous.
	DefaultMaxBodySize = 64 * 1024 * 1024 // 64MB

	// AppName is the application name used for XDG directory paths.
	AppName = "xmlmerge"

	// PasswordEnv is the environment variable consulted when no password is configured.
	PasswordEnv = "XMLMERGE_PASSWORD"
)

// Config holds all configuration options for one xmlmerge run.
// It is populated from the configuration file and CLI flags and passed
// through the application explicitly.
type Config struct {
	// Sources is the ordered list of feed URLs. Merge order follows this order.
	Sources []string

	// Destination describes where the merged catalog is published.
	Destination Destination

	// Filename is the remote file name of the merged catalog.
	Filename string

	// Timeout bounds each source fetch.
	Timeout time.Duration

	// PublishTimeout bounds the publish session.
	PublishTimeout time.Duration

	// Concurrency is the maximum number of fetches in flight.
	Concurrency int

	// UserAgent is sent with every feed request.
	UserAgent string

	// MaxBodySize is the maximum number of feed bytes read per source.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form used for
	// both feed requests and the publish session.
	ProxyAddress string

	// Verbose enables debug logging.
	Verbose bool

	// Interactive forces the credential prompt even when the configured
	// destination is complete.
	Interactive bool

	// ConfigFilePath is the path to the configuration file, if given explicitly.
	ConfigFilePath string

	// JSONReport selects JSON output for the run report.
	JSONReport bool

	// MarkdownReport selects Markdown output for the run report.
	MarkdownReport bool

	// ReportFile writes the run report to a file instead of stdout.
	ReportFile string

	// History records each run in the SQLite history database.
	History bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Destination: Destination{
			Kind: DestinationFTP,
			Port: DefaultFTPPort,
		},
		Filename:       DefaultFilename,
		Timeout:        DefaultTimeout,
		PublishTimeout: DefaultPublishTimeout,
		Concurrency:    DefaultConcurrency,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for xmlmerge.
// On Linux: ~/.local/share/xmlmerge
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for xmlmerge.
// On Linux: ~/.config/xmlmerge
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
//
// Source URLs are not checked here: a bad URL fails only its own fetch
// (see NonHTTPSources). Destination credentials are not checked either: they may still
// come from the interactive prompt, and the publisher enforces them itself
// before opening any session.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSource
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PublishTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Filename == "" {
		return ErrNoFilename
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if !c.Destination.Kind.Valid() {
		return ErrUnknownDestinationKind
	}
	return nil
}

// NonHTTPSources returns the sources that are not absolute http or https
// URLs, in order. Fetching them fails with a transport error.
func (c *Config) NonHTTPSources() []string {
	var bad []string
	for _, s := range c.Sources {
		if !isHTTPURL(s) {
			bad = append(bad, s)
		}
	}
	return bad
}

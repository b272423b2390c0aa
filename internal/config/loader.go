package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".xmlmerge.yaml"

// xdgConfigFile is the file name looked up inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// FetchSettings groups the feed request options of the configuration file.
type FetchSettings struct {
	// Timeout bounds each source fetch (e.g. "30s").
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Concurrency is the maximum number of fetches in flight.
	Concurrency int `yaml:"concurrency,omitempty"`

	// UserAgent overrides the browser User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize overrides the per-feed read limit in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`
}

// File represents the structure of the .xmlmerge.yaml configuration file.
type File struct {
	// Sources is the ordered list of feed URLs.
	Sources []string `yaml:"sources,omitempty"`

	// Destination is the publish target.
	Destination Destination `yaml:"destination,omitempty"`

	// Filename is the remote file name of the merged catalog.
	Filename string `yaml:"filename,omitempty"`

	// Fetch holds feed request options.
	Fetch FetchSettings `yaml:"fetch,omitempty"`

	// PublishTimeout bounds the publish session.
	PublishTimeout time.Duration `yaml:"publishTimeout,omitempty"`

	// History enables the run history database.
	History bool `yaml:"history,omitempty"`
}

// LoadConfigFile loads a configuration file from YAML.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every value set in the file onto cfg.
// Zero values in the file leave the corresponding defaults untouched.
func (cf *File) Apply(cfg *Config) {
	if len(cf.Sources) > 0 {
		cfg.Sources = append([]string(nil), cf.Sources...)
	}
	cfg.Destination = cf.Destination.Merge(cfg.Destination)
	if cf.Filename != "" {
		cfg.Filename = cf.Filename
	}
	if cf.Fetch.Timeout != 0 {
		cfg.Timeout = cf.Fetch.Timeout
	}
	if cf.Fetch.Concurrency != 0 {
		cfg.Concurrency = cf.Fetch.Concurrency
	}
	if cf.Fetch.UserAgent != "" {
		cfg.UserAgent = cf.Fetch.UserAgent
	}
	if cf.Fetch.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.Fetch.MaxBodySize
	}
	if cf.Fetch.Proxy != "" {
		cfg.ProxyAddress = cf.Fetch.Proxy
	}
	if cf.PublishTimeout != 0 {
		cfg.PublishTimeout = cf.PublishTimeout
	}
	if cf.History {
		cfg.History = true
	}
}

// ApplyEnv fills the destination password from XMLMERGE_PASSWORD when the
// configuration does not set one.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg.Destination.Password == "" {
		cfg.Destination.Password = getenv(PasswordEnv)
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. .xmlmerge.yaml in the current directory
// 3. config.yaml in the XDG config directory
// 4. .xmlmerge.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

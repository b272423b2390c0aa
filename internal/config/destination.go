package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DestinationKind selects the publish backend.
type DestinationKind string

// Supported destination kinds.
const (
	// DestinationFTP uploads over FTP with passive data connections.
	DestinationFTP DestinationKind = "ftp"

	// DestinationS3 uploads to an S3-compatible bucket.
	DestinationS3 DestinationKind = "s3"

	// DestinationFile writes into a local directory.
	DestinationFile DestinationKind = "file"
)

// Valid reports whether k is a supported kind. The empty kind means ftp.
func (k DestinationKind) Valid() bool {
	switch k {
	case "", DestinationFTP, DestinationS3, DestinationFile:
		return true
	default:
		return false
	}
}

// Destination holds the connection parameters of the publish target.
//
// For s3 destinations Host is the endpoint, User the access key, Password
// the secret key and Directory the object key prefix.
type Destination struct {
	// Kind is the destination backend. Empty means ftp.
	Kind DestinationKind `yaml:"kind,omitempty"`

	// Host is the FTP server name (or S3 endpoint).
	Host string `yaml:"host,omitempty"`

	// Port is the FTP control port. Zero means DefaultFTPPort.
	Port int `yaml:"port,omitempty"`

	// User is the login name (or S3 access key).
	User string `yaml:"user,omitempty"`

	// Password is the login password (or S3 secret key).
	Password string `yaml:"password,omitempty"`

	// Directory is the remote directory to change into before upload.
	Directory string `yaml:"directory,omitempty"`

	// Bucket is the S3 bucket name. Only used by s3 destinations.
	Bucket string `yaml:"bucket,omitempty"`

	// Region is the S3 region. Only used by s3 destinations.
	Region string `yaml:"region,omitempty"`
}

// EffectiveKind returns the kind with the ftp default applied.
func (d Destination) EffectiveKind() DestinationKind {
	if d.Kind == "" {
		return DestinationFTP
	}
	return d.Kind
}

// Complete reports whether Validate would succeed.
func (d Destination) Complete() bool {
	return d.Validate() == nil
}

// Validate checks that the destination carries everything needed to open a session.
func (d Destination) Validate() error {
	switch d.EffectiveKind() {
	case DestinationFile:
		if strings.TrimSpace(d.Directory) == "" {
			return ErrNoDirectory
		}
		return nil
	case DestinationS3:
		if d.Host == "" || d.User == "" || d.Password == "" {
			return ErrIncompleteDestination
		}
		if d.Bucket == "" {
			return ErrNoBucket
		}
		return nil
	case DestinationFTP:
		if d.Host == "" || d.User == "" || d.Password == "" {
			return ErrIncompleteDestination
		}
		return nil
	default:
		return ErrUnknownDestinationKind
	}
}

// Address returns "host:port" for the FTP control connection.
// A port embedded in Host takes precedence over Port.
func (d Destination) Address() string {
	if _, _, err := net.SplitHostPort(d.Host); err == nil {
		return d.Host
	}
	port := d.Port
	if port == 0 {
		port = DefaultFTPPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// Merge returns d with every empty field filled from fallback.
func (d Destination) Merge(fallback Destination) Destination {
	result := d
	if result.Kind == "" {
		result.Kind = fallback.Kind
	}
	if result.Host == "" {
		result.Host = fallback.Host
	}
	if result.Port == 0 {
		result.Port = fallback.Port
	}
	if result.User == "" {
		result.User = fallback.User
	}
	if result.Password == "" {
		result.Password = fallback.Password
	}
	if result.Directory == "" {
		result.Directory = fallback.Directory
	}
	if result.Bucket == "" {
		result.Bucket = fallback.Bucket
	}
	if result.Region == "" {
		result.Region = fallback.Region
	}
	return result
}

// isHTTPURL reports whether s is an absolute http or https URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

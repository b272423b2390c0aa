package model

// PublishResult describes a completed publish.
type PublishResult struct {
	// Kind is the destination kind (ftp, s3 or file).
	Kind string `json:"kind"`

	// Location is a URL-style address of the published file,
	// e.g. ftp://ftp.example.com/public_html/tumurunler2.xml.
	Location string `json:"location"`

	// Filename is the name the catalog was stored under.
	Filename string `json:"filename"`

	// Bytes is the size of the serialized catalog.
	Bytes int64 `json:"bytes"`

	// Digest is the hex SHA3-256 of the published bytes.
	Digest string `json:"digest"`

	// DirectoryFallback is true when changing into the configured remote
	// directory failed and the file was stored in the session's default
	// directory instead.
	DirectoryFallback bool `json:"directory_fallback,omitempty"`
}

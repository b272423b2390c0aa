package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Destination.Validate()
// so that callers can use errors.Is() for programmatic handling.
var (
	// ErrNoSource is returned when no feed URL is configured.
	ErrNoSource = errors.New("no source specified: list feed URLs under 'sources' or pass them as arguments")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrNoFilename is returned when the remote file name is empty.
	ErrNoFilename = errors.New("no filename specified for the merged catalog")

	// ErrConflictingReportFormats is returned when both --json and --markdown are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownDestinationKind is returned for a destination kind other than ftp, s3 or file.
	ErrUnknownDestinationKind = errors.New("unknown destination kind: must be ftp, s3 or file")

	// ErrIncompleteDestination is returned when host, user or password is missing.
	ErrIncompleteDestination = errors.New("destination host, user and password are required")

	// ErrNoBucket is returned when an s3 destination has no bucket.
	ErrNoBucket = errors.New("s3 destination requires a bucket")

	// ErrNoDirectory is returned when a file destination has no directory.
	ErrNoDirectory = errors.New("file destination requires a directory")
)

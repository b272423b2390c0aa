package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	// KindTransport covers DNS, connect, TLS, timeout and body read failures.
	KindTransport Kind = "transport"

	// KindStatus is a response with a non-2xx status code.
	KindStatus Kind = "status"

	// KindParse is a body that is not a usable XML document.
	KindParse Kind = "parse"
)

var (
	// ErrUnexpectedStatus is wrapped by status failures.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNoRootElement is wrapped by parse failures of bodies without any element.
	ErrNoRootElement = errors.New("document has no root element")

	// ErrJunkAfterRoot is wrapped by parse failures of bodies with more than
	// one top-level element or with top-level text.
	ErrJunkAfterRoot = errors.New("junk outside the document element")
)

// Error is the failure of one source fetch.
type Error struct {
	// URL is the source that failed.
	URL string

	// Kind classifies the failure.
	Kind Kind

	// StatusCode is the HTTP status for KindStatus failures, and for parse
	// failures of otherwise successful responses.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s: %s failure: HTTP %d", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

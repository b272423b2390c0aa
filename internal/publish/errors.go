package publish

import "errors"

// Publish errors. All of them end the publish step.
var (
	// ErrMissingCredentials is returned before any network attempt when the
	// host, user or password is empty. It wraps config.ErrIncompleteDestination.
	ErrMissingCredentials = errors.New("missing destination credentials")

	// ErrInvalidDestination is returned for destinations that are incomplete
	// in other ways, such as an s3 destination without a bucket.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrConnect is returned when the session cannot be opened.
	ErrConnect = errors.New("cannot connect to destination")

	// ErrAuthentication is returned when the destination rejects the login.
	ErrAuthentication = errors.New("destination rejected the credentials")

	// ErrTransfer is returned when the upload itself fails.
	ErrTransfer = errors.New("transfer failed")

	// ErrUnsupportedKind is returned by Router for an unknown destination kind.
	ErrUnsupportedKind = errors.New("unsupported destination kind")
)

package pipeline

import "errors"

// ErrNoValidSource is returned by the fetch step when no source produced a
// document. Merge and publish do not run after it.
var ErrNoValidSource = errors.New("no valid XML source found")

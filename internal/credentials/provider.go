package credentials

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/nao1215/xmlmerge/internal/config"
)

// ErrCancelled is returned when the user leaves the prompt with Esc or Ctrl+C.
var ErrCancelled = errors.New("credential prompt cancelled")

// Provider supplies the publish destination.
type Provider interface {
	// Destination returns the destination to publish to.
	Destination(ctx context.Context) (config.Destination, error)
}

// Static returns a fixed destination.
type Static struct {
	dest config.Destination
}

// NewStatic creates a Static provider.
func NewStatic(dest config.Destination) *Static {
	return &Static{dest: dest}
}

// Destination returns the configured destination.
func (s *Static) Destination(_ context.Context) (config.Destination, error) {
	return s.dest, nil
}

// Select picks the provider for a run.
//
// force selects the prompt unconditionally. Otherwise the prompt is used only
// when the destination is incomplete and the user can answer it (terminal is
// true). File destinations never prompt.
func Select(dest config.Destination, force, terminal bool, opts ...InteractiveOption) Provider {
	if dest.EffectiveKind() == config.DestinationFile {
		return NewStatic(dest)
	}
	if force || (terminal && !dest.Complete()) {
		return NewInteractive(dest, opts...)
	}
	return NewStatic(dest)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

package intents

import (
	"context"
	"strings"
)

// Launcher hands URIs to whatever the platform uses to handle them
type Launcher interface {
	// Name returns the launcher identifier (e.g., "system", "noop")
	Name() string

	// IsEnabled checks if the launcher can run on this machine
	IsEnabled() bool

	// CanOpen reports whether some handler is registered for the URI
	CanOpen(ctx context.Context, uri string) (bool, error)

	// Open hands the URI to its handler
	Open(ctx context.Context, uri string) error
}

// DryRunner is implemented by launchers that only pretend to open links
type DryRunner interface {
	DryRun() bool
}

// LauncherFactory is a function that creates a new instance of a Launcher
type LauncherFactory func() Launcher

// SchemeOf returns the scheme of a URI such as "tel:123"
func SchemeOf(uri string) string {
	scheme, _, ok := strings.Cut(uri, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

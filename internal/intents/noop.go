package intents

import (
	"context"
	"fmt"
)

// NoopLauncher supports nothing, used when no opener is available
type NoopLauncher struct{}

// NewNoopLauncher creates a new no-op launcher
func NewNoopLauncher() Launcher {
	return &NoopLauncher{}
}

// Name returns the launcher identifier
func (n *NoopLauncher) Name() string {
	return "noop"
}

// IsEnabled always returns false for the noop launcher
func (n *NoopLauncher) IsEnabled() bool {
	return false
}

// CanOpen always reports the URI as unsupported
func (n *NoopLauncher) CanOpen(ctx context.Context, uri string) (bool, error) {
	return false, nil
}

// Open returns an error indicating no launcher is available
func (n *NoopLauncher) Open(ctx context.Context, uri string) error {
	return fmt.Errorf("no launcher configured")
}

func init() {
	Register("noop", NewNoopLauncher)
}

package intents

import (
	"context"
	"fmt"
	"sync"
)

// RecordingLauncher remembers the URIs it was asked to open instead of
// opening them. It backs --dry-run and the tests.
type RecordingLauncher struct {
	mu       sync.Mutex
	probed   []string
	opened   []string
	schemes  map[string]bool
	probeErr error
	openErr  error
	block    chan struct{}
}

// NewRecordingLauncher creates a launcher that supports the given schemes.
// With no schemes it supports everything.
func NewRecordingLauncher(schemes ...string) *RecordingLauncher {
	r := &RecordingLauncher{}
	if len(schemes) > 0 {
		r.schemes = make(map[string]bool, len(schemes))
		for _, s := range schemes {
			r.schemes[s] = true
		}
	}
	return r
}

// FailProbe makes CanOpen return err
func (r *RecordingLauncher) FailProbe(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probeErr = err
}

// FailOpen makes Open return err
func (r *RecordingLauncher) FailOpen(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openErr = err
}

// Hang makes CanOpen wait until ctx is done or Release is called
func (r *RecordingLauncher) Hang() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = make(chan struct{})
}

// Release undoes Hang
func (r *RecordingLauncher) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.block != nil {
		close(r.block)
		r.block = nil
	}
}

// Name returns the launcher identifier
func (r *RecordingLauncher) Name() string {
	return "dry-run"
}

// IsEnabled always returns true
func (r *RecordingLauncher) IsEnabled() bool {
	return true
}

// DryRun reports that nothing is really opened
func (r *RecordingLauncher) DryRun() bool {
	return true
}

// CanOpen records the probe and reports whether the scheme is supported
func (r *RecordingLauncher) CanOpen(ctx context.Context, uri string) (bool, error) {
	r.mu.Lock()
	r.probed = append(r.probed, uri)
	block := r.block
	err := r.probeErr
	supported := r.schemes == nil || r.schemes[SchemeOf(uri)]
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if err != nil {
		return false, err
	}
	return supported, nil
}

// Open records the URI
func (r *RecordingLauncher) Open(ctx context.Context, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return r.openErr
	}
	if r.schemes != nil && !r.schemes[SchemeOf(uri)] {
		return fmt.Errorf("no handler for %s", uri)
	}
	r.opened = append(r.opened, uri)
	return nil
}

// Probed returns every URI passed to CanOpen
func (r *RecordingLauncher) Probed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.probed...)
}

// Opened returns every URI passed to Open
func (r *RecordingLauncher) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}

func init() {
	Register("dry-run", func() Launcher { return NewRecordingLauncher() })
}

// Package system opens links with the desktop's own handlers: xdg-open on
// Linux, open on macOS and the URL protocol handler on Windows.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pdxmph/pocket-contacts/internal/intents"
)

// Runner executes a command and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// LookPath reports the location of an executable
type LookPath func(file string) (string, error)

// Launcher implements intents.Launcher using OS commands
type Launcher struct {
	goos     string
	run      Runner
	lookPath LookPath
}

// Option configures a Launcher
type Option func(*Launcher)

// WithGOOS overrides the detected operating system
func WithGOOS(goos string) Option {
	return func(l *Launcher) { l.goos = goos }
}

// WithRunner replaces command execution
func WithRunner(run Runner) Option {
	return func(l *Launcher) { l.run = run }
}

// WithLookPath replaces executable lookup
func WithLookPath(lp LookPath) Option {
	return func(l *Launcher) { l.lookPath = lp }
}

// New creates a system launcher
func New(opts ...Option) *Launcher {
	l := &Launcher{
		goos:     runtime.GOOS,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Name returns the launcher identifier
func (l *Launcher) Name() string {
	return "system"
}

// IsEnabled checks that the platform opener is installed
func (l *Launcher) IsEnabled() bool {
	name, _ := l.opener()
	if name == "" {
		return false
	}
	_, err := l.lookPath(name)
	return err == nil
}

// opener returns the command and leading arguments used to open a URI
func (l *Launcher) opener() (string, []string) {
	switch l.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "", nil
	}
}

// CanOpen asks the desktop whether a handler is registered for the
// URI's scheme. Only freedesktop systems can answer this; elsewhere the
// presence of the opener is taken as support.
func (l *Launcher) CanOpen(ctx context.Context, uri string) (bool, error) {
	scheme := intents.SchemeOf(uri)
	if scheme == "" {
		return false, fmt.Errorf("malformed uri %q", uri)
	}
	if !l.IsEnabled() {
		return false, nil
	}

	if l.goos != "linux" && !strings.HasSuffix(l.goos, "bsd") {
		return true, nil
	}

	if _, err := l.lookPath("xdg-mime"); err != nil {
		// Can't ask, so let xdg-open try
		return true, nil
	}

	output, err := l.run(ctx, "xdg-mime", "query", "default", "x-scheme-handler/"+scheme)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("querying handler for %s: %w (output: %s)", scheme, err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// Open hands the URI to the platform opener
func (l *Launcher) Open(ctx context.Context, uri string) error {
	name, args := l.opener()
	if name == "" {
		return fmt.Errorf("no opener for %s", l.goos)
	}

	output, err := l.run(ctx, name, append(args, uri)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("opening %s: %w (output: %s)", uri, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func init() {
	intents.Register("system", func() intents.Launcher { return New() })
}

package intents

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownLauncher is returned when no launcher has the requested name
var ErrUnknownLauncher = errors.New("intents: unknown launcher")

type registration struct {
	name    string
	factory LauncherFactory
}

// Registry maps launcher names to factories. Names are kept sorted.
type Registry struct {
	mu   sync.RWMutex
	regs []registration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

func byName(r registration, name string) int {
	return strings.Compare(r.name, name)
}

// Register adds a launcher factory under name
func (r *Registry) Register(name string, factory LauncherFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, found := slices.BinarySearchFunc(r.regs, name, byName)
	if found {
		return fmt.Errorf("launcher %s already registered", name)
	}
	r.regs = slices.Insert(r.regs, i, registration{name: name, factory: factory})
	return nil
}

// Create instantiates the launcher registered under name
func (r *Registry) Create(name string) (Launcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, found := slices.BinarySearchFunc(r.regs, name, byName)
	if !found {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownLauncher, name, strings.Join(r.names(), ", "))
	}
	return r.regs[i].factory(), nil
}

// List returns the registered names in order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, len(r.regs))
	for i, reg := range r.regs {
		names[i] = reg.name
	}
	return names
}

// Status describes a registered launcher on this machine
type Status struct {
	Name    string
	Enabled bool
}

// Statuses instantiates every launcher and reports whether it can run
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	regs := slices.Clone(r.regs)
	r.mu.RUnlock()

	out := make([]Status, len(regs))
	for i, reg := range regs {
		out[i] = Status{Name: reg.name, Enabled: reg.factory().IsEnabled()}
	}
	return out
}

var defaultRegistry = NewRegistry()

// Register adds a launcher to the global registry. Launcher packages call
// it from init.
func Register(name string, factory LauncherFactory) error {
	return defaultRegistry.Register(name, factory)
}

// CreateLauncher creates a launcher from the global registry
func CreateLauncher(name string) (Launcher, error) {
	return defaultRegistry.Create(name)
}

// ListLaunchers returns the names in the global registry
func ListLaunchers() []string {
	return defaultRegistry.List()
}

// LauncherStatuses reports on every launcher in the global registry
func LauncherStatuses() []Status {
	return defaultRegistry.Statuses()
}

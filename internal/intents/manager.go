package intents

// Manager picks the launcher the application uses
type Manager struct {
	launcher Launcher
	explicit bool
}

// Preference is the order launchers are tried in when none is configured
var Preference = []string{"system", "noop"}

// NewManager selects the named launcher. An empty name picks the first
// enabled launcher in Preference, or the noop launcher if none is.
func NewManager(name string) (*Manager, error) {
	return newManager(defaultRegistry, name)
}

func newManager(r *Registry, name string) (*Manager, error) {
	if name != "" {
		l, err := r.Create(name)
		if err != nil {
			return nil, err
		}
		return &Manager{launcher: l, explicit: true}, nil
	}

	for _, candidate := range Preference {
		if l, err := r.Create(candidate); err == nil && l.IsEnabled() {
			return &Manager{launcher: l}, nil
		}
	}
	return &Manager{launcher: NewNoopLauncher()}, nil
}

// Launcher returns the selected launcher
func (m *Manager) Launcher() Launcher {
	return m.launcher
}

// Name returns the name of the selected launcher
func (m *Manager) Name() string {
	return m.launcher.Name()
}

// IsEnabled returns whether the selected launcher is enabled
func (m *Manager) IsEnabled() bool {
	return m.launcher.IsEnabled()
}

// Explicit reports whether the launcher was chosen by name
func (m *Manager) Explicit() bool {
	return m.explicit
}

// Package screen holds the contact details screen: it resolves one contact
// from the store and turns user gestures into store mutations, platform
// intents and navigation. It knows nothing about how it is drawn.
package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/intents"
)

// State is where a Details screen is in its lifecycle
type State int

const (
	// Resolving is the initial state, and the state after a failed read
	Resolving State = iota
	// NotFound is terminal: the contact is gone and nothing can be done
	NotFound
	// Ready means the contact is loaded and actions are available
	Ready
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case NotFound:
		return "not-found"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

var (
	// ErrNoContact is returned by actions invoked while no contact is loaded
	ErrNoContact = errors.New("screen: no contact loaded")

	// ErrAbandoned is returned when the user gives up after a timeout
	ErrAbandoned = errors.New("screen: abandoned after timeout")
)

// Deps are the collaborators a Details screen needs
type Deps struct {
	Store     contact.Store
	Launcher  intents.Launcher
	Navigator Navigator
	Dialogs   Dialogs
	Logger    *zap.Logger
	Timeouts  Timeouts
}

// Details is the contact details screen
type Details struct {
	id       string
	store    contact.Store
	launcher intents.Launcher
	nav      Navigator
	dialogs  Dialogs
	log      *zap.Logger
	timeouts Timeouts

	mu      sync.RWMutex
	state   State
	contact contact.Contact
	err     error

	// opened is the link the last call, message or email handed off
	opened string

	// reads counts lookups started; applied is the newest one kept
	reads   uint64
	applied uint64
}

// NewDetails creates the screen for a contact ID. Call Refresh to resolve it.
func NewDetails(contactID string, deps Deps) *Details {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeouts := deps.Timeouts
	if timeouts.Probe <= 0 {
		timeouts.Probe = DefaultTimeouts.Probe
	}
	if timeouts.Open <= 0 {
		timeouts.Open = DefaultTimeouts.Open
	}
	if timeouts.Delete <= 0 {
		timeouts.Delete = DefaultTimeouts.Delete
	}
	launcher := deps.Launcher
	if launcher == nil {
		launcher = intents.NewNoopLauncher()
	}

	return &Details{
		id:       contactID,
		store:    deps.Store,
		launcher: launcher,
		nav:      deps.Navigator,
		dialogs:  deps.Dialogs,
		log:      log.With(zap.String("contact_id", contactID)),
		timeouts: timeouts,
	}
}

// ID returns the contact ID the screen was opened with
func (d *Details) ID() string {
	return d.id
}

// State returns the current state
func (d *Details) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Contact returns the loaded contact, if any
func (d *Details) Contact() (contact.Contact, bool) {
	return d.current()
}

func (d *Details) current() (contact.Contact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.contact, d.state == Ready
}

// Refresh looks the contact up again. Once the screen has seen the
// contact missing it stays NotFound. When lookups overlap, a result is
// dropped if a later lookup has already been applied.
func (d *Details) Refresh(ctx context.Context) State {
	d.mu.Lock()
	if d.state == NotFound {
		d.mu.Unlock()
		return NotFound
	}
	d.reads++
	gen := d.reads
	d.mu.Unlock()

	c, err := d.store.Get(ctx, d.id)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == NotFound {
		return NotFound
	}
	if gen < d.applied {
		d.log.Debug("dropping stale lookup", zap.Uint64("read", gen), zap.Uint64("applied", d.applied))
		return d.state
	}
	d.applied = gen

	switch {
	case err == nil:
		d.state = Ready
		d.contact = c
		d.err = nil
	case errors.Is(err, contact.ErrNotFound):
		d.log.Debug("contact not found")
		d.state = NotFound
		d.contact = contact.Contact{}
		d.err = nil
	default:
		d.log.Warn("loading contact failed", zap.Error(err))
		d.err = err
	}
	return d.state
}

// Call opens a tel: link for the contact
func (d *Details) Call(ctx context.Context) error {
	return d.communicate(ctx, intents.Call)
}

// Message opens an sms: link for the contact
func (d *Details) Message(ctx context.Context) error {
	return d.communicate(ctx, intents.Message)
}

// Email opens a mailto: link for the contact
func (d *Details) Email(ctx context.Context) error {
	return d.communicate(ctx, intents.Email)
}

// communicate probes the launcher and opens the link only if the probe
// said yes. Failures end in an alert, never in an error for the caller.
func (d *Details) communicate(ctx context.Context, capability intents.Capability) error {
	c, ok := d.current()
	if !ok {
		return ErrNoContact
	}

	d.mu.Lock()
	d.opened = ""
	d.mu.Unlock()

	log := d.log.With(zap.Stringer("capability", capability))

	uri, err := intents.URI(capability, c)
	if err != nil {
		log.Debug("missing contact field", zap.Error(err))
		return d.alert(ctx, "Error", fmt.Sprintf("%s has no %s", c.FullName(), capability.Field()))
	}

	var supported bool
	err = d.bounded(ctx, d.timeouts.Probe, "Checking for an app that can handle "+capability.Scheme()+": links", func(ctx context.Context) error {
		var err error
		supported, err = d.launcher.CanOpen(ctx, uri)
		return err
	})
	switch {
	case quiet(err):
		log.Debug("probe abandoned", zap.Error(err))
		return nil
	case err != nil:
		log.Warn("capability probe failed", zap.Error(err))
		supported = false
	}

	if !supported {
		log.Info("capability not supported", zap.String("launcher", d.launcher.Name()))
		return d.alert(ctx, "Error", capability.Unsupported())
	}

	err = d.bounded(ctx, d.timeouts.Open, "Opening "+uri, func(ctx context.Context) error {
		return d.launcher.Open(ctx, uri)
	})
	switch {
	case quiet(err):
		log.Debug("open abandoned", zap.Error(err))
		return nil
	case err != nil:
		log.Warn("opening link failed", zap.String("uri", uri), zap.Error(err))
		return d.alert(ctx, "Error", fmt.Sprintf("Could not open %s", uri))
	}

	d.mu.Lock()
	d.opened = uri
	d.mu.Unlock()
	log.Info("opened link", zap.String("uri", uri))
	return nil
}

// DeletePrompt is the confirmation shown before deleting c
func DeletePrompt(c contact.Contact) Prompt {
	return Prompt{
		Title:   "Delete Contact",
		Message: fmt.Sprintf("Are you sure you want to delete %s?", c.FullName()),
		Options: []Option{
			{Label: "Cancel", Style: StyleCancel},
			{Label: "Delete", Style: StyleDestructive},
		},
	}
}

// Delete asks for confirmation, waits for the store to remove the contact
// and only then navigates back.
func (d *Details) Delete(ctx context.Context) error {
	c, ok := d.current()
	if !ok {
		return ErrNoContact
	}

	prompt := DeletePrompt(c)
	choice, err := d.dialogs.Confirm(ctx, prompt)
	if err != nil {
		if quiet(err) {
			return nil
		}
		return fmt.Errorf("confirming delete: %w", err)
	}
	if choice < 0 || choice >= len(prompt.Options) || prompt.Options[choice].Style != StyleDestructive {
		d.log.Debug("delete cancelled")
		return nil
	}

	err = d.bounded(ctx, d.timeouts.Delete, "Deleting "+c.FullName(), func(ctx context.Context) error {
		return d.store.Delete(ctx, c.ID)
	})
	switch {
	case quiet(err):
		d.log.Info("delete abandoned", zap.Error(err))
		return nil
	case err != nil:
		d.log.Error("deleting contact failed", zap.Error(err))
		if aerr := d.alert(ctx, "Error", fmt.Sprintf("Could not delete %s", c.FullName())); aerr != nil {
			d.log.Warn("showing alert failed", zap.Error(aerr))
		}
		return fmt.Errorf("deleting contact: %w", err)
	}

	d.log.Info("contact deleted")
	d.nav.Back()
	return nil
}

// Edit opens the edit form with the current contact
func (d *Details) Edit() error {
	c, ok := d.current()
	if !ok {
		return ErrNoContact
	}
	d.nav.Edit(c)
	return nil
}

// ToggleFavorite flips the favorite flag. The store applies it in the
// background; the screen sees the result on its next Refresh.
func (d *Details) ToggleFavorite() error {
	if _, ok := d.current(); !ok {
		return ErrNoContact
	}
	d.store.ToggleFavorite(d.id)
	return nil
}

// bounded runs fn under a timeout. If that timeout, and not the caller's
// context, ends the call the user may retry or give up.
func (d *Details) bounded(ctx context.Context, limit time.Duration, what string, fn func(context.Context) error) error {
	for {
		callCtx, cancel := context.WithTimeout(ctx, limit)
		err := fn(callCtx)
		cancel()

		if err == nil || !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return err
		}

		d.log.Warn("call timed out", zap.String("what", what), zap.Duration("limit", limit))
		prompt := Prompt{
			Title:   "Timed out",
			Message: what + " is taking too long.",
			Options: []Option{
				{Label: "Cancel", Style: StyleCancel},
				{Label: "Retry"},
			},
		}
		choice, perr := d.dialogs.Confirm(ctx, prompt)
		if perr != nil {
			return perr
		}
		if choice != 1 {
			return ErrAbandoned
		}
	}
}

func (d *Details) alert(ctx context.Context, title, message string) error {
	err := d.dialogs.Alert(ctx, title, message)
	if err != nil && !quiet(err) {
		return fmt.Errorf("showing alert: %w", err)
	}
	return nil
}

// quiet errors end an action without anything to report
func quiet(err error) bool {
	return errors.Is(err, ErrAbandoned) || errors.Is(err, context.Canceled)
}

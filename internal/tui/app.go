// Package tui is the terminal interface: a contact list, the details
// screen and an add/edit form on a route stack, with modal dialogs.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/intents"
	"github.com/pdxmph/pocket-contacts/internal/screen"
)

// Options configures the application model
type Options struct {
	Store    contact.Store
	Launcher intents.Launcher
	Logger   *zap.Logger
	Timeouts screen.Timeouts
}

// page is one entry of the route stack
type page interface {
	routeID() int
	handleKey(m *Model, msg tea.KeyMsg) tea.Cmd
	update(msg tea.Msg) tea.Cmd
	help() string
}

// Model represents the main application state
type Model struct {
	ctx      context.Context
	stop     context.CancelFunc
	store    contact.Store
	launcher intents.Launcher
	log      *zap.Logger
	timeouts screen.Timeouts

	bridge      *Bridge
	events      <-chan contact.Event
	unsubscribe func()

	list      *listPage
	loads     int
	routes    []page
	nextRoute int
	dialogs   []*dialogRequest

	width  int
	height int

	notes      *glamour.TermRenderer
	notesWidth int
}

type (
	contactsLoadedMsg struct {
		seq      int
		contacts []contact.Contact
		err      error
	}
	storeEventMsg contact.Event
)

// New creates a new application model
func New(ctx context.Context, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = intents.NewNoopLauncher()
	}

	ctx, stop := context.WithCancel(ctx)
	events, unsubscribe := opts.Store.Subscribe()
	m := &Model{
		ctx:         ctx,
		stop:        stop,
		store:       opts.Store,
		launcher:    launcher,
		log:         log,
		timeouts:    opts.Timeouts,
		bridge:      NewBridge(),
		events:      events,
		unsubscribe: unsubscribe,
		list:        newListPage(),
		nextRoute:   1,
	}
	m.routes = []page{m.list}
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadContacts(),
		m.list.spinner.Init(),
		m.bridge.Listen(),
		m.waitForEvent(),
	)
}

// Close stops background work. Safe to call more than once.
func (m *Model) Close() {
	m.stop()
	m.bridge.Close()
	m.unsubscribe()
}

func (m *Model) quit() tea.Cmd {
	m.Close()
	return tea.Quit
}

// loadContacts reads the list in the background. Results are numbered so
// an older read finishing late cannot replace a newer one.
func (m *Model) loadContacts() tea.Cmd {
	m.loads++
	ctx, store, seq := m.ctx, m.store, m.loads
	return func() tea.Msg {
		cs, err := store.List(ctx)
		return contactsLoadedMsg{seq: seq, contacts: cs, err: err}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return storeEventMsg(e)
	}
}

func (m *Model) top() page {
	return m.routes[len(m.routes)-1]
}

func (m *Model) route(id int) page {
	for _, r := range m.routes {
		if r.routeID() == id {
			return r
		}
	}
	return nil
}

func (m *Model) pushDetails(contactID string) tea.Cmd {
	p := newDetailsPage(m, m.nextRoute, contactID)
	m.nextRoute++
	m.routes = append(m.routes, p)
	m.log.Debug("open details", zap.String("contact_id", contactID), zap.Int("route", p.id))
	return tea.Batch(p.refresh(m), p.spinner.Init())
}

func (m *Model) pushForm(seed contact.Contact, editing bool) tea.Cmd {
	p := newFormPage(m, m.nextRoute, seed, editing)
	m.nextRoute++
	m.routes = append(m.routes, p)
	return textinput.Blink
}

// popRoute removes a route. The list at the bottom is never removed.
func (m *Model) popRoute(id int) {
	for i := len(m.routes) - 1; i > 0; i-- {
		if m.routes[i].routeID() != id {
			continue
		}
		if p, ok := m.routes[i].(*detailsPage); ok {
			p.cancelAction()
		}
		m.routes = append(m.routes[:i], m.routes[i+1:]...)
		return
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.pruneDialogs()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			m.list.filter.Width = max(m.width/3-4, 10)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if len(m.dialogs) > 0 {
			return m, m.handleDialogKey(msg)
		}
		return m, m.top().handleKey(m, msg)

	case contactsLoadedMsg:
		if msg.seq < m.list.loaded {
			m.log.Debug("dropping stale contact list", zap.Int("seq", msg.seq), zap.Int("applied", m.list.loaded))
			return m, nil
		}
		m.list.loaded = msg.seq
		if msg.err != nil {
			m.log.Error("loading contacts failed", zap.Error(msg.err))
		}
		m.list.setContacts(msg.contacts, msg.err)
		return m, nil

	case storeEventMsg:
		m.log.Debug("store changed", zap.Stringer("kind", msg.Kind), zap.String("contact_id", msg.ID))
		cmds := []tea.Cmd{m.waitForEvent(), m.loadContacts()}
		for _, r := range m.routes {
			if p, ok := r.(*detailsPage); ok {
				cmds = append(cmds, p.refresh(m))
			}
		}
		return m, tea.Batch(cmds...)

	case detailsRefreshedMsg:
		if p, ok := m.route(msg.route).(*detailsPage); ok {
			p.sync()
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.log.Warn("action failed", zapAction(msg.action), zap.Error(msg.err))
		}
		if p, ok := m.route(msg.route).(*detailsPage); ok {
			p.finish(msg)
		}
		m.pruneDialogs()
		return m, nil

	case formSavedMsg:
		if p, ok := m.route(msg.route).(*formPage); ok {
			return m, p.saved(m, msg)
		}
		return m, nil

	case *dialogRequest:
		m.dialogs = append(m.dialogs, msg)
		return m, m.bridge.Listen()

	case navBackMsg:
		m.popRoute(msg.route)
		return m, m.bridge.Listen()

	case navEditMsg:
		return m, tea.Batch(m.pushForm(msg.seed, true), m.bridge.Listen())
	}

	// Animation ticks and anything else go to every page
	var cmds []tea.Cmd
	for _, r := range m.routes {
		cmds = append(cmds, r.update(msg))
	}
	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if len(m.dialogs) > 0 {
		return m.renderDialog(m.dialogs[0])
	}

	bodyHeight := m.height - 4
	var body string
	switch p := m.top().(type) {
	case *listPage:
		body = p.view(m.width-4, bodyHeight)
	case *detailsPage:
		body = p.render(m, min(m.width-6, 80))
	case *formPage:
		body = p.view()
	}

	content := borderStyle.
		Width(m.width - 2).
		Height(bodyHeight).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderHelp())
}

func (m *Model) renderHelp() string {
	title := "Contacts"
	if n := len(m.list.contacts); n > 0 {
		title = fmt.Sprintf("Contacts (%d)", n)
	}
	return helpStyle.Render(title + " • " + m.top().help())
}

// renderNotes renders Markdown notes, falling back to the raw text
func (m *Model) renderNotes(notes string, width int) string {
	if m.notes == nil || m.notesWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.log.Debug("creating notes renderer failed", zap.Error(err))
			return notes
		}
		m.notes, m.notesWidth = r, width
	}

	out, err := m.notes.Render(notes)
	if err != nil {
		m.log.Debug("rendering notes failed", zap.Error(err))
		return notes
	}
	return strings.Trim(out, "\n")
}

func zapAction(a screen.Action) zap.Field {
	return zap.String("action", a.Label())
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/pocket-contacts/internal/intents"
	"github.com/pdxmph/pocket-contacts/internal/screen"
	"github.com/pdxmph/pocket-contacts/internal/widget"
)

// buttonActions is the action row, left to right
var buttonActions = []screen.Action{
	screen.ActionCall,
	screen.ActionMessage,
	screen.ActionEmail,
	screen.ActionEdit,
	screen.ActionDelete,
	screen.ActionFavorite,
}

// detailsPage draws a screen.Details and runs its actions in commands
type detailsPage struct {
	id      int
	screen  *screen.Details
	view    screen.View
	buttons []widget.Button
	focus   int
	spinner widget.Spinner

	// one action at a time
	busy    bool
	running screen.Action
	cancel  context.CancelFunc
	status  string
	notice  string

	// links are only simulated, so say what would have opened
	dryRun bool
}

type (
	detailsRefreshedMsg struct{ route int }
	actionDoneMsg       struct {
		route  int
		action screen.Action
		err    error
	}
)

func newDetailsPage(m *Model, route int, contactID string) *detailsPage {
	p := &detailsPage{
		id:      route,
		spinner: widget.NewSpinner("Loading contact..."),
	}
	if dr, ok := m.launcher.(intents.DryRunner); ok {
		p.dryRun = dr.DryRun()
	}
	p.screen = screen.NewDetails(contactID, screen.Deps{
		Store:     m.store,
		Launcher:  m.launcher,
		Navigator: m.bridge.Navigator(route),
		Dialogs:   m.bridge,
		Logger:    m.log,
		Timeouts:  m.timeouts,
	})

	for _, a := range buttonActions {
		variant := widget.Primary
		if a == screen.ActionEdit || a == screen.ActionDelete || a == screen.ActionFavorite {
			variant = widget.Secondary
		}
		p.buttons = append(p.buttons, widget.NewButton(a.Label(), variant, func() tea.Cmd {
			return p.start(m, a)
		}))
	}
	p.sync()
	return p
}

func (p *detailsPage) routeID() int { return p.id }

// refresh resolves the contact again in the background
func (p *detailsPage) refresh(m *Model) tea.Cmd {
	ctx, d, route := m.ctx, p.screen, p.id
	return func() tea.Msg {
		d.Refresh(ctx)
		return detailsRefreshedMsg{route: route}
	}
}

// sync copies the screen's state into the widgets
func (p *detailsPage) sync() {
	p.view = p.screen.View()
	for i, a := range buttonActions {
		b := &p.buttons[i]
		b.Disabled = !p.view.Enabled(a)
		b.Loading = p.busy && p.running == a
		b.Focused = i == p.focus
		if a == screen.ActionFavorite && p.view.FavoriteLabel != "" {
			b.Label = p.view.FavoriteLabel
		}
	}
}

// start runs an action unless another one is in flight
func (p *detailsPage) start(m *Model, a screen.Action) tea.Cmd {
	if p.busy || !p.view.Enabled(a) {
		return nil
	}

	run := p.runner(a)
	ctx, cancel := context.WithCancel(m.ctx)
	p.busy, p.running, p.cancel, p.status, p.notice = true, a, cancel, "", ""
	p.sync()

	route := p.id
	m.log.Debug("starting action", zapAction(a))
	return tea.Batch(
		func() tea.Msg {
			return actionDoneMsg{route: route, action: a, err: run(ctx)}
		},
		p.buttons[slices.Index(buttonActions, a)].Tick(),
	)
}

func (p *detailsPage) runner(a screen.Action) func(context.Context) error {
	d := p.screen
	switch a {
	case screen.ActionCall:
		return d.Call
	case screen.ActionMessage:
		return d.Message
	case screen.ActionEmail:
		return d.Email
	case screen.ActionDelete:
		return d.Delete
	case screen.ActionEdit:
		return func(context.Context) error { return d.Edit() }
	case screen.ActionFavorite:
		return func(context.Context) error { return d.ToggleFavorite() }
	default:
		return func(context.Context) error { return fmt.Errorf("unknown action %d", a) }
	}
}

func (p *detailsPage) finish(msg actionDoneMsg) {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.busy = false
	if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
		p.status = msg.err.Error()
	}
	p.sync()

	switch msg.action {
	case screen.ActionCall, screen.ActionMessage, screen.ActionEmail:
		if msg.err == nil && p.dryRun && p.view.Opened != "" {
			p.notice = "Would open " + p.view.Opened
		}
	}
}

// cancelAction ends the in-flight action. Its command still reports back.
func (p *detailsPage) cancelAction() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *detailsPage) handleKey(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return m.quit()
	case "esc", "backspace":
		m.popRoute(p.id)
	case "ctrl+x":
		p.cancelAction()
	case "c":
		return p.start(m, screen.ActionCall)
	case "m":
		return p.start(m, screen.ActionMessage)
	case "e":
		return p.start(m, screen.ActionEmail)
	case "E":
		return p.start(m, screen.ActionEdit)
	case "d":
		return p.start(m, screen.ActionDelete)
	case "*":
		return p.start(m, screen.ActionFavorite)
	case "left", "h", "shift+tab":
		p.focus = (p.focus + len(p.buttons) - 1) % len(p.buttons)
		p.sync()
	case "right", "l", "tab":
		p.focus = (p.focus + 1) % len(p.buttons)
		p.sync()
	case "enter", " ":
		if p.view.State == screen.Ready {
			return p.buttons[p.focus].Press()
		}
	case "r":
		if p.view.State == screen.Resolving {
			return p.refresh(m)
		}
	}
	return nil
}

func (p *detailsPage) update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if p.view.State == screen.Resolving {
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	for i := range p.buttons {
		var cmd tea.Cmd
		p.buttons[i], cmd = p.buttons[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (p *detailsPage) render(m *Model, width int) string {
	v := p.view
	var lines []string

	switch v.State {
	case screen.Resolving:
		if v.Err != nil {
			lines = append(lines,
				errorStyle.Render(fmt.Sprintf("Could not load contact: %v", v.Err)),
				"",
				helpStyle.Render("r to retry • esc to go back"))
		} else {
			lines = append(lines, p.spinner.View())
		}
		return strings.Join(lines, "\n")

	case screen.NotFound:
		lines = append(lines,
			titleStyle.Render("Contact not found"),
			"",
			labelStyle.Render("This contact no longer exists."))
		return strings.Join(lines, "\n")
	}

	header := titleStyle.Render(v.FullName)
	if v.Favorite {
		header = favoriteStyle.Render("★ ") + header
	}
	if v.HasAvatar() {
		lines = append(lines, labelStyle.Render("Avatar: "+v.Avatar))
	} else {
		lines = append(lines, initialsStyle.Render(v.Initials))
	}
	lines = append(lines, "", header)
	if v.HasCompany() {
		lines = append(lines, labelStyle.Render(v.Company))
	}
	lines = append(lines, "",
		labelStyle.Render("Phone: ")+orDash(v.Phone),
		labelStyle.Render("Email: ")+orDash(v.Email),
	)

	if v.HasNotes() {
		lines = append(lines, "", labelStyle.Render("Notes"), m.renderNotes(v.Notes, width))
	}

	lines = append(lines, "", widget.Row(p.buttons...))
	if p.status != "" {
		lines = append(lines, "", errorStyle.Render(p.status))
	}
	if p.notice != "" {
		lines = append(lines, "", labelStyle.Render(p.notice))
	}
	return strings.Join(lines, "\n")
}

func (p *detailsPage) help() string {
	if p.busy {
		return "ctrl+x: cancel • esc: back"
	}
	if p.view.State != screen.Ready {
		return "esc: back • q: quit"
	}
	return "c: call • m: message • e: email • *: favorite • E: edit • d: delete • ←/→: select • enter: press • esc: back"
}

func orDash(s string) string {
	if s == "" {
		return labelStyle.Render("—")
	}
	return s
}

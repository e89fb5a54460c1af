package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/widget"
)

// listPage is the bottom of the route stack
type listPage struct {
	contacts      []contact.Contact
	loaded        int // seq of the applied load
	loading       bool
	err           error
	selected      int
	filter        textinput.Model
	filterMode    bool
	favoritesOnly bool
	spinner       widget.Spinner
}

func newListPage() *listPage {
	ti := textinput.New()
	ti.Placeholder = "Filter contacts..."
	ti.Width = 30
	ti.CharLimit = 50
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	return &listPage{
		loading: true,
		filter:  ti,
		spinner: widget.NewSpinner("Loading contacts..."),
	}
}

func (p *listPage) routeID() int { return 0 }

// visible returns the contacts that pass the filter and favorites toggle
func (p *listPage) visible() []contact.Contact {
	query := p.filter.Value()
	var out []contact.Contact
	for _, c := range p.contacts {
		if p.favoritesOnly && !c.Favorite {
			continue
		}
		if !c.Matches(query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// current returns the selected contact
func (p *listPage) current() (contact.Contact, bool) {
	cs := p.visible()
	if p.selected < 0 || p.selected >= len(cs) {
		return contact.Contact{}, false
	}
	return cs[p.selected], true
}

func (p *listPage) setContacts(cs []contact.Contact, err error) {
	p.loading = false
	p.err = err
	if err != nil {
		return
	}

	// Keep the cursor on the same contact when the list reloads
	prev, ok := p.current()
	p.contacts = cs
	if ok {
		for i, c := range p.visible() {
			if c.ID == prev.ID {
				p.selected = i
				return
			}
		}
	}
	p.clampSelection()
}

func (p *listPage) clampSelection() {
	n := len(p.visible())
	if p.selected >= n {
		p.selected = n - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

func (p *listPage) handleKey(m *Model, msg tea.KeyMsg) tea.Cmd {
	if p.filterMode {
		switch msg.String() {
		case "esc":
			p.filterMode = false
			p.filter.Blur()
			p.filter.SetValue("")
			p.clampSelection()
			return nil
		case "enter":
			p.filterMode = false
			p.filter.Blur()
			return nil
		}
		var cmd tea.Cmd
		p.filter, cmd = p.filter.Update(msg)
		p.selected = 0
		return cmd
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "j", "down":
		if p.selected < len(p.visible())-1 {
			p.selected++
		}
	case "k", "up":
		if p.selected > 0 {
			p.selected--
		}
	case "g", "home":
		p.selected = 0
	case "G", "end":
		p.selected = max(len(p.visible())-1, 0)
	case "/":
		p.filterMode = true
		return p.filter.Focus()
	case "esc":
		if p.filter.Value() != "" {
			p.filter.SetValue("")
			p.clampSelection()
		}
	case "f":
		p.favoritesOnly = !p.favoritesOnly
		p.clampSelection()
	case "a":
		return m.pushForm(contact.Contact{}, false)
	case "*":
		if c, ok := p.current(); ok {
			m.store.ToggleFavorite(c.ID)
		}
	case "enter":
		if c, ok := p.current(); ok {
			return m.pushDetails(c.ID)
		}
	case "r":
		p.loading = true
		return tea.Batch(m.loadContacts(), p.spinner.Init())
	}
	return nil
}

func (p *listPage) update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if p.loading {
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	if p.filterMode {
		var cmd tea.Cmd
		p.filter, cmd = p.filter.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (p *listPage) view(width, height int) string {
	var lines []string

	if p.filterMode || p.filter.Value() != "" {
		lines = append(lines, p.filter.View(), "")
		height -= 2
	}
	if p.favoritesOnly {
		lines = append(lines, favoriteStyle.Render("★ favorites only"), "")
		height -= 2
	}

	switch {
	case p.loading:
		lines = append(lines, p.spinner.View())
		return strings.Join(lines, "\n")
	case p.err != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Could not load contacts: %v", p.err)), "", helpStyle.Render("r to retry"))
		return strings.Join(lines, "\n")
	}

	contacts := p.visible()
	if len(contacts) == 0 {
		if len(p.contacts) == 0 {
			lines = append(lines, labelStyle.Render("No contacts yet. Press a to add one."))
		} else {
			lines = append(lines, labelStyle.Render("No matching contacts"))
		}
		return strings.Join(lines, "\n")
	}

	// Scroll so the selection stays on screen
	start := 0
	if height > 0 && p.selected >= height {
		start = p.selected - height + 1
	}
	end := len(contacts)
	if height > 0 && end > start+height {
		end = start + height
	}

	for i := start; i < end; i++ {
		c := contacts[i]
		marker := "  "
		if c.Favorite {
			marker = favoriteStyle.Render("★") + " "
		}
		line := c.FullName()
		if c.Company != "" {
			line += " " + labelStyle.Render("· "+c.Company)
		}
		if width > 4 {
			line = lipgloss.NewStyle().MaxWidth(width - 4).Render(line)
		}
		if i == p.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, marker+line)
	}
	return strings.Join(lines, "\n")
}

func (p *listPage) help() string {
	if p.filterMode {
		return "enter: keep filter • esc: clear"
	}
	return "↑/↓: move • enter: open • /: filter • f: favorites • *: favorite • a: add • q: quit"
}

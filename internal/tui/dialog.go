package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/pocket-contacts/internal/screen"
)

// pruneDialogs drops prompts whose requester has stopped waiting
func (m *Model) pruneDialogs() {
	kept := m.dialogs[:0]
	for _, d := range m.dialogs {
		if d.ctx.Err() == nil {
			kept = append(kept, d)
		}
	}
	m.dialogs = kept
}

func (m *Model) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	d := m.dialogs[0]
	n := len(d.prompt.Options)
	if n == 0 {
		m.answerDialog(-1)
		return nil
	}

	switch msg.String() {
	case "left", "h", "shift+tab":
		d.focus = (d.focus + n - 1) % n
	case "right", "l", "tab":
		d.focus = (d.focus + 1) % n
	case "enter", " ":
		m.answerDialog(d.focus)
	case "esc":
		if i := d.prompt.CancelIndex(); i >= 0 {
			m.answerDialog(i)
		}
	case "ctrl+x":
		if p, ok := m.top().(*detailsPage); ok {
			p.cancelAction()
		}
		m.pruneDialogs()
	}
	return nil
}

func (m *Model) answerDialog(i int) {
	d := m.dialogs[0]
	m.dialogs = m.dialogs[1:]
	d.answer(i)
}

func (m *Model) renderDialog(d *dialogRequest) string {
	var buttons []string
	for i, o := range d.prompt.Options {
		style := lipgloss.NewStyle().Padding(0, 2)
		if o.Style == screen.StyleDestructive {
			style = style.Inherit(destructiveStyle)
		}
		if i == d.focus {
			style = style.Inherit(selectedStyle)
		}
		buttons = append(buttons, style.Render(o.Label))
	}

	content := strings.Join([]string{
		titleStyle.Render(d.prompt.Title),
		"",
		d.prompt.Message,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, buttons...),
	}, "\n")

	width := min(60, max(m.width-4, 20))
	return center(m.width, m.height, dialogStyle.Width(width).Render(content))
}

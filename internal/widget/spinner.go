// Package widget holds small reusable view components.
package widget

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultSpinnerMessage is shown when a Spinner has no message
const DefaultSpinnerMessage = "Loading..."

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Spinner is an activity indicator with a message
type Spinner struct {
	Message string
	model   spinner.Model
}

// NewSpinner creates a spinner. An empty message means DefaultSpinnerMessage.
func NewSpinner(message string) Spinner {
	return Spinner{
		Message: message,
		model: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(spinnerStyle),
		),
	}
}

// Init starts the animation
func (s Spinner) Init() tea.Cmd {
	return s.Tick
}

// Tick produces the next animation message
func (s Spinner) Tick() tea.Msg {
	return s.model.Tick()
}

// Update advances the animation. Ticks for other spinners are ignored.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.model, cmd = s.model.Update(msg)
	return s, cmd
}

// Frame returns only the current animation frame
func (s Spinner) Frame() string {
	if len(s.model.Spinner.Frames) == 0 {
		return "…"
	}
	return s.model.View()
}

// View renders the frame followed by the message
func (s Spinner) View() string {
	msg := s.Message
	if msg == "" {
		msg = DefaultSpinnerMessage
	}
	return s.Frame() + " " + messageStyle.Render(msg)
}

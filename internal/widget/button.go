package widget

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Variant selects a button's colors
type Variant int

const (
	Primary Variant = iota
	Secondary
)

var (
	buttonBase = lipgloss.NewStyle().
			Padding(0, 2).
			MarginRight(1)

	primaryStyle = buttonBase.
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62"))

	secondaryStyle = buttonBase.
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))

	disabledStyle = buttonBase.
			Foreground(lipgloss.Color("243")).
			Background(lipgloss.Color("236"))

	focusedStyle = lipgloss.NewStyle().
			Underline(true).
			Bold(true)
)

// Button is a pressable label. A disabled or loading button ignores presses.
type Button struct {
	Label    string
	Variant  Variant
	Disabled bool
	Loading  bool
	Focused  bool
	OnPress  func() tea.Cmd

	spinner Spinner
}

// NewButton creates an enabled button
func NewButton(label string, variant Variant, onPress func() tea.Cmd) Button {
	return Button{
		Label:   label,
		Variant: variant,
		OnPress: onPress,
		spinner: NewSpinner(""),
	}
}

// Press invokes OnPress unless the button is disabled or loading
func (b Button) Press() tea.Cmd {
	if b.Disabled || b.Loading || b.OnPress == nil {
		return nil
	}
	return b.OnPress()
}

// Tick starts the loading animation
func (b Button) Tick() tea.Cmd {
	return b.spinner.Tick
}

// Update forwards spinner ticks while loading
func (b Button) Update(msg tea.Msg) (Button, tea.Cmd) {
	if !b.Loading {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return b, cmd
}

// View renders the button
func (b Button) View() string {
	label := b.Label
	if b.Loading {
		label = b.spinner.Frame()
	}

	style := primaryStyle
	switch {
	case b.Disabled:
		style = disabledStyle
	case b.Variant == Secondary:
		style = secondaryStyle
	}
	if b.Focused && !b.Disabled {
		style = style.Inherit(focusedStyle)
	}
	return style.Render(label)
}

// Row renders buttons side by side
func Row(buttons ...Button) string {
	views := make([]string, len(buttons))
	for i, b := range buttons {
		views[i] = b.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

package widget

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pressed struct{}

func counter(n *int) func() tea.Cmd {
	return func() tea.Cmd {
		*n++
		return func() tea.Msg { return pressed{} }
	}
}

func TestButtonPress(t *testing.T) {
	var n int
	b := NewButton("Call", Primary, counter(&n))

	cmd := b.Press()
	require.NotNil(t, cmd)
	assert.Equal(t, pressed{}, cmd())
	assert.Equal(t, 1, n)
}

func TestButtonIgnoresPressWhenUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Button)
	}{
		{"disabled", func(b *Button) { b.Disabled = true }},
		{"loading", func(b *Button) { b.Loading = true }},
		{"disabled and loading", func(b *Button) { b.Disabled, b.Loading = true, true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n int
			b := NewButton("Delete", Secondary, counter(&n))
			tt.modify(&b)

			assert.Nil(t, b.Press())
			assert.Zero(t, n, "OnPress must not run")
		})
	}
}

func TestButtonWithoutHandler(t *testing.T) {
	assert.Nil(t, Button{Label: "Nothing"}.Press())
}

func TestButtonView(t *testing.T) {
	b := NewButton("Email", Primary, nil)
	assert.Contains(t, b.View(), "Email")

	b.Disabled = true
	assert.Contains(t, b.View(), "Email")

	b.Disabled = false
	b.Loading = true
	assert.NotContains(t, b.View(), "Email", "loading shows the spinner instead of the label")
}

func TestButtonLoadingAnimates(t *testing.T) {
	b := NewButton("Save", Primary, nil)
	b.Loading = true

	msg := b.Tick()()
	require.IsType(t, spinner.TickMsg{}, msg)

	before := b.View()
	b, cmd := b.Update(msg)
	assert.NotNil(t, cmd)
	assert.NotEqual(t, before, b.View())
}

func TestButtonIgnoresTicksWhenIdle(t *testing.T) {
	b := NewButton("Save", Primary, nil)
	msg := b.Tick()()
	_, cmd := b.Update(msg)
	assert.Nil(t, cmd)
}

func TestSpinnerDefaultMessage(t *testing.T) {
	assert.Contains(t, NewSpinner("").View(), DefaultSpinnerMessage)
	assert.Contains(t, NewSpinner("Deleting").View(), "Deleting")
	assert.Contains(t, Spinner{}.View(), DefaultSpinnerMessage)
}

func TestSpinnerIgnoresOtherTicks(t *testing.T) {
	a := NewSpinner("a")
	b := NewSpinner("b")

	_, cmd := a.Update(b.Tick())
	assert.Nil(t, cmd)

	_, cmd = a.Update(a.Init()())
	assert.NotNil(t, cmd)
}

func TestRow(t *testing.T) {
	row := Row(NewButton("One", Primary, nil), NewButton("Two", Secondary, nil))
	assert.Contains(t, row, "One")
	assert.Contains(t, row, "Two")
}

package screen

import (
	"context"
	"time"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// Navigator moves between screens
type Navigator interface {
	// Back leaves the current screen
	Back()
	// Edit opens the edit form seeded with a contact
	Edit(seed contact.Contact)
}

// OptionStyle changes how a prompt option is presented, not what it does
type OptionStyle int

const (
	StyleDefault OptionStyle = iota
	StyleCancel
	StyleDestructive
)

// Option is one button of a prompt
type Option struct {
	Label string
	Style OptionStyle
}

// Prompt is a blocking question with a fixed set of answers
type Prompt struct {
	Title   string
	Message string
	Options []Option
}

// CancelIndex returns the option chosen when the prompt is dismissed
func (p Prompt) CancelIndex() int {
	for i, o := range p.Options {
		if o.Style == StyleCancel {
			return i
		}
	}
	return -1
}

// Dialogs shows modal messages and waits for the user
type Dialogs interface {
	// Alert shows a message and returns once it is dismissed
	Alert(ctx context.Context, title, message string) error
	// Confirm returns the index of the chosen option
	Confirm(ctx context.Context, p Prompt) (int, error)
}

// Timeouts bound the calls the screen waits on
type Timeouts struct {
	Probe  time.Duration
	Open   time.Duration
	Delete time.Duration
}

// DefaultTimeouts matches the default configuration
var DefaultTimeouts = Timeouts{
	Probe:  5 * time.Second,
	Open:   5 * time.Second,
	Delete: 10 * time.Second,
}

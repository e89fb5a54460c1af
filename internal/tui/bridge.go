package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/screen"
)

// ErrClosed is returned by dialogs requested after the UI has shut down
var ErrClosed = errors.New("tui: closed")

// bridgeBuffer is how many requests may wait for the UI loop
const bridgeBuffer = 16

// Bridge lets screen operations running in tea.Cmd goroutines show
// dialogs and navigate. Requests travel to the UI loop as messages and
// answers come back on a per-request channel.
type Bridge struct {
	msgs chan tea.Msg
	done chan struct{}
	once sync.Once
}

var _ screen.Dialogs = (*Bridge)(nil)

// NewBridge creates a bridge. Listen must be running for requests to be seen.
func NewBridge() *Bridge {
	return &Bridge{
		msgs: make(chan tea.Msg, bridgeBuffer),
		done: make(chan struct{}),
	}
}

// Listen waits for the next request
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.msgs:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close unblocks every pending and future request
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// dialogRequest is a prompt waiting for an answer
type dialogRequest struct {
	ctx    context.Context
	prompt screen.Prompt
	reply  chan int
	focus  int
}

func (r *dialogRequest) answer(i int) {
	select {
	case r.reply <- i:
	default:
	}
}

// Alert shows a message with a single OK button
func (b *Bridge) Alert(ctx context.Context, title, message string) error {
	_, err := b.Confirm(ctx, screen.Prompt{
		Title:   title,
		Message: message,
		Options: []screen.Option{{Label: "OK", Style: screen.StyleCancel}},
	})
	return err
}

// Confirm shows p and returns the chosen option
func (b *Bridge) Confirm(ctx context.Context, p screen.Prompt) (int, error) {
	req := &dialogRequest{
		ctx:    ctx,
		prompt: p,
		reply:  make(chan int, 1),
		focus:  max(p.CancelIndex(), 0),
	}
	if err := b.send(ctx, req); err != nil {
		return -1, err
	}

	select {
	case i := <-req.reply:
		return i, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	case <-b.done:
		return -1, ErrClosed
	}
}

func (b *Bridge) send(ctx context.Context, msg tea.Msg) error {
	select {
	case b.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
}

// Navigator returns the navigator for one route
func (b *Bridge) Navigator(route int) screen.Navigator {
	return routeNavigator{bridge: b, route: route}
}

type (
	navBackMsg struct{ route int }
	navEditMsg struct {
		route int
		seed  contact.Contact
	}
)

type routeNavigator struct {
	bridge *Bridge
	route  int
}

func (n routeNavigator) Back() {
	_ = n.bridge.send(context.Background(), navBackMsg{route: n.route})
}

func (n routeNavigator) Edit(seed contact.Contact) {
	_ = n.bridge.send(context.Background(), navEditMsg{route: n.route, seed: seed})
}

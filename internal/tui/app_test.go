package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/intents"
	"github.com/pdxmph/pocket-contacts/internal/screen"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	right = tea.KeyMsg{Type: tea.KeyRight}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	ctrlX = tea.KeyMsg{Type: tea.KeyCtrlX}
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testContacts() []contact.Contact {
	return []contact.Contact{
		{ID: "sarah", FirstName: "Sarah", LastName: "Chen", Phone: "555-0101", Email: "sarah@example.com", Company: "Tech Startup Inc", Notes: "Met at **college**", Favorite: true},
		{ID: "david", FirstName: "David", LastName: "Kim", Email: "david@example.com"},
		{ID: "lisa", FirstName: "Lisa", LastName: "Park", Phone: "555-0107"},
	}
}

func newTestModel(t *testing.T, launcher intents.Launcher) (*Model, *contact.MemoryStore) {
	t.Helper()
	store := contact.NewMemoryStore(testContacts()...)
	m := New(context.Background(), Options{
		Store:    store,
		Launcher: launcher,
		Logger:   zaptest.NewLogger(t),
		Timeouts: screen.Timeouts{Probe: time.Second, Open: time.Second, Delete: time.Second},
	})
	t.Cleanup(func() {
		m.Close()
		store.Close()
	})

	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m.Update(m.loadContacts()())
	return m, store
}

// openDetails opens the details screen for id and resolves it
func openDetails(t *testing.T, m *Model, id string) *detailsPage {
	t.Helper()
	m.pushDetails(id)
	p, ok := m.top().(*detailsPage)
	require.True(t, ok)
	m.Update(p.refresh(m)())
	return p
}

// runAction sends key and runs the action command it starts in the background
func runAction(t *testing.T, m *Model, key tea.KeyMsg) <-chan tea.Msg {
	t.Helper()
	_, cmd := m.Update(key)
	require.NotNil(t, cmd, "no action started")
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	done := make(chan tea.Msg, 1)
	go func() { done <- batch[0]() }()
	return done
}

// nextRequest waits for the next message from the dialog bridge
func nextRequest(t *testing.T, m *Model) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- m.bridge.Listen()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no bridge request")
		return nil
	}
}

func wait(t *testing.T, done <-chan tea.Msg) actionDoneMsg {
	t.Helper()
	select {
	case msg := <-done:
		require.IsType(t, actionDoneMsg{}, msg)
		return msg.(actionDoneMsg)
	case <-time.After(5 * time.Second):
		t.Fatal("action did not finish")
		return actionDoneMsg{}
	}
}

func TestListOrderAndView(t *testing.T) {
	m, _ := newTestModel(t, nil)

	var names []string
	for _, c := range m.list.visible() {
		names = append(names, c.FirstName)
	}
	assert.Equal(t, []string{"Sarah", "David", "Lisa"}, names)

	view := m.View()
	assert.Contains(t, view, "Sarah Chen")
	assert.Contains(t, view, "★")
	assert.Contains(t, view, "Contacts (3)")
}

func TestListLoadingAndErrors(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.list.loading = true
	assert.Contains(t, m.View(), "Loading contacts...")

	m.Update(contactsLoadedMsg{seq: m.loads, err: assert.AnError})
	assert.Contains(t, m.View(), "Could not load contacts")
}

func TestListKeepsNewestLoad(t *testing.T) {
	m, store := newTestModel(t, nil)

	older := m.loadContacts()
	stale := older().(contactsLoadedMsg)

	require.NoError(t, store.Delete(context.Background(), "lisa"))
	m.Update(m.loadContacts()())
	require.Len(t, m.list.contacts, 2)

	m.Update(stale)
	assert.Len(t, m.list.contacts, 2, "older load must not win")
	assert.NotContains(t, m.View(), "Lisa Park")
}

func TestListFilter(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m.Update(keys("/"))
	require.True(t, m.list.filterMode)
	m.Update(keys("park"))
	require.Len(t, m.list.visible(), 1)
	assert.Equal(t, "lisa", m.list.visible()[0].ID)

	m.Update(enter)
	assert.False(t, m.list.filterMode)
	assert.Len(t, m.list.visible(), 1, "enter keeps the filter")

	m.Update(esc)
	assert.Len(t, m.list.visible(), 3)
}

func TestListFavoritesOnly(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m.Update(keys("f"))
	require.Len(t, m.list.visible(), 1)
	assert.Contains(t, m.View(), "favorites only")

	m.Update(keys("f"))
	assert.Len(t, m.list.visible(), 3)
}

func TestListToggleFavorite(t *testing.T) {
	m, store := newTestModel(t, nil)

	m.Update(keys("j"))
	m.Update(keys("*"))

	c, err := store.Get(context.Background(), "david")
	require.NoError(t, err)
	assert.True(t, c.Favorite)
}

func TestListEnterOpensDetails(t *testing.T) {
	m, _ := newTestModel(t, nil)

	_, cmd := m.Update(enter)
	assert.NotNil(t, cmd)
	p, ok := m.top().(*detailsPage)
	require.True(t, ok)
	assert.Equal(t, "sarah", p.screen.ID())
	assert.Contains(t, m.View(), "Loading contact...")

	m.Update(p.refresh(m)())
	assert.Contains(t, m.View(), "Sarah Chen")

	m.Update(esc)
	assert.Same(t, m.list, m.top())
}

func TestDetailsView(t *testing.T) {
	m, _ := newTestModel(t, nil)
	p := openDetails(t, m, "sarah")

	view := m.View()
	assert.Equal(t, screen.Ready, p.view.State)
	assert.Contains(t, view, "SC")
	assert.Contains(t, view, "Tech Startup Inc")
	assert.Contains(t, view, "555-0101")
	assert.Contains(t, view, "college")
	assert.Contains(t, view, "Remove from favorites")
	for _, a := range []screen.Action{screen.ActionCall, screen.ActionMessage, screen.ActionEmail, screen.ActionEdit, screen.ActionDelete} {
		assert.Contains(t, view, a.Label())
	}
}

func TestCallOpensLink(t *testing.T) {
	launcher := intents.NewRecordingLauncher()
	m, _ := newTestModel(t, launcher)
	p := openDetails(t, m, "sarah")

	done := runAction(t, m, keys("c"))
	assert.True(t, p.busy)
	assert.True(t, p.buttons[0].Loading)

	m.Update(wait(t, done))
	assert.False(t, p.busy)
	assert.Equal(t, []string{"tel:555-0101"}, launcher.Opened())
	assert.Contains(t, m.View(), "Would open tel:555-0101")

	// The next action clears it
	m.Update(wait(t, runAction(t, m, keys("e"))))
	assert.Contains(t, m.View(), "Would open mailto:sarah@example.com")
	assert.NotContains(t, m.View(), "Would open tel:")
}

func TestEmailOpensMailto(t *testing.T) {
	launcher := intents.NewRecordingLauncher()
	m, _ := newTestModel(t, launcher)
	openDetails(t, m, "david")

	m.Update(wait(t, runAction(t, m, keys("e"))))
	assert.Equal(t, []string{"mailto:david@example.com"}, launcher.Opened())
}

func TestUnsupportedCapabilityAlerts(t *testing.T) {
	launcher := intents.NewRecordingLauncher("tel")
	m, _ := newTestModel(t, launcher)
	openDetails(t, m, "sarah")

	done := runAction(t, m, keys("m"))
	req := nextRequest(t, m)
	m.Update(req)

	view := m.View()
	assert.Contains(t, view, "Error")
	assert.Contains(t, view, "SMS is not supported on this device")

	m.Update(enter)
	msg := wait(t, done)
	assert.NoError(t, msg.err)
	m.Update(msg)
	assert.Empty(t, launcher.Opened())
	assert.Empty(t, m.dialogs)
	assert.NotContains(t, m.View(), "Would open")
}

func TestMissingPhoneDisablesCall(t *testing.T) {
	m, _ := newTestModel(t, intents.NewRecordingLauncher())
	p := openDetails(t, m, "david")

	assert.True(t, p.buttons[0].Disabled)
	assert.True(t, p.buttons[1].Disabled)
	assert.False(t, p.buttons[2].Disabled)

	_, cmd := m.Update(keys("c"))
	assert.Nil(t, cmd)
	assert.False(t, p.busy)
}

func TestDeleteConfirmed(t *testing.T) {
	m, store := newTestModel(t, nil)
	openDetails(t, m, "sarah")

	done := runAction(t, m, keys("d"))
	req, ok := nextRequest(t, m).(*dialogRequest)
	require.True(t, ok)
	m.Update(req)
	assert.Contains(t, m.View(), "Are you sure you want to delete Sarah Chen?")

	m.Update(right)
	m.Update(enter)

	// The store has finished before the screen goes back
	assert.Equal(t, navBackMsg{route: 1}, nextRequest(t, m))
	_, err := store.Get(context.Background(), "sarah")
	assert.ErrorIs(t, err, contact.ErrNotFound)

	m.Update(navBackMsg{route: 1})
	assert.Same(t, m.list, m.top())
	assert.NoError(t, wait(t, done).err)
}

func TestDeleteCancelled(t *testing.T) {
	m, store := newTestModel(t, nil)
	p := openDetails(t, m, "sarah")

	done := runAction(t, m, keys("d"))
	m.Update(nextRequest(t, m))
	m.Update(esc)

	m.Update(wait(t, done))
	assert.Same(t, p, m.top())
	_, err := store.Get(context.Background(), "sarah")
	assert.NoError(t, err)
}

func TestCancelInFlightAction(t *testing.T) {
	launcher := intents.NewRecordingLauncher()
	launcher.Hang()
	defer launcher.Release()

	m, _ := newTestModel(t, launcher)
	p := openDetails(t, m, "sarah")

	done := runAction(t, m, keys("c"))
	require.Eventually(t, func() bool { return len(launcher.Probed()) == 1 }, 5*time.Second, 10*time.Millisecond)

	// A second action is refused while one is running
	_, cmd := m.Update(keys("e"))
	assert.Nil(t, cmd)

	m.Update(ctrlX)
	msg := wait(t, done)
	assert.NoError(t, msg.err)
	m.Update(msg)
	assert.False(t, p.busy)
	assert.Empty(t, launcher.Opened())
}

func TestEditOpensForm(t *testing.T) {
	m, _ := newTestModel(t, nil)
	openDetails(t, m, "sarah")

	m.Update(wait(t, runAction(t, m, keys("E"))))
	msg := nextRequest(t, m)
	require.IsType(t, navEditMsg{}, msg)
	m.Update(msg)

	form, ok := m.top().(*formPage)
	require.True(t, ok)
	assert.True(t, form.editing)
	assert.Equal(t, "Sarah", form.inputs[fieldFirstName].Value())
	assert.Contains(t, m.View(), "Edit Contact: Sarah Chen")
}

func TestFormValidation(t *testing.T) {
	m, store := newTestModel(t, nil)

	m.Update(keys("a"))
	form, ok := m.top().(*formPage)
	require.True(t, ok)

	m.Update(keys("Ada"))
	_, cmd := m.Update(ctrlS)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "is required")
	assert.Equal(t, fieldLastName, form.focus)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestFormCreate(t *testing.T) {
	m, store := newTestModel(t, nil)

	m.Update(keys("a"))
	form := m.top().(*formPage)
	m.Update(keys("Ada"))
	m.Update(tab)
	m.Update(keys("Lovelace"))
	m.Update(tab)
	m.Update(keys("+44 20 7946 0000"))

	_, cmd := m.Update(ctrlS)
	require.NotNil(t, cmd)
	assert.True(t, form.saving)
	batch := cmd().(tea.BatchMsg)

	saved := batch[0]()
	require.IsType(t, formSavedMsg{}, saved)
	m.Update(saved)

	p, ok := m.top().(*detailsPage)
	require.True(t, ok)
	c, err := store.Get(context.Background(), p.screen.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.FullName())
	assert.Equal(t, "+44 20 7946 0000", c.Phone)
}

func TestFormEsc(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(keys("a"))
	m.Update(esc)
	assert.Same(t, m.list, m.top())
}

func TestStoreEventRefreshesDetails(t *testing.T) {
	m, store := newTestModel(t, nil)
	p := openDetails(t, m, "lisa")
	require.False(t, p.view.Favorite)

	store.ToggleFavorite("lisa")
	msg := m.waitForEvent()()
	assert.Equal(t, storeEventMsg{Kind: contact.Updated, ID: "lisa"}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	m.Update(p.refresh(m)())
	assert.True(t, p.view.Favorite)
	assert.Contains(t, m.View(), "Remove from favorites")
}

func TestDeletedElsewhereIsNotFound(t *testing.T) {
	m, store := newTestModel(t, intents.NewRecordingLauncher())
	p := openDetails(t, m, "lisa")

	require.NoError(t, store.Delete(context.Background(), "lisa"))
	m.Update(p.refresh(m)())

	assert.Equal(t, screen.NotFound, p.view.State)
	assert.Contains(t, m.View(), "Contact not found")

	_, cmd := m.Update(keys("c"))
	assert.Nil(t, cmd)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil)
	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Error(t, m.ctx.Err())
}

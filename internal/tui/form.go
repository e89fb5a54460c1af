package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/widget"
)

// Form field indices
const (
	fieldFirstName = iota
	fieldLastName
	fieldPhone
	fieldEmail
	fieldCompany
	fieldAvatar
	fieldNotes
	fieldCount // Total number of fields
)

var fieldLabels = [fieldCount]string{
	"First name: ",
	"Last name:  ",
	"Phone:      ",
	"Email:      ",
	"Company:    ",
	"Avatar URL: ",
	"Notes:      ",
}

// fieldKeys match the field names in contact.ValidationError
var fieldKeys = [fieldCount]string{"firstName", "lastName", "phone", "email", "company", "avatar", "notes"}

// formPage adds or edits a contact
type formPage struct {
	id      int
	seed    contact.Contact
	editing bool
	inputs  []textinput.Model
	// focus == fieldCount means the Save button
	focus  int
	errs   *contact.ValidationError
	err    error
	save   widget.Button
	saving bool
}

type formSavedMsg struct {
	route   int
	contact contact.Contact
	err     error
}

func newFormPage(m *Model, route int, seed contact.Contact, editing bool) *formPage {
	p := &formPage{id: route, seed: seed, editing: editing}

	values := [fieldCount]string{seed.FirstName, seed.LastName, seed.Phone, seed.Email, seed.Company, seed.Avatar, seed.Notes}
	p.inputs = make([]textinput.Model, fieldCount)
	for i := range p.inputs {
		ti := textinput.New()
		ti.Width = 40
		ti.CharLimit = 200
		ti.Placeholder = strings.TrimSuffix(strings.TrimSpace(fieldLabels[i]), ":")
		if i == fieldNotes {
			ti.CharLimit = 2000
		}
		ti.SetValue(values[i])
		p.inputs[i] = ti
	}
	p.inputs[0].Focus()

	p.save = widget.NewButton("Save", widget.Primary, func() tea.Cmd { return p.submit(m) })
	return p
}

func (p *formPage) routeID() int { return p.id }

func (p *formPage) title() string {
	if p.editing {
		return "Edit Contact: " + p.seed.FullName()
	}
	return "New Contact"
}

// value collects the form into a contact
func (p *formPage) value() contact.Contact {
	c := p.seed
	c.FirstName = p.inputs[fieldFirstName].Value()
	c.LastName = p.inputs[fieldLastName].Value()
	c.Phone = p.inputs[fieldPhone].Value()
	c.Email = p.inputs[fieldEmail].Value()
	c.Company = p.inputs[fieldCompany].Value()
	c.Avatar = p.inputs[fieldAvatar].Value()
	c.Notes = p.inputs[fieldNotes].Value()
	c.Normalize()
	return c
}

// submit validates locally and then writes in the background
func (p *formPage) submit(m *Model) tea.Cmd {
	if p.saving {
		return nil
	}
	c := p.value()
	p.err = nil
	p.errs = nil
	if err := c.Validate(); err != nil {
		p.setError(err)
		return nil
	}

	p.saving = true
	p.save.Loading = true

	ctx, store, route, editing := m.ctx, m.store, p.id, p.editing
	return tea.Batch(
		func() tea.Msg {
			var (
				saved contact.Contact
				err   error
			)
			if editing {
				saved, err = store.Update(ctx, c)
			} else {
				saved, err = store.Create(ctx, c)
			}
			return formSavedMsg{route: route, contact: saved, err: err}
		},
		p.save.Tick(),
	)
}

func (p *formPage) setError(err error) {
	var verr *contact.ValidationError
	if errors.As(err, &verr) {
		p.errs = verr
		// Jump to the first bad field
		for i, key := range fieldKeys {
			if verr.Field(key) != "" {
				p.setFocus(i)
				break
			}
		}
		return
	}
	p.err = err
}

func (p *formPage) saved(m *Model, msg formSavedMsg) tea.Cmd {
	p.saving = false
	p.save.Loading = false
	if msg.err != nil {
		m.log.Warn("saving contact failed", zap.Error(msg.err))
		p.setError(msg.err)
		return nil
	}

	m.log.Info("contact saved", zap.String("contact_id", msg.contact.ID), zap.Bool("new", !p.editing))
	m.popRoute(p.id)
	if !p.editing {
		return m.pushDetails(msg.contact.ID)
	}
	return nil
}

func (p *formPage) setFocus(i int) {
	if p.focus < fieldCount {
		p.inputs[p.focus].Blur()
	}
	p.focus = i
	p.save.Focused = i == fieldCount
	if i < fieldCount {
		p.inputs[i].Focus()
	}
}

func (p *formPage) handleKey(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if !p.saving {
			m.popRoute(p.id)
		}
		return nil
	case "tab", "down":
		p.setFocus((p.focus + 1) % (fieldCount + 1))
		return nil
	case "shift+tab", "up":
		p.setFocus((p.focus + fieldCount) % (fieldCount + 1))
		return nil
	case "ctrl+s":
		return p.save.Press()
	case "enter":
		if p.focus == fieldCount {
			return p.save.Press()
		}
		p.setFocus(p.focus + 1)
		return nil
	}

	if p.focus == fieldCount || p.saving {
		return nil
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return cmd
}

func (p *formPage) update(msg tea.Msg) tea.Cmd {
	var cmd, blink tea.Cmd
	p.save, cmd = p.save.Update(msg)
	if p.focus < fieldCount {
		p.inputs[p.focus], blink = p.inputs[p.focus].Update(msg)
	}
	return tea.Batch(cmd, blink)
}

func (p *formPage) view() string {
	var lines []string
	lines = append(lines, titleStyle.Render(p.title()), strings.Repeat("─", 40), "")

	for i, label := range fieldLabels {
		line := labelStyle.Render(label) + p.inputs[i].View()
		lines = append(lines, line)
		if p.errs != nil {
			if msg := p.errs.Field(fieldKeys[i]); msg != "" {
				lines = append(lines, errorStyle.Render(fmt.Sprintf("%s%s", strings.Repeat(" ", len(label)), msg)))
			}
		}
	}

	lines = append(lines, "", p.save.View())
	if p.err != nil {
		lines = append(lines, "", errorStyle.Render("Could not save: "+p.err.Error()))
	}
	return strings.Join(lines, "\n")
}

func (p *formPage) help() string {
	return "tab/↓: next field • shift+tab/↑: previous • ctrl+s: save • esc: cancel"
}

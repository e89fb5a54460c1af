package screen

import (
	"go.uber.org/zap"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// Action is something the user can do from the details screen
type Action int

const (
	ActionCall Action = iota
	ActionMessage
	ActionEmail
	ActionEdit
	ActionDelete
	ActionFavorite
)

// Label returns the button text
func (a Action) Label() string {
	switch a {
	case ActionCall:
		return "Call"
	case ActionMessage:
		return "Message"
	case ActionEmail:
		return "Email"
	case ActionEdit:
		return "Edit Contact"
	case ActionDelete:
		return "Delete Contact"
	case ActionFavorite:
		return "Favorite"
	default:
		return "?"
	}
}

// readyActions are offered for every loaded contact
var readyActions = []Action{ActionCall, ActionMessage, ActionEmail, ActionEdit, ActionDelete, ActionFavorite}

// View is a snapshot of what the screen shows
type View struct {
	State State
	// Err is the last read failure while Resolving
	Err error

	FullName string
	// Initials is set only when there is no avatar to show
	Initials string
	Avatar   string
	Phone    string
	Email    string
	Company  string
	Notes    string

	Favorite      bool
	FavoriteLabel string

	// Opened is the link the last communication action handed off
	Opened string

	// Actions is empty unless the contact is loaded
	Actions []Action
}

// HasCompany gates the company line
func (v View) HasCompany() bool { return v.Company != "" }

// HasNotes gates the notes section
func (v View) HasNotes() bool { return v.Notes != "" }

// HasAvatar chooses between the avatar and the initials placeholder
func (v View) HasAvatar() bool { return v.Avatar != "" }

// Enabled reports whether an action has what it needs. Call and Message
// need a phone number and Email needs an address.
func (v View) Enabled(a Action) bool {
	if v.State != Ready {
		return false
	}
	switch a {
	case ActionCall, ActionMessage:
		return v.Phone != ""
	case ActionEmail:
		return v.Email != ""
	default:
		return true
	}
}

// View returns what the screen currently shows
func (d *Details) View() View {
	d.mu.RLock()
	state, c, err, opened := d.state, d.contact, d.err, d.opened
	d.mu.RUnlock()

	v := View{State: state}
	if state != Ready {
		if state == Resolving {
			v.Err = err
		}
		return v
	}

	v.FullName = c.FullName()
	v.Avatar = c.Avatar
	v.Phone = c.Phone
	v.Email = c.Email
	v.Company = c.Company
	v.Notes = c.Notes
	v.Favorite = c.Favorite
	v.Opened = opened
	v.FavoriteLabel = "Add to favorites"
	if c.Favorite {
		v.FavoriteLabel = "Remove from favorites"
	}
	v.Actions = append([]Action(nil), readyActions...)

	if c.Avatar == "" {
		initials, ierr := contact.Initials(c)
		if ierr != nil {
			// The store rejects such records, so this is a damaged row
			d.log.Warn("cannot derive initials", zap.Error(ierr))
			initials = "?"
		}
		v.Initials = initials
	}
	return v
}

// Package intents opens tel:, sms: and mailto: links through the host
// platform.
package intents

import (
	"errors"
	"fmt"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// ErrMissingField is returned when a contact has no value for the field
// a capability needs
var ErrMissingField = errors.New("intents: contact field is empty")

// Capability is a way of reaching a contact
type Capability int

const (
	Call Capability = iota
	Message
	Email
)

// Capabilities lists every capability in display order
var Capabilities = []Capability{Call, Message, Email}

// Scheme returns the URI scheme without the colon
func (c Capability) Scheme() string {
	switch c {
	case Call:
		return "tel"
	case Message:
		return "sms"
	case Email:
		return "mailto"
	default:
		return ""
	}
}

// String returns the button label
func (c Capability) String() string {
	switch c {
	case Call:
		return "Call"
	case Message:
		return "Message"
	case Email:
		return "Email"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// Unsupported is the alert shown when the platform cannot open the link
func (c Capability) Unsupported() string {
	switch c {
	case Call:
		return "Phone calls are not supported on this device"
	case Message:
		return "SMS is not supported on this device"
	case Email:
		return "Email is not supported on this device"
	default:
		return "This action is not supported on this device"
	}
}

// Field returns the name of the contact field the capability reads
func (c Capability) Field() string {
	if c == Email {
		return "email address"
	}
	return "phone number"
}

// Target returns the contact value the capability reads
func (c Capability) Target(ct contact.Contact) string {
	if c == Email {
		return ct.Email
	}
	return ct.Phone
}

// URI builds the link for a contact, e.g. tel:0551234567
func URI(c Capability, ct contact.Contact) (string, error) {
	target := c.Target(ct)
	if target == "" {
		return "", fmt.Errorf("%s: %w", c.Field(), ErrMissingField)
	}
	return c.Scheme() + ":" + target, nil
}

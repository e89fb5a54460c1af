package contact

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyName is returned when initials are requested for a contact
// missing a first or last name.
var ErrEmptyName = errors.New("contact: first and last name are required")

// Contact represents one person in the address book
type Contact struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	FirstName string    `json:"firstName" yaml:"firstName"`
	LastName  string    `json:"lastName" yaml:"lastName"`
	Phone     string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Company   string    `json:"company,omitempty" yaml:"company,omitempty"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Avatar    string    `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Favorite  bool      `json:"favorite" yaml:"favorite"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// FullName returns "First Last"
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Initials returns the upper-cased first letters of the first and last name.
func Initials(c Contact) (string, error) {
	first, _ := utf8.DecodeRuneInString(c.FirstName)
	last, _ := utf8.DecodeRuneInString(c.LastName)
	if c.FirstName == "" || c.LastName == "" || first == utf8.RuneError || last == utf8.RuneError {
		return "", ErrEmptyName
	}
	return string(unicode.ToUpper(first)) + string(unicode.ToUpper(last)), nil
}

// Normalize trims surrounding whitespace from every text field
func (c *Contact) Normalize() {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Company = strings.TrimSpace(c.Company)
	c.Notes = strings.TrimSpace(c.Notes)
	c.Avatar = strings.TrimSpace(c.Avatar)
}

// FieldError describes one invalid field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned by the store write path when a record is
// rejected. It lists every problem found, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid contact: " + strings.Join(parts, "; ")
}

// Field returns the message for a field, or "" if it is valid
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// Validate checks the record before it is written. Names must be present
// so that initials can always be derived on read.
func (c Contact) Validate() error {
	var v ValidationError

	if strings.TrimSpace(c.FirstName) == "" {
		v.Fields = append(v.Fields, FieldError{"firstName", "is required"})
	}
	if strings.TrimSpace(c.LastName) == "" {
		v.Fields = append(v.Fields, FieldError{"lastName", "is required"})
	}

	if phone := strings.TrimSpace(c.Phone); phone != "" {
		if !validPhone(phone) {
			v.Fields = append(v.Fields, FieldError{"phone", "may only contain digits, spaces and +-()."})
		}
	}

	if email := strings.TrimSpace(c.Email); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			v.Fields = append(v.Fields, FieldError{"email", "is not a valid address"})
		}
	}

	if avatar := strings.TrimSpace(c.Avatar); avatar != "" {
		u, err := url.Parse(avatar)
		if err != nil || !u.IsAbs() {
			v.Fields = append(v.Fields, FieldError{"avatar", "must be an absolute URI"})
		}
	}

	if len(v.Fields) > 0 {
		return &v
	}
	return nil
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ', r == '+', r == '-', r == '(', r == ')', r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

// Matches reports whether the contact matches a free-text query.
// An empty query matches everything.
func (c Contact) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.FullName(), c.Company, c.Email, c.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Sort orders contacts with favorites first, then by last and first name
func Sort(contacts []Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if a.Favorite != b.Favorite {
			return a.Favorite
		}
		if al, bl := strings.ToLower(a.LastName), strings.ToLower(b.LastName); al != bl {
			return al < bl
		}
		return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
	})
}

// String is used in log output
func (c Contact) String() string {
	return fmt.Sprintf("%s (%s)", c.FullName(), c.ID)
}

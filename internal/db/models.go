package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// columns is the select list shared by every contact query
const columns = `id, first_name, last_name, phone, email, company, notes, avatar, favorite, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanContact reads one row selected with columns
func scanContact(s scanner) (contact.Contact, error) {
	var (
		c                    contact.Contact
		phone, email         sql.NullString
		company, notes       sql.NullString
		avatar               sql.NullString
		createdAt, updatedAt sql.NullString
	)
	err := s.Scan(
		&c.ID, &c.FirstName, &c.LastName,
		&phone, &email, &company, &notes, &avatar,
		&c.Favorite, &createdAt, &updatedAt,
	)
	if err != nil {
		return contact.Contact{}, err
	}

	c.Phone = phone.String
	c.Email = email.String
	c.Company = company.String
	c.Notes = notes.String
	c.Avatar = avatar.String

	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return contact.Contact{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return contact.Contact{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, nil
}

// Timestamps are written as RFC 3339 text by this package. Rows touched
// by CURRENT_TIMESTAMP (older versions, manual edits) use SQLite's format.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s.String)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NewNullString creates a sql.NullString from a string
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

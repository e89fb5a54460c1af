package contact

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no contact has the requested ID
var ErrNotFound = errors.New("contact: not found")

// Store owns the canonical collection of contacts.
//
// Delete is awaited by callers and must have completed before they move on.
// ToggleFavorite is fire-and-forget: it returns immediately and the change
// becomes visible through Subscribe.
type Store interface {
	// Get returns the contact with the given ID or ErrNotFound
	Get(ctx context.Context, id string) (Contact, error)

	// List returns every contact, favorites first
	List(ctx context.Context) ([]Contact, error)

	// Search returns the contacts matching query
	Search(ctx context.Context, query string) ([]Contact, error)

	// Create validates c, assigns an ID and stores it
	Create(ctx context.Context, c Contact) (Contact, error)

	// Update replaces the editable fields of an existing contact. ID,
	// CreatedAt and Favorite are kept.
	Update(ctx context.Context, c Contact) (Contact, error)

	// Delete removes a contact. Deleting a missing contact is not an error.
	Delete(ctx context.Context, id string) error

	// ToggleFavorite flips the favorite flag without waiting for the result
	ToggleFavorite(id string)

	// Subscribe returns a channel of change events and a function that
	// cancels the subscription
	Subscribe() (<-chan Event, func())

	// Close waits for pending mutations and releases resources
	Close() error
}

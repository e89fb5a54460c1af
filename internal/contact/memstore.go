package contact

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements [Store] in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	index    map[string]int
	contacts []Contact
	broker   *Broker
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding cs. Contacts without an ID get
// one; a repeated ID replaces the earlier record.
func NewMemoryStore(cs ...Contact) *MemoryStore {
	s := &MemoryStore{
		index:  make(map[string]int, len(cs)),
		broker: NewBroker(),
		now:    time.Now,
	}
	for _, c := range cs {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if i, ok := s.index[c.ID]; ok {
			s.contacts[i] = c
			continue
		}
		s.index[c.ID] = len(s.contacts)
		s.contacts = append(s.contacts, c)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return s.contacts[i], nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Contact, error) {
	return s.Search(ctx, "")
}

func (s *MemoryStore) Search(_ context.Context, query string) ([]Contact, error) {
	s.mu.RLock()
	out := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	Sort(out)
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, c Contact) (Contact, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return Contact{}, err
	}

	s.mu.Lock()
	for {
		c.ID = uuid.NewString()
		if _, taken := s.index[c.ID]; !taken {
			break
		}
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.index[c.ID] = len(s.contacts)
	s.contacts = append(s.contacts, c)
	s.mu.Unlock()

	s.broker.Publish(Event{Kind: Created, ID: c.ID})
	return c, nil
}

func (s *MemoryStore) Update(_ context.Context, c Contact) (Contact, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return Contact{}, err
	}

	s.mu.Lock()
	i, ok := s.index[c.ID]
	if !ok {
		s.mu.Unlock()
		return Contact{}, ErrNotFound
	}
	prev := s.contacts[i]
	c.CreatedAt = prev.CreatedAt
	c.Favorite = prev.Favorite
	c.UpdatedAt = s.now()
	s.contacts[i] = c
	s.mu.Unlock()

	s.broker.Publish(Event{Kind: Updated, ID: c.ID})
	return c, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.contacts = slices.Delete(s.contacts, i, i+1)
	delete(s.index, id)
	// Positions after i shifted down by one
	for j := i; j < len(s.contacts); j++ {
		s.index[s.contacts[j].ID] = j
	}
	s.mu.Unlock()

	s.broker.Publish(Event{Kind: Deleted, ID: id})
	return nil
}

func (s *MemoryStore) ToggleFavorite(id string) {
	s.mu.Lock()
	i, ok := s.index[id]
	if ok {
		s.contacts[i].Favorite = !s.contacts[i].Favorite
		s.contacts[i].UpdatedAt = s.now()
	}
	s.mu.Unlock()

	if ok {
		s.broker.Publish(Event{Kind: Updated, ID: id})
	}
}

func (s *MemoryStore) Subscribe() (<-chan Event, func()) {
	return s.broker.Subscribe()
}

func (s *MemoryStore) Close() error {
	s.broker.Close()
	return nil
}

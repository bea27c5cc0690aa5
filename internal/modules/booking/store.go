// README: Booking store contract and in-memory implementation (bookings are never deleted).
package booking

import (
	"context"
	"sort"
	"sync"

	"ridebroker/internal/types"
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	// Update persists b if the stored version still equals version and bumps b.Version.
	// It reports false when another writer got there first.
	Update(ctx context.Context, b *Booking, version int) (bool, error)
	ListByTrip(ctx context.Context, tripID string) ([]*Booking, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, id types.ID) ([]Event, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[types.ID]*Booking
	events   map[types.ID][]Event
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[types.ID]*Booking),
		events:   make(map[types.ID][]Event),
	}
}

func (s *MemoryStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookings[b.ID]; exists {
		return ErrConflict
	}
	s.bookings[b.ID] = b.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, b *Booking, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[b.ID]
	if !ok {
		return false, ErrNotFound
	}
	if cur.Version != version {
		return false, nil
	}
	b.Version = version + 1
	s.bookings[b.ID] = b.Clone()
	return true, nil
}

func (s *MemoryStore) ListByTrip(_ context.Context, tripID string) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.TripID == tripID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.Before(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.events[e.BookingID] = append(s.events[e.BookingID], *e)
	return nil
}

func (s *MemoryStore) Events(_ context.Context, id types.ID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events[id]))
	copy(out, s.events[id])
	return out, nil
}

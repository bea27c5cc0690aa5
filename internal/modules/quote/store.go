// README: Quote stores: the Store contract plus an in-memory implementation with lazy eviction.
package quote

import (
	"context"
	"errors"
	"sync"
	"time"

	"ridebroker/internal/types"
)

var (
	ErrNotFound = errors.New("quote not found")
	ErrExpired  = errors.New("quote expired")
)

// Store holds issued quotes until they expire or are consumed.
type Store interface {
	Save(ctx context.Context, q Quote) error
	// Get returns a live quote without consuming it.
	Get(ctx context.Context, id types.ID) (Quote, error)
	// Take atomically removes and returns a live quote. A second Take of the same id
	// fails with ErrNotFound.
	Take(ctx context.Context, id types.ID) (Quote, error)
}

type MemoryStore struct {
	mu     sync.Mutex
	quotes map[types.ID]Quote
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[types.ID]Quote), now: time.Now}
}

// WithClock overrides the store's time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Save(_ context.Context, q Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.quotes[q.ID] = q
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(id)
}

func (s *MemoryStore) Take(_ context.Context, id types.ID) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookupLocked(id)
	if err != nil {
		return Quote{}, err
	}
	delete(s.quotes, id)
	return q, nil
}

// Len reports the number of quotes currently held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quotes)
}

func (s *MemoryStore) lookupLocked(id types.ID) (Quote, error) {
	q, ok := s.quotes[id]
	if !ok {
		return Quote{}, ErrNotFound
	}
	if q.Expired(s.now()) {
		delete(s.quotes, id)
		return Quote{}, ErrExpired
	}
	return q, nil
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, q := range s.quotes {
		if q.Expired(now) {
			delete(s.quotes, id)
		}
	}
}

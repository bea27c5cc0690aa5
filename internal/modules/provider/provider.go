// README: Provider adapter contract, shared errors and the registration-ordered registry.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/quote"
)

var (
	ErrNotFound           = errors.New("provider not found")
	ErrDuplicate          = errors.New("provider already registered")
	ErrBookingUnsupported = errors.New("provider does not support in-app booking")
)

// Provider is one supply source in one market.
type Provider interface {
	ID() string
	Name() string
	Market() string
	IsDemo() bool
	Available() bool
	// SupportsBooking reports whether RequestRide, Status and Cancel are implemented.
	SupportsBooking() bool

	// Quotes returns the provider's offers for req. A provider that does not serve
	// req.Market returns no quotes and no error.
	Quotes(ctx context.Context, req quote.Request) ([]quote.Quote, error)
	// DeepLink returns a link that opens q in the provider's own app, or "" if there is none.
	DeepLink(q quote.Quote) string

	RequestRide(ctx context.Context, q quote.Quote, req booking.RideRequest) (*booking.Booking, booking.Event, error)
	// Status applies lifecycle progression to b in place and reports whether it moved.
	Status(ctx context.Context, b *booking.Booking) (booking.Event, bool, error)
	Cancel(ctx context.Context, b *booking.Booking, reason string) (booking.Event, error)
}

// Info is the public listing shape of a provider.
type Info struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Market    string `json:"market"`
	IsDemo    bool   `json:"isDemo"`
	Available bool   `json:"available"`
}

func Describe(p Provider) Info {
	return Info{
		ID:        p.ID(),
		Name:      p.Name(),
		Market:    p.Market(),
		IsDemo:    p.IsDemo(),
		Available: p.Available(),
	}
}

// Registry keeps providers in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []Provider
	byID  map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, p.ID())
	}
	r.byID[p.ID()] = p
	r.order = append(r.order, p)
	return nil
}

func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, len(r.order))
	copy(out, r.order)
	return out
}

// ForMarket returns the providers registered for market, in registration order.
func (r *Registry) ForMarket(market string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, p := range r.order {
		if p.Market() == market {
			out = append(out, p)
		}
	}
	return out
}

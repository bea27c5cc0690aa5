// README: Shared adapter plumbing: identity, clock, quote TTL and quote assembly.
package provider

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

type Option func(*base)

// WithClock overrides the adapter's time source.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithTTL sets how long issued quotes stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(b *base) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

type base struct {
	id     string
	name   string
	market pricing.Market
	now    func() time.Time
	ttl    time.Duration

	unavailable atomic.Bool
}

func (b *base) init(id, name string, m pricing.Market, opts []Option) {
	b.id, b.name, b.market = id, name, m
	b.now, b.ttl = time.Now, quote.DefaultTTL
	for _, opt := range opts {
		opt(b)
	}
}

func (b *base) ID() string     { return b.id }
func (b *base) Name() string   { return b.name }
func (b *base) Market() string { return b.market.Code }

func (b *base) Available() bool {
	return !b.unavailable.Load()
}

// SetAvailable toggles whether the adapter takes part in aggregation.
func (b *base) SetAvailable(v bool) {
	b.unavailable.Store(!v)
}

func (b *base) serves(req quote.Request) bool {
	return req.Market == b.market.Code
}

// requestTime is when the trip is priced. Zero means now.
func (b *base) requestTime(req quote.Request) time.Time {
	if req.RequestedAt.IsZero() {
		return b.now()
	}
	return req.RequestedAt
}

type offer struct {
	tier         quote.Tier
	price        pricing.PricingResult
	pickupETA    int
	confidence   quote.Level
	availability quote.Level
	tags         []quote.Tag
}

func (b *base) newQuote(req quote.Request, trip pricing.TripEstimate, o offer) quote.Quote {
	now := b.now()
	q := quote.Quote{
		ID:           types.ID(uuid.NewString()),
		ProviderID:   b.id,
		ProviderName: b.name,
		Market:       b.market.Code,
		Tier:         o.tier,
		Price: quote.PriceEstimate{
			Min:        o.price.Low,
			Max:        o.price.High,
			Currency:   b.market.Currency,
			Confidence: o.confidence,
		},
		PickupETAMin:   o.pickupETA,
		DurationMin:    int(math.Ceil(trip.DurationMin)),
		DistanceKm:     math.Round(trip.DistanceKm*100) / 100,
		Pickup:         req.Pickup,
		Dropoff:        req.Dropoff,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Availability:   o.availability,
		Tags:           o.tags,
		CreatedAt:      now,
		ExpiresAt:      now.Add(b.ttl),
	}
	q.Price.Refresh()
	return q
}

// bookingUnsupported is embedded by street-hail and deep-link-only adapters.
type bookingUnsupported struct{}

func (bookingUnsupported) SupportsBooking() bool { return false }

func (bookingUnsupported) RequestRide(context.Context, quote.Quote, booking.RideRequest) (*booking.Booking, booking.Event, error) {
	return nil, booking.Event{}, ErrBookingUnsupported
}

func (bookingUnsupported) Status(context.Context, *booking.Booking) (booking.Event, bool, error) {
	return booking.Event{}, false, ErrBookingUnsupported
}

func (bookingUnsupported) Cancel(context.Context, *booking.Booking, string) (booking.Event, error) {
	return booking.Event{}, ErrBookingUnsupported
}

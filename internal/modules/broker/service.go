// README: Broker service: provider registry, quote aggregation and selection, booking operations.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ridebroker/internal/modules/aggregator"
	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/provider"
	"ridebroker/internal/modules/quote"
	"ridebroker/internal/modules/scoring"
	"ridebroker/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Service struct {
	registry   *provider.Registry
	markets    *pricing.Service
	aggregator *aggregator.Aggregator
	scorer     *scoring.Engine
	quotes     quote.Store
	bookings   booking.Store
	publisher  Publisher
	log        *zap.Logger
	now        func() time.Time
	locks      *keyedMutex
}

type Option func(*Service)

// WithPublisher publishes every booking transition.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(registry *provider.Registry, markets *pricing.Service, quotes quote.Store, bookings booking.Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		registry: registry,
		markets:  markets,
		scorer:   scoring.NewEngine(),
		quotes:   quotes,
		bookings: bookings,
		log:      log,
		now:      time.Now,
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.aggregator = aggregator.New(registry, markets, log).WithClock(s.now)
	return s
}

type QuoteCommand struct {
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	Market         string
	Constraints    scoring.Constraints
}

type QuoteResponse struct {
	aggregator.Result
	Selected *quote.Quote     `json:"selected,omitempty"`
	Reason   string           `json:"reason"`
	Ranked   []scoring.Scored `json:"ranked"`
}

type CancelCommand struct {
	BookingID types.ID
	Reason    string
}

type MarketInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

// Register adds p to the registry. Duplicate ids fail with provider.ErrDuplicate.
func (s *Service) Register(p provider.Provider) error {
	if err := s.registry.Register(p); err != nil {
		return err
	}
	s.log.Info("provider registered",
		zap.String("provider", p.ID()),
		zap.String("market", p.Market()),
		zap.Bool("demo", p.IsDemo()),
	)
	return nil
}

func (s *Service) ListProviders() []provider.Info {
	all := s.registry.All()
	out := make([]provider.Info, 0, len(all))
	for _, p := range all {
		out = append(out, provider.Describe(p))
	}
	return out
}

func (s *Service) ListMarkets() []MarketInfo {
	markets := s.markets.Markets()
	out := make([]MarketInfo, 0, len(markets))
	for _, m := range markets {
		info := MarketInfo{Code: m.Code, Name: m.Name, Currency: m.Currency}
		if m.Location != nil {
			info.Timezone = m.Location.String()
		}
		out = append(out, info)
	}
	return out
}

// GetQuotes aggregates quotes for the trip, stores them for acceptance and ranks them.
func (s *Service) GetQuotes(ctx context.Context, cmd QuoteCommand) (QuoteResponse, error) {
	if err := validateQuoteCommand(cmd); err != nil {
		return QuoteResponse{}, err
	}
	res := s.aggregator.Collect(ctx, quote.Request{
		Pickup:         cmd.Pickup,
		Dropoff:        cmd.Dropoff,
		PickupAddress:  cmd.PickupAddress,
		DropoffAddress: cmd.DropoffAddress,
		Market:         cmd.Market,
		RequestedAt:    s.now(),
	})
	for i, q := range res.Quotes {
		if err := s.quotes.Save(ctx, q); err != nil {
			s.discardQuotes(ctx, res.Quotes[:i])
			return QuoteResponse{}, fmt.Errorf("store quote %s: %w", q.ID, err)
		}
	}

	sel := s.scorer.Select(res.Quotes, cmd.Constraints)
	s.log.Debug("quotes aggregated",
		zap.String("market", cmd.Market),
		zap.Int("quotes", len(res.Quotes)),
		zap.Int("errors", len(res.Errors)),
		zap.String("reason", sel.Reason),
	)
	return QuoteResponse{Result: res, Selected: sel.Selected, Reason: sel.Reason, Ranked: sel.Ranked}, nil
}

// RequestRide consumes the quote and opens a booking with its provider. The quote is only
// consumed once the provider is known to support booking, and is put back if the booking
// cannot be opened or stored.
func (s *Service) RequestRide(ctx context.Context, req booking.RideRequest) (*booking.Booking, error) {
	if req.QuoteID == "" || strings.TrimSpace(req.PassengerName) == "" {
		return nil, fmt.Errorf("%w: quoteId and passengerName are required", ErrBadRequest)
	}
	if req.StepIndex != nil && *req.StepIndex < 0 {
		return nil, fmt.Errorf("%w: stepIndex must not be negative", ErrBadRequest)
	}

	peek, err := s.quotes.Get(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	p, err := s.registry.Get(peek.ProviderID)
	if err != nil {
		return nil, err
	}
	if !p.SupportsBooking() {
		return nil, fmt.Errorf("%w: %s", provider.ErrBookingUnsupported, p.ID())
	}

	q, err := s.quotes.Take(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	b, ev, err := p.RequestRide(ctx, q, req)
	if err != nil {
		s.restoreQuote(ctx, q)
		return nil, err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		s.restoreQuote(ctx, q)
		return nil, err
	}
	s.record(ctx, b, ev)
	s.log.Info("booking requested",
		zap.String("booking", string(b.ID)),
		zap.String("quote", string(q.ID)),
		zap.String("provider", p.ID()),
	)
	return b, nil
}

// GetBookingStatus applies at most one lifecycle step and returns the booking.
func (s *Service) GetBookingStatus(ctx context.Context, id types.ID) (*booking.Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	b, p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	version := b.Version
	ev, moved, err := p.Status(ctx, b)
	if err != nil {
		return nil, err
	}
	if !moved {
		return b, nil
	}
	if err := s.save(ctx, b, version); err != nil {
		return nil, err
	}
	s.record(ctx, b, ev)
	return b, nil
}

func (s *Service) CancelBooking(ctx context.Context, cmd CancelCommand) (*booking.Booking, error) {
	if cmd.BookingID == "" {
		return nil, ErrBadRequest
	}
	unlock := s.locks.Lock(cmd.BookingID)
	defer unlock()

	b, p, err := s.load(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	version := b.Version
	ev, err := p.Cancel(ctx, b, strings.TrimSpace(cmd.Reason))
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, b, version); err != nil {
		return nil, err
	}
	s.record(ctx, b, ev)
	s.log.Info("booking cancelled", zap.String("booking", string(b.ID)), zap.String("from", string(ev.FromStatus)))
	return b, nil
}

// ListBookings returns a trip's bookings as stored, without lifecycle progression.
func (s *Service) ListBookings(ctx context.Context, tripID string) ([]*booking.Booking, error) {
	if tripID == "" {
		return nil, ErrBadRequest
	}
	out, err := s.bookings.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*booking.Booking{}
	}
	return out, nil
}

func (s *Service) BookingEvents(ctx context.Context, id types.ID) ([]booking.Event, error) {
	if _, err := s.bookings.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.bookings.Events(ctx, id)
}

// restoreQuote makes a consumed quote acceptable again after a failed booking attempt.
// It runs detached from ctx because the failure may be ctx's own cancellation.
func (s *Service) restoreQuote(ctx context.Context, q quote.Quote) {
	if q.Expired(s.now()) {
		return
	}
	if err := s.quotes.Save(context.WithoutCancel(ctx), q); err != nil {
		s.log.Warn("restore quote", zap.String("quote", string(q.ID)), zap.Error(err))
	}
}

// discardQuotes removes quotes saved by a GetQuotes call that then failed.
func (s *Service) discardQuotes(ctx context.Context, quotes []quote.Quote) {
	ctx = context.WithoutCancel(ctx)
	for _, q := range quotes {
		if _, err := s.quotes.Take(ctx, q.ID); err != nil && !errors.Is(err, quote.ErrNotFound) && !errors.Is(err, quote.ErrExpired) {
			s.log.Warn("discard quote", zap.String("quote", string(q.ID)), zap.Error(err))
		}
	}
}

func (s *Service) load(ctx context.Context, id types.ID) (*booking.Booking, provider.Provider, error) {
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.registry.Get(b.ProviderID)
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

func (s *Service) save(ctx context.Context, b *booking.Booking, version int) error {
	ok, err := s.bookings.Update(ctx, b, version)
	if err != nil {
		return err
	}
	if !ok {
		return booking.ErrConflict
	}
	return nil
}

func validateQuoteCommand(cmd QuoteCommand) error {
	if strings.TrimSpace(cmd.Market) == "" {
		return fmt.Errorf("%w: market is required", ErrBadRequest)
	}
	for _, p := range []types.Point{cmd.Pickup, cmd.Dropoff} {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
		}
	}
	if cmd.Constraints.MaxPrice < 0 || cmd.Constraints.MaxPickupETAMin < 0 {
		return fmt.Errorf("%w: constraints must not be negative", ErrBadRequest)
	}
	return nil
}

// README: Lifecycle engine advances bookings one happy-path step per status read once the
// dwell interval has elapsed. There is no background scheduler.
package booking

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

const (
	DefaultDwell = 3 * time.Second

	// arrivingOffsetM is how far from the pickup the simulated driver shows when arriving.
	arrivingOffsetM = 150
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking state conflict")
)

const noDriversReason = "no drivers available"

// DefaultDrivers is the simulated driver pool.
func DefaultDrivers() []Driver {
	return []Driver{
		{Name: "Maria Gonzalez", Rating: 4.9, Vehicle: Vehicle{Make: "Toyota", Model: "Camry", Color: "Silver", Plate: "RB-4821"}},
		{Name: "James Chen", Rating: 4.8, Vehicle: Vehicle{Make: "Honda", Model: "Accord", Color: "Black", Plate: "RB-1937"}},
		{Name: "Aisha Okafor", Rating: 4.95, Vehicle: Vehicle{Make: "Tesla", Model: "Model 3", Color: "White", Plate: "RB-7710"}},
		{Name: "Daniel Novak", Rating: 4.7, Vehicle: Vehicle{Make: "Hyundai", Model: "Ioniq 5", Color: "Blue", Plate: "RB-3052"}},
		{Name: "Priya Raman", Rating: 4.85, Vehicle: Vehicle{Make: "Ford", Model: "Escape", Color: "Grey", Plate: "RB-6684"}},
		{Name: "Kenji Watanabe", Rating: 4.9, Vehicle: Vehicle{Make: "Lexus", Model: "ES", Color: "Black", Plate: "RB-2209"}},
	}
}

type Config struct {
	Dwell   time.Duration
	Drivers []Driver
}

type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand makes driver selection reproducible.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

type Engine struct {
	dwell   time.Duration
	drivers []Driver
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	if cfg.Dwell <= 0 {
		cfg.Dwell = DefaultDwell
	}
	drivers := make([]Driver, len(cfg.Drivers))
	copy(drivers, cfg.Drivers)
	e := &Engine{dwell: cfg.Dwell, drivers: drivers, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open instantiates a booking from an accepted quote. The booking starts in
// StatusRequested with the quote's price and route locked in.
func (e *Engine) Open(id types.ID, q quote.Quote, req RideRequest) (*Booking, Event) {
	now := e.now()
	b := &Booking{
		ID:             id,
		QuoteID:        q.ID,
		ProviderID:     q.ProviderID,
		ProviderName:   q.ProviderName,
		Market:         q.Market,
		Tier:           q.Tier,
		Status:         StatusRequested,
		Price:          q.Price,
		Pickup:         q.Pickup,
		Dropoff:        q.Dropoff,
		PickupAddress:  q.PickupAddress,
		DropoffAddress: q.DropoffAddress,
		DistanceKm:     q.DistanceKm,
		DurationMin:    q.DurationMin,
		PickupETAMin:   q.PickupETAMin,
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		Notes:          req.Notes,
		TripID:         req.TripID,
		StepIndex:      clonePtr(req.StepIndex),
		IsDemo:         q.IsDemo,
		Disclaimer:     q.Disclaimer,
		RequestedAt:    now,
	}
	b.LastTransitionAt = now
	b.StatusMessage = statusMessage(b)
	return b, Event{
		BookingID:  id,
		FromStatus: StatusNone,
		ToStatus:   StatusRequested,
		ActorType:  "passenger",
		Message:    b.StatusMessage,
		CreatedAt:  now,
	}
}

// Advance moves b at most one step along the happy path if the dwell interval has elapsed
// since the last transition. Terminal bookings are left untouched.
func (e *Engine) Advance(b *Booking) (Event, bool) {
	if b.Status.IsTerminal() {
		return Event{}, false
	}
	next, ok := happyPath[b.Status]
	if !ok {
		return Event{}, false
	}
	now := e.now()
	if now.Sub(b.LastTransitionAt) < e.dwell {
		return Event{}, false
	}

	from := b.Status
	switch next {
	case StatusDriverAssigned:
		if b.Driver == nil {
			d, ok := e.pickDriver()
			if !ok {
				ev, _ := e.Fail(b, noDriversReason)
				return ev, true
			}
			b.Driver = &d
		}
		b.DriverAssignedAt = &now
		b.DriverETAMin = intPtr(max(b.PickupETAMin, 1))
	case StatusArriving:
		p := pricing.Offset(b.Pickup, arrivingOffsetM, 0)
		b.DriverPosition = &p
		b.DriverETAMin = intPtr(1)
	case StatusInProgress:
		p := b.Pickup
		b.DriverPosition = &p
		b.PickupAt = &now
		b.DriverETAMin = intPtr(b.DurationMin)
	case StatusCompleted:
		p := b.Dropoff
		b.DriverPosition = &p
		b.DropoffAt = &now
		b.DriverETAMin = intPtr(0)
	}
	b.Status = next
	b.LastTransitionAt = now
	b.StatusMessage = statusMessage(b)

	return Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   next,
		ActorType:  "system",
		Message:    b.StatusMessage,
		CreatedAt:  now,
	}, true
}

// Cancel is permitted only while the ride has not started.
func (e *Engine) Cancel(b *Booking, reason string) (Event, error) {
	if !b.Status.Cancellable() {
		return Event{}, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidState, b.Status)
	}
	now := e.now()
	from := b.Status
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.CancelReason = reason
	b.DriverETAMin = nil
	b.LastTransitionAt = now
	b.StatusMessage = statusMessage(b)
	return Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   StatusCancelled,
		ActorType:  "passenger",
		Message:    b.StatusMessage,
		CreatedAt:  now,
	}, nil
}

// Fail moves any non-terminal booking to StatusFailed.
func (e *Engine) Fail(b *Booking, reason string) (Event, error) {
	if !CanTransition(b.Status, StatusFailed) {
		return Event{}, fmt.Errorf("%w: cannot fail a %s booking", ErrInvalidState, b.Status)
	}
	now := e.now()
	from := b.Status
	b.Status = StatusFailed
	b.FailureReason = reason
	b.DriverETAMin = nil
	b.LastTransitionAt = now
	b.StatusMessage = statusMessage(b)
	return Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   StatusFailed,
		ActorType:  "system",
		Message:    b.StatusMessage,
		CreatedAt:  now,
	}, nil
}

func (e *Engine) pickDriver() (Driver, bool) {
	if len(e.drivers) == 0 {
		return Driver{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var i int
	if e.rng != nil {
		i = e.rng.IntN(len(e.drivers))
	} else {
		i = rand.IntN(len(e.drivers))
	}
	return e.drivers[i], true
}

func statusMessage(b *Booking) string {
	switch b.Status {
	case StatusRequested:
		return "Looking for a driver near your pickup."
	case StatusDriverAssigned:
		if b.Driver == nil {
			return "A driver has been assigned."
		}
		v := b.Driver.Vehicle
		eta := 0
		if b.DriverETAMin != nil {
			eta = *b.DriverETAMin
		}
		return fmt.Sprintf("%s is on the way in a %s %s %s (%s), about %d min away.",
			b.Driver.Name, v.Color, v.Make, v.Model, v.Plate, eta)
	case StatusArriving:
		if b.Driver == nil {
			return "Your driver is arriving."
		}
		return fmt.Sprintf("%s is arriving at your pickup.", b.Driver.Name)
	case StatusInProgress:
		return "On the way to your destination."
	case StatusCompleted:
		return "You have arrived. Thanks for riding!"
	case StatusCancelled:
		if b.CancelReason != "" {
			return "Ride cancelled: " + b.CancelReason + "."
		}
		return "Ride cancelled."
	case StatusFailed:
		return "Ride could not be completed: " + b.FailureReason + "."
	default:
		return ""
	}
}

func intPtr(v int) *int {
	return &v
}

// README: Lifecycle engine tests (transition table, dwell gating, cancel and fail rules).
package booking

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(clock *fakeClock, drivers []Driver) *Engine {
	return NewEngine(
		Config{Dwell: DefaultDwell, Drivers: drivers},
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
}

func demoQuote(now time.Time) quote.Quote {
	return quote.Quote{
		ID:           "q-1",
		ProviderID:   "inapp-demo-nyc",
		ProviderName: "RideBroker Demo",
		Market:       "nyc",
		Tier:         quote.TierEconomy,
		Price: quote.PriceEstimate{
			Min: 1930, Max: 2360, Currency: "USD", Confidence: quote.LevelHigh, Display: "$19.30–$23.60",
		},
		PickupETAMin: 4,
		DurationMin:  18,
		DistanceKm:   5.6,
		Pickup:       types.Point{Lat: 40.7580, Lng: -73.9855},
		Dropoff:      types.Point{Lat: 40.7061, Lng: -74.0087},
		IsDemo:       true,
		Disclaimer:   quote.DemoDisclaimer,
		CreatedAt:    now,
		ExpiresAt:    now.Add(quote.DefaultTTL),
	}
}

// TestCanTransition verifies the transition table without running the engine.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy path
		{StatusNone, StatusRequested, true},
		{StatusRequested, StatusDriverAssigned, true},
		{StatusDriverAssigned, StatusArriving, true},
		{StatusArriving, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// cancel before pickup only
		{StatusRequested, StatusCancelled, true},
		{StatusDriverAssigned, StatusCancelled, true},
		{StatusArriving, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, false},
		// failure from any live state
		{StatusRequested, StatusFailed, true},
		{StatusInProgress, StatusFailed, true},
		// terminal states are final
		{StatusCompleted, StatusRequested, false},
		{StatusCancelled, StatusRequested, false},
		{StatusFailed, StatusRequested, false},
		// no skipping
		{StatusRequested, StatusArriving, false},
		{StatusRequested, StatusCompleted, false},
		{StatusDriverAssigned, StatusInProgress, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEngine_OpenLocksQuote(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}
	e := newTestEngine(clock, DefaultDrivers())
	q := demoQuote(clock.Now())
	step := 2

	b, ev := e.Open("b-1", q, RideRequest{QuoteID: q.ID, PassengerName: "Alex", TripID: "trip-9", StepIndex: &step})

	assert.Equal(t, StatusRequested, b.Status)
	assert.Equal(t, q.Price, b.Price)
	assert.Equal(t, q.ID, b.QuoteID)
	assert.Equal(t, "trip-9", b.TripID)
	require.NotNil(t, b.StepIndex)
	assert.Equal(t, 2, *b.StepIndex)
	step = 5
	assert.Equal(t, 2, *b.StepIndex, "step index must be copied")
	assert.True(t, b.IsDemo)
	assert.Equal(t, quote.DemoDisclaimer, b.Disclaimer)
	assert.Nil(t, b.Driver)
	assert.Equal(t, clock.Now(), b.RequestedAt)

	assert.Equal(t, StatusNone, ev.FromStatus)
	assert.Equal(t, StatusRequested, ev.ToStatus)
	assert.Equal(t, "passenger", ev.ActorType)
}

func TestEngine_AdvanceWaitsForDwell(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}
	e := newTestEngine(clock, DefaultDrivers())
	b, _ := e.Open("b-1", demoQuote(clock.Now()), RideRequest{PassengerName: "Alex"})

	clock.Advance(2 * time.Second)
	_, moved := e.Advance(b)
	assert.False(t, moved)
	assert.Equal(t, StatusRequested, b.Status)

	clock.Advance(time.Second)
	ev, moved := e.Advance(b)
	require.True(t, moved)
	assert.Equal(t, StatusDriverAssigned, b.Status)
	assert.Equal(t, StatusRequested, ev.FromStatus)
	assert.Equal(t, "system", ev.ActorType)
}

func TestEngine_HappyPathOneStepPerRead(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}
	e := newTestEngine(clock, DefaultDrivers())
	b, _ := e.Open("b-1", demoQuote(clock.Now()), RideRequest{PassengerName: "Alex"})

	// A long gap still advances a single step.
	clock.Advance(time.Minute)
	_, moved := e.Advance(b)
	require.True(t, moved)
	require.Equal(t, StatusDriverAssigned, b.Status)
	require.NotNil(t, b.Driver)
	require.NotNil(t, b.DriverAssignedAt)
	require.NotNil(t, b.DriverETAMin)
	assert.Equal(t, 4, *b.DriverETAMin)
	assert.Contains(t, b.StatusMessage, b.Driver.Name)
	assignedDriver := *b.Driver

	clock.Advance(DefaultDwell)
	_, moved = e.Advance(b)
	require.True(t, moved)
	require.Equal(t, StatusArriving, b.Status)
	require.NotNil(t, b.DriverPosition)
	assert.NotEqual(t, b.Pickup, *b.DriverPosition)
	assert.Equal(t, 1, *b.DriverETAMin)
	assert.Equal(t, assignedDriver, *b.Driver)

	clock.Advance(DefaultDwell)
	_, moved = e.Advance(b)
	require.True(t, moved)
	require.Equal(t, StatusInProgress, b.Status)
	require.NotNil(t, b.PickupAt)
	assert.Equal(t, b.Pickup, *b.DriverPosition)
	assert.Equal(t, 18, *b.DriverETAMin)

	clock.Advance(DefaultDwell)
	_, moved = e.Advance(b)
	require.True(t, moved)
	require.Equal(t, StatusCompleted, b.Status)
	require.NotNil(t, b.DropoffAt)
	assert.Equal(t, b.Dropoff, *b.DriverPosition)
	assert.Equal(t, 0, *b.DriverETAMin)

	clock.Advance(time.Hour)
	_, moved = e.Advance(b)
	assert.False(t, moved)
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestEngine_EmptyDriverPoolFails(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}
	e := newTestEngine(clock, nil)
	b, _ := e.Open("b-1", demoQuote(clock.Now()), RideRequest{PassengerName: "Alex"})

	clock.Advance(DefaultDwell)
	ev, moved := e.Advance(b)
	require.True(t, moved)
	assert.Equal(t, StatusFailed, b.Status)
	assert.Equal(t, StatusFailed, ev.ToStatus)
	assert.Equal(t, noDriversReason, b.FailureReason)
	assert.Nil(t, b.DriverETAMin)
}

func TestEngine_Cancel(t *testing.T) {
	cases := []struct {
		name    string
		steps   int
		prepare func(t *testing.T, e *Engine, b *Booking)
		wantErr bool
	}{
		{"requested", 0, nil, false},
		{"driver assigned", 1, nil, false},
		{"arriving", 2, nil, false},
		{"in progress", 3, nil, true},
		{"completed", 4, nil, true},
		{"failed", 1, func(t *testing.T, e *Engine, b *Booking) {
			_, err := e.Fail(b, "provider outage")
			require.NoError(t, err)
		}, true},
		{"already cancelled", 0, func(t *testing.T, e *Engine, b *Booking) {
			_, err := e.Cancel(b, "first")
			require.NoError(t, err)
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}
			e := newTestEngine(clock, DefaultDrivers())
			b, _ := e.Open("b-1", demoQuote(clock.Now()), RideRequest{PassengerName: "Alex"})
			for i := 0; i < tc.steps; i++ {
				clock.Advance(DefaultDwell)
				_, moved := e.Advance(b)
				require.True(t, moved)
			}
			if tc.prepare != nil {
				tc.prepare(t, e, b)
			}
			before := b.Status
			beforeCancelledAt := b.CancelledAt

			ev, err := e.Cancel(b, "changed plans")
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidState)
				assert.Equal(t, before, b.Status)
				assert.Equal(t, beforeCancelledAt, b.CancelledAt)
				assert.NotEqual(t, "changed plans", b.CancelReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, b.Status)
			assert.Equal(t, before, ev.FromStatus)
			assert.Equal(t, "changed plans", b.CancelReason)
			require.NotNil(t, b.CancelledAt)
			assert.Contains(t, b.StatusMessage, "changed plans")

			clock.Advance(time.Hour)
			_, moved := e.Advance(b)
			assert.False(t, moved)
		})
	}
}

func TestEngine_FailRejectsTerminal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}
	e := newTestEngine(clock, DefaultDrivers())
	b, _ := e.Open("b-1", demoQuote(clock.Now()), RideRequest{PassengerName: "Alex"})
	_, err := e.Cancel(b, "")
	require.NoError(t, err)
	assert.Equal(t, "Ride cancelled.", b.StatusMessage)

	_, err = e.Fail(b, "provider outage")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestBooking_CloneIsDeep(t *testing.T) {
	eta := 3
	b := &Booking{
		ID:           "b-1",
		Driver:       &Driver{Name: "Maria"},
		DriverETAMin: &eta,
	}
	cp := b.Clone()
	cp.Driver.Name = "James"
	*cp.DriverETAMin = 9

	assert.Equal(t, "Maria", b.Driver.Name)
	assert.Equal(t, 3, *b.DriverETAMin)
}

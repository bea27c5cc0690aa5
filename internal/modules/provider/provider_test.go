package provider

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

var trips = map[string][2]types.Point{
	"nyc":    {{Lat: 40.7128, Lng: -74.0060}, {Lat: 40.7484, Lng: -73.9857}},
	"london": {{Lat: 51.5074, Lng: -0.1278}, {Lat: 51.5033, Lng: -0.1195}},
	"tokyo":  {{Lat: 35.6812, Lng: 139.7671}, {Lat: 35.6586, Lng: 139.7454}},
}

func market(t *testing.T, code string) pricing.Market {
	t.Helper()
	store, err := pricing.NewStore(pricing.DefaultMarkets()...)
	require.NoError(t, err)
	m, err := store.GetMarket(code)
	require.NoError(t, err)
	return m
}

func tripRequest(code string, at time.Time) quote.Request {
	pts := trips[code]
	return quote.Request{Pickup: pts[0], Dropoff: pts[1], Market: code, RequestedAt: at}
}

// localTime returns hour:00 on a weekday in the market's timezone.
func localTime(m pricing.Market, hour int) time.Time {
	return time.Date(2026, 3, 4, hour, 0, 0, 0, m.Location)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDemo_TierOrderingAndCurrency(t *testing.T) {
	for _, code := range []string{"nyc", "london", "tokyo"} {
		for _, hour := range []int{3, 8, 13, 17, 23} {
			m := market(t, code)
			at := localTime(m, hour)
			d := NewDemo(m, booking.NewEngine(booking.Config{}), WithClock(fixedClock(at)))

			quotes, err := d.Quotes(context.Background(), tripRequest(code, at))
			require.NoError(t, err)
			require.Len(t, quotes, 3, "%s at %d:00", code, hour)

			assert.Equal(t, quote.TierEconomy, quotes[0].Tier)
			assert.Equal(t, quote.TierComfort, quotes[1].Tier)
			assert.Equal(t, quote.TierPremium, quotes[2].Tier)
			assert.Less(t, quotes[0].Price.Max, quotes[1].Price.Max, "%s at %d:00", code, hour)
			assert.Less(t, quotes[1].Price.Max, quotes[2].Price.Max, "%s at %d:00", code, hour)
			assert.Less(t, quotes[0].Price.Min, quotes[1].Price.Min, "%s at %d:00", code, hour)
			assert.Less(t, quotes[1].Price.Min, quotes[2].Price.Min, "%s at %d:00", code, hour)

			for _, q := range quotes {
				assert.Equal(t, m.Currency, q.Price.Currency)
				assert.True(t, q.IsDemo)
				assert.Equal(t, quote.DemoDisclaimer, q.Disclaimer)
				assert.True(t, q.ExpiresAt.After(q.CreatedAt))
				assert.True(t, q.HasTag(quote.TagDemo))
				assert.NotEmpty(t, q.Price.Display)
				assert.LessOrEqual(t, q.Price.Min, q.Price.Max)
			}
		}
	}
}

func TestDemo_DeepLink(t *testing.T) {
	m := market(t, "nyc")
	d := NewDemo(m, booking.NewEngine(booking.Config{}))
	quotes, err := d.Quotes(context.Background(), tripRequest("nyc", time.Time{}))
	require.NoError(t, err)
	require.NotEmpty(t, quotes)

	q := quotes[0]
	assert.Equal(t, "ridebroker://book?quote="+string(q.ID), q.DeepLink)
}

func TestDemo_BookingLifecycle(t *testing.T) {
	m := market(t, "nyc")
	now := localTime(m, 13)
	clock := func() time.Time { return now }
	engine := booking.NewEngine(booking.Config{Drivers: booking.DefaultDrivers()}, booking.WithClock(clock))
	d := NewDemo(m, engine, WithClock(clock))
	ctx := context.Background()
	require.True(t, d.SupportsBooking())

	quotes, err := d.Quotes(ctx, tripRequest("nyc", now))
	require.NoError(t, err)

	b, ev, err := d.RequestRide(ctx, quotes[0], booking.RideRequest{QuoteID: quotes[0].ID, PassengerName: "Alex"})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusRequested, b.Status)
	assert.Equal(t, booking.StatusRequested, ev.ToStatus)
	assert.True(t, b.IsDemo)

	now = now.Add(booking.DefaultDwell)
	_, moved, err := d.Status(ctx, b)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, booking.StatusDriverAssigned, b.Status)

	_, err = d.Cancel(ctx, b, "")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)
}

func TestDemo_RequestRideRejectsForeignQuote(t *testing.T) {
	d := NewDemo(market(t, "nyc"), booking.NewEngine(booking.Config{}))
	_, _, err := d.RequestRide(context.Background(), quote.Quote{ID: "q-1", ProviderID: "taxi-nyc"}, booking.RideRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaxi(t *testing.T) {
	m := market(t, "london")
	cases := []struct {
		name    string
		hour    int
		wantETA int
	}{
		{"midday", 13, 8},
		{"rush hour", 8, 12},
		{"night", 23, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at := localTime(m, tc.hour)
			taxi := NewTaxi(m, WithClock(fixedClock(at)))
			quotes, err := taxi.Quotes(context.Background(), tripRequest("london", at))
			require.NoError(t, err)
			require.Len(t, quotes, 1)

			q := quotes[0]
			assert.Equal(t, quote.TierTaxi, q.Tier)
			assert.Equal(t, "GBP", q.Price.Currency)
			assert.Equal(t, tc.wantETA, q.PickupETAMin)
			assert.True(t, q.HasTag(quote.TagMostReliable))
			assert.True(t, q.HasTag(quote.TagMetered))
			assert.False(t, q.HasTag(quote.TagSurge))
			assert.Equal(t, quote.LevelMedium, q.Price.Confidence)
			assert.Equal(t, quote.LevelMedium, q.Availability)
			assert.Empty(t, q.DeepLink)
			assert.False(t, q.IsDemo)
		})
	}
}

func TestTaxi_NightTariffOnly(t *testing.T) {
	m := market(t, "london")
	req := func(hour int) quote.Request { return tripRequest("london", localTime(m, hour)) }
	taxi := NewTaxi(m)
	ctx := context.Background()

	day, err := taxi.Quotes(ctx, req(13))
	require.NoError(t, err)
	night, err := taxi.Quotes(ctx, req(23))
	require.NoError(t, err)

	assert.Greater(t, night[0].Price.Max, day[0].Price.Max)
}

func TestTaxi_BookingUnsupported(t *testing.T) {
	taxi := NewTaxi(market(t, "nyc"))
	ctx := context.Background()
	assert.False(t, taxi.SupportsBooking())
	assert.False(t, NewPremium(market(t, "nyc")).SupportsBooking())

	_, _, err := taxi.RequestRide(ctx, quote.Quote{}, booking.RideRequest{})
	assert.ErrorIs(t, err, ErrBookingUnsupported)
	_, _, err = taxi.Status(ctx, &booking.Booking{})
	assert.ErrorIs(t, err, ErrBookingUnsupported)
	_, err = taxi.Cancel(ctx, &booking.Booking{}, "")
	assert.ErrorIs(t, err, ErrBookingUnsupported)
}

func TestEconomy_SurgeAndNight(t *testing.T) {
	m := market(t, "nyc")
	ctx := context.Background()
	economy := NewEconomy(m)

	midday, err := economy.Quotes(ctx, tripRequest("nyc", localTime(m, 13)))
	require.NoError(t, err)
	require.Len(t, midday, 1)
	assert.Equal(t, quote.TierRideHailEconomy, midday[0].Tier)
	assert.Equal(t, 3, midday[0].PickupETAMin)
	assert.Equal(t, quote.LevelHigh, midday[0].Price.Confidence)
	assert.Equal(t, quote.LevelHigh, midday[0].Availability)
	assert.False(t, midday[0].HasTag(quote.TagSurge))
	assert.True(t, midday[0].HasTag(quote.TagCheapest))
	assert.True(t, midday[0].HasTag(quote.TagFastestPickup))

	rush, err := economy.Quotes(ctx, tripRequest("nyc", localTime(m, 17)))
	require.NoError(t, err)
	assert.Equal(t, 6, rush[0].PickupETAMin)
	assert.Equal(t, quote.LevelMedium, rush[0].Price.Confidence)
	assert.True(t, rush[0].HasTag(quote.TagSurge))
	assert.Greater(t, rush[0].Price.Max, midday[0].Price.Max)

	night, err := economy.Quotes(ctx, tripRequest("nyc", localTime(m, 2)))
	require.NoError(t, err)
	assert.Equal(t, quote.LevelLow, night[0].Availability)
}

func TestPremium_FloorAndDampedSurge(t *testing.T) {
	m := market(t, "nyc")
	ctx := context.Background()
	economy := NewEconomy(m)
	premium := NewPremium(m)

	at := localTime(m, 13)
	e, err := economy.Quotes(ctx, tripRequest("nyc", at))
	require.NoError(t, err)
	p, err := premium.Quotes(ctx, tripRequest("nyc", at))
	require.NoError(t, err)

	assert.Equal(t, quote.TierRideHailPremium, p[0].Tier)
	assert.Greater(t, p[0].Price.Min, e[0].Price.Min)
	assert.GreaterOrEqual(t, p[0].Price.Min, 2*m.Curve.MinimumFare)
	assert.True(t, p[0].HasTag(quote.TagPremium))
	assert.True(t, p[0].HasTag(quote.TagMostReliable))
	assert.Equal(t, 6, p[0].PickupETAMin)

	// A very short hop sits on the minimum fare for both.
	short := quote.Request{Pickup: trips["nyc"][0], Dropoff: trips["nyc"][0], Market: "nyc", RequestedAt: at}
	ps, err := premium.Quotes(ctx, short)
	require.NoError(t, err)
	assert.Equal(t, 2*m.Curve.MinimumFare, ps[0].Price.Min)
}

func TestRideHail_DeepLink(t *testing.T) {
	m := market(t, "nyc")
	quotes, err := NewEconomy(m).Quotes(context.Background(), tripRequest("nyc", time.Time{}))
	require.NoError(t, err)

	u, err := url.Parse(quotes[0].DeepLink)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "economy", u.Query().Get("product"))
	assert.Equal(t, "40.712800", u.Query().Get("pickup[latitude]"))
	assert.Equal(t, "-73.985700", u.Query().Get("dropoff[longitude]"))
}

func TestProviders_OtherMarketYieldsNothing(t *testing.T) {
	m := market(t, "nyc")
	ctx := context.Background()
	adapters := []Provider{
		NewTaxi(m),
		NewEconomy(m),
		NewPremium(m),
		NewDemo(m, booking.NewEngine(booking.Config{})),
	}
	for _, p := range adapters {
		quotes, err := p.Quotes(ctx, tripRequest("london", time.Time{}))
		assert.NoError(t, err, p.ID())
		assert.Empty(t, quotes, p.ID())
	}
}

func TestProviders_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEconomy(market(t, "nyc")).Quotes(ctx, tripRequest("nyc", time.Time{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	nyc, london := market(t, "nyc"), market(t, "london")
	r := NewRegistry()
	taxi := NewTaxi(london)
	require.NoError(t, r.Register(NewDemo(nyc, booking.NewEngine(booking.Config{}))))
	require.NoError(t, r.Register(taxi))
	require.NoError(t, r.Register(NewEconomy(london)))

	err := r.Register(NewTaxi(london))
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := r.Get("taxi-london")
	require.NoError(t, err)
	assert.Same(t, taxi, got)

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	londonProviders := r.ForMarket("london")
	require.Len(t, londonProviders, 2)
	assert.Equal(t, "taxi-london", londonProviders[0].ID())
	assert.Equal(t, "ridehail-economy-london", londonProviders[1].ID())
	assert.Empty(t, r.ForMarket("paris"))
	assert.Len(t, r.All(), 3)
}

func TestDescribe(t *testing.T) {
	d := NewDemo(market(t, "tokyo"), booking.NewEngine(booking.Config{}))
	assert.Equal(t, Info{ID: "inapp-demo-tokyo", Name: "RideBroker Demo", Market: "tokyo", IsDemo: true, Available: true}, Describe(d))

	d.SetAvailable(false)
	assert.False(t, Describe(d).Available)
}

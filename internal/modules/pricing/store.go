// README: Static market catalog (fare curves, currency, time windows).
package pricing

import (
	"errors"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"ridebroker/internal/types"
)

var ErrUnknownMarket = errors.New("unknown market")

type Store struct {
	markets map[string]Market
}

// NewStore builds a catalog from the given markets. Market codes must be unique and carry a
// valid ISO 4217 currency.
func NewStore(markets ...Market) (*Store, error) {
	s := &Store{markets: make(map[string]Market, len(markets))}
	for _, m := range markets {
		if m.Code == "" {
			return nil, errors.New("market code is required")
		}
		if _, dup := s.markets[m.Code]; dup {
			return nil, fmt.Errorf("duplicate market %q", m.Code)
		}
		if !types.ValidCurrency(m.Currency) {
			return nil, fmt.Errorf("market %q: invalid currency %q", m.Code, m.Currency)
		}
		if m.RoundTo <= 0 {
			m.RoundTo = 1
		}
		s.markets[m.Code] = m
	}
	return s, nil
}

func (s *Store) GetMarket(code string) (Market, error) {
	m, ok := s.markets[code]
	if !ok {
		return Market{}, fmt.Errorf("%w: %s", ErrUnknownMarket, code)
	}
	return m, nil
}

// List returns all markets sorted by code.
func (s *Store) List() []Market {
	out := make([]Market, 0, len(s.markets))
	for _, m := range s.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// DefaultMarkets is the built-in catalog.
func DefaultMarkets() []Market {
	return []Market{
		{
			Code:      "nyc",
			Name:      "New York City",
			Currency:  "USD",
			Location:  mustLocation("America/New_York"),
			Curve:     Curve{BaseFare: 255, PerKm: 109, PerMinute: 35, MinimumFare: 800},
			TaxiCurve: Curve{BaseFare: 300, PerKm: 155, PerMinute: 50, MinimumFare: 300},
			RushWindows: []HourWindow{
				{Start: 7, End: 10, Multiplier: 1.4},
				{Start: 16, End: 19, Multiplier: 1.5},
			},
			Night:        HourWindow{Start: 22, End: 5, Multiplier: 1.2},
			AvgSpeedKmh:  24,
			RushSpeedKmh: 14,
			RoundTo:      1,
		},
		{
			Code:      "london",
			Name:      "London",
			Currency:  "GBP",
			Location:  mustLocation("Europe/London"),
			Curve:     Curve{BaseFare: 250, PerKm: 125, PerMinute: 20, MinimumFare: 600},
			TaxiCurve: Curve{BaseFare: 380, PerKm: 220, PerMinute: 40, MinimumFare: 380},
			RushWindows: []HourWindow{
				{Start: 7, End: 10, Multiplier: 1.3},
				{Start: 16, End: 19, Multiplier: 1.4},
			},
			Night:        HourWindow{Start: 22, End: 5, Multiplier: 1.2},
			AvgSpeedKmh:  22,
			RushSpeedKmh: 13,
			RoundTo:      1,
		},
		{
			Code:      "tokyo",
			Name:      "Tokyo",
			Currency:  "JPY",
			Location:  mustLocation("Asia/Tokyo"),
			Curve:     Curve{BaseFare: 500, PerKm: 300, PerMinute: 50, MinimumFare: 800},
			TaxiCurve: Curve{BaseFare: 500, PerKm: 400, PerMinute: 80, MinimumFare: 500},
			RushWindows: []HourWindow{
				{Start: 7, End: 10, Multiplier: 1.3},
				{Start: 16, End: 19, Multiplier: 1.3},
			},
			Night:        HourWindow{Start: 22, End: 5, Multiplier: 1.25},
			AvgSpeedKmh:  25,
			RushSpeedKmh: 15,
			RoundTo:      10,
		},
	}
}

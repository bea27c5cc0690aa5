// README: Quote aggregator fans a request out to every provider of a market and isolates failures.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/provider"
	"ridebroker/internal/modules/quote"
)

// Source yields the providers registered for a market, in registration order.
type Source interface {
	ForMarket(market string) []provider.Provider
}

// Markets resolves a market code to its catalog entry.
type Markets interface {
	Market(code string) (pricing.Market, error)
}

type ProviderError struct {
	ProviderID string `json:"providerId"`
	Error      string `json:"error"`
}

type Stats struct {
	ProvidersTotal     int   `json:"providersTotal"`
	ProvidersSucceeded int   `json:"providersSucceeded"`
	ProvidersFailed    int   `json:"providersFailed"`
	ProvidersSkipped   int   `json:"providersSkipped"`
	DurationMs         int64 `json:"durationMs"`
}

type Result struct {
	Quotes    []quote.Quote   `json:"quotes"`
	Cheapest  *quote.Quote    `json:"cheapest,omitempty"`
	Fastest   *quote.Quote    `json:"fastest,omitempty"`
	Errors    []ProviderError `json:"errors"`
	Stats     Stats           `json:"stats"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

type Aggregator struct {
	providers Source
	markets   Markets
	log       *zap.Logger
	now       func() time.Time
}

func New(providers Source, markets Markets, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{providers: providers, markets: markets, log: log, now: time.Now}
}

// WithClock overrides the time source used for FetchedAt.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

type outcome struct {
	quotes []quote.Quote
	err    error
}

// Collect never fails: an unknown market or a market without providers yields an empty
// result, and each provider failure is reported in Result.Errors.
func (a *Aggregator) Collect(ctx context.Context, req quote.Request) Result {
	started := a.now()
	res := Result{Quotes: []quote.Quote{}, Errors: []ProviderError{}, FetchedAt: started}

	m, err := a.markets.Market(req.Market)
	if err != nil {
		a.log.Debug("quote request for unknown market", zap.String("market", req.Market))
		return res
	}

	var live []provider.Provider
	for _, p := range a.providers.ForMarket(req.Market) {
		if !p.Available() {
			res.Stats.ProvidersSkipped++
			continue
		}
		live = append(live, p)
	}
	res.Stats.ProvidersTotal = len(live)

	// One slot per provider keeps the output in registration order.
	outcomes := make([]outcome, len(live))
	var g errgroup.Group
	for i, p := range live {
		g.Go(func() error {
			outcomes[i] = a.call(ctx, p, req)
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		p := live[i]
		if o.err != nil {
			res.Stats.ProvidersFailed++
			res.Errors = append(res.Errors, ProviderError{ProviderID: p.ID(), Error: o.err.Error()})
			a.log.Warn("provider quote failed", zap.String("provider", p.ID()), zap.Error(o.err))
			continue
		}
		res.Stats.ProvidersSucceeded++
		for _, q := range o.quotes {
			if q.Price.Currency != m.Currency {
				a.log.Warn("provider returned wrong currency, overwriting",
					zap.String("provider", p.ID()),
					zap.String("quote", string(q.ID)),
					zap.String("got", q.Price.Currency),
					zap.String("want", m.Currency),
				)
				q.Price.Currency = m.Currency
				q.Price.Refresh()
			}
			res.Quotes = append(res.Quotes, q)
		}
	}

	res.Cheapest = Cheapest(res.Quotes)
	res.Fastest = Fastest(res.Quotes)
	res.Stats.DurationMs = a.now().Sub(started).Milliseconds()
	return res
}

func (a *Aggregator) call(ctx context.Context, p provider.Provider, req quote.Request) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("provider panicked: %v", r)}
		}
	}()
	quotes, err := p.Quotes(ctx, req)
	return outcome{quotes: quotes, err: err}
}

// Cheapest returns the quote with the lowest upper price bound; earlier quotes win ties.
func Cheapest(quotes []quote.Quote) *quote.Quote {
	return pick(quotes, func(a, b quote.Quote) bool { return a.Price.Max < b.Price.Max })
}

// Fastest returns the quote with the shortest pickup ETA; earlier quotes win ties.
func Fastest(quotes []quote.Quote) *quote.Quote {
	return pick(quotes, func(a, b quote.Quote) bool { return a.PickupETAMin < b.PickupETAMin })
}

func pick(quotes []quote.Quote, better func(a, b quote.Quote) bool) *quote.Quote {
	if len(quotes) == 0 {
		return nil
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if better(q, best) {
			best = q
		}
	}
	return &best
}

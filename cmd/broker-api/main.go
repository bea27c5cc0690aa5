// README: Entry point; loads config, wires stores, providers and the broker, starts the HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"go.uber.org/zap"

	"ridebroker/internal/config"
	httptransport "ridebroker/internal/http"
	"ridebroker/internal/infra"
	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/broker"
	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/provider"
	"ridebroker/internal/modules/quote"
	"ridebroker/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("broker stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	var bookingStore booking.Store = booking.NewMemoryStore()
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := infra.RunMigrations(ctx, cfg.DB.DSN, migrations.FS); err != nil {
			return err
		}
		bookingStore = booking.NewPGStore(pool)
		logger.Info("booking store: postgres")
	}

	var quoteStore quote.Store = quote.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		quoteStore = quote.NewRedisStore(client)
		logger.Info("quote store: redis", zap.String("addr", cfg.Redis.Addr))
	}

	var opts []broker.Option
	if cfg.AMQP.URL != "" {
		pub, err := infra.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, broker.WithPublisher(pub))
		logger.Info("booking events: amqp", zap.String("exchange", cfg.AMQP.Exchange))
	}

	catalog, err := pricing.NewStore(pricing.DefaultMarkets()...)
	if err != nil {
		return err
	}
	markets := pricing.NewService(catalog)
	svc := broker.NewService(provider.NewRegistry(), markets, quoteStore, bookingStore, logger, opts...)

	engine := booking.NewEngine(booking.Config{
		Dwell:   cfg.Lifecycle.Dwell,
		Drivers: booking.DefaultDrivers(),
	})
	for _, p := range buildProviders(markets.Markets(), cfg, engine) {
		if err := svc.Register(p); err != nil {
			return err
		}
	}

	router := httptransport.NewRouter(svc, httptransport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, logger)
	return httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, logger).Run(ctx)
}

// buildProviders registers the in-app demo where no real network is integrated and the
// taxi plus ride-hail adapters elsewhere.
func buildProviders(markets []pricing.Market, cfg config.Config, engine *booking.Engine) []provider.Provider {
	ttl := provider.WithTTL(cfg.Quote.TTL)
	var out []provider.Provider
	for _, m := range markets {
		if len(cfg.Markets.Enabled) > 0 && !slices.Contains(cfg.Markets.Enabled, m.Code) {
			continue
		}
		switch m.Code {
		case "nyc":
			out = append(out, provider.NewDemo(m, engine, ttl))
		default:
			out = append(out,
				provider.NewTaxi(m, ttl),
				provider.NewEconomy(m, ttl),
				provider.NewPremium(m, ttl),
			)
		}
	}
	return out
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/auth"
	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/checkout"
	"github.com/ariefcatur/storefront-orders/internal/config"
	"github.com/ariefcatur/storefront-orders/internal/events"
	"github.com/ariefcatur/storefront-orders/internal/fulfillment"
	"github.com/ariefcatur/storefront-orders/internal/httpx"
	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/logx"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/postgres"
	"github.com/ariefcatur/storefront-orders/internal/redisx"
	"github.com/ariefcatur/storefront-orders/internal/store"
	"github.com/joho/godotenv"
)

// notifier is what checkout and fulfillment publish through.
type notifier interface {
	checkout.Notifier
	fulfillment.Notifier
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	policy, err := orders.ParsePolicy(cfg.OrderTransitions)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// Store
	var st store.Store
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("memory store: data hilang saat restart, katalog demo dimuat")
		st = store.NewMemory(catalog.Demo()...)
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect")
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		st = &store.Postgres{DB: db}
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("unknown STORAGE_DRIVER")
	}

	// Kafka producer
	var pub notifier = events.Discard{}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		prod.Start(ctx)
		pub = &events.Publisher{Sink: prod, ServiceName: cfg.ServiceName}
	} else {
		log.Warn().Msg("KAFKA_BROKERS kosong: order events tidak dipublish")
	}

	co := checkout.New(st, pub, log)
	ful := fulfillment.New(st, policy, log)
	ful.Notifier = pub

	deps := httpx.Deps{
		Log:            log,
		Verifier:       auth.Verifier{Secret: []byte(cfg.JWTSecret)},
		Checkout:       co,
		Fulfillment:    ful,
		Products:       st,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}

	// Redis
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable: cache & idempotency off")
		} else {
			ful.Cache = &redisx.OrderCache{RDB: rdb, TTL: cfg.OrderCacheTTL}
			ful.Statuses = &redisx.StatusViews{RDB: rdb}
			deps.Idempotency = &redisx.Idempotency{RDB: rdb}
		}
	}

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("store", cfg.StorageDriver).
			Str("transitions", policy.String()).
			Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if prod != nil {
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
	}
	cancel()
}

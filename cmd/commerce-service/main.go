package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	analyticsapp "github.com/dmehra2102/commerce-core/internal/analytics/application"
	analyticsdomain "github.com/dmehra2102/commerce-core/internal/analytics/domain"
	analyticshttp "github.com/dmehra2102/commerce-core/internal/analytics/infrastructure/http"
	analyticspg "github.com/dmehra2102/commerce-core/internal/analytics/infrastructure/postgres"
	cartapp "github.com/dmehra2102/commerce-core/internal/cart/application"
	carthttp "github.com/dmehra2102/commerce-core/internal/cart/infrastructure/http"
	cartpg "github.com/dmehra2102/commerce-core/internal/cart/infrastructure/postgres"
	"github.com/dmehra2102/commerce-core/internal/catalog"
	catalogpg "github.com/dmehra2102/commerce-core/internal/catalog/postgres"
	"github.com/dmehra2102/commerce-core/internal/identity"
	orderapp "github.com/dmehra2102/commerce-core/internal/order/application"
	"github.com/dmehra2102/commerce-core/internal/order/domain"
	orderhttp "github.com/dmehra2102/commerce-core/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/commerce-core/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/commerce-core/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/commerce-core/internal/platform/grpcx"
	"github.com/dmehra2102/commerce-core/internal/platform/memory"
	"github.com/dmehra2102/commerce-core/internal/platform/postgres"
	"github.com/dmehra2102/commerce-core/pkg/config"
	"github.com/dmehra2102/commerce-core/pkg/logging"
	"github.com/dmehra2102/commerce-core/pkg/outbox"
	"github.com/dmehra2102/commerce-core/pkg/shutdown"
	"github.com/dmehra2102/commerce-core/pkg/tracing"
)

// backend is one storage implementation of every port the services need.
type backend struct {
	carts   cartapp.CartRepository
	orders  orderapp.OrderRepository
	catalog catalog.Reader
	outbox  interface {
		outbox.Appender
		outbox.Store
	}
	revenue analyticsapp.OrderSource
	tx      orderapp.TxManager
	ping    func(ctx context.Context) error
	close   func()
}

func main() {
	cfg, err := config.Load("commerce-service")
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	policy, err := analyticsdomain.ParseDiscountPolicy(cfg.RevenueDiscountPolicy)
	if err != nil {
		log.Error("invalid REVENUE_DISCOUNT_POLICY", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTelEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var b backend
	switch cfg.Store {
	case "memory":
		b, err = memoryBackend(log, cfg)
	default:
		b, err = postgresBackend(ctx, log, cfg)
	}
	if err != nil {
		log.Error("storage init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer b.close()

	// Kafka producer and outbox relay
	writer := orderkafka.NewWriter(log, cfg.KafkaBrokers)
	defer writer.Close()
	dispatch := outbox.NewDispatcher(log, writer, cfg.EventsTopic)
	relay := outbox.NewRelay(log, b.outbox, dispatch, cfg.ServiceName+"-relay")

	carts := cartapp.NewService(log, b.carts, b.catalog, b.tx)
	orders := orderapp.NewService(log, b.orders, b.carts, b.catalog, b.outbox, b.tx,
		domain.NewReturnPolicy(cfg.ReturnWindow))
	reports := analyticsapp.NewService(log, b.revenue, policy, cfg.ReportLocation)
	verifier := identity.NewVerifier(cfg.JWTSecret)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := b.ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(log, verifier))
		r.Mount("/cart", carthttp.NewHandler(log, carts).Routes())
		orderhttp.NewHandler(log, orders).Register(r)
		r.With(identity.RequireCapability(log, identity.CapViewReports)).
			Mount("/admin/reports", analyticshttp.NewHandler(log, reports).Routes())
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	health := grpcx.NewServer(log, cfg.ServiceName)
	go health.Watch(ctx, 5*time.Second, b.ping)
	go func() {
		if err := health.Run(cfg.GRPCAddr); err != nil {
			log.Error("grpc server error", "err", err)
			cancel()
		}
	}()

	// Run relay
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	// Run HTTP
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	health.Stop()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("commerce-service shutdown complete")
}

func postgresBackend(ctx context.Context, log *slog.Logger, cfg config.Config) (backend, error) {
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return backend{}, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return backend{}, err
	}

	products := catalogpg.NewReader(log, pool)
	if cfg.CatalogSeed != "" {
		seed, err := catalog.LoadSeed(cfg.CatalogSeed)
		if err == nil {
			err = products.Upsert(ctx, seed)
		}
		if err != nil {
			pool.Close()
			return backend{}, err
		}
	}

	return backend{
		carts:   cartpg.NewRepository(log, pool),
		orders:  orderpg.NewRepository(log, pool),
		catalog: products,
		outbox:  postgres.NewOutboxStore(log, pool),
		revenue: analyticspg.NewRepository(log, pool),
		tx:      postgres.NewTxManager(pool),
		ping:    pool.Ping,
		close:   pool.Close,
	}, nil
}

func memoryBackend(log *slog.Logger, cfg config.Config) (backend, error) {
	store := memory.NewStore()
	if cfg.CatalogSeed != "" {
		seed, err := catalog.LoadSeed(cfg.CatalogSeed)
		if err != nil {
			return backend{}, err
		}
		for _, p := range seed {
			store.PutProduct(p)
		}
	}
	log.Warn("using in-memory store; state is lost on restart")

	return backend{
		carts:   store.Carts(),
		orders:  store.Orders(),
		catalog: store.Catalog(),
		outbox:  store.Outbox(),
		revenue: store.Revenue(),
		tx:      store,
		ping:    func(context.Context) error { return nil },
		close:   func() {},
	}, nil
}

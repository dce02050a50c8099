package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tracelink/internal/authtoken"
	authtokenhandler "tracelink/internal/authtoken/handler"
	"tracelink/internal/ledger"
	ledgerhandler "tracelink/internal/ledger/handler"
	ledgermetrics "tracelink/internal/ledger/metrics"
	"tracelink/internal/ledger/relay"
	"tracelink/internal/platform/config"
	"tracelink/internal/platform/httpserver"
	"tracelink/internal/platform/logger"
	"tracelink/internal/platform/middleware"
	"tracelink/internal/platform/postgres"
	platformredis "tracelink/internal/platform/redis"
	"tracelink/internal/product"
	producthandler "tracelink/internal/product/handler"
	productmetrics "tracelink/internal/product/metrics"
	"tracelink/internal/registry"
	registryhandler "tracelink/internal/registry/handler"
	registrymetrics "tracelink/internal/registry/metrics"
	"tracelink/internal/trust"
	trusthandler "tracelink/internal/trust/handler"
	trustmetrics "tracelink/internal/trust/metrics"
)

// main wires stores, services, and handlers, then runs the HTTP server and
// the ledger relay side by side. Business logic lives in the internal
// services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store selection: postgres when a DSN is configured, in-memory otherwise.
	var (
		registryStore registry.Store
		eventStore    ledger.Store
		productStore  product.ProductStore
		transferStore product.TransferStore
		ratingStore   trust.RatingStore
		reportStore   trust.ReportStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		registryStore = registry.NewPostgresStore(db)
		eventStore = ledger.NewPostgresStore(db)
		productStore = product.NewPostgresProductStore(db)
		transferStore = product.NewPostgresTransferStore(db)
		ratingStore = trust.NewPostgresRatingStore(db)
		reportStore = trust.NewPostgresReportStore(db)
	} else {
		registryStore = registry.NewInMemoryStore()
		eventStore = ledger.NewInMemoryStore()
		productStore = product.NewInMemoryProductStore()
		transferStore = product.NewInMemoryTransferStore()
		ratingStore = trust.NewInMemoryRatingStore()
		reportStore = trust.NewInMemoryReportStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		ratingStore = trust.NewCachedRatingStore(ratingStore, redisClient.Client, log)
	}

	registrySvc := registry.NewService(registryStore, log, registrymetrics.New())
	ledgerSvc := ledger.NewService(eventStore, registrySvc, log, ledgermetrics.New())
	productSvc := product.NewService(productStore, transferStore, ledgerSvc, registrySvc, log, productmetrics.New())
	trustSvc := trust.NewService(ratingStore, reportStore, registrySvc, productSvc, log, trustmetrics.New())
	tokenSvc := authtoken.NewService(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		authtokenhandler.New(tokenSvc, log).Register(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokenSvc, log))
		registryhandler.New(registrySvc, log).Register(r)
		ledgerhandler.New(ledgerSvc, log).Register(r)
		producthandler.New(productSvc, log).Register(r)
		trusthandler.New(trustSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting tracelink", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Relay.Brokers) > 0 {
		sink, err := relay.NewKafkaSink(cfg.Relay.Brokers, cfg.Relay.Topic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		var checkpoint relay.Checkpoint = relay.NewMemoryCheckpoint()
		if redisClient != nil {
			checkpoint = relay.NewRedisCheckpoint(redisClient.Client)
		}

		group.Go(func() error {
			log.Info("starting ledger relay", "topic", cfg.Relay.Topic, "interval", cfg.Relay.PollInterval)
			return relay.New(ledgerSvc, sink, checkpoint, cfg.Relay.PollInterval, log).Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("tracelink stopped")
}

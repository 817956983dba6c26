// README: Entry point; loads config, wires stores and services, starts the API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/config"
	httptransport "freightgo/internal/http"
	"freightgo/internal/infra"
	"freightgo/internal/ingest"
	"freightgo/internal/logging"
	"freightgo/internal/maps"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/matching"
	"freightgo/internal/modules/order"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/modules/search"
	"freightgo/internal/modules/tracking"
	"freightgo/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		accountStore account.Store
		fleetStore   fleet.Store
		searchStore  search.Store
		orderStore   order.Store
	)
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("postgres connect failed", zap.Error(err))
		}
		if err := infra.ApplySchema(ctx, dbPool); err != nil {
			logger.Fatal("schema apply failed", zap.Error(err))
		}
		redisClient := infra.NewRedis(cfg.Redis.Addr)

		accountStore = account.NewPostgresStore(dbPool)
		fleetStore = fleet.NewPostgresStore(dbPool, redisClient)
		searchStore = search.NewPostgresStore(dbPool)
		orderStore = order.NewPostgresStore(dbPool)
	} else {
		logger.Warn("no database configured, using in-memory stores")
		accountStore = account.NewMemoryStore()
		fleetStore = fleet.NewMemoryStore()
		searchStore = search.NewMemoryStore()
		orderStore = order.NewMemoryStore()
	}

	var provider geo.DistanceProvider
	if cfg.Maps.APIKey != "" {
		svc, err := maps.NewDistanceService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps client init failed", zap.Error(err))
		}
		provider = svc
	}

	var (
		positions ingest.Publisher
		producer  *ingest.PositionProducer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer = ingest.NewPositionProducer(infra.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.PositionTopic))
		positions = producer
		logger.Info("position pipeline enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.PositionTopic))
	}

	estimator := geo.NewEstimator(provider, logger)
	pricingSvc := pricing.NewService(cfg.Pricing)
	hub := notify.NewHub(logger)
	matcher := matching.NewService(fleetStore, accountStore, cfg.Matching, logger)
	searchSvc := search.NewService(searchStore, estimator, pricingSvc, matcher, hub, cfg.Search, logger)
	orderSvc := order.NewService(orderStore, fleetStore, accountStore, searchStore, matcher, estimator, pricingSvc, hub, cfg.Matching, logger)
	trackingSvc := tracking.NewService(fleetStore, orderStore, hub, cfg.Matching, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Search:    searchSvc,
		Orders:    orderSvc,
		Tracking:  trackingSvc,
		Fleet:     fleetStore,
		Accounts:  accountStore,
		Hub:       hub,
		Positions: positions,
		Log:       logger,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go searchSvc.RunExpirySweep(ctx)

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("producer close failed", zap.Error(err))
		}
	}
}

// README: Kafka consumer; feeds driver position events into tracking.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/infra"
	"freightgo/internal/ingest"
	"freightgo/internal/logging"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/order"
	"freightgo/internal/modules/tracking"
	"freightgo/internal/notify"
	"freightgo/internal/types"
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

	if cfg.DB.DSN == "" {
		logger.Fatal("FREIGHTGO_DB_DSN is required")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatal("FREIGHTGO_KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("postgres connect failed", zap.Error(err))
	}
	redisClient := infra.NewRedis(cfg.Redis.Addr)

	fleetStore := fleet.NewPostgresStore(dbPool, redisClient)
	orderStore := order.NewPostgresStore(dbPool)
	// This process hosts no websocket subscribers; client fan-out happens in
	// the API process. Position events are only logged here.
	notifier := notify.NewLogNotifier(logger)
	trackingSvc := tracking.NewService(fleetStore, orderStore, notifier, cfg.Matching, logger)

	reader := infra.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.PositionTopic, cfg.Kafka.GroupID)
	defer func() { _ = reader.Close() }()

	logger.Info("position consumer listening",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.PositionTopic),
		zap.String("group", cfg.Kafka.GroupID),
	)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", zap.Error(err), zap.Duration("backoff", backoff))
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		var e ingest.PositionEvent
		if err := json.Unmarshal(m.Value, &e); err != nil || e.DriverID == "" {
			logger.Warn("malformed position event skipped", zap.Error(err))
			continue
		}
		err = trackingSvc.UpdatePosition(ctx, e.DriverID, types.Point{Lat: e.Lat, Lng: e.Lng})
		if err != nil {
			logger.Warn("position update failed",
				zap.String("driver_id", string(e.DriverID)), zap.Error(err))
		}
	}
}

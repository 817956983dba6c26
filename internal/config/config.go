// README: Config loader with env defaults for HTTP, DB, Redis, Kafka, maps, and dispatch settings.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type PricingConfig struct {
	BaseRatePerKmCents int64
	MinimumFareCents   int64
	Currency           string
}

type MatchingConfig struct {
	DefaultRadiusKm  float64
	AverageSpeedKmH  float64
	ImmediateEtaMin  float64
	TrackingSpeedKmH float64
}

type SearchConfig struct {
	SessionTTLMin    int
	SweepTickSeconds int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Kafka struct {
		Brokers       []string
		PositionTopic string
		GroupID       string
	}
	Maps struct {
		APIKey string
	}
	LogLevel string
	Pricing  PricingConfig
	Matching MatchingConfig
	Search   SearchConfig
}

func Load() (Config, error) {
	// Missing .env is fine; deployments use plain env vars.
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("FREIGHTGO_HTTP_ADDR", ":8080")
	cfg.DB.DSN = os.Getenv("FREIGHTGO_DB_DSN")
	cfg.Redis.Addr = envOrDefault("FREIGHTGO_REDIS_ADDR", "localhost:6379")
	if v := os.Getenv("FREIGHTGO_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	cfg.Kafka.PositionTopic = envOrDefault("FREIGHTGO_KAFKA_POSITION_TOPIC", "driver-positions")
	cfg.Kafka.GroupID = envOrDefault("FREIGHTGO_KAFKA_GROUP", "freightgo-tracker")
	cfg.Maps.APIKey = os.Getenv("FREIGHTGO_MAPS_API_KEY")
	cfg.LogLevel = envOrDefault("FREIGHTGO_LOG_LEVEL", "info")

	cfg.Pricing.BaseRatePerKmCents = envOrDefaultInt64("FREIGHTGO_BASE_RATE_CENTS", 250)
	cfg.Pricing.MinimumFareCents = envOrDefaultInt64("FREIGHTGO_MIN_FARE_CENTS", 2500)
	cfg.Pricing.Currency = envOrDefault("FREIGHTGO_CURRENCY", "EUR")

	cfg.Matching.DefaultRadiusKm = envOrDefaultFloat("FREIGHTGO_MATCH_RADIUS_KM", 50.0)
	cfg.Matching.AverageSpeedKmH = envOrDefaultFloat("FREIGHTGO_AVG_SPEED_KMH", 50.0)
	cfg.Matching.ImmediateEtaMin = envOrDefaultFloat("FREIGHTGO_IMMEDIATE_ETA_MIN", 30.0)
	cfg.Matching.TrackingSpeedKmH = envOrDefaultFloat("FREIGHTGO_TRACKING_SPEED_KMH", 40.0)

	cfg.Search.SessionTTLMin = envOrDefaultInt("FREIGHTGO_SEARCH_TTL_MIN", 30)
	cfg.Search.SweepTickSeconds = envOrDefaultInt("FREIGHTGO_SEARCH_SWEEP_SEC", 60)

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := cast.ToInt64E(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := cast.ToFloat64E(v); err == nil {
			return n
		}
	}
	return def
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean and
// gives every knob a development default.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresURL selects the Postgres record store; empty means in-memory.
	PostgresURL string

	// RedisURL selects the distributed release lock; empty means the
	// in-process keyed mutex (single instance deployments).
	RedisURL string

	// KafkaBrokers enables the trail event sink; empty disables it.
	KafkaBrokers []string
	KafkaTopic   string

	// LedgerRPCURL selects the ledger node; empty means the in-memory fake
	// ledger (dev runs without a node).
	LedgerRPCURL         string
	LedgerConfirmWait    time.Duration
	LedgerRequestTimeout time.Duration

	// SweepInterval is how often the reconciliation sweeper runs.
	SweepInterval time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                 getEnv("SUBVENE_ADDR", ":8080"),
		JWTSigningKey:        getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:          os.Getenv("POSTGRES_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		KafkaTopic:           getEnv("KAFKA_TRAIL_TOPIC", "subvene.trail"),
		LedgerRPCURL:         os.Getenv("LEDGER_RPC_URL"),
		LedgerConfirmWait:    getDuration("LEDGER_CONFIRM_WAIT", 90*time.Second),
		LedgerRequestTimeout: getDuration("LEDGER_REQUEST_TIMEOUT", 15*time.Second),
		SweepInterval:        getDuration("SWEEP_INTERVAL", 5*time.Minute),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

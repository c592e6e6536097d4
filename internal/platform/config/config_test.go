package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.PostgresURL, "default store is in-memory")
	assert.Empty(t, cfg.RedisURL, "default lock is the in-process mutex")
	assert.Empty(t, cfg.KafkaBrokers, "trail fan-out is off by default")
	assert.Empty(t, cfg.LedgerRPCURL, "default ledger is the in-memory fake")
	assert.Equal(t, 90*time.Second, cfg.LedgerConfirmWait)
	assert.Equal(t, 15*time.Second, cfg.LedgerRequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SUBVENE_ADDR", ":9090")
	t.Setenv("LEDGER_RPC_URL", "http://ledger.internal:8545")
	t.Setenv("LEDGER_CONFIRM_WAIT", "2m")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("SWEEP_INTERVAL", "30s")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "http://ledger.internal:8545", cfg.LedgerRPCURL)
	assert.Equal(t, 2*time.Minute, cfg.LedgerConfirmWait)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
}

func TestFromEnvIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("LEDGER_CONFIRM_WAIT", "soon")
	cfg := FromEnv()
	assert.Equal(t, 90*time.Second, cfg.LedgerConfirmWait)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syncvault.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SYNCVAULT_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, EscrowDual, cfg.Escrow.Variant)
	assert.Equal(t, LinkPolicyGuarded, cfg.Partner.LinkPolicy)
	assert.Equal(t, 14*time.Hour, cfg.Storage.TargetHorizon.Duration)
	assert.Equal(t, uint32(7), cfg.Ledger.Decimals)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[storage]
backend = "bolt"
bolt_path = "/var/lib/syncvault/data.db"
target_horizon = "48h"

[escrow]
variant = "open"

[kafka]
brokers = ["kafka-1:9092", "kafka-2:9092"]
`)
	t.Setenv("SYNCVAULT_CONFIG", path)
	t.Setenv("ESCROW_VARIANT", "simple")
	t.Setenv("LEDGER_TRACK_SUPPLY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StorageBolt, cfg.Storage.Backend)
	assert.Equal(t, 48*time.Hour, cfg.Storage.TargetHorizon.Duration)
	assert.Equal(t, 7*time.Hour, cfg.Storage.MinHorizon.Duration, "keys absent from the file keep defaults")
	assert.Equal(t, EscrowSimple, cfg.Escrow.Variant, "environment overrides the file")
	assert.False(t, cfg.Ledger.TrackSupply)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown escrow variant", env: map[string]string{"ESCROW_VARIANT": "triple"}},
		{name: "unknown storage backend", env: map[string]string{"SYNCVAULT_STORAGE": "etcd"}},
		{name: "postgres without url", env: map[string]string{"SYNCVAULT_STORAGE": "postgres"}},
		{name: "unknown link policy", env: map[string]string{"PARTNER_LINK_POLICY": "sometimes"}},
		{name: "malformed bool", env: map[string]string{"LEDGER_ISSUER_GATED": "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SYNCVAULT_CONFIG", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_BadDuration(t *testing.T) {
	path := writeConfig(t, `
[storage]
min_horizon = "soon"
`)
	cfg := Default()
	assert.Error(t, LoadFile(path, &cfg))
}

func TestLoad_KafkaBrokersFromEnv(t *testing.T) {
	t.Setenv("SYNCVAULT_CONFIG", "")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092,,kafka-2:9092, kafka-1:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

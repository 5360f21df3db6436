package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	pstrings "syncvault/pkg/platform/strings"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageBolt     = "bolt"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Escrow variants. Exactly one is wired per deployment.
const (
	EscrowSimple = "simple"
	EscrowDual   = "dual"
	EscrowOpen   = "open"
)

// Partner link policies.
const (
	LinkPolicyReplace = "replace"
	LinkPolicyGuarded = "guarded"
)

// Duration decodes from a Go duration string such as "14h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full process configuration.
type Config struct {
	LogLevel string         `toml:"log_level"`
	Server   Server         `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Storage  StorageConfig  `toml:"storage"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Kafka    KafkaConfig    `toml:"kafka"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Partner  PartnerConfig  `toml:"partner"`
	Escrow   EscrowConfig   `toml:"escrow"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string   `toml:"addr"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string `toml:"jwt_signing_key"`
	Issuer        string `toml:"issuer"`
	Audience      string `toml:"audience"`
}

// StorageConfig selects the persistence backend and its expiry horizons.
type StorageConfig struct {
	Backend       string   `toml:"backend"`
	BoltPath      string   `toml:"bolt_path"`
	MinHorizon    Duration `toml:"min_horizon"`
	TargetHorizon Duration `toml:"target_horizon"`
	UnitTimeout   Duration `toml:"unit_timeout"`
}

type PostgresConfig struct {
	URL          string `toml:"url"`
	Driver       string `toml:"driver"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

type RedisConfig struct {
	URL          string   `toml:"url"`
	PoolSize     int      `toml:"pool_size"`
	MinIdleConns int      `toml:"min_idle_conns"`
	DialTimeout  Duration `toml:"dial_timeout"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// KafkaConfig enables the Kafka event sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string `toml:"brokers"`
	ClientID          string   `toml:"client_id"`
	TopicPrefix       string   `toml:"topic_prefix"`
	Partitions        int32    `toml:"partitions"`
	ReplicationFactor int16    `toml:"replication_factor"`
}

type LedgerConfig struct {
	IssuerGated bool   `toml:"issuer_gated"`
	TrackSupply bool   `toml:"track_supply"`
	Name        string `toml:"name"`
	Symbol      string `toml:"symbol"`
	Decimals    uint32 `toml:"decimals"`
}

type PartnerConfig struct {
	LinkPolicy string `toml:"link_policy"`
}

type EscrowConfig struct {
	Variant string `toml:"variant"`
	// Identity is the escrow's own principal; it is registered as ledger issuer.
	Identity       string `toml:"identity"`
	ApprovalReward string `toml:"approval_reward"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{5 * time.Second},
			ShutdownTimeout:   Duration{10 * time.Second},
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "syncvault",
			Audience:      "syncvault",
		},
		Storage: StorageConfig{
			Backend:       StorageMemory,
			BoltPath:      "syncvault.db",
			MinHorizon:    Duration{7 * time.Hour},
			TargetHorizon: Duration{14 * time.Hour},
			UnitTimeout:   Duration{5 * time.Second},
		},
		Postgres: PostgresConfig{
			Driver:       "pgx",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  Duration{5 * time.Second},
			ReadTimeout:  Duration{3 * time.Second},
			WriteTimeout: Duration{3 * time.Second},
		},
		Kafka: KafkaConfig{
			ClientID:          "syncvault",
			TopicPrefix:       "syncvault.",
			Partitions:        1,
			ReplicationFactor: 1,
		},
		Ledger: LedgerConfig{
			IssuerGated: true,
			TrackSupply: true,
			Name:        "SYNC",
			Symbol:      "SYNC",
			Decimals:    7,
		},
		Partner: PartnerConfig{LinkPolicy: LinkPolicyGuarded},
		Escrow: EscrowConfig{
			Variant:        EscrowDual,
			Identity:       "goals-vault",
			ApprovalReward: "100",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file named by
// SYNCVAULT_CONFIG when set, then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("SYNCVAULT_CONFIG"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes path over cfg. Keys absent from the file keep their values.
func LoadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) error {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = parsed
		return nil
	}

	setString("SYNCVAULT_ADDR", &cfg.Server.Addr)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("JWT_SIGNING_KEY", &cfg.Auth.JWTSigningKey)
	setString("SYNCVAULT_STORAGE", &cfg.Storage.Backend)
	setString("BOLT_PATH", &cfg.Storage.BoltPath)
	setString("DATABASE_URL", &cfg.Postgres.URL)
	setString("DATABASE_DRIVER", &cfg.Postgres.Driver)
	setString("REDIS_URL", &cfg.Redis.URL)
	setString("ESCROW_VARIANT", &cfg.Escrow.Variant)
	setString("ESCROW_IDENTITY", &cfg.Escrow.Identity)
	setString("PARTNER_LINK_POLICY", &cfg.Partner.LinkPolicy)

	if brokers := pstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","); len(brokers) > 0 {
		cfg.Kafka.Brokers = brokers
	}
	cfg.Kafka.Brokers = pstrings.Dedupe(cfg.Kafka.Brokers)

	if err := setBool("LEDGER_ISSUER_GATED", &cfg.Ledger.IssuerGated); err != nil {
		return err
	}
	return setBool("LEDGER_TRACK_SUPPLY", &cfg.Ledger.TrackSupply)
}

// Validate rejects unknown enum values and missing connection settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server addr is required")
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageBolt:
		if strings.TrimSpace(c.Storage.BoltPath) == "" {
			return fmt.Errorf("bolt_path is required for the bolt backend")
		}
	case StoragePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if c.Postgres.Driver != "pgx" && c.Postgres.Driver != "postgres" {
			return fmt.Errorf("unknown postgres driver %q", c.Postgres.Driver)
		}
	case StorageRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.TargetHorizon.Duration <= 0 || c.Storage.MinHorizon.Duration > c.Storage.TargetHorizon.Duration {
		return fmt.Errorf("storage horizons must satisfy 0 <= min <= target, target > 0")
	}
	switch c.Escrow.Variant {
	case EscrowSimple, EscrowDual, EscrowOpen:
	default:
		return fmt.Errorf("unknown escrow variant %q", c.Escrow.Variant)
	}
	if strings.TrimSpace(c.Escrow.Identity) == "" {
		return fmt.Errorf("escrow identity is required")
	}
	switch c.Partner.LinkPolicy {
	case LinkPolicyReplace, LinkPolicyGuarded:
	default:
		return fmt.Errorf("unknown partner link policy %q", c.Partner.LinkPolicy)
	}
	return nil
}

// Package app assembles the storage backend, event sinks, services and HTTP
// router described by a config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"syncvault/internal/auth"
	"syncvault/internal/escrow/dual"
	"syncvault/internal/escrow/open"
	"syncvault/internal/escrow/ports"
	"syncvault/internal/escrow/simple"
	"syncvault/internal/events"
	"syncvault/internal/events/kafka"
	jwttoken "syncvault/internal/jwt_token"
	"syncvault/internal/ledger"
	"syncvault/internal/partner"
	"syncvault/internal/platform/config"
	"syncvault/internal/platform/metrics"
	platformpg "syncvault/internal/platform/postgres"
	platformredis "syncvault/internal/platform/redis"
	"syncvault/internal/storage"
	"syncvault/internal/storage/bolt"
	"syncvault/internal/storage/memory"
	pgstore "syncvault/internal/storage/postgres"
	redisstore "syncvault/internal/storage/redis"
	httptransport "syncvault/internal/transport/http"
	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
)

// App is a fully wired process.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Store    *storage.Store
	Partners *partner.Service
	Ledger   *ledger.Service
	Tokens   *jwttoken.JWTService
	Router   http.Handler

	kafka *kafka.Publisher
}

type options struct {
	registry  *prometheus.Registry
	backend   storage.Backend
	publisher events.Publisher
}

type Option func(*options)

// WithRegistry registers metrics with reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithBackend bypasses backend selection from config.
func WithBackend(b storage.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithPublisher adds an event sink alongside the configured ones.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// New wires every component. The escrow identity is registered as ledger
// issuer on first start.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	escrowID, err := domain.ParseIdentity(cfg.Escrow.Identity)
	if err != nil {
		return nil, fmt.Errorf("escrow identity: %w", err)
	}
	reward, err := domain.ParseAmount(cfg.Escrow.ApprovalReward)
	if err != nil || !reward.IsPositive() {
		return nil, fmt.Errorf("escrow approval reward %q must be a positive integer", cfg.Escrow.ApprovalReward)
	}

	var m *metrics.Metrics
	var gatherer prometheus.Gatherer
	if o.registry != nil {
		m = metrics.NewWithRegistry(o.registry)
		gatherer = o.registry
	} else {
		m = metrics.New()
	}

	backend := o.backend
	if backend == nil {
		backend, err = openBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	store := storage.New(backend,
		storage.WithHorizons(storage.Horizons{
			Min:    cfg.Storage.MinHorizon.Duration,
			Target: cfg.Storage.TargetHorizon.Duration,
		}),
		storage.WithTimeout(cfg.Storage.UnitTimeout.Duration),
		storage.WithLogger(logger),
		storage.WithMetrics(m),
	)

	a := &App{Config: cfg, Logger: logger, Metrics: m, Store: store}

	sinks := events.Fanout{events.NewLogPublisher(logger)}
	if len(cfg.Kafka.Brokers) > 0 {
		a.kafka, err = kafka.New(cfg.Kafka, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if err := a.kafka.EnsureTopics(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		sinks = append(sinks, a.kafka)
	}
	if o.publisher != nil {
		sinks = append(sinks, o.publisher)
	}

	authenticator := auth.ContextAuthenticator{}

	a.Ledger = ledger.New(store, authenticator,
		ledger.WithIssuerGate(cfg.Ledger.IssuerGated),
		ledger.WithIssuer(escrowID),
		ledger.WithSupplyTracking(cfg.Ledger.TrackSupply),
		ledger.WithMetadata(ledger.Metadata{
			Name:     cfg.Ledger.Name,
			Symbol:   cfg.Ledger.Symbol,
			Decimals: cfg.Ledger.Decimals,
		}),
		ledger.WithPublisher(sinks),
		ledger.WithLogger(logger),
		ledger.WithMetrics(m),
	)
	if err := a.Ledger.Initialize(ctx, escrowID); err != nil && !dErrors.HasCode(err, dErrors.CodeAlreadyInitialized) {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("initialize ledger issuer: %w", err)
	}

	a.Partners = partner.New(store, authenticator,
		partner.WithPolicy(partner.Policy(cfg.Partner.LinkPolicy)),
		partner.WithPublisher(sinks),
		partner.WithLogger(logger),
		partner.WithMetrics(m),
	)

	goals, err := newEscrowHandler(cfg.Escrow.Variant, store, authenticator, a.Ledger, escrowID, reward, sinks, logger, m)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Tokens = jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	a.Router = httptransport.NewRouter(httptransport.RouterConfig{
		Logger:    logger,
		Validator: jwttoken.NewJWTServiceAdapter(a.Tokens),
		Gatherer:  gatherer,
		Handlers: []httptransport.Registrar{
			httptransport.NewPartnerHandler(a.Partners, logger),
			httptransport.NewLedgerHandler(a.Ledger, logger),
			goals,
		},
	})
	return a, nil
}

func newEscrowHandler(
	variant string,
	store *storage.Store,
	authenticator auth.Authenticator,
	minter ports.Minter,
	self domain.Identity,
	reward domain.Amount,
	publisher events.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) (httptransport.Registrar, error) {
	switch variant {
	case config.EscrowSimple:
		svc := simple.New(store, authenticator, minter, self,
			simple.WithPublisher(publisher), simple.WithLogger(logger), simple.WithMetrics(m))
		return httptransport.NewSimpleGoalHandler(svc, logger), nil
	case config.EscrowDual:
		svc := dual.New(store, authenticator, minter, self,
			dual.WithPublisher(publisher), dual.WithLogger(logger), dual.WithMetrics(m))
		return httptransport.NewDualGoalHandler(svc, logger), nil
	case config.EscrowOpen:
		svc := open.New(store, authenticator, minter, self,
			open.WithApprovalReward(reward),
			open.WithPublisher(publisher), open.WithLogger(logger), open.WithMetrics(m))
		return httptransport.NewOpenGoalHandler(svc, logger), nil
	}
	return nil, fmt.Errorf("unknown escrow variant %q", variant)
}

func openBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageBolt:
		backend, err := bolt.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.StoragePostgres:
		db, err := platformpg.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		backend := pgstore.New(db)
		if err := backend.Migrate(ctx); err != nil {
			_ = backend.Close()
			return nil, err
		}
		return backend, nil
	case config.StorageRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redisstore.New(client), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Close flushes the Kafka sink and releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.kafka != nil {
		if err := a.kafka.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close kafka: %w", err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

// Package ledger is the fungible token ledger: per-identity balances, an
// optional total supply, issuer-gated minting and balance-gated transfers.
//
// Invariants: balances never go negative; when supply is tracked it equals the
// sum of all balances; transfers conserve the total.
package ledger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"syncvault/internal/auth"
	"syncvault/internal/events"
	"syncvault/internal/platform/metrics"
	"syncvault/internal/platform/tracing"
	"syncvault/internal/storage"
	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/requestcontext"
)

// Metadata describes the token.
type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint32 `json:"decimals"`
}

// DefaultMetadata is the SYNC token.
var DefaultMetadata = Metadata{Name: "SYNC", Symbol: "SYNC", Decimals: 7}

var (
	issuerKey = storage.NewKey("ledger", "issuer")
	supplyKey = storage.NewKey("ledger", "supply")
)

func balanceKey(id domain.Identity) storage.Key {
	return storage.NewKey("ledger", "balance", id.String())
}

// Service is the token ledger.
type Service struct {
	store       *storage.Store
	auth        auth.Authenticator
	issuerGated bool
	pinned      domain.Identity
	trackSupply bool
	metadata    Metadata
	publisher   events.Publisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

// WithIssuerGate toggles the issuer check on Mint. Ungated ledgers let any
// caller mint.
func WithIssuerGate(enabled bool) Option {
	return func(s *Service) {
		s.issuerGated = enabled
	}
}

// WithIssuer pins the expected issuer. A lapsed issuer record is restored
// from it on the next mint instead of failing with CodeNotInitialized.
func WithIssuer(issuer domain.Identity) Option {
	return func(s *Service) {
		s.pinned = issuer
	}
}

// WithSupplyTracking toggles the recorded total supply.
func WithSupplyTracking(enabled bool) Option {
	return func(s *Service) {
		s.trackSupply = enabled
	}
}

func WithMetadata(m Metadata) Option {
	return func(s *Service) {
		s.metadata = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs an issuer-gated, supply-tracking ledger unless options say
// otherwise.
func New(store *storage.Store, authenticator auth.Authenticator, opts ...Option) *Service {
	s := &Service{
		store:       store,
		auth:        authenticator,
		issuerGated: true,
		trackSupply: true,
		metadata:    DefaultMetadata,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metadata returns the token description.
func (s *Service) Metadata() Metadata {
	return s.metadata
}

// Initialize records the issuer. It succeeds once; later calls fail with
// CodeAlreadyInitialized.
func (s *Service) Initialize(ctx context.Context, issuer domain.Identity) (err error) {
	ctx, span := tracing.Start(ctx, "ledger.Initialize", attribute.String("issuer", issuer.String()))
	defer s.finish(span, "ledger.initialize", &err)

	if issuer.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}

	return s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		exists, err := txn.Has(issuerKey)
		if err != nil {
			return err
		}
		if exists {
			return dErrors.New(dErrors.CodeAlreadyInitialized, "ledger already initialized")
		}
		if err := storage.SetJSON(txn, issuerKey, issuer); err != nil {
			return err
		}
		if err := s.store.Touch(txn, issuerKey); err != nil {
			return err
		}
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "ledger_initialized", "issuer", issuer)
		})
		return nil
	})
}

// Issuer returns the recorded issuer, if any.
func (s *Service) Issuer(ctx context.Context) (issuer domain.Identity, found bool, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		issuer, found, err = storage.GetJSON[domain.Identity](txn, issuerKey)
		return err
	})
	return issuer, found, err
}

// Mint credits amount to to. Repeated mints accumulate.
func (s *Service) Mint(ctx context.Context, to domain.Identity, amount domain.Amount) (err error) {
	ctx, span := tracing.Start(ctx, "ledger.Mint",
		attribute.String("to", to.String()),
		attribute.String("amount", amount.String()))
	defer s.finish(span, "ledger.mint", &err)

	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "recipient is required")
	}

	return s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		if s.issuerGated {
			if err := s.requireIssuer(ctx, txn); err != nil {
				return err
			}
		}
		if err := s.store.Touch(txn, issuerKey); err != nil {
			return err
		}

		if _, err := s.credit(txn, to, amount); err != nil {
			return err
		}
		if s.trackSupply {
			supply, err := s.readAmount(txn, supplyKey)
			if err != nil {
				return err
			}
			if err := s.writeAmount(txn, supplyKey, supply.Add(amount)); err != nil {
				return err
			}
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicLedgerMinted,
			events.LedgerMinted{To: to, Amount: amount})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "ledger_minted", "to", to, "amount", amount.String())
			if s.metrics != nil {
				s.metrics.IncrementTokensMinted()
			}
		})
		return nil
	})
}

// Transfer moves amount from from to to. The caller must control from.
func (s *Service) Transfer(ctx context.Context, from, to domain.Identity, amount domain.Amount) (err error) {
	ctx, span := tracing.Start(ctx, "ledger.Transfer",
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
		attribute.String("amount", amount.String()))
	defer s.finish(span, "ledger.transfer", &err)

	if err := s.auth.RequireCallerIs(ctx, from); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "recipient is required")
	}

	return s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		// Ledger-wide records stay live while any account is active.
		if err := s.store.Touch(txn, issuerKey, supplyKey); err != nil {
			return err
		}
		fromBalance, err := s.readAmount(txn, balanceKey(from))
		if err != nil {
			return err
		}
		if fromBalance.LessThan(amount) {
			return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient balance")
		}
		if err := s.writeAmount(txn, balanceKey(from), fromBalance.Sub(amount)); err != nil {
			return err
		}
		// Read after the debit so a self-transfer nets to zero.
		if _, err := s.credit(txn, to, amount); err != nil {
			return err
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicLedgerTransferred,
			events.LedgerTransferred{From: from, To: to, Amount: amount})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "ledger_transferred", "from", from, "to", to, "amount", amount.String())
			if s.metrics != nil {
				s.metrics.IncrementTransfers()
			}
		})
		return nil
	})
}

// Balance returns who's balance, zero when unknown.
func (s *Service) Balance(ctx context.Context, who domain.Identity) (balance domain.Amount, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		balance, err = s.readAmount(txn, balanceKey(who))
		return err
	})
	return balance, err
}

// TotalSupply returns the recorded supply. It is always zero when supply
// tracking is off.
func (s *Service) TotalSupply(ctx context.Context) (supply domain.Amount, err error) {
	if !s.trackSupply {
		return domain.ZeroAmount, nil
	}
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		supply, err = s.readAmount(txn, supplyKey)
		return err
	})
	return supply, err
}

func (s *Service) requireIssuer(ctx context.Context, txn storage.Txn) error {
	issuer, ok, err := storage.GetJSON[domain.Identity](txn, issuerKey)
	if err != nil {
		return err
	}
	if !ok {
		if s.pinned.IsZero() {
			return dErrors.New(dErrors.CodeNotInitialized, "ledger has no issuer")
		}
		issuer = s.pinned
		if err := storage.SetJSON(txn, issuerKey, issuer); err != nil {
			return err
		}
	}
	return s.auth.RequireCallerIs(ctx, issuer)
}

func (s *Service) credit(txn storage.Txn, to domain.Identity, amount domain.Amount) (domain.Amount, error) {
	key := balanceKey(to)
	balance, err := s.readAmount(txn, key)
	if err != nil {
		return domain.Amount{}, err
	}
	balance = balance.Add(amount)
	return balance, s.writeAmount(txn, key, balance)
}

func (s *Service) readAmount(txn storage.Txn, key storage.Key) (domain.Amount, error) {
	amount, ok, err := storage.GetJSON[domain.Amount](txn, key)
	if err != nil {
		return domain.Amount{}, err
	}
	if !ok {
		return domain.ZeroAmount, nil
	}
	return amount, nil
}

func (s *Service) writeAmount(txn storage.Txn, key storage.Key, amount domain.Amount) error {
	if amount.IsNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation, "balance would go negative")
	}
	if err := storage.SetJSON(txn, key, amount); err != nil {
		return err
	}
	return s.store.Touch(txn, key)
}

func (s *Service) finish(span trace.Span, op string, errp *error) {
	tracing.End(span, errp)
	if *errp == nil || s.metrics == nil {
		return
	}
	s.metrics.IncrementRejections(op, string(dErrors.CodeOf(*errp)))
}

// logAudit emits an audit-style structured log for ledger events.
func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

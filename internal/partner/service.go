// Package partner maintains the one-directional partner links between
// identities and derives the bidirectional "synced" status from them.
package partner

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

// Policy decides what happens when an identity that already has a partner
// links again.
type Policy string

const (
	// PolicyReplace overwrites the existing link. This may desynchronize a
	// previously synced pair.
	PolicyReplace Policy = "replace"
	// PolicyGuarded rejects the second link with CodeAlreadyLinked.
	PolicyGuarded Policy = "guarded"
)

// LinkResult reports the state after a successful Link.
type LinkResult struct {
	Caller  domain.Identity `json:"caller"`
	Partner domain.Identity `json:"partner"`
	Synced  bool            `json:"synced"`
}

// Service is the partner link registry.
type Service struct {
	store     *storage.Store
	auth      auth.Authenticator
	policy    Policy
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) {
		s.policy = p
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

// New constructs a Service. The default policy is PolicyGuarded.
func New(store *storage.Store, authenticator auth.Authenticator, opts ...Option) *Service {
	s := &Service{store: store, auth: authenticator, policy: PolicyGuarded}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func partnerKey(id domain.Identity) storage.Key {
	return storage.NewKey("partner", id.String())
}

// Link records caller -> partner. When the write completes a synced pair a
// partner.synced event carrying both identities is published.
func (s *Service) Link(ctx context.Context, caller, partner domain.Identity) (result *LinkResult, err error) {
	ctx, span := tracing.Start(ctx, "partner.Link",
		attribute.String("caller", caller.String()),
		attribute.String("partner", partner.String()))
	defer s.finish(span, "partner.link", &err)

	if err := s.auth.RequireCallerIs(ctx, caller); err != nil {
		return nil, err
	}
	if partner.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "partner is required")
	}
	if caller == partner {
		return nil, dErrors.New(dErrors.CodeInvalidPartners, "cannot link to yourself")
	}

	err = s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		key := partnerKey(caller)
		if s.policy == PolicyGuarded {
			linked, err := txn.Has(key)
			if err != nil {
				return err
			}
			if linked {
				return dErrors.New(dErrors.CodeAlreadyLinked, "partner already linked")
			}
		}

		if err := storage.SetJSON(txn, key, partner); err != nil {
			return err
		}
		// The reverse link backs synced(caller); refresh it with ours.
		if err := s.store.Touch(txn, key, partnerKey(partner)); err != nil {
			return err
		}

		synced, err := s.synced(txn, caller)
		if err != nil {
			return err
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicPartnerLinked,
			events.PartnerLinked{Caller: caller, Partner: partner})
		if synced {
			events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicPartnerSynced,
				events.PartnerSynced{A: caller, B: partner})
		}
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "partner_linked", "caller", caller, "partner", partner, "synced", synced)
			s.incrementLinks(synced)
		})

		result = &LinkResult{Caller: caller, Partner: partner, Synced: synced}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsSynced reports whether user and its partner link to each other. Missing
// links read as false.
func (s *Service) IsSynced(ctx context.Context, user domain.Identity) (synced bool, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		synced, err = s.synced(txn, user)
		return err
	})
	return synced, err
}

// GetPartner returns the identity user links to. The boolean is false when no
// link is recorded.
func (s *Service) GetPartner(ctx context.Context, user domain.Identity) (partner domain.Identity, found bool, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		partner, found, err = storage.GetJSON[domain.Identity](txn, partnerKey(user))
		return err
	})
	return partner, found, err
}

// synced(A) = link(A) exists, link(link(A)) exists, and link(link(A)) == A.
func (s *Service) synced(txn storage.Txn, user domain.Identity) (bool, error) {
	partner, ok, err := storage.GetJSON[domain.Identity](txn, partnerKey(user))
	if err != nil || !ok {
		return false, err
	}
	back, ok, err := storage.GetJSON[domain.Identity](txn, partnerKey(partner))
	if err != nil || !ok {
		return false, err
	}
	return back == user, nil
}

func (s *Service) finish(span trace.Span, op string, errp *error) {
	tracing.End(span, errp)
	if *errp == nil || s.metrics == nil {
		return
	}
	s.metrics.IncrementRejections(op, string(dErrors.CodeOf(*errp)))
}

func (s *Service) incrementLinks(synced bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementLinksCreated()
	if synced {
		s.metrics.IncrementPairsSynced()
	}
}

// logAudit emits an audit-style structured log for partner events.
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

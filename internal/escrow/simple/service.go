// Package simple is the per-user completion escrow: each (user, goal) pair
// completes once and mints the caller-declared reward to that user.
package simple

import (
	"context"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"syncvault/internal/auth"
	"syncvault/internal/escrow/ports"
	"syncvault/internal/events"
	"syncvault/internal/platform/metrics"
	"syncvault/internal/platform/tracing"
	"syncvault/internal/storage"
	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/requestcontext"
)

// Variant is the metrics label for this escrow.
const Variant = "simple"

// Service completes per-user goals.
type Service struct {
	store     *storage.Store
	auth      auth.Authenticator
	minter    ports.Minter
	self      domain.Identity
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

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

// New constructs the escrow. self is the identity it mints under.
func New(store *storage.Store, authenticator auth.Authenticator, minter ports.Minter, self domain.Identity, opts ...Option) *Service {
	s := &Service{store: store, auth: authenticator, minter: minter, self: self}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func completeKey(user domain.Identity, goalID uint32) storage.Key {
	return storage.NewKey("simple", "complete", user.String(), strconv.FormatUint(uint64(goalID), 10))
}

// CompleteGoal marks goalID complete for user and mints reward to user.
func (s *Service) CompleteGoal(ctx context.Context, user domain.Identity, goalID uint32, reward domain.Amount) (err error) {
	ctx, span := tracing.Start(ctx, "escrow.simple.CompleteGoal",
		attribute.String("user", user.String()),
		attribute.Int64("goal_id", int64(goalID)),
		attribute.String("reward", reward.String()))
	defer s.finish(span, "escrow.complete_goal", &err)

	if err := s.auth.RequireCallerIs(ctx, user); err != nil {
		return err
	}
	if !reward.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidReward, "reward must be positive")
	}

	return s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		key := completeKey(user, goalID)
		done, err := txn.Has(key)
		if err != nil {
			return err
		}
		if done {
			return dErrors.New(dErrors.CodeAlreadyCompleted, "goal already completed")
		}
		if err := storage.SetJSON(txn, key, true); err != nil {
			return err
		}
		if err := s.store.Touch(txn, key); err != nil {
			return err
		}

		if err := s.minter.Mint(auth.AsContract(ctx, s.self), user, reward); err != nil {
			return err
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicGoalCompleted,
			events.GoalCompleted{GoalID: goalID, User: user, Reward: reward})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "goal_completed", "user", user, "goal_id", goalID, "reward", reward.String())
			if s.metrics != nil {
				s.metrics.IncrementGoalRewards(Variant)
			}
		})
		return nil
	})
}

// IsGoalComplete reports the (user, goalID) flag; unknown pairs read false.
func (s *Service) IsGoalComplete(ctx context.Context, user domain.Identity, goalID uint32) (done bool, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		done, _, err = storage.GetJSON[bool](txn, completeKey(user, goalID))
		return err
	})
	return done, err
}

func (s *Service) finish(span trace.Span, op string, errp *error) {
	tracing.End(span, errp)
	if *errp == nil || s.metrics == nil {
		return
	}
	s.metrics.IncrementRejections(op, string(dErrors.CodeOf(*errp)))
}

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

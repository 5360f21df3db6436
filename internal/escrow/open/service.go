// Package open is the open-creation escrow: anyone may create a goal, any
// authenticated identity may approve it once, and approval mints a fixed
// reward to the creator.
package open

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
const Variant = "open"

// DefaultApprovalReward is minted to the creator when a goal is approved.
var DefaultApprovalReward = domain.NewAmount(100)

var nextIDKey = storage.NewKey("open", "next_id")

// Goal is an open-creation goal. CurrentAmount is recorded at creation and
// no operation changes it.
type Goal struct {
	ID            uint64          `json:"id"`
	Creator       domain.Identity `json:"creator"`
	Title         string          `json:"title"`
	TargetAmount  domain.Amount   `json:"target_amount"`
	CurrentAmount domain.Amount   `json:"current_amount"`
	Approved      bool            `json:"approved"`
}

// Service runs open-creation goals.
type Service struct {
	store     *storage.Store
	auth      auth.Authenticator
	minter    ports.Minter
	self      domain.Identity
	reward    domain.Amount
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

// WithApprovalReward replaces DefaultApprovalReward.
func WithApprovalReward(reward domain.Amount) Option {
	return func(s *Service) {
		s.reward = reward
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

// New constructs the escrow. self is the identity it mints under.
func New(store *storage.Store, authenticator auth.Authenticator, minter ports.Minter, self domain.Identity, opts ...Option) *Service {
	s := &Service{
		store:  store,
		auth:   authenticator,
		minter: minter,
		self:   self,
		reward: DefaultApprovalReward,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func goalKey(id uint64) storage.Key {
	return storage.NewKey("open", "goal", strconv.FormatUint(id, 10))
}

// ApprovalReward returns the amount minted per approval.
func (s *Service) ApprovalReward() domain.Amount {
	return s.reward
}

// CreateGoal stores a goal under the next sequential id and returns that id.
// Ids start at 0 and are never reused.
func (s *Service) CreateGoal(ctx context.Context, creator domain.Identity, title string, target domain.Amount) (id uint64, err error) {
	ctx, span := tracing.Start(ctx, "escrow.open.CreateGoal",
		attribute.String("creator", creator.String()),
		attribute.String("target", target.String()))
	defer s.finish(span, "escrow.create_goal", &err)

	if err := s.auth.RequireCallerIs(ctx, creator); err != nil {
		return 0, err
	}
	if !target.IsPositive() {
		return 0, dErrors.New(dErrors.CodeInvalidReward, "target amount must be positive")
	}

	err = s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		next, _, err := storage.GetJSON[uint64](txn, nextIDKey)
		if err != nil {
			return err
		}
		// A lapsed counter restarts below live goals; skip past them.
		for {
			taken, err := txn.Has(goalKey(next))
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			next++
		}
		id = next

		goal := &Goal{
			ID:            id,
			Creator:       creator,
			Title:         title,
			TargetAmount:  target,
			CurrentAmount: domain.ZeroAmount,
		}
		key := goalKey(id)
		if err := storage.SetJSON(txn, key, goal); err != nil {
			return err
		}
		if err := storage.SetJSON(txn, nextIDKey, next+1); err != nil {
			return err
		}
		if err := s.store.Touch(txn, key, nextIDKey); err != nil {
			return err
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicGoalCreated, events.GoalCreated{
			Variant: Variant,
			GoalID:  id,
			Creator: creator,
			Title:   title,
			Amount:  target,
		})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "goal_created", "goal_id", id, "creator", creator)
			if s.metrics != nil {
				s.metrics.IncrementGoalsCreated(Variant)
			}
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ApproveGoal approves goalID on behalf of approver and mints the approval
// reward to the goal's creator.
func (s *Service) ApproveGoal(ctx context.Context, goalID uint64, approver domain.Identity) (err error) {
	ctx, span := tracing.Start(ctx, "escrow.open.ApproveGoal",
		attribute.String("goal_id", strconv.FormatUint(goalID, 10)),
		attribute.String("approver", approver.String()))
	defer s.finish(span, "escrow.approve_goal", &err)

	if err := s.auth.RequireCallerIs(ctx, approver); err != nil {
		return err
	}

	return s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		key := goalKey(goalID)
		goal, ok, err := storage.GetJSON[*Goal](txn, key)
		if err != nil {
			return err
		}
		if !ok || goal == nil {
			return dErrors.New(dErrors.CodeGoalNotFound, "goal "+strconv.FormatUint(goalID, 10)+" not found")
		}
		if goal.Approved {
			return dErrors.New(dErrors.CodeAlreadyApproved, "goal already approved")
		}

		if err := s.minter.Mint(auth.AsContract(ctx, s.self), goal.Creator, s.reward); err != nil {
			return err
		}

		goal.Approved = true
		if err := storage.SetJSON(txn, key, goal); err != nil {
			return err
		}
		if err := s.store.Touch(txn, key, nextIDKey); err != nil {
			return err
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicGoalApproved, events.GoalApproved{
			GoalID:   goalID,
			Approver: approver,
			Creator:  goal.Creator,
			Reward:   s.reward,
		})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "goal_approved", "goal_id", goalID, "approver", approver, "creator", goal.Creator)
			if s.metrics != nil {
				s.metrics.IncrementGoalRewards(Variant)
			}
		})
		return nil
	})
}

// GetGoal returns the goal. The boolean is false for unknown ids.
func (s *Service) GetGoal(ctx context.Context, goalID uint64) (goal *Goal, found bool, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		goal, found, err = storage.GetJSON[*Goal](txn, goalKey(goalID))
		return err
	})
	return goal, found, err
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

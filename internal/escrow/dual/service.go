// Package dual is the dual-approval escrow. A goal names two partners and an
// unlock time; once both partners approve after the unlock time each of them
// is minted the reward, exactly once.
package dual

import (
	"context"
	"log/slog"
	"strconv"
	"time"

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
const Variant = "dual"

// Goal is a dual-approval goal. Only Minted changes after creation.
type Goal struct {
	ID       uint64          `json:"id"`
	PartnerA domain.Identity `json:"partner_a"`
	PartnerB domain.Identity `json:"partner_b"`
	Reward   domain.Amount   `json:"reward"`
	UnlockAt time.Time       `json:"unlock_at"`
	Minted   bool            `json:"minted"`
}

// CreateGoalRequest carries the caller-chosen goal id and terms. PartnerA is
// the creator.
type CreateGoalRequest struct {
	ID       uint64          `json:"id"`
	PartnerA domain.Identity `json:"partner_a"`
	PartnerB domain.Identity `json:"partner_b"`
	Reward   domain.Amount   `json:"reward"`
	UnlockAt time.Time       `json:"unlock_at"`
}

// ApprovalResult reports the goal state after an approval.
type ApprovalResult struct {
	GoalID uint64 `json:"goal_id"`
	Minted bool   `json:"minted"`
}

// Clock supplies the time compared against UnlockAt.
type Clock func(ctx context.Context) time.Time

// Service runs dual-approval goals.
type Service struct {
	store     *storage.Store
	auth      auth.Authenticator
	minter    ports.Minter
	self      domain.Identity
	now       Clock
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

// WithClock replaces the request-time clock.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.now = c
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
		now:    requestcontext.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func goalKey(id uint64) storage.Key {
	return storage.NewKey("dual", "goal", strconv.FormatUint(id, 10))
}

func approvalKey(id uint64, approver domain.Identity) storage.Key {
	return storage.NewKey("dual", "approval", strconv.FormatUint(id, 10), approver.String())
}

// CreateGoal records a new goal under req.ID. The caller must control
// PartnerA.
func (s *Service) CreateGoal(ctx context.Context, req CreateGoalRequest) (goal *Goal, err error) {
	ctx, span := tracing.Start(ctx, "escrow.dual.CreateGoal",
		attribute.String("goal_id", strconv.FormatUint(req.ID, 10)),
		attribute.String("partner_a", req.PartnerA.String()),
		attribute.String("partner_b", req.PartnerB.String()))
	defer s.finish(span, "escrow.create_goal", &err)

	if err := s.auth.RequireCallerIs(ctx, req.PartnerA); err != nil {
		return nil, err
	}
	if !req.Reward.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInvalidReward, "reward must be positive")
	}
	if req.PartnerB.IsZero() || req.PartnerA == req.PartnerB {
		return nil, dErrors.New(dErrors.CodeInvalidPartners, "partners must be two distinct identities")
	}

	err = s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		key := goalKey(req.ID)
		exists, err := txn.Has(key)
		if err != nil {
			return err
		}
		if exists {
			return dErrors.New(dErrors.CodeGoalAlreadyExists, "goal "+strconv.FormatUint(req.ID, 10)+" already exists")
		}

		goal = &Goal{
			ID:       req.ID,
			PartnerA: req.PartnerA,
			PartnerB: req.PartnerB,
			Reward:   req.Reward,
			UnlockAt: req.UnlockAt.UTC(),
		}
		if err := storage.SetJSON(txn, key, goal); err != nil {
			return err
		}
		if err := s.store.Touch(txn, key); err != nil {
			return err
		}

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicGoalCreated, events.GoalCreated{
			Variant:  Variant,
			GoalID:   goal.ID,
			Creator:  goal.PartnerA,
			PartnerB: goal.PartnerB,
			Amount:   goal.Reward,
		})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "goal_created", "goal_id", goal.ID, "partner_a", goal.PartnerA, "partner_b", goal.PartnerB)
			if s.metrics != nil {
				s.metrics.IncrementGoalsCreated(Variant)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// ApproveGoal records approver's approval. The approval that completes the
// pair mints Reward to each partner and closes the goal.
func (s *Service) ApproveGoal(ctx context.Context, approver domain.Identity, goalID uint64) (result *ApprovalResult, err error) {
	ctx, span := tracing.Start(ctx, "escrow.dual.ApproveGoal",
		attribute.String("goal_id", strconv.FormatUint(goalID, 10)),
		attribute.String("approver", approver.String()))
	defer s.finish(span, "escrow.approve_goal", &err)

	if err := s.auth.RequireCallerIs(ctx, approver); err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(ctx context.Context, txn storage.Txn) error {
		key := goalKey(goalID)
		goal, err := s.loadGoal(txn, goalID)
		if err != nil {
			return err
		}
		if goal.Minted {
			return dErrors.New(dErrors.CodeAlreadyMinted, "goal reward already minted")
		}

		var other domain.Identity
		switch approver {
		case goal.PartnerA:
			other = goal.PartnerB
		case goal.PartnerB:
			other = goal.PartnerA
		default:
			return dErrors.New(dErrors.CodeNotAParticipant, "approver is not a partner on this goal")
		}

		if s.now(ctx).Before(goal.UnlockAt) {
			return dErrors.New(dErrors.CodeTimeLocked, "goal is time locked until "+goal.UnlockAt.Format(time.RFC3339))
		}

		mine := approvalKey(goalID, approver)
		approved, err := txn.Has(mine)
		if err != nil {
			return err
		}
		if approved {
			return dErrors.New(dErrors.CodeAlreadyApproved, "goal already approved by "+approver.String())
		}
		if err := storage.SetJSON(txn, mine, true); err != nil {
			return err
		}

		otherApproved, err := txn.Has(approvalKey(goalID, other))
		if err != nil {
			return err
		}
		result = &ApprovalResult{GoalID: goalID}
		if !otherApproved {
			s.store.AfterCommit(ctx, func() {
				s.logAudit(ctx, "goal_approved", "goal_id", goalID, "approver", approver)
			})
			return s.store.Touch(txn, key, mine)
		}

		// Two mints: each partner is credited independently.
		vault := auth.AsContract(ctx, s.self)
		if err := s.minter.Mint(vault, goal.PartnerA, goal.Reward); err != nil {
			return err
		}
		if err := s.minter.Mint(vault, goal.PartnerB, goal.Reward); err != nil {
			return err
		}

		goal.Minted = true
		if err := storage.SetJSON(txn, key, goal); err != nil {
			return err
		}
		if err := s.store.Touch(txn, key, mine, approvalKey(goalID, other)); err != nil {
			return err
		}
		result.Minted = true

		events.Emit(ctx, s.store, s.publisher, s.logger, events.TopicGoalMinted, events.GoalMinted{
			GoalID:   goalID,
			PartnerA: goal.PartnerA,
			PartnerB: goal.PartnerB,
			Reward:   goal.Reward,
		})
		s.store.AfterCommit(ctx, func() {
			s.logAudit(ctx, "goal_minted", "goal_id", goalID, "approver", approver, "reward", goal.Reward.String())
			if s.metrics != nil {
				s.metrics.IncrementGoalRewards(Variant)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetGoal returns the goal or CodeGoalNotFound.
func (s *Service) GetGoal(ctx context.Context, goalID uint64) (goal *Goal, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		goal, err = s.loadGoal(txn, goalID)
		return err
	})
	return goal, err
}

// IsGoalComplete reports whether the reward was minted. Unknown goals fail
// with CodeGoalNotFound.
func (s *Service) IsGoalComplete(ctx context.Context, goalID uint64) (bool, error) {
	goal, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return false, err
	}
	return goal.Minted, nil
}

// IsApprovedBy reports whether who approved goalID. Unknown goals and
// approvers read false.
func (s *Service) IsApprovedBy(ctx context.Context, goalID uint64, who domain.Identity) (approved bool, err error) {
	err = s.store.View(ctx, func(_ context.Context, txn storage.Txn) error {
		approved, _, err = storage.GetJSON[bool](txn, approvalKey(goalID, who))
		return err
	})
	return approved, err
}

func (s *Service) loadGoal(txn storage.Txn, goalID uint64) (*Goal, error) {
	goal, ok, err := storage.GetJSON[*Goal](txn, goalKey(goalID))
	if err != nil {
		return nil, err
	}
	if !ok || goal == nil {
		return nil, dErrors.New(dErrors.CodeGoalNotFound, "goal "+strconv.FormatUint(goalID, 10)+" not found")
	}
	return goal, nil
}

func (s *Service) finish(span trace.Span, op string, errp *error) {
	tracing.End(span, errp)
	if *errp == nil || s.metrics == nil {
		return
	}
	s.metrics.IncrementRejections(op, string(dErrors.CodeOf(*errp)))
}

// logAudit emits an audit-style structured log for goal events.
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

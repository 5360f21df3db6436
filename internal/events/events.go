// Package events carries notifications emitted by the partner registry, the
// ledger and goal escrow.
//
// Publication is best-effort and never part of an operation's outcome: events
// are scheduled with Emit during a storage unit and handed to the publisher
// only after that unit commits. Publisher failures are logged and dropped.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"syncvault/pkg/domain"
	"syncvault/pkg/requestcontext"
)

// Topic names an event stream.
type Topic string

const (
	TopicPartnerLinked     Topic = "partner.linked"
	TopicPartnerSynced     Topic = "partner.synced"
	TopicLedgerMinted      Topic = "ledger.minted"
	TopicLedgerTransferred Topic = "ledger.transferred"
	TopicGoalCreated       Topic = "goal.created"
	TopicGoalApproved      Topic = "goal.approved"
	TopicGoalMinted        Topic = "goal.minted"
	TopicGoalCompleted     Topic = "goal.completed"
)

// AllTopics lists every topic, for sinks that provision streams up front.
var AllTopics = []Topic{
	TopicPartnerLinked,
	TopicPartnerSynced,
	TopicLedgerMinted,
	TopicLedgerTransferred,
	TopicGoalCreated,
	TopicGoalApproved,
	TopicGoalMinted,
	TopicGoalCompleted,
}

// Event is the envelope handed to publishers.
type Event struct {
	ID         string    `json:"id"`
	Topic      Topic     `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
	Payload    any       `json:"payload"`
}

// New builds an event stamped with the request-scoped time and request id.
func New(ctx context.Context, topic Topic, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: requestcontext.Now(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		Payload:    payload,
	}
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Committer defers work until the enclosing storage unit commits.
// *storage.Store satisfies it.
type Committer interface {
	AfterCommit(ctx context.Context, hook func())
}

// Emit schedules publication of topic/payload once the unit open in ctx
// commits. A nil publisher discards the event.
func Emit(ctx context.Context, c Committer, pub Publisher, logger *slog.Logger, topic Topic, payload any) {
	if pub == nil {
		return
	}
	event := New(ctx, topic, payload)
	c.AfterCommit(ctx, func() {
		publishCtx := context.WithoutCancel(ctx)
		if err := pub.Publish(publishCtx, event); err != nil && logger != nil {
			logger.WarnContext(publishCtx, "failed to publish event",
				"topic", string(topic),
				"event_id", event.ID,
				"error", err,
			)
		}
	})
}

// Payloads.

type PartnerLinked struct {
	Caller  domain.Identity `json:"caller"`
	Partner domain.Identity `json:"partner"`
}

type PartnerSynced struct {
	A domain.Identity `json:"a"`
	B domain.Identity `json:"b"`
}

type LedgerMinted struct {
	To     domain.Identity `json:"to"`
	Amount domain.Amount   `json:"amount"`
}

type LedgerTransferred struct {
	From   domain.Identity `json:"from"`
	To     domain.Identity `json:"to"`
	Amount domain.Amount   `json:"amount"`
}

type GoalCreated struct {
	Variant  string          `json:"variant"`
	GoalID   uint64          `json:"goal_id"`
	Creator  domain.Identity `json:"creator"`
	PartnerB domain.Identity `json:"partner_b,omitempty"`
	Title    string          `json:"title,omitempty"`
	Amount   domain.Amount   `json:"amount"`
}

type GoalApproved struct {
	GoalID   uint64          `json:"goal_id"`
	Approver domain.Identity `json:"approver"`
	Creator  domain.Identity `json:"creator"`
	Reward   domain.Amount   `json:"reward"`
}

type GoalMinted struct {
	GoalID   uint64          `json:"goal_id"`
	PartnerA domain.Identity `json:"partner_a"`
	PartnerB domain.Identity `json:"partner_b"`
	Reward   domain.Amount   `json:"reward"`
}

type GoalCompleted struct {
	GoalID uint32          `json:"goal_id"`
	User   domain.Identity `json:"user"`
	Reward domain.Amount   `json:"reward"`
}

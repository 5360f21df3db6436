package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncvault/pkg/requestcontext"
)

// deferred collects hooks so tests can decide when the unit "commits".
type deferred struct {
	hooks []func()
}

func (d *deferred) AfterCommit(_ context.Context, hook func()) {
	d.hooks = append(d.hooks, hook)
}

func (d *deferred) commit() {
	for _, h := range d.hooks {
		h()
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error {
	return errors.New("broker unreachable")
}

func TestEmit(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	t.Run("publishes only after commit", func(t *testing.T) {
		rec := NewRecorder()
		unit := &deferred{}

		Emit(ctx, unit, rec, nil, TopicPartnerSynced, PartnerSynced{A: "alice", B: "bob"})
		assert.Empty(t, rec.Events())

		unit.commit()
		got := rec.ByTopic(TopicPartnerSynced)
		require.Len(t, got, 1)
		assert.Equal(t, now, got[0].OccurredAt)
		assert.Equal(t, "req-1", got[0].RequestID)
		assert.NotEmpty(t, got[0].ID)
		assert.Equal(t, PartnerSynced{A: "alice", B: "bob"}, got[0].Payload)
	})

	t.Run("rolled back unit publishes nothing", func(t *testing.T) {
		rec := NewRecorder()
		Emit(ctx, &deferred{}, rec, nil, TopicGoalMinted, GoalMinted{GoalID: 1})
		assert.Empty(t, rec.Events())
	})

	t.Run("publisher failure is logged not returned", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		unit := &deferred{}

		Emit(ctx, unit, failingPublisher{}, logger, TopicGoalCreated, GoalCreated{GoalID: 3})
		unit.commit()
		assert.Contains(t, buf.String(), "failed to publish event")
		assert.Contains(t, buf.String(), "goal.created")
	})

	t.Run("nil publisher discards", func(t *testing.T) {
		unit := &deferred{}
		Emit(ctx, unit, nil, nil, TopicGoalCreated, GoalCreated{})
		assert.Empty(t, unit.hooks)
	})
}

func TestFanout(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	fan := Fanout{a, failingPublisher{}, b}

	err := fan.Publish(context.Background(), New(context.Background(), TopicLedgerMinted, nil))
	assert.Error(t, err)
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1, "later sinks still receive the event")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), New(context.Background(), TopicLedgerTransferred, LedgerTransferred{From: "alice", To: "bob"})))
	assert.Contains(t, buf.String(), `"log_type":"audit"`)
	assert.Contains(t, buf.String(), `"event":"ledger.transferred"`)
}

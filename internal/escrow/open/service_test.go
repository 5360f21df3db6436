package open

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"syncvault/internal/auth"
	"syncvault/internal/escrow/mocks"
	"syncvault/internal/events"
	"syncvault/internal/ledger"
	"syncvault/internal/storage"
	"syncvault/internal/storage/memory"
	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/requestcontext"
)

const (
	vault domain.Identity = "goals-vault"
	alice domain.Identity = "alice"
	bob   domain.Identity = "bob"
)

func as(id domain.Identity) context.Context {
	return requestcontext.WithCaller(context.Background(), id)
}

type OpenSuite struct {
	suite.Suite
	tokens   *ledger.Service
	recorder *events.Recorder
	service  *Service
}

func TestOpenSuite(t *testing.T) {
	suite.Run(t, new(OpenSuite))
}

func (s *OpenSuite) SetupTest() {
	store := storage.New(memory.New())
	s.tokens = ledger.New(store, auth.ContextAuthenticator{})
	s.Require().NoError(s.tokens.Initialize(context.Background(), vault))
	s.recorder = events.NewRecorder()
	s.service = New(store, auth.ContextAuthenticator{}, s.tokens, vault, WithPublisher(s.recorder))
}

func (s *OpenSuite) balance(who domain.Identity) string {
	b, err := s.tokens.Balance(context.Background(), who)
	s.Require().NoError(err)
	return b.String()
}

func (s *OpenSuite) TestCreateGoal_SequentialIDs() {
	for want := uint64(0); want < 3; want++ {
		id, err := s.service.CreateGoal(as(alice), alice, "run a marathon", domain.NewAmount(500))
		s.Require().NoError(err)
		s.Equal(want, id)
	}

	goal, found, err := s.service.GetGoal(context.Background(), 2)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(alice, goal.Creator)
	s.Equal("run a marathon", goal.Title)
	s.True(goal.CurrentAmount.IsZero())
	s.False(goal.Approved)
	s.Len(s.recorder.ByTopic(events.TopicGoalCreated), 3)
}

func (s *OpenSuite) TestCreateGoal_Rejections() {
	s.Run("caller must control creator", func() {
		_, err := s.service.CreateGoal(as(bob), alice, "x", domain.NewAmount(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
	s.Run("target must be positive", func() {
		_, err := s.service.CreateGoal(as(alice), alice, "x", domain.ZeroAmount)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidReward))
	})

	id, err := s.service.CreateGoal(as(alice), alice, "first", domain.NewAmount(1))
	s.Require().NoError(err)
	s.Equal(uint64(0), id, "rejected creates do not consume ids")
}

func (s *OpenSuite) TestApproveGoal_RewardsCreator() {
	id, err := s.service.CreateGoal(as(alice), alice, "learn go", domain.NewAmount(10))
	s.Require().NoError(err)

	s.Require().NoError(s.service.ApproveGoal(as(bob), id, bob))

	s.Equal("100", s.balance(alice))
	s.Equal("0", s.balance(bob), "approver is not rewarded")

	goal, _, err := s.service.GetGoal(context.Background(), id)
	s.Require().NoError(err)
	s.True(goal.Approved)
	s.True(goal.CurrentAmount.IsZero(), "approval does not fund the goal")

	approved := s.recorder.ByTopic(events.TopicGoalApproved)
	s.Require().Len(approved, 1)
	payload := approved[0].Payload.(events.GoalApproved)
	s.Equal(bob, payload.Approver)
	s.Equal(alice, payload.Creator)

	s.Run("second approval fails without minting", func() {
		err := s.service.ApproveGoal(as(alice), id, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyApproved))
		s.Equal("100", s.balance(alice))
	})
}

func (s *OpenSuite) TestApproveGoal_Rejections() {
	s.Run("unknown goal", func() {
		err := s.service.ApproveGoal(as(bob), 42, bob)
		s.True(dErrors.HasCode(err, dErrors.CodeGoalNotFound))
	})
	s.Run("caller must control approver", func() {
		id, err := s.service.CreateGoal(as(alice), alice, "x", domain.NewAmount(1))
		s.Require().NoError(err)
		err = s.service.ApproveGoal(as(alice), id, bob)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *OpenSuite) TestGetGoal_Unknown() {
	goal, found, err := s.service.GetGoal(context.Background(), 9)
	s.Require().NoError(err)
	s.False(found)
	s.Nil(goal)
}

func TestApproveGoal_CustomRewardAndFailedMint(t *testing.T) {
	ctrl := gomock.NewController(t)
	minter := mocks.NewMockMinter(ctrl)

	reward := domain.NewAmount(7)
	svc := New(storage.New(memory.New()), auth.ContextAuthenticator{}, minter, vault,
		WithApprovalReward(reward))
	assert.True(t, svc.ApprovalReward().Equal(reward))

	id, err := svc.CreateGoal(as(alice), alice, "x", domain.NewAmount(1))
	require.NoError(t, err)

	minter.EXPECT().Mint(gomock.Any(), alice, reward).Return(errors.New("ledger down"))
	require.Error(t, svc.ApproveGoal(as(bob), id, bob))

	goal, _, err := svc.GetGoal(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, goal.Approved, "failed mint leaves the goal open")

	minter.EXPECT().Mint(gomock.Any(), alice, reward).Return(nil)
	require.NoError(t, svc.ApproveGoal(as(bob), id, bob))
}

func TestCreateGoal_IDsSurviveTargetHorizon(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	store := storage.New(memory.New(memory.WithClock(func() time.Time { return now })))
	tokens := ledger.New(store, auth.ContextAuthenticator{}, ledger.WithIssuer(vault))
	require.NoError(t, tokens.Initialize(context.Background(), vault))
	svc := New(store, auth.ContextAuthenticator{}, tokens, vault)

	first, err := svc.CreateGoal(as(alice), alice, "first", domain.NewAmount(5))
	require.NoError(t, err)

	now = now.Add(8 * time.Hour)
	require.NoError(t, svc.ApproveGoal(as(bob), first, bob))

	// beyond the horizon of the create, inside that of the approval
	now = now.Add(7 * time.Hour)
	second, err := svc.CreateGoal(as("carol"), "carol", "second", domain.NewAmount(5))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	goal, found, err := svc.GetGoal(context.Background(), first)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, alice, goal.Creator)
	assert.True(t, goal.Approved, "approved goal is not reset")

	err = svc.ApproveGoal(as(bob), first, bob)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyApproved))

	balance, err := tokens.Balance(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String(), "reward issued once")
}

func TestCreateGoal_SkipsLiveIDsWhenCounterRegresses(t *testing.T) {
	store := storage.New(memory.New())
	svc := New(store, auth.ContextAuthenticator{}, mocks.NewMockMinter(gomock.NewController(t)), vault)

	for range 2 {
		_, err := svc.CreateGoal(as(alice), alice, "kept", domain.NewAmount(1))
		require.NoError(t, err)
	}
	require.NoError(t, store.Update(context.Background(), func(_ context.Context, txn storage.Txn) error {
		return storage.SetJSON(txn, nextIDKey, uint64(0))
	}))

	id, err := svc.CreateGoal(as(bob), bob, "new", domain.NewAmount(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	goal, _, err := svc.GetGoal(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, alice, goal.Creator)

	next, err := svc.CreateGoal(as(bob), bob, "after", domain.NewAmount(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)
}

package partner

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"syncvault/internal/auth"
	"syncvault/internal/events"
	"syncvault/internal/platform/metrics"
	"syncvault/internal/storage"
	"syncvault/internal/storage/memory"
	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/requestcontext"
)

const (
	alice domain.Identity = "alice"
	bob   domain.Identity = "bob"
	carol domain.Identity = "carol"
)

type ServiceSuite struct {
	suite.Suite
	recorder *events.Recorder
	metrics  *metrics.Metrics
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.recorder = events.NewRecorder()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
}

func (s *ServiceSuite) newService(policy Policy) *Service {
	store := storage.New(memory.New())
	return New(store, auth.ContextAuthenticator{},
		WithPolicy(policy),
		WithPublisher(s.recorder),
		WithMetrics(s.metrics),
	)
}

func as(id domain.Identity) context.Context {
	return requestcontext.WithCaller(context.Background(), id)
}

func (s *ServiceSuite) synced(svc *Service, id domain.Identity) bool {
	ok, err := svc.IsSynced(context.Background(), id)
	s.Require().NoError(err)
	return ok
}

func (s *ServiceSuite) TestSyncedDerivation() {
	s.Run("one-sided link is not synced", func() {
		svc := s.newService(PolicyGuarded)
		res, err := svc.Link(as(alice), alice, bob)
		s.Require().NoError(err)
		s.False(res.Synced)
		s.False(s.synced(svc, alice))
		s.False(s.synced(svc, bob))
		s.Empty(s.recorder.ByTopic(events.TopicPartnerSynced))
	})

	s.Run("mutual links are synced and announced once", func() {
		s.recorder.Reset()
		svc := s.newService(PolicyGuarded)
		_, err := svc.Link(as(alice), alice, bob)
		s.Require().NoError(err)
		res, err := svc.Link(as(bob), bob, alice)
		s.Require().NoError(err)

		s.True(res.Synced)
		s.True(s.synced(svc, alice))
		s.True(s.synced(svc, bob))

		got := s.recorder.ByTopic(events.TopicPartnerSynced)
		s.Require().Len(got, 1)
		s.Equal(events.PartnerSynced{A: bob, B: alice}, got[0].Payload)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.PairsSynced))
	})

	s.Run("chain A->B, B->C is not synced", func() {
		svc := s.newService(PolicyGuarded)
		_, err := svc.Link(as(alice), alice, bob)
		s.Require().NoError(err)
		_, err = svc.Link(as(bob), bob, carol)
		s.Require().NoError(err)

		s.False(s.synced(svc, alice))
		s.False(s.synced(svc, bob))
	})

	s.Run("unknown identity is not synced", func() {
		svc := s.newService(PolicyGuarded)
		s.False(s.synced(svc, "nobody"))
	})
}

func (s *ServiceSuite) TestLinkPolicies() {
	s.Run("guarded rejects a second link", func() {
		svc := s.newService(PolicyGuarded)
		_, err := svc.Link(as(alice), alice, bob)
		s.Require().NoError(err)

		_, err = svc.Link(as(alice), alice, carol)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyLinked))

		partner, found, err := svc.GetPartner(context.Background(), alice)
		s.Require().NoError(err)
		s.True(found)
		s.Equal(bob, partner, "rejected link leaves the original in place")
	})

	s.Run("replace overwrites and may desynchronize", func() {
		svc := s.newService(PolicyReplace)
		_, err := svc.Link(as(alice), alice, bob)
		s.Require().NoError(err)
		_, err = svc.Link(as(bob), bob, alice)
		s.Require().NoError(err)
		s.Require().True(s.synced(svc, alice))

		_, err = svc.Link(as(alice), alice, carol)
		s.Require().NoError(err)

		s.False(s.synced(svc, alice))
		s.False(s.synced(svc, bob))
		partner, _, err := svc.GetPartner(context.Background(), alice)
		s.Require().NoError(err)
		s.Equal(carol, partner)
	})
}

func (s *ServiceSuite) TestLinkRejections() {
	svc := s.newService(PolicyGuarded)

	s.Run("caller must control the identity", func() {
		_, err := svc.Link(as(bob), alice, bob)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, found, err := svc.GetPartner(context.Background(), alice)
		s.Require().NoError(err)
		s.False(found, "failed auth leaves no residue")
	})

	s.Run("self link is rejected", func() {
		_, err := svc.Link(as(alice), alice, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidPartners))
	})

	s.Run("empty partner is rejected", func() {
		_, err := svc.Link(as(alice), alice, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Rejections.WithLabelValues("partner.link", string(dErrors.CodeUnauthorized))))
}

func (s *ServiceSuite) TestGetPartner() {
	svc := s.newService(PolicyGuarded)

	_, found, err := svc.GetPartner(context.Background(), alice)
	s.Require().NoError(err)
	s.False(found)

	_, err = svc.Link(as(alice), alice, bob)
	s.Require().NoError(err)

	partner, found, err := svc.GetPartner(context.Background(), alice)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(bob, partner)
	s.Len(s.recorder.ByTopic(events.TopicPartnerLinked), 1)
}

func (s *ServiceSuite) TestSyncedPairOutlivesFirstLinkHorizon() {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	store := storage.New(memory.New(memory.WithClock(func() time.Time { return now })))
	svc := New(store, auth.ContextAuthenticator{}, WithPolicy(PolicyGuarded))

	_, err := svc.Link(as(alice), alice, bob)
	s.Require().NoError(err)

	now = now.Add(8 * time.Hour)
	res, err := svc.Link(as(bob), bob, alice)
	s.Require().NoError(err)
	s.True(res.Synced)

	now = now.Add(7 * time.Hour)
	s.True(s.synced(svc, alice))
	s.True(s.synced(svc, bob))

	partner, found, err := svc.GetPartner(context.Background(), alice)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(bob, partner)
}

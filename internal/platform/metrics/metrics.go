package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for partner links, the ledger and
// goal escrow.
type Metrics struct {
	LinksCreated     prometheus.Counter
	PairsSynced      prometheus.Counter
	TokensMinted     prometheus.Counter
	TransfersApplied prometheus.Counter
	GoalsCreated     *prometheus.CounterVec
	GoalRewards      *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
	UnitDuration     *prometheus.HistogramVec
}

// New registers all collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LinksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "syncvault_partner_links_total",
			Help: "Total number of partner links written",
		}),
		PairsSynced: f.NewCounter(prometheus.CounterOpts{
			Name: "syncvault_partner_syncs_total",
			Help: "Total number of links that completed a synced pair",
		}),
		TokensMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "syncvault_ledger_mints_total",
			Help: "Total number of successful mint operations",
		}),
		TransfersApplied: f.NewCounter(prometheus.CounterOpts{
			Name: "syncvault_ledger_transfers_total",
			Help: "Total number of successful transfers",
		}),
		GoalsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncvault_goals_created_total",
			Help: "Total number of goals created, by escrow variant",
		}, []string{"variant"}),
		GoalRewards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncvault_goal_rewards_total",
			Help: "Total number of reward-issuing goal transitions, by escrow variant",
		}, []string{"variant"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncvault_rejections_total",
			Help: "Operations rejected with a domain error, by operation and error code",
		}, []string{"op", "code"}),
		UnitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "syncvault_storage_unit_duration_seconds",
			Help:    "Duration of storage units of work",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementLinksCreated() {
	m.LinksCreated.Inc()
}

func (m *Metrics) IncrementPairsSynced() {
	m.PairsSynced.Inc()
}

func (m *Metrics) IncrementTokensMinted() {
	m.TokensMinted.Inc()
}

func (m *Metrics) IncrementTransfers() {
	m.TransfersApplied.Inc()
}

func (m *Metrics) IncrementGoalsCreated(variant string) {
	m.GoalsCreated.WithLabelValues(variant).Inc()
}

func (m *Metrics) IncrementGoalRewards(variant string) {
	m.GoalRewards.WithLabelValues(variant).Inc()
}

// IncrementRejections records an operation refused with a domain error code.
func (m *Metrics) IncrementRejections(op, code string) {
	m.Rejections.WithLabelValues(op, code).Inc()
}

// ObserveUnitDuration records how long a storage unit held its backend.
func (m *Metrics) ObserveUnitDuration(kind string, d time.Duration) {
	m.UnitDuration.WithLabelValues(kind).Observe(d.Seconds())
}

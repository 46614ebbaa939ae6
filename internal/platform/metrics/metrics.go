package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the protocol core.
type Metrics struct {
	MatchRequests        prometheus.Counter
	Deposits             prometheus.Counter
	WithdrawalsRequested prometheus.Counter
	WithdrawalsFinalized prometheus.Counter
	Slashes              prometheus.Counter
	StakeHeld            prometheus.Gauge
}

// New creates and registers all metrics on reg. Tests pass a fresh registry
// so parallel suites do not collide on registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MatchRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_match_requests_total",
			Help: "Total match listings served.",
		}),
		Deposits: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_deposits_total",
			Help: "Total successful stake deposits.",
		}),
		WithdrawalsRequested: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_withdrawals_requested_total",
			Help: "Total withdrawal cooldowns started.",
		}),
		WithdrawalsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_withdrawals_finalized_total",
			Help: "Total withdrawals finalized after cooldown.",
		}),
		Slashes: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_slashes_total",
			Help: "Total slash events applied to the ledger.",
		}),
		StakeHeld: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kindred_stake_held_units",
			Help: "Stake currently held across all commitments, in smallest currency units.",
		}),
	}
}

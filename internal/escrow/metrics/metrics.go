package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks escrow release outcomes and ledger/local divergence.
type Metrics struct {
	ReleasesTotal       *prometheus.CounterVec
	DivergencesDetected prometheus.Counter
	DivergencesRepaired prometheus.Counter
	SweepCycles         prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ReleasesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subvene_escrow_releases_total",
			Help: "Milestone release attempts by outcome.",
		}, []string{"outcome"}),
		DivergencesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subvene_escrow_divergences_detected_total",
			Help: "Ledger/local divergences detected.",
		}),
		DivergencesRepaired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subvene_escrow_divergences_repaired_total",
			Help: "Local records repaired from ledger truth.",
		}),
		SweepCycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subvene_sweeper_cycles_total",
			Help: "Completed reconciliation sweeper cycles.",
		}),
	}
}

// Release outcome labels.
const (
	OutcomeReleased        = "released"
	OutcomeAlreadyReleased = "already_released"
	OutcomeLedgerError     = "ledger_error"
	OutcomeDiverged        = "diverged"
)

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the wallet's Prometheus instruments.
type Metrics struct {
	ProvisionsTotal   *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
	AccountOpsTotal   *prometheus.CounterVec
	ProofRejections   *prometheus.CounterVec
	LedgerTxDuration  prometheus.Histogram
	LedgerTxConflicts prometheus.Counter
}

// New registers all instruments on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ProvisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "starbeam_registry_provisions_total",
			Help: "Provisioning attempts, labeled by outcome code",
		}, []string{"outcome"}),
		LookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "starbeam_registry_lookups_total",
			Help: "Registry lookups, labeled by source (cache, ledger, miss)",
		}, []string{"source"}),
		AccountOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "starbeam_account_operations_total",
			Help: "Account operations, labeled by operation and outcome code",
		}, []string{"operation", "outcome"}),
		ProofRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "starbeam_account_proof_rejections_total",
			Help: "Rejected identity proofs, labeled by reason",
		}, []string{"reason"}),
		LedgerTxDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "starbeam_ledger_tx_duration_seconds",
			Help:    "Duration of ledger update transactions",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		LedgerTxConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "starbeam_ledger_tx_conflicts_total",
			Help: "Ledger transactions retried after a write conflict",
		}),
	}
}

func (m *Metrics) ObserveProvision(outcome string) {
	m.ProvisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLookup(source string) {
	m.LookupsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveAccountOp(operation, outcome string) {
	m.AccountOpsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveProofRejection(reason string) {
	m.ProofRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveLedgerTx(d time.Duration) {
	m.LedgerTxDuration.Observe(d.Seconds())
}

func (m *Metrics) IncLedgerConflict() {
	m.LedgerTxConflicts.Inc()
}

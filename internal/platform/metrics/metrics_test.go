package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProvision("ok")
	m.ObserveProvision("ok")
	m.ObserveProvision("already_provisioned")
	m.ObserveAccountOp("transfer", "insufficient_funds")
	m.ObserveProofRejection("replayed_nonce")
	m.ObserveLookup("cache")
	m.IncLedgerConflict()
	m.ObserveLedgerTx(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProvisionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisionsTotal.WithLabelValues("already_provisioned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountOpsTotal.WithLabelValues("transfer", "insufficient_funds")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProofRejections.WithLabelValues("replayed_nonce")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerTxConflicts))
}

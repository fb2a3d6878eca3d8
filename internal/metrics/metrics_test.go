package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransfer(t *testing.T) {
	before := testutil.ToFloat64(transfersTotal.WithLabelValues("command", OutcomeOK))
	ObserveTransfer("command", OutcomeOK)
	ObserveTransfer("command", OutcomeOK)

	assert.Equal(t, before+2, testutil.ToFloat64(transfersTotal.WithLabelValues("command", OutcomeOK)))
}

func TestObserveSweep(t *testing.T) {
	before := testutil.ToFloat64(limiterSweptTotal)
	ObserveSweep(3)
	assert.Equal(t, before+3, testutil.ToFloat64(limiterSweptTotal))
}

func TestObserveSnapshotSave(t *testing.T) {
	assert.NotPanics(t, func() { ObserveSnapshotSave(15 * time.Millisecond) })
}

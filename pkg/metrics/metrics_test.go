package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropped(t *testing.T) {
	m := New()
	m.Dropped("no_customer", 3)
	m.Dropped("no_customer", 0)
	m.Dropped("no_plan", -1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsDropped.WithLabelValues("no_customer")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RecordsDropped))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.NegativeOffsets.Add(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.NegativeOffsets))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NegativeOffsets))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordsLoaded.WithLabelValues("payment").Add(42)
	m.ObserveStage("join", time.Now())

	path := filepath.Join(t.TempDir(), "cohort_repayment.prom")
	require.NoError(t, m.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `cohort_repayment_records_loaded_total{table="payment"} 42`)
	assert.Contains(t, string(raw), "cohort_repayment_stage_duration_seconds_count")
}

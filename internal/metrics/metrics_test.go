package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Cycles.Inc()
	m.CycleFailures.WithLabelValues("delivery").Inc()
	m.Notified.Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleFailures.WithLabelValues("delivery")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Notified))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// A second registry is independent.
	other := NewMetrics(prometheus.NewRegistry())
	assert.Equal(t, 0.0, testutil.ToFloat64(other.Cycles))
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewTraining(reg)
	require.Nil(t, err)

	m.Observe(1.5)
	m.Observe(0.5)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Steps), 1e-9)
	assert.InDelta(t, 0.5, testutil.ToFloat64(m.Loss), 1e-9)
}

func TestNewTraining_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewTraining(reg)
	require.Nil(t, err)
	_, err = NewTraining(reg)
	assert.Nil(t, err)
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("stateres_test", reg)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 4)

	m.Calls().Inc()
	m.Rejections().Inc()
	m.Rejections().Inc()
	m.Duration().Observe(0.01)
	m.AuthChainDiffSize().Observe(4)

	require.Equal(t, float64(1), counterValue(t, m.Calls()))
	require.Equal(t, float64(2), counterValue(t, m.Rejections()))
}

func TestNewFailsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("stateres_test_dup", reg)
	require.NoError(t, err)

	_, err = New("stateres_test_dup", reg)
	require.Error(t, err)
}

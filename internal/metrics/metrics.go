// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps Resolve with Prometheus instrumentation, following
// the teacher's api/metrics package: an interface plus a constructor that
// registers everything against a caller-supplied prometheus.Registerer.
// Resolution itself never reads these counters back; they are strictly
// observational and never participate in the algorithm's determinism.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of observations taken around a Resolve call.
type Metrics interface {
	// Calls tracks the number of Resolve invocations.
	Calls() prometheus.Counter

	// Rejections tracks PolicyRejection outcomes across all iterative
	// auth passes.
	Rejections() prometheus.Counter

	// Duration observes wall-clock time spent inside Resolve, in seconds.
	Duration() prometheus.Histogram

	// AuthChainDiffSize observes the size of the computed auth chain
	// difference, a rough proxy for how much conflict a call had to
	// resolve.
	AuthChainDiffSize() prometheus.Histogram
}

// New creates and registers a Metrics instance under namespace.
func New(namespace string, registerer prometheus.Registerer) (Metrics, error) {
	m := &metrics{
		calls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_calls_total",
			Help:      "Number of Resolve invocations.",
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_rejections_total",
			Help:      "Number of PolicyRejection outcomes across all iterative auth passes.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Wall-clock time spent inside a single Resolve call.",
			Buckets:   prometheus.DefBuckets,
		}),
		authChainDiffSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_auth_chain_diff_size",
			Help:      "Size of the computed auth chain difference.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.rejections, m.duration, m.authChainDiffSize} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type metrics struct {
	calls             prometheus.Counter
	rejections        prometheus.Counter
	duration          prometheus.Histogram
	authChainDiffSize prometheus.Histogram
}

func (m *metrics) Calls() prometheus.Counter                    { return m.calls }
func (m *metrics) Rejections() prometheus.Counter                { return m.rejections }
func (m *metrics) Duration() prometheus.Histogram                { return m.duration }
func (m *metrics) AuthChainDiffSize() prometheus.Histogram       { return m.authChainDiffSize }

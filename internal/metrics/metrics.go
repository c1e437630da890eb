// Package metrics holds the Prometheus collectors of the planner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Game API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAPIRequestsTotal,
			Help: HelpTextAPIRequestsTotal,
		},
		[]string{LabelEndpoint, LabelStatus},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameAPIRequestDuration,
			Help:    HelpTextAPIRequestDuration,
			Buckets: LatencyBuckets,
		},
		[]string{LabelEndpoint},
	)

	APICacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAPICacheLookups,
			Help: HelpTextAPICacheLookups,
		},
		[]string{LabelResult},
	)
)

// Planning metrics
var (
	KnowledgeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameKnowledgeLookups,
			Help: HelpTextKnowledgeLookups,
		},
		[]string{LabelResult},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAnalysesTotal,
			Help: HelpTextAnalysesTotal,
		},
		[]string{LabelOutcome},
	)

	ChainNodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameChainNodesTotal,
			Help: HelpTextChainNodesTotal,
		},
		[]string{LabelKind},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: LatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

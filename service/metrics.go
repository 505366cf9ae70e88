package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// modelRequestsTotal counts model requests by outcome.
	modelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontoview_model_requests_total",
			Help: "Total number of diagram model requests processed",
		},
		[]string{"outcome"},
	)

	// navigationRequestsTotal counts navigation requests by outcome.
	navigationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontoview_navigation_requests_total",
			Help: "Total number of navigation requests processed",
		},
		[]string{"outcome"},
	)

	// layoutFailuresTotal counts layout requests answered without
	// positions, i.e. soft-failed by the layout adapter.
	layoutFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ontoview_layout_failures_total",
			Help: "Total number of layout engine failures recovered by fallback",
		},
	)

	// modelRequestDuration observes end-to-end model request latency.
	modelRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ontoview_model_request_duration_seconds",
			Help:    "Duration of model compute+synthesize+layout requests",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(modelRequestsTotal)
	prometheus.MustRegister(navigationRequestsTotal)
	prometheus.MustRegister(layoutFailuresTotal)
	prometheus.MustRegister(modelRequestDuration)
}

package statemgr

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// liveVersions prometheus metric.
	liveVersions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of tree versions kept in memory",
			Name:      "live_versions",
			Namespace: "statetrie",
		},
	)
	// finalTreeSize prometheus metric.
	finalTreeSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of values stored in the final version",
			Name:      "final_tree_size",
			Namespace: "statetrie",
		},
	)
	// infoUpdates prometheus metric.
	infoUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of radix nodes with recomputed radix info",
			Name:      "radix_info_updates_total",
			Namespace: "statetrie",
		},
	)
	// releasedNodes prometheus metric.
	releasedNodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of nodes released by version deletion",
			Name:      "released_nodes_total",
			Namespace: "statetrie",
		},
	)
)

func init() {
	prometheus.MustRegister(
		liveVersions,
		finalTreeSize,
		infoUpdates,
		releasedNodes,
	)
}

func updateLiveVersionsMetric(n int) {
	liveVersions.Set(float64(n))
}

func updateFinalTreeSizeMetric(n int) {
	finalTreeSize.Set(float64(n))
}

func addInfoUpdatesMetric(n int) {
	infoUpdates.Add(float64(n))
}

func addReleasedNodesMetric(n int) {
	releasedNodes.Add(float64(n))
}

package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fortimap_topology_builds_total",
		Help: "Number of topology rebuilds performed.",
	})
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fortimap_topology_build_duration_seconds",
		Help:    "Duration of topology rebuilds.",
		Buckets: prometheus.DefBuckets,
	})
	deviceCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fortimap_devices",
		Help: "Number of devices in the current topology by type.",
	}, []string{"type"})
	snapshotErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fortimap_snapshot_errors_total",
		Help: "Number of failed snapshot writes.",
	})
	watchMissTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fortimap_watch_miss_total",
		Help: "Number of missed watch notifications due to a blocked channel.",
	})
)

package dict

import "github.com/prometheus/client_golang/prometheus"

var (
	addCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tinystm",
			Subsystem: "dict",
			Name:      "add_total",
			Help:      "Counter of dictionary insertions by result.",
		}, []string{"result"})

	nodeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tinystm",
			Subsystem: "dict",
			Name:      "nodes",
			Help:      "Number of trie nodes linked into dictionaries.",
		})
)

var (
	addInserted = addCounter.WithLabelValues("inserted")
	addExisting = addCounter.WithLabelValues("existing")
)

func observeAdd(added bool) {
	if added {
		addInserted.Inc()
		return
	}
	addExisting.Inc()
}

func init() {
	prometheus.MustRegister(addCounter)
	prometheus.MustRegister(nodeGauge)
}

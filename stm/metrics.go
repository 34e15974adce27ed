package stm

import "github.com/prometheus/client_golang/prometheus"

var (
	txnCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tinystm",
			Subsystem: "txn",
			Name:      "total",
			Help:      "Counter of transaction outcomes.",
		}, []string{"type"})

	txnAbortCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tinystm",
			Subsystem: "txn",
			Name:      "abort_total",
			Help:      "Counter of transaction aborts by kind.",
		}, []string{"kind"})

	txnRetryHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tinystm",
			Subsystem: "txn",
			Name:      "retries",
			Help:      "Bucketed histogram of attempts needed before a transaction body committed.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		})
)

var (
	txnCommitCounter = txnCounter.WithLabelValues("commit")
	txnAbortTotal    = txnCounter.WithLabelValues("abort")

	abortCounters = map[AbortKind]prometheus.Counter{
		StaleRead:      txnAbortCounter.WithLabelValues(StaleRead.String()),
		LockConflict:   txnAbortCounter.WithLabelValues(LockConflict.String()),
		UnlockConflict: txnAbortCounter.WithLabelValues(UnlockConflict.String()),
	}
)

type abortMetric struct {
	kind prometheus.Counter
}

func (m abortMetric) Inc() {
	txnAbortTotal.Inc()
	m.kind.Inc()
}

func abortCounter(kind AbortKind) abortMetric {
	return abortMetric{kind: abortCounters[kind]}
}

func init() {
	prometheus.MustRegister(txnCounter)
	prometheus.MustRegister(txnAbortCounter)
	prometheus.MustRegister(txnRetryHistogram)
}

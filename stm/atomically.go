package stm

import (
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultRetryWarnInterval is the number of consecutive aborts after which Atomically logs a warning,
// and again at every further multiple.
const DefaultRetryWarnInterval = 1000

var retryWarnInterval = atomic.NewInt64(DefaultRetryWarnInterval)

// SetRetryWarnInterval changes how often Atomically warns about a body that keeps aborting. A value
// of 0 disables the warning.
func SetRetryWarnInterval(n int64) {
	retryWarnInterval.Store(n)
}

// Atomically runs fn inside tx until it commits: Begin, fn, TryToCommit, and again from Begin
// whenever fn or the commit aborts. It returns how many attempts were aborted before the commit.
// An error from fn that is not an abort stops the loop and is returned as is; nothing fn wrote is
// published in that case.
//
// There is no timeout. Under persistent contention the loop may spin for a long time, which is
// logged but not treated as an error.
func Atomically(tx *Txn, fn func(tx *Txn) error) (int, error) {
	for retries := 0; ; retries++ {
		tx.Begin()
		err := fn(tx)
		if err == nil {
			err = tx.TryToCommit()
		} else {
			tx.status = Aborted
			if kind, ok := KindOf(err); ok {
				abortCounter(kind).Inc()
			}
		}
		if err == nil {
			txnRetryHistogram.Observe(float64(retries + 1))
			return retries, nil
		}
		if !IsAbort(err) {
			return retries, err
		}
		if interval := retryWarnInterval.Load(); interval > 0 && int64(retries+1)%interval == 0 {
			kind, _ := KindOf(err)
			log.Warn("transaction keeps aborting",
				zap.Int("retries", retries+1),
				zap.Stringer("kind", kind),
				zap.Uint64("birthdate", tx.Birthdate()))
		}
	}
}

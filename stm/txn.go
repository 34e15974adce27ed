package stm

import (
	"go.uber.org/multierr"
)

// Status is the state of a transaction.
type Status int

const (
	// Inactive is the state of a transaction that has never begun.
	Inactive Status = iota
	// Active is the state between Begin and the outcome of TryToCommit.
	Active
	// Committed means the last TryToCommit published every write.
	Committed
	// Aborted means the last TryToCommit gave up; nothing was published.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Txn is a TL2 transaction. A Txn is reused across Begin/TryToCommit cycles by a single goroutine;
// it must never be shared between goroutines that run concurrently.
type Txn struct {
	clock      *Clock
	birthdate  uint64
	commitDate uint64
	status     Status

	readSet  map[cell]struct{}
	writeSet map[cell]struct{}
	shadows  map[cell]any
}

// NewTxn creates an inactive transaction on the process-wide clock.
func NewTxn() *Txn {
	return NewTxnWithClock(GlobalClock)
}

// NewTxnWithClock creates an inactive transaction on clock.
func NewTxnWithClock(clock *Clock) *Txn {
	return &Txn{
		clock:    clock,
		readSet:  make(map[cell]struct{}),
		writeSet: make(map[cell]struct{}),
		shadows:  make(map[cell]any),
	}
}

// Begin starts a new attempt: it forgets everything the previous attempt read or wrote and takes a
// fresh birthdate from the clock.
func (t *Txn) Begin() {
	for c := range t.readSet {
		delete(t.readSet, c)
	}
	for c := range t.writeSet {
		delete(t.writeSet, c)
	}
	for c := range t.shadows {
		delete(t.shadows, c)
	}
	t.birthdate = t.clock.Now()
	t.status = Active
}

// TryToCommit locks the write set, validates the read set against the birthdate, takes a commit date
// from the clock and publishes every write. Any *AbortError leaves every register unchanged (except
// an UnlockConflict, which is reported after the writes were published and every release was
// attempted).
func (t *Txn) TryToCommit() error {
	if t.status != Active {
		return ErrNotActive
	}

	locked := make([]cell, 0, len(t.writeSet))
	for c := range t.writeSet {
		if err := c.Lock(t); err != nil {
			return t.abort(locked, err)
		}
		locked = append(locked, c)
	}

	for c := range t.readSet {
		if c.lockedByOther(t) {
			return t.abort(locked, errStaleRead("read register is being committed by another transaction"))
		}
		if c.Date() > t.birthdate {
			return t.abort(locked, errStaleRead("read register was committed after the transaction began"))
		}
	}

	date := t.clock.Tick()
	for _, c := range locked {
		// The lock is held by t, so Commit cannot fail here.
		_ = c.Commit(t, date)
	}
	t.commitDate = date

	if err := t.release(locked); err != nil {
		t.status = Aborted
		abortCounter(UnlockConflict).Inc()
		return errUnlockConflict("some registers could not be released", err)
	}
	t.status = Committed
	txnCommitCounter.Inc()
	return nil
}

// abort releases the locks acquired so far and marks the attempt aborted with cause.
func (t *Txn) abort(locked []cell, cause error) error {
	// Release failures here do not change the outcome: the transaction is aborting already.
	_ = t.release(locked)
	t.status = Aborted
	if kind, ok := KindOf(cause); ok {
		abortCounter(kind).Inc()
	}
	return cause
}

// release attempts every unlock and aggregates the failures.
func (t *Txn) release(locked []cell) error {
	var errs error
	for _, c := range locked {
		errs = multierr.Append(errs, c.Unlock(t))
	}
	return errs
}

// IsCommitted reports whether the last TryToCommit succeeded.
func (t *Txn) IsCommitted() bool {
	return t.status == Committed
}

// Status returns the current state of the transaction.
func (t *Txn) Status() Status {
	return t.status
}

// Birthdate returns the clock value captured by the last Begin.
func (t *Txn) Birthdate() uint64 {
	return t.birthdate
}

// CommitDate returns the date of the last successful commit.
func (t *Txn) CommitDate() uint64 {
	return t.commitDate
}

// ReadSetLen and WriteSetLen expose the size of the current attempt's sets.
func (t *Txn) ReadSetLen() int { return len(t.readSet) }

func (t *Txn) WriteSetLen() int { return len(t.writeSet) }

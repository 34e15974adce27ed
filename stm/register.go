package stm

import "go.uber.org/atomic"

// version is an immutable committed state. Publishing a new *version is how a register changes value
// and date together.
type version[T any] struct {
	value T
	date  uint64
}

// shadow is the transaction-local copy of a register, invisible to other transactions until commit.
type shadow[T any] struct {
	value T
	date  uint64
}

// cell is the type-erased view of a register that a Txn needs during commit.
type cell interface {
	Date() uint64
	Lock(tx *Txn) error
	Unlock(tx *Txn) error
	Commit(tx *Txn, date uint64) error
	lockedByOther(tx *Txn) bool
}

// Register is a versioned, lockable memory cell. Its committed value and date only change while it
// is exclusively locked by the committing transaction.
type Register[T any] struct {
	current atomic.Pointer[version[T]]
	owner   atomic.Pointer[Txn]
}

// NewRegister creates a register holding value, committed at date.
func NewRegister[T any](value T, date uint64) *Register[T] {
	r := &Register[T]{}
	r.current.Store(&version[T]{value: value, date: date})
	return r
}

// Value returns the last committed value.
func (r *Register[T]) Value() T {
	return r.current.Load().value
}

// Date returns the commit date of the last committed value.
func (r *Register[T]) Date() uint64 {
	return r.current.Load().date
}

// Read returns the value of the register as seen by tx. The first read snapshots the committed state
// into tx and enlists the register into the read set; later reads (and reads after a Write) return
// the shadow unchanged.
func (r *Register[T]) Read(tx *Txn) (T, error) {
	if s, ok := tx.shadows[r]; ok {
		return s.(*shadow[T]).value, nil
	}
	// The owner must be sampled before the version: a writer holds the lock from before it ticks
	// the clock until after it has published.
	busy := r.lockedByOther(tx)
	v := r.current.Load()
	s := &shadow[T]{value: v.value, date: v.date}
	tx.shadows[r] = s
	tx.readSet[r] = struct{}{}
	if busy {
		return s.value, errStaleRead("register is being committed by another transaction")
	}
	if s.date > tx.birthdate {
		return s.value, errStaleRead("register was committed after the transaction began")
	}
	return s.value, nil
}

// Write sets the value of the register as seen by tx. The new value is published only when tx
// commits. A written register is also enlisted into the read set, so it is revalidated at commit.
func (r *Register[T]) Write(tx *Txn, value T) {
	s, ok := tx.shadows[r]
	if !ok {
		v := r.current.Load()
		s = &shadow[T]{value: v.value, date: v.date}
		tx.shadows[r] = s
	}
	s.(*shadow[T]).value = value
	tx.writeSet[r] = struct{}{}
	if _, ok := tx.readSet[r]; !ok {
		tx.readSet[r] = struct{}{}
	}
}

// Lock claims the register for tx. Locking a register tx already holds is a no-op.
func (r *Register[T]) Lock(tx *Txn) error {
	if r.owner.CompareAndSwap(nil, tx) || r.owner.Load() == tx {
		return nil
	}
	return errLockConflict("register is locked by another transaction")
}

// Unlock releases the register. Unlocking a free register is a no-op.
func (r *Register[T]) Unlock(tx *Txn) error {
	if r.owner.CompareAndSwap(tx, nil) || r.owner.Load() == nil {
		return nil
	}
	return errUnlockConflict("register is locked by another transaction", nil)
}

// Commit publishes tx's shadow as the committed value at date and discards the shadow. tx must hold
// the lock.
func (r *Register[T]) Commit(tx *Txn, date uint64) error {
	if r.owner.Load() != tx {
		return errLockConflict("commit without holding the register lock")
	}
	next := &version[T]{date: date}
	if s, ok := tx.shadows[r]; ok {
		next.value = s.(*shadow[T]).value
		delete(tx.shadows, r)
	} else {
		next.value = r.current.Load().value
	}
	r.current.Store(next)
	return nil
}

func (r *Register[T]) lockedByOther(tx *Txn) bool {
	owner := r.owner.Load()
	return owner != nil && owner != tx
}

package stm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// TestSwap exchanges two registers in one transaction.
func TestSwap(t *testing.T) {
	clock := NewClock()
	x := NewRegister(4, 0)
	y := NewRegister(1, 0)

	tx := NewTxnWithClock(clock)
	for !tx.IsCommitted() {
		tx.Begin()
		vx, err := x.Read(tx)
		if err != nil {
			continue
		}
		vy, err := y.Read(tx)
		if err != nil {
			continue
		}
		x.Write(tx, vy)
		y.Write(tx, vx)
		if err := tx.TryToCommit(); err != nil {
			require.True(t, IsAbort(err))
		}
	}

	assert.Equal(t, 1, x.Value())
	assert.Equal(t, 4, y.Value())
	assert.Equal(t, tx.CommitDate(), x.Date())
	assert.Equal(t, tx.CommitDate(), y.Date())
	assert.Equal(t, uint64(1), tx.CommitDate())
	assert.Equal(t, uint64(1), clock.Now())
}

func TestStatusTransitions(t *testing.T) {
	clock := NewClock()
	x := NewRegister(0, 0)
	tx := NewTxnWithClock(clock)
	assert.Equal(t, Inactive, tx.Status())
	assert.Equal(t, ErrNotActive, tx.TryToCommit())

	tx.Begin()
	assert.Equal(t, Active, tx.Status())
	x.Write(tx, 1)
	require.NoError(t, tx.TryToCommit())
	assert.Equal(t, Committed, tx.Status())
	assert.True(t, tx.IsCommitted())
	// An outcome cannot be committed twice.
	assert.Equal(t, ErrNotActive, tx.TryToCommit())

	tx.Begin()
	assert.Equal(t, Active, tx.Status())
	assert.False(t, tx.IsCommitted())
	assert.Equal(t, 0, tx.ReadSetLen())
	assert.Equal(t, 0, tx.WriteSetLen())
	assert.Equal(t, clock.Now(), tx.Birthdate())

	holder := NewTxnWithClock(clock)
	require.NoError(t, x.Lock(holder))
	x.Write(tx, 2)
	assertAbort(t, tx.TryToCommit(), LockConflict)
	assert.Equal(t, Aborted, tx.Status())
	assert.Equal(t, "aborted", tx.Status().String())
}

func TestLockConflictReleasesAcquiredLocks(t *testing.T) {
	clock := NewClock()
	registers := make([]*Register[int], 8)
	for i := range registers {
		registers[i] = NewRegister(i, 0)
	}
	holder := NewTxnWithClock(clock)
	require.NoError(t, registers[5].Lock(holder))

	tx := NewTxnWithClock(clock)
	tx.Begin()
	for _, r := range registers {
		r.Write(tx, -1)
	}
	assertAbort(t, tx.TryToCommit(), LockConflict)
	assert.Equal(t, uint64(0), clock.Now())

	probe := NewTxnWithClock(clock)
	for i, r := range registers {
		assert.Equal(t, i, r.Value())
		assert.Equal(t, uint64(0), r.Date())
		if i == 5 {
			continue
		}
		// Every lock taken by the aborted commit was released.
		require.NoError(t, r.Lock(probe))
		require.NoError(t, r.Unlock(probe))
	}
}

func TestValidationRejectsNewerCommit(t *testing.T) {
	clock := NewClock()
	x := NewRegister(1, 0)
	y := NewRegister(1, 0)

	tx := NewTxnWithClock(clock)
	tx.Begin()
	vx, err := x.Read(tx)
	require.NoError(t, err)
	y.Write(tx, vx+1)

	other := NewTxnWithClock(clock)
	_, err = Atomically(other, func(tx *Txn) error {
		x.Write(tx, 100)
		return nil
	})
	require.NoError(t, err)

	assertAbort(t, tx.TryToCommit(), StaleRead)
	assert.Equal(t, 1, y.Value())
	assert.Equal(t, uint64(0), y.Date())
	// y was unlocked on the way out.
	require.NoError(t, y.Lock(other))
	require.NoError(t, y.Unlock(other))
}

func TestValidationRejectsLockedRead(t *testing.T) {
	clock := NewClock()
	x := NewRegister(1, 0)
	y := NewRegister(1, 0)

	tx := NewTxnWithClock(clock)
	tx.Begin()
	_, err := x.Read(tx)
	require.NoError(t, err)
	y.Write(tx, 2)

	holder := NewTxnWithClock(clock)
	require.NoError(t, x.Lock(holder))
	assertAbort(t, tx.TryToCommit(), StaleRead)
	assert.Equal(t, 1, y.Value())
}

func TestEveryCommitTicksOnce(t *testing.T) {
	clock := NewClock()
	x := NewRegister(0, 0)
	tx := NewTxnWithClock(clock)
	for i := 1; i <= 5; i++ {
		_, err := Atomically(tx, func(tx *Txn) error {
			v, err := x.Read(tx)
			if err != nil {
				return err
			}
			x.Write(tx, v+1)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), clock.Now())
		assert.Equal(t, uint64(i), x.Date())
	}

	// A read-only commit advances the clock too.
	_, err := Atomically(tx, func(tx *Txn) error {
		_, err := x.Read(tx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), clock.Now())
	assert.Equal(t, uint64(5), x.Date())
}

// stuckCell is a register stand-in whose lock can never be released.
type stuckCell struct {
	unlocks int
}

func (c *stuckCell) Date() uint64                      { return 0 }
func (c *stuckCell) Lock(tx *Txn) error                { return nil }
func (c *stuckCell) Commit(tx *Txn, date uint64) error { return nil }
func (c *stuckCell) lockedByOther(tx *Txn) bool        { return false }
func (c *stuckCell) Unlock(tx *Txn) error {
	c.unlocks++
	return errUnlockConflict("stuck", nil)
}

func TestReleaseFailuresAreAggregated(t *testing.T) {
	clock := NewClock()
	x := NewRegister(1, 0)
	first, second := &stuckCell{}, &stuckCell{}

	tx := NewTxnWithClock(clock)
	tx.Begin()
	x.Write(tx, 2)
	tx.writeSet[first] = struct{}{}
	tx.writeSet[second] = struct{}{}

	err := tx.TryToCommit()
	assertAbort(t, err, UnlockConflict)
	assert.False(t, tx.IsCommitted())

	// Every release was attempted, including the real register's.
	assert.Equal(t, 1, first.unlocks)
	assert.Equal(t, 1, second.unlocks)
	holder := NewTxnWithClock(clock)
	require.NoError(t, x.Lock(holder))
	require.NoError(t, x.Unlock(holder))

	abort := errors.Cause(err).(*AbortError)
	assert.Len(t, multierr.Errors(abort.Err), 2)
}

func TestAbortErrorsSurviveWrapping(t *testing.T) {
	err := errors.Wrap(errLockConflict("held"), "step")
	assert.True(t, IsAbort(err))
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, LockConflict, kind)
	assert.Contains(t, err.Error(), "lock-conflict")

	assert.False(t, IsAbort(errors.New("plain")))
	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestCommitMetrics(t *testing.T) {
	commits := testutil.ToFloat64(txnCommitCounter)
	conflicts := testutil.ToFloat64(abortCounters[LockConflict])

	clock := NewClock()
	x := NewRegister(0, 0)
	tx := NewTxnWithClock(clock)
	tx.Begin()
	x.Write(tx, 1)
	require.NoError(t, tx.TryToCommit())

	holder := NewTxnWithClock(clock)
	require.NoError(t, x.Lock(holder))
	tx.Begin()
	x.Write(tx, 2)
	assertAbort(t, tx.TryToCommit(), LockConflict)

	assert.Equal(t, commits+1, testutil.ToFloat64(txnCommitCounter))
	assert.Equal(t, conflicts+1, testutil.ToFloat64(abortCounters[LockConflict]))
}

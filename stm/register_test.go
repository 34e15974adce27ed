package stm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAbort(t *testing.T, err error, kind AbortKind) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "expected an abort, got %v", err)
	assert.Equal(t, kind, got)
}

func TestRegisterCommittedState(t *testing.T) {
	r := NewRegister(4, 7)
	assert.Equal(t, 4, r.Value())
	assert.Equal(t, uint64(7), r.Date())
}

func TestReadSnapshotsOnce(t *testing.T) {
	clock := NewClock()
	x := NewRegister(4, 0)

	tx := NewTxnWithClock(clock)
	tx.Begin()
	v, err := x.Read(tx)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	// Another transaction commits a new value; tx keeps seeing its snapshot.
	other := NewTxnWithClock(clock)
	_, err = Atomically(other, func(tx *Txn) error {
		x.Write(tx, 9)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, x.Value())

	v, err = x.Read(tx)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, 1, tx.ReadSetLen())
}

func TestReadSeesOwnWrite(t *testing.T) {
	x := NewRegister("a", 0)
	tx := NewTxnWithClock(NewClock())
	tx.Begin()
	x.Write(tx, "b")
	v, err := x.Read(tx)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	// Not published yet.
	assert.Equal(t, "a", x.Value())
}

func TestReadAfterNewerCommit(t *testing.T) {
	clock := NewClock()
	x := NewRegister(1, 0)

	tx := NewTxnWithClock(clock)
	tx.Begin()

	other := NewTxnWithClock(clock)
	other.Begin()
	x.Write(other, 2)
	require.NoError(t, other.TryToCommit())

	_, err := x.Read(tx)
	assertAbort(t, err, StaleRead)
}

func TestReadWhileLockedByOther(t *testing.T) {
	clock := NewClock()
	x := NewRegister(1, 0)
	holder := NewTxnWithClock(clock)
	require.NoError(t, x.Lock(holder))

	tx := NewTxnWithClock(clock)
	tx.Begin()
	_, err := x.Read(tx)
	assertAbort(t, err, StaleRead)

	require.NoError(t, x.Unlock(holder))
	tx.Begin()
	v, err := x.Read(tx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBlindWriteSkipsStalenessCheck(t *testing.T) {
	clock := NewClock()
	x := NewRegister(1, 0)

	tx := NewTxnWithClock(clock)
	tx.Begin()

	other := NewTxnWithClock(clock)
	_, err := Atomically(other, func(tx *Txn) error {
		x.Write(tx, 2)
		return nil
	})
	require.NoError(t, err)

	// The write itself never fails, even though x changed after tx began.
	x.Write(tx, 3)
	assert.Equal(t, 1, tx.WriteSetLen())
	// Writes are enlisted into the read set as well, so the commit revalidates x.
	assert.Equal(t, 1, tx.ReadSetLen())
	assertAbort(t, tx.TryToCommit(), StaleRead)
	assert.Equal(t, 2, x.Value())
}

func TestWriteKeepsExistingReadEntry(t *testing.T) {
	x := NewRegister(1, 0)
	tx := NewTxnWithClock(NewClock())
	tx.Begin()
	_, err := x.Read(tx)
	require.NoError(t, err)
	x.Write(tx, 2)
	x.Write(tx, 3)
	assert.Equal(t, 1, tx.ReadSetLen())
	assert.Equal(t, 1, tx.WriteSetLen())
}

func TestLockAndUnlock(t *testing.T) {
	clock := NewClock()
	x := NewRegister(0, 0)
	a := NewTxnWithClock(clock)
	b := NewTxnWithClock(clock)

	require.NoError(t, x.Lock(a))
	// Locking again by the holder is a no-op.
	require.NoError(t, x.Lock(a))
	assertAbort(t, x.Lock(b), LockConflict)
	assertAbort(t, x.Unlock(b), UnlockConflict)

	require.NoError(t, x.Unlock(a))
	// Unlocking a free register is a no-op.
	require.NoError(t, x.Unlock(a))
	require.NoError(t, x.Unlock(b))

	require.NoError(t, x.Lock(b))
	require.NoError(t, x.Unlock(b))
}

func TestCommitRequiresLock(t *testing.T) {
	x := NewRegister(1, 0)
	tx := NewTxnWithClock(NewClock())
	tx.Begin()
	x.Write(tx, 5)
	assertAbort(t, x.Commit(tx, 3), LockConflict)
	assert.Equal(t, 1, x.Value())

	require.NoError(t, x.Lock(tx))
	require.NoError(t, x.Commit(tx, 3))
	require.NoError(t, x.Unlock(tx))
	assert.Equal(t, 5, x.Value())
	assert.Equal(t, uint64(3), x.Date())
}

func TestValueAndDateIgnoreShadow(t *testing.T) {
	x := NewRegister(10, 2)
	tx := NewTxnWithClock(NewClock())
	tx.Begin()
	x.Write(tx, 11)
	assert.Equal(t, 10, x.Value())
	assert.Equal(t, uint64(2), x.Date())
}

func TestNilInterfaceValue(t *testing.T) {
	x := NewRegister[error](nil, 0)
	tx := NewTxnWithClock(NewClock())
	tx.Begin()
	v, err := x.Read(tx)
	require.NoError(t, err)
	assert.Nil(t, v)
}

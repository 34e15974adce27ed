/*
Package stm implements a software transactional memory based on TL2 (Transactional Locking 2).

Shared state lives in Registers. A Register holds a committed value together with the logical date
of the commit that produced it. Transactions read and write registers optimistically: reads never
block, writes go to a transaction-local shadow, and conflicts are only detected when the
transaction tries to commit.

Committing a transaction goes through these phases:

  - lock every register in the write set, aborting with LockConflict if one is held elsewhere;
  - validate every register in the read set, aborting with StaleRead if it was committed after the
    transaction's birthdate;
  - advance the logical clock to obtain the commit date;
  - publish every write at that date;
  - release every lock.

An aborted transaction has published nothing. The caller restarts it from Begin:

	tx := stm.NewTxn()
	for !tx.IsCommitted() {
		tx.Begin()
		x, err := X.Read(tx)
		if err != nil {
			continue
		}
		X.Write(tx, x+1)
		tx.TryToCommit()
	}

Atomically wraps that loop.
*/
package stm

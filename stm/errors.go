package stm

import (
	"fmt"

	"github.com/pkg/errors"
)

// AbortKind classifies why a transaction had to abort.
type AbortKind int

const (
	// StaleRead means a register in the read set was committed after the transaction's birthdate,
	// or was locked by another transaction while being read or validated.
	StaleRead AbortKind = iota + 1
	// LockConflict means a register in the write set (or a commit target) is held by another
	// transaction.
	LockConflict
	// UnlockConflict means a release was attempted by a transaction that does not hold the lock.
	UnlockConflict
)

func (k AbortKind) String() string {
	switch k {
	case StaleRead:
		return "stale-read"
	case LockConflict:
		return "lock-conflict"
	case UnlockConflict:
		return "unlock-conflict"
	default:
		return "unknown"
	}
}

// AbortError is returned whenever the TL2 protocol gives up on a transaction. It is never fatal:
// the caller restarts the whole transaction body from Begin.
type AbortError struct {
	Kind   AbortKind
	Reason string
	// Err carries aggregated release failures for UnlockConflict aborts.
	Err error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stm: aborted (%s): %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("stm: aborted (%s): %s", e.Kind, e.Reason)
}

func errStaleRead(reason string) error {
	return &AbortError{Kind: StaleRead, Reason: reason}
}

func errLockConflict(reason string) error {
	return &AbortError{Kind: LockConflict, Reason: reason}
}

func errUnlockConflict(reason string, cause error) error {
	return &AbortError{Kind: UnlockConflict, Reason: reason, Err: cause}
}

// IsAbort reports whether err is (or wraps) a transaction abort.
func IsAbort(err error) bool {
	_, ok := errors.Cause(err).(*AbortError)
	return ok
}

// KindOf returns the abort kind carried by err, if any.
func KindOf(err error) (AbortKind, bool) {
	if e, ok := errors.Cause(err).(*AbortError); ok {
		return e.Kind, true
	}
	return 0, false
}

// ErrNotActive is returned by TryToCommit when Begin has not been called since the last outcome.
var ErrNotActive = errors.New("stm: transaction is not active")

package dict

import (
	"sync"

	"github.com/pingcap-incubator/tinystm/stm"
	"go.uber.org/atomic"
)

// Set is an ordered set of strings.
type Set interface {
	// Add inserts s and reports whether it was not present before.
	Add(s string) (bool, error)
	// Contains reports whether s was inserted.
	Contains(s string) (bool, error)
	// Words returns every member in ascending order.
	Words() ([]string, error)
}

// Dictionary is a concurrent set of strings kept in lexicographic order, where common prefixes are
// stored once. Its structure lives entirely in stm registers: every node-level mutation is a TL2
// transaction, so concurrent insertions touching different nodes never interfere, and insertions
// racing on the same node are serialized by that node's optimistic retry loop.
type Dictionary struct {
	clock *stm.Clock
	// start encodes "\x00", the smallest non-empty string; it is never a member unless inserted.
	start *node
	// emptyTaken records the empty string, which has no node.
	emptyTaken atomic.Bool
	// txns hands out the ambient read-only transactions used by Contains and Words.
	txns sync.Pool
}

var _ Set = (*Dictionary)(nil)

// New creates an empty dictionary on the process-wide clock.
func New() *Dictionary {
	return NewWithClock(stm.GlobalClock)
}

// NewWithClock creates an empty dictionary whose transactions use clock.
func NewWithClock(clock *stm.Clock) *Dictionary {
	d := &Dictionary{
		clock: clock,
		start: newNode(0, nil, clock),
	}
	d.txns.New = func() interface{} {
		return stm.NewTxnWithClock(clock)
	}
	return d
}

// Add inserts s if it is not already present. It returns true iff this call inserted it.
func (d *Dictionary) Add(s string) (bool, error) {
	added, _, err := d.AddWithRetries(s)
	return added, err
}

// AddWithRetries is Add that also reports how many node-level transactions had to be restarted.
func (d *Dictionary) AddWithRetries(s string) (bool, int, error) {
	if s == "" {
		added := d.emptyTaken.CompareAndSwap(false, true)
		observeAdd(added)
		return added, 0, nil
	}
	total := 0
	n, depth := d.start, 0
	for {
		res, retries, err := n.step(s, depth, d.clock)
		total += retries
		if err != nil {
			return false, total, err
		}
		if res.created {
			nodeGauge.Inc()
		}
		if res.done {
			observeAdd(res.added)
			return res.added, total, nil
		}
		n, depth = res.next, res.depth
	}
}

// Contains reports whether s is in the dictionary. It walks the trie in one read-only transaction,
// retried until it commits.
func (d *Dictionary) Contains(s string) (bool, error) {
	if s == "" {
		return d.emptyTaken.Load(), nil
	}
	tx := d.txns.Get().(*stm.Txn)
	defer d.txns.Put(tx)

	var found bool
	_, err := stm.Atomically(tx, func(tx *stm.Txn) error {
		found = false
		n, depth := d.start, 0
		for n != nil && depth < len(s) {
			c := s[depth]
			if n.char == c {
				if depth == len(s)-1 {
					absent, err := n.absent.Read(tx)
					if err != nil {
						return err
					}
					found = !absent
					return nil
				}
				next, err := n.suffix.Read(tx)
				if err != nil {
					return err
				}
				n, depth = next, depth+1
				continue
			}
			if n.char > c {
				// Siblings are sorted, c cannot appear further.
				return nil
			}
			next, err := n.next.Read(tx)
			if err != nil {
				return err
			}
			n = next
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Words returns every member of the dictionary in ascending order, as of one consistent snapshot.
func (d *Dictionary) Words() ([]string, error) {
	tx := d.txns.Get().(*stm.Txn)
	defer d.txns.Put(tx)

	var words []string
	_, err := stm.Atomically(tx, func(tx *stm.Txn) error {
		words = words[:0]
		if d.emptyTaken.Load() {
			words = append(words, "")
		}
		return collect(tx, d.start, nil, &words)
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// collect appends the members below n (and its siblings) in order; prefix is the path of n's parent.
func collect(tx *stm.Txn, n *node, prefix []byte, words *[]string) error {
	for n != nil {
		path := append(prefix[:len(prefix):len(prefix)], n.char)
		absent, err := n.absent.Read(tx)
		if err != nil {
			return err
		}
		if !absent {
			*words = append(*words, string(path))
		}
		child, err := n.suffix.Read(tx)
		if err != nil {
			return err
		}
		if err := collect(tx, child, path, words); err != nil {
			return err
		}
		if n, err = n.next.Read(tx); err != nil {
			return err
		}
	}
	return nil
}

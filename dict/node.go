package dict

import (
	"sync"

	"github.com/pingcap-incubator/tinystm/stm"
)

// node encodes one byte of the dictionary. The path leading to a node is defined as:
//   - path(start) = "\x00";
//   - if path(n) = p + n.char then path(n.suffix) = p + n.char + n.suffix.char;
//   - if path(n) = p + n.char then path(n.next) = p + n.next.char.
//
// A string s is in the dictionary iff some node has path s and its absent flag is false.
type node struct {
	char byte
	// absent is true until the string leading to this node is inserted.
	absent *stm.Register[bool]
	// suffix holds the strings that continue path(n), starting with the smallest next byte.
	suffix *stm.Register[*node]
	// next holds the siblings at the same depth whose byte is strictly greater than char.
	next *stm.Register[*node]

	// txns hands out the transactions dedicated to this node's own edge mutations, one per
	// concurrent caller.
	txns sync.Pool
}

func newNode(char byte, next *node, clock *stm.Clock) *node {
	n := &node{
		char:   char,
		absent: stm.NewRegister(true, 0),
		suffix: stm.NewRegister[*node](nil, 0),
		next:   stm.NewRegister(next, 0),
	}
	n.txns.New = func() interface{} {
		return stm.NewTxnWithClock(clock)
	}
	return n
}

// stepResult tells the caller where an insertion continues after one node-level step.
type stepResult struct {
	next    *node
	depth   int
	done    bool
	added   bool
	created bool
}

// step performs the part of inserting s that concerns n, in a transaction dedicated to n, retrying
// until that transaction commits. depth is the index in s of the byte n is compared with.
func (n *node) step(s string, depth int, clock *stm.Clock) (stepResult, int, error) {
	tx := n.txns.Get().(*stm.Txn)
	defer n.txns.Put(tx)

	var res stepResult
	retries, err := stm.Atomically(tx, func(tx *stm.Txn) error {
		res = stepResult{}
		c := s[depth]

		// The last byte of s ends here: claim the node.
		if c == n.char && depth == len(s)-1 {
			absent, err := n.absent.Read(tx)
			if err != nil {
				return err
			}
			if absent {
				n.absent.Write(tx, false)
			}
			res.done, res.added = true, absent
			return nil
		}

		// Same branch: continue in suffix with the next byte, inserting a node to keep the order.
		if c == n.char {
			want := s[depth+1]
			child, err := n.suffix.Read(tx)
			if err != nil {
				return err
			}
			if child == nil || child.char > want {
				child = newNode(want, child, clock)
				n.suffix.Write(tx, child)
				res.created = true
			}
			res.next, res.depth = child, depth+1
			return nil
		}

		// Different byte: look for it among the siblings, inserting a node to keep the order.
		sibling, err := n.next.Read(tx)
		if err != nil {
			return err
		}
		if sibling == nil || sibling.char > c {
			sibling = newNode(c, sibling, clock)
			n.next.Write(tx, sibling)
			res.created = true
		}
		res.next, res.depth = sibling, depth
		return nil
	})
	return res, retries, err
}

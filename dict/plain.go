package dict

import "sync"

type plainNode struct {
	char    byte
	present bool
	suffix  *plainNode
	next    *plainNode
}

// Plain is the same trie as Dictionary without transactions: one mutex guards the whole structure.
// It exists to compare the transactional version against.
type Plain struct {
	mu    sync.Mutex
	start *plainNode
	empty bool
}

var _ Set = (*Plain)(nil)

// NewPlain creates an empty baseline dictionary.
func NewPlain() *Plain {
	return &Plain{start: &plainNode{}}
}

// Add inserts s if it is not already present. It returns true iff this call inserted it.
func (p *Plain) Add(s string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s == "" {
		added := !p.empty
		p.empty = true
		return added, nil
	}
	n, depth := p.start, 0
	for {
		c := s[depth]
		switch {
		case c == n.char && depth == len(s)-1:
			added := !n.present
			n.present = true
			return added, nil
		case c == n.char:
			want := s[depth+1]
			if n.suffix == nil || n.suffix.char > want {
				n.suffix = &plainNode{char: want, next: n.suffix}
			}
			n, depth = n.suffix, depth+1
		default:
			if n.next == nil || n.next.char > c {
				n.next = &plainNode{char: c, next: n.next}
			}
			n = n.next
		}
	}
}

// Contains reports whether s is in the dictionary.
func (p *Plain) Contains(s string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s == "" {
		return p.empty, nil
	}
	n, depth := p.start, 0
	for n != nil && n.char <= s[depth] {
		if n.char != s[depth] {
			n = n.next
			continue
		}
		if depth == len(s)-1 {
			return n.present, nil
		}
		n, depth = n.suffix, depth+1
	}
	return false, nil
}

// Words returns every member in ascending order.
func (p *Plain) Words() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var words []string
	if p.empty {
		words = append(words, "")
	}
	var walk func(n *plainNode, prefix []byte)
	walk = func(n *plainNode, prefix []byte) {
		for ; n != nil; n = n.next {
			path := append(prefix[:len(prefix):len(prefix)], n.char)
			if n.present {
				words = append(words, string(path))
			}
			walk(n.suffix, path)
		}
	}
	walk(p.start, nil)
	return words, nil
}

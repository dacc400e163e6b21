package mapped

import (
	"fmt"
)

// Trie maps byte strings to uint64 values. Nodes are numbered in level order;
// node n owns edges [first[n], first[n+1]) whose labels are sorted, and the
// child reached through edge e is node e+1.
type Trie struct {
	first    CompressedArray
	labels   []byte
	terminal CompressedArray
	values   CompressedArray
	nodes    int
	keys     int
}

// ReadTrie opens the trie at the reader's position.
func ReadTrie(r *Reader) (*Trie, error) {
	var nodes, edges, keys uint32
	if err := r.Uint32s(&nodes, &edges, &keys); err != nil {
		return nil, err
	}
	if nodes == 0 || edges != nodes-1 || keys > nodes {
		return nil, fmt.Errorf("%w: trie with %d nodes, %d edges, %d keys", ErrCorrupt, nodes, edges, keys)
	}
	first, err := ReadCompressedArray(r)
	if err != nil {
		return nil, fmt.Errorf("trie edges: %w", err)
	}
	labels, err := r.Bytes(int(edges))
	if err != nil {
		return nil, fmt.Errorf("trie labels: %w", err)
	}
	terminal, err := ReadCompressedArray(r)
	if err != nil {
		return nil, fmt.Errorf("trie terminals: %w", err)
	}
	values, err := ReadCompressedArray(r)
	if err != nil {
		return nil, fmt.Errorf("trie values: %w", err)
	}
	n := int(nodes)
	if first.Len() != n+1 || terminal.Len() != n || values.Len() != n {
		return nil, fmt.Errorf("%w: trie arrays do not match %d nodes", ErrCorrupt, n)
	}
	prev := uint64(0)
	for i := 0; i <= n; i++ {
		e := first.Get(i)
		if e < prev || e > uint64(edges) {
			return nil, fmt.Errorf("%w: trie edge index %d at node %d", ErrCorrupt, e, i)
		}
		// Level order numbering: a node's edges start after its own edge.
		if i > 0 && i < n && e < uint64(i) {
			return nil, fmt.Errorf("%w: trie node %d points backwards", ErrCorrupt, i)
		}
		prev = e
	}
	if prev != uint64(edges) {
		return nil, fmt.Errorf("%w: trie edges end at %d, have %d", ErrCorrupt, prev, edges)
	}
	return &Trie{
		first:    first,
		labels:   labels,
		terminal: terminal,
		values:   values,
		nodes:    n,
		keys:     int(keys),
	}, nil
}

// Len returns the number of keys.
func (t *Trie) Len() int {
	return t.keys
}

// Get returns the value stored for key.
func (t *Trie) Get(key string) (uint64, bool) {
	node := 0
	for i := 0; i < len(key); i++ {
		child, ok := t.child(node, key[i])
		if !ok {
			return 0, false
		}
		node = child
	}
	if t.terminal.Get(node) == 0 {
		return 0, false
	}
	return t.values.Get(node), true
}

// child follows the edge labelled c out of node.
func (t *Trie) child(node int, c byte) (int, bool) {
	lo, hi := int(t.first.Get(node)), int(t.first.Get(node+1))
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch l := t.labels[mid]; {
		case l == c:
			return mid + 1, true
		case l < c:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// Walk calls fn for every key in lexical order until fn returns false.
func (t *Trie) Walk(fn func(key string, value uint64) bool) {
	buf := make([]byte, 0, 32)
	t.walk(0, buf, fn)
}

func (t *Trie) walk(node int, prefix []byte, fn func(string, uint64) bool) bool {
	if t.terminal.Get(node) != 0 {
		if !fn(string(prefix), t.values.Get(node)) {
			return false
		}
	}
	lo, hi := int(t.first.Get(node)), int(t.first.Get(node+1))
	for e := lo; e < hi; e++ {
		if !t.walk(e+1, append(prefix, t.labels[e]), fn) {
			return false
		}
	}
	return true
}

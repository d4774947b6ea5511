// Package index implements an in-memory B-tree keyed by strings, used as the
// per-directory name index.
//
// The tree is order-configurable (default 64, so a node holds up to 63 keys)
// and supports insert, point lookup, delete and in-order iteration. Deletion
// removes the pair from its leaf without merging underfull nodes.
//
// Splits keep the promoted pivot key in the left child, while lookups that
// match a key at an internal node descend into the right child. A key equal
// to a promoted pivot therefore becomes unreachable through Get, and in-order
// iteration yields it twice (once from the retained leaf copy, once from the
// parent). Both effects are deliberate compatibility behavior; see the
// regression tests before changing either side.
package index

import (
	"errors"
	"sort"
)

// DefaultOrder is the fan-out bound used by directory indices.
const DefaultOrder = 64

var ErrKeyNotFound = errors.New("key not found")

type node struct {
	leaf bool
	keys []string
	vals []int64 // parallel to keys, leaf nodes only
	kids []*node // internal nodes only
}

// Tree is a string-keyed ordered map with integer values.
// It is not safe for concurrent use.
type Tree struct {
	root  *node
	order int
}

func New() *Tree {
	return NewWithOrder(DefaultOrder)
}

func NewWithOrder(order int) *Tree {
	if order < 3 {
		order = DefaultOrder
	}
	return &Tree{
		root:  &node{leaf: true},
		order: order,
	}
}

func (t *Tree) Order() int {
	return t.order
}

// Insert adds a key/value pair. Duplicate keys are not rejected here; the
// caller is responsible for checking pre-existence.
func (t *Tree) Insert(key string, val int64) {
	r := t.root
	if len(r.keys) == t.order-1 {
		s := &node{leaf: false}
		s.kids = append(s.kids, r)
		t.splitChild(s, 0)
		t.root = s
	}
	t.insertNonFull(t.root, key, val)
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (t *Tree) Get(key string) (int64, error) {
	n, i := t.search(t.root, key)
	if n == nil {
		return 0, ErrKeyNotFound
	}
	return n.vals[i], nil
}

// Delete removes the pair from whichever leaf currently holds it. Nodes may
// shrink below the minimum fill factor; no rebalancing is performed.
func (t *Tree) Delete(key string) error {
	n, i := t.search(t.root, key)
	if n == nil {
		return ErrKeyNotFound
	}
	n.keys = append(n.keys[:i], n.keys[i+1:]...)
	n.vals = append(n.vals[:i], n.vals[i+1:]...)
	return nil
}

// Iterate walks all keys in order, calling fn for each until it returns
// false. Retained pivot copies are yielded in addition to the parent's copy.
func (t *Tree) Iterate(fn func(key string) bool) {
	t.iterNode(t.root, fn)
}

// Keys returns the full in-order key sequence.
func (t *Tree) Keys() []string {
	var keys []string
	t.Iterate(func(k string) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Items visits every stored key/value pair exactly once, in order. Values
// live only in leaves, so this walk skips the internal-node key copies.
func (t *Tree) Items(fn func(key string, val int64) bool) {
	t.itemsNode(t.root, fn)
}

// Len reports the number of stored pairs.
func (t *Tree) Len() int {
	n := 0
	t.Items(func(string, int64) bool {
		n++
		return true
	})
	return n
}

// NodeDump is the structural image of one node. Persistence captures and
// rebuilds the exact tree shape through it, including retained pivot copies
// and leaves emptied by splits or deletes, so reachability is identical after
// a save/load cycle.
type NodeDump struct {
	Leaf bool
	Keys []string
	Vals []int64
	Kids []*NodeDump
}

// Dump returns the tree's node structure verbatim.
func (t *Tree) Dump() *NodeDump {
	return dumpNode(t.root)
}

func dumpNode(n *node) *NodeDump {
	d := &NodeDump{
		Leaf: n.leaf,
		Keys: append([]string(nil), n.keys...),
	}
	if n.leaf {
		d.Vals = append([]int64(nil), n.vals...)
		return d
	}
	d.Kids = make([]*NodeDump, 0, len(n.kids))
	for _, kid := range n.kids {
		d.Kids = append(d.Kids, dumpNode(kid))
	}
	return d
}

// FromDump rebuilds a tree from a structural image produced by Dump.
func FromDump(order int, d *NodeDump) (*Tree, error) {
	if order < 3 {
		order = DefaultOrder
	}
	if d == nil {
		return nil, errors.New("index: nil node dump")
	}
	root, err := nodeFromDump(d)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root, order: order}, nil
}

func nodeFromDump(d *NodeDump) (*node, error) {
	n := &node{
		leaf: d.Leaf,
		keys: append([]string(nil), d.Keys...),
	}
	if d.Leaf {
		if len(d.Vals) != len(d.Keys) {
			return nil, errors.New("index: leaf dump with mismatched keys and values")
		}
		n.vals = append([]int64(nil), d.Vals...)
		return n, nil
	}
	if len(d.Kids) == 0 {
		return nil, errors.New("index: internal node dump without children")
	}
	n.kids = make([]*node, 0, len(d.Kids))
	for _, kd := range d.Kids {
		kid, err := nodeFromDump(kd)
		if err != nil {
			return nil, err
		}
		n.kids = append(n.kids, kid)
	}
	return n, nil
}

func (t *Tree) search(n *node, key string) (*node, int) {
	i := sort.SearchStrings(n.keys, key)
	if n.leaf {
		if i < len(n.keys) && n.keys[i] == key {
			return n, i
		}
		return nil, -1
	}
	if i < len(n.keys) && n.keys[i] == key {
		// Exact matches at internal nodes route right.
		i++
	}
	return t.search(n.kids[i], key)
}

func (t *Tree) insertNonFull(n *node, key string, val int64) {
	if n.leaf {
		i := sort.SearchStrings(n.keys, key)
		n.keys = append(n.keys, "")
		copy(n.keys[i+1:], n.keys[i:])
		n.keys[i] = key
		n.vals = append(n.vals, 0)
		copy(n.vals[i+1:], n.vals[i:])
		n.vals[i] = val
		return
	}

	i := len(n.keys) - 1
	for i >= 0 && key < n.keys[i] {
		i--
	}
	i++
	if len(n.kids[i].keys) == t.order-1 {
		t.splitChild(n, i)
		if key > n.keys[i] {
			i++
		}
	}
	t.insertNonFull(n.kids[i], key, val)
}

// splitChild splits the full child at index i, promoting the pivot into the
// parent. The pivot stays in the left child; the right sibling receives
// everything past it.
func (t *Tree) splitChild(parent *node, i int) {
	y := parent.kids[i]
	z := &node{leaf: y.leaf}
	mid := t.order / 2

	parent.keys = append(parent.keys, "")
	copy(parent.keys[i+1:], parent.keys[i:])
	parent.keys[i] = y.keys[mid]

	parent.kids = append(parent.kids, nil)
	copy(parent.kids[i+2:], parent.kids[i+1:])
	parent.kids[i+1] = z

	z.keys = append(z.keys, y.keys[mid+1:]...)
	y.keys = y.keys[:mid+1]

	if y.leaf {
		z.vals = append(z.vals, y.vals[mid+1:]...)
		y.vals = y.vals[:mid+1]
	} else {
		z.kids = append(z.kids, y.kids[mid+1:]...)
		y.kids = y.kids[:mid+1]
	}
}

func (t *Tree) iterNode(n *node, fn func(string) bool) bool {
	if n.leaf {
		for _, k := range n.keys {
			if !fn(k) {
				return false
			}
		}
		return true
	}
	for i, kid := range n.kids {
		if !t.iterNode(kid, fn) {
			return false
		}
		if i < len(n.keys) {
			if !fn(n.keys[i]) {
				return false
			}
		}
	}
	return true
}

func (t *Tree) itemsNode(n *node, fn func(string, int64) bool) bool {
	if n.leaf {
		for i, k := range n.keys {
			if !fn(k, n.vals[i]) {
				return false
			}
		}
		return true
	}
	for _, kid := range n.kids {
		if !t.itemsNode(kid, fn) {
			return false
		}
	}
	return true
}

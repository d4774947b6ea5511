package vfs

import (
	"fmt"
	"sort"
)

// Table is the sole owner of inode identity and storage. Identities are
// assigned sequentially from 0 and never reused; removal of a name from a
// directory never evicts the table entry, so detached subtrees are retained
// for the table's lifetime.
type Table struct {
	next  int64
	nodes map[int64]*Inode
}

func NewTable() *Table {
	return &Table{nodes: make(map[int64]*Inode)}
}

// Allocate assigns the next identity, stores the inode under it and stamps
// the inode with it. It never fails.
func (t *Table) Allocate(in *Inode) int64 {
	in.Ino = t.next
	t.nodes[t.next] = in
	t.next++
	return in.Ino
}

// Get returns the inode stored under ino. A miss means the caller holds an
// identity that was never allocated: an internal-consistency fault, not a
// user-facing condition.
func (t *Table) Get(ino int64) (*Inode, error) {
	in, ok := t.nodes[ino]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIno, ino)
	}
	return in, nil
}

// Len reports how many inodes were ever allocated.
func (t *Table) Len() int {
	return len(t.nodes)
}

// NextIno is the identity the next allocation will receive.
func (t *Table) NextIno() int64 {
	return t.next
}

// Range visits every table entry in ascending identity order.
func (t *Table) Range(fn func(ino int64, in *Inode) bool) {
	inos := make([]int64, 0, len(t.nodes))
	for ino := range t.nodes {
		inos = append(inos, ino)
	}
	sort.Slice(inos, func(i, j int) bool { return inos[i] < inos[j] })
	for _, ino := range inos {
		if !fn(ino, t.nodes[ino]) {
			return
		}
	}
}

// RestoreTable rebuilds a table from snapshot contents. nextIno must exceed
// every identity in nodes; each inode is stamped with its restored identity.
func RestoreTable(nextIno int64, nodes map[int64]*Inode) (*Table, error) {
	t := NewTable()
	for ino, in := range nodes {
		if ino >= nextIno {
			return nil, fmt.Errorf("restore: identity %d not below next identity %d", ino, nextIno)
		}
		in.Ino = ino
		t.nodes[ino] = in
	}
	t.next = nextIno
	return t, nil
}

// Package vfs implements the in-memory hierarchical namespace: the inode
// table, the two-variant object model and the path-resolution façade over
// them. Directories index their children with the custom B-tree from
// internal/index; all object references are integer identities resolved
// through the table.
//
// The façade performs no logging and no I/O, and is not safe for concurrent
// use; callers serialize access externally.
package vfs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akulagin/indexfs/internal/index"
	"github.com/akulagin/indexfs/internal/models"
)

// RootIno is the identity of the root directory, designated at construction
// and never removable.
const RootIno int64 = 0

// Namespace maps absolute paths to inodes. Every operation is a single
// atomic step from the caller's perspective.
type Namespace struct {
	table *Table
	order int
}

// New returns a namespace holding only the root directory. order is the
// B-tree fan-out used by every directory index; non-positive values fall back
// to the default.
func New(order int) *Namespace {
	if order <= 0 {
		order = index.DefaultOrder
	}
	ns := &Namespace{table: NewTable(), order: order}
	ns.table.Allocate(NewDir(order))
	return ns
}

// Restore wraps a table rebuilt from a snapshot. The table must hold a
// directory at identity 0.
func Restore(order int, table *Table) (*Namespace, error) {
	root, err := table.Get(RootIno)
	if err != nil {
		return nil, fmt.Errorf("restore namespace: %w", err)
	}
	if root.Type != models.NodeTypeDir {
		return nil, fmt.Errorf("restore namespace: root inode is not a directory")
	}
	if order <= 0 {
		order = index.DefaultOrder
	}
	return &Namespace{table: table, order: order}, nil
}

// Table exposes the inode table to the persistence collaborator.
func (ns *Namespace) Table() *Table {
	return ns.table
}

func (ns *Namespace) Order() int {
	return ns.order
}

// Mkdir creates an empty directory at path, implicitly creating missing
// intermediate directories. Fails with ErrExists if the final name is
// occupied by an object of either kind.
func (ns *Namespace) Mkdir(path string) error {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: cannot create %q", ErrInvalidPath, path)
	}
	dir, err := ns.dirAt(parent, path)
	if err != nil {
		return err
	}
	if _, err := dir.Lookup(name); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	dir.AddEntry(name, ns.table.Allocate(NewDir(ns.order)))
	return nil
}

// Touch creates an empty file at path. Same creation semantics as Mkdir.
func (ns *Namespace) Touch(path string) error {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: cannot create %q", ErrInvalidPath, path)
	}
	dir, err := ns.dirAt(parent, path)
	if err != nil {
		return err
	}
	if _, err := dir.Lookup(name); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	dir.AddEntry(name, ns.table.Allocate(NewFile(nil)))
	return nil
}

// Write overwrites the file at path with data, creating the file (and any
// missing parents) if absent. A directory at path fails with ErrNotDir.
func (ns *Namespace) Write(path string, data []byte) error {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: cannot write %q", ErrInvalidPath, path)
	}
	dir, err := ns.dirAt(parent, path)
	if err != nil {
		return err
	}

	ino, err := dir.Lookup(name)
	if err != nil {
		dir.AddEntry(name, ns.table.Allocate(NewFile(data)))
		return nil
	}

	node, err := ns.table.Get(ino)
	if err != nil {
		return err
	}
	switch node.Type {
	case models.NodeTypeFile:
		node.SetContent(data)
		return nil
	case models.NodeTypeDir:
		return fmt.Errorf("%w: %s", ErrNotDir, name)
	default:
		return fmt.Errorf("%w: inode %d has unknown type %d", ErrInvalidIno, ino, node.Type)
	}
}

// Read returns a copy of the file content at path.
func (ns *Namespace) Read(path string) ([]byte, error) {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: cannot read %q", ErrInvalidPath, path)
	}
	dir, err := ns.dirAt(parent, path)
	if err != nil {
		return nil, err
	}

	ino, err := dir.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	node, err := ns.table.Get(ino)
	if err != nil {
		return nil, err
	}
	switch node.Type {
	case models.NodeTypeFile:
		return node.Content(), nil
	case models.NodeTypeDir:
		return nil, fmt.Errorf("%w: %s", ErrNotDir, name)
	default:
		return nil, fmt.Errorf("%w: inode %d has unknown type %d", ErrInvalidIno, ino, node.Type)
	}
}

// Ls returns the sorted name sequence of the directory at path. Listing "/"
// reads the root index directly. A missing target fails with ErrNotFound, a
// file target with ErrNotDir.
func (ns *Namespace) Ls(path string) ([]string, error) {
	dir, err := ns.targetDir(path)
	if err != nil {
		return nil, err
	}
	return dir.Names(), nil
}

// Entries returns the directory listing with identities and kinds attached.
func (ns *Namespace) Entries(path string) ([]models.Dirent, error) {
	dir, err := ns.targetDir(path)
	if err != nil {
		return nil, err
	}

	var entries []models.Dirent
	var walkErr error
	dir.EntryPairs(func(name string, ino int64) bool {
		child, err := ns.table.Get(ino)
		if err != nil {
			walkErr = err
			return false
		}
		entries = append(entries, models.Dirent{Name: name, Ino: ino, Type: child.Type})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return entries, nil
}

// Rm detaches the name at path from its parent's index. The target inode
// (and, for directories, its entire subtree) stays in the table; no
// emptiness check and no reclamation are performed.
func (ns *Namespace) Rm(path string) error {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: cannot remove %q", ErrInvalidPath, path)
	}
	dir, err := ns.dirAt(parent, path)
	if err != nil {
		return err
	}
	if _, err := dir.Lookup(name); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return dir.RemoveEntry(name)
}

// Stat returns the metadata view of the object at path. Stat("/") describes
// the root directory, which is its own parent.
func (ns *Namespace) Stat(path string) (*models.NodeMeta, error) {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return nil, err
	}

	ino := parent
	parentIno := parent
	if name != "" {
		dir, err := ns.dirAt(parent, path)
		if err != nil {
			return nil, err
		}
		ino, err = dir.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}

	node, err := ns.table.Get(ino)
	if err != nil {
		return nil, err
	}
	return &models.NodeMeta{
		Ino:       ino,
		ParentIno: parentIno,
		Type:      node.Type,
		Mode:      node.Meta.Mode,
		Size:      node.Meta.Size,
	}, nil
}

// resolve walks path from the root and returns the identity of the final
// parent directory plus the last component ("" if path is exactly "/").
// Missing intermediate components are implicitly created as empty
// directories, for every operation.
func (ns *Namespace) resolve(path string) (int64, string, error) {
	if !strings.HasPrefix(path, "/") {
		return 0, "", fmt.Errorf("%w: %q must start with '/'", ErrInvalidPath, path)
	}

	parts := splitPath(path)
	if len(parts) == 0 {
		return RootIno, "", nil
	}

	cur := RootIno
	for _, seg := range parts[:len(parts)-1] {
		dir, err := ns.table.Get(cur)
		if err != nil {
			return 0, "", err
		}
		if dir.Type != models.NodeTypeDir {
			return 0, "", fmt.Errorf("%w: %s", ErrNotDir, seg)
		}

		child, err := dir.Lookup(seg)
		if errors.Is(err, index.ErrKeyNotFound) {
			child = ns.table.Allocate(NewDir(ns.order))
			dir.AddEntry(seg, child)
		}
		cur = child
	}
	return cur, parts[len(parts)-1], nil
}

// dirAt fetches ino and requires it to be a directory.
func (ns *Namespace) dirAt(ino int64, path string) (*Inode, error) {
	node, err := ns.table.Get(ino)
	if err != nil {
		return nil, err
	}
	if node.Type != models.NodeTypeDir {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, path)
	}
	return node, nil
}

// targetDir resolves path and requires the final object to be a directory.
func (ns *Namespace) targetDir(path string) (*Inode, error) {
	parent, name, err := ns.resolve(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return ns.dirAt(RootIno, "/")
	}

	dir, err := ns.dirAt(parent, path)
	if err != nil {
		return nil, err
	}
	ino, err := dir.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	node, err := ns.table.Get(ino)
	if err != nil {
		return nil, err
	}
	switch node.Type {
	case models.NodeTypeDir:
		return node, nil
	case models.NodeTypeFile:
		return nil, fmt.Errorf("%w: %s", ErrNotDir, name)
	default:
		return nil, fmt.Errorf("%w: inode %d has unknown type %d", ErrInvalidIno, ino, node.Type)
	}
}

// splitPath breaks an absolute path into components, dropping empty segments
// the way repeated or trailing slashes produce them.
func splitPath(path string) []string {
	var parts []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

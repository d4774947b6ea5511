package vfs

import (
	"time"

	"github.com/akulagin/indexfs/internal/index"
	"github.com/akulagin/indexfs/internal/models"
)

// Informational permission defaults; never enforced.
const (
	DirMode  uint32 = 0o755
	FileMode uint32 = 0o644
)

// Inode is a filesystem object: a directory owning an ordered name index, or
// a file owning a byte buffer. The variant is fixed at creation and every
// consumer switches exhaustively on Type. Inodes reference each other only by
// identity through the table, never by pointer.
type Inode struct {
	Ino  int64
	Type models.NodeType
	Meta models.Metadata

	children *index.Tree // Type == NodeTypeDir
	content  []byte      // Type == NodeTypeFile
}

// NewDir returns an empty directory inode whose child index uses the given
// B-tree order.
func NewDir(order int) *Inode {
	now := time.Now()
	return &Inode{
		Type: models.NodeTypeDir,
		Meta: models.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			Mode:       DirMode,
		},
		children: index.NewWithOrder(order),
	}
}

// NewDirFromIndex returns a directory inode owning an already-built name
// index, used when restoring a snapshot.
func NewDirFromIndex(tree *index.Tree) *Inode {
	now := time.Now()
	return &Inode{
		Type: models.NodeTypeDir,
		Meta: models.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			Mode:       DirMode,
		},
		children: tree,
	}
}

// NewFile returns a file inode holding a private copy of content.
func NewFile(content []byte) *Inode {
	now := time.Now()
	return &Inode{
		Type: models.NodeTypeFile,
		Meta: models.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			Size:       int64(len(content)),
			Mode:       FileMode,
		},
		content: append([]byte(nil), content...),
	}
}

// Directory operations. Callers must have established Type == NodeTypeDir.

// Lookup resolves a child name to its identity.
func (in *Inode) Lookup(name string) (int64, error) {
	return in.children.Get(name)
}

// AddEntry binds name to the child identity. Name uniqueness is the caller's
// responsibility.
func (in *Inode) AddEntry(name string, ino int64) {
	in.children.Insert(name, ino)
	in.Meta.ModifiedAt = time.Now()
}

// RemoveEntry detaches name from the index. The child inode itself stays in
// the table.
func (in *Inode) RemoveEntry(name string) error {
	if err := in.children.Delete(name); err != nil {
		return err
	}
	in.Meta.ModifiedAt = time.Now()
	return nil
}

// Names returns the index's in-order name sequence.
func (in *Inode) Names() []string {
	return in.children.Keys()
}

// EntryPairs visits every (name, identity) pair stored in the index exactly
// once, in order.
func (in *Inode) EntryPairs(fn func(name string, ino int64) bool) {
	in.children.Items(fn)
}

// Index exposes the directory's name index to the persistence collaborator,
// which must capture and restore its exact node structure.
func (in *Inode) Index() *index.Tree {
	return in.children
}

// File operations. Callers must have established Type == NodeTypeFile.

// Content returns a copy of the file's bytes.
func (in *Inode) Content() []byte {
	return append([]byte(nil), in.content...)
}

// SetContent overwrites the file in place and keeps size and modification
// time consistent.
func (in *Inode) SetContent(data []byte) {
	in.content = append(in.content[:0:0], data...)
	in.Meta.Size = int64(len(data))
	in.Meta.ModifiedAt = time.Now()
}

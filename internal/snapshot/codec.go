// Package snapshot persists a whole namespace and rebuilds it later.
//
// The wire format is a flat dump of the inode table in ascending identity
// order. Directory indices are serialized structurally, node by node, so a
// restored tree has the exact shape of the saved one: retained pivot copies,
// emptied leaves and key reachability all survive a save/load cycle.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/akulagin/indexfs/internal/index"
	"github.com/akulagin/indexfs/internal/models"
	"github.com/akulagin/indexfs/internal/vfs"
)

var magic = [4]byte{'I', 'F', 'S', '2'}

// Encode writes ns to w.
func Encode(w io.Writer, ns *vfs.Namespace) error {
	const op = "snapshot.Encode"

	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(ns.Order())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	table := ns.Table()
	if err := binary.Write(w, binary.LittleEndian, table.NextIno()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := binary.Write(w, binary.LittleEndian, int64(table.Len())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var encodeErr error
	table.Range(func(ino int64, in *vfs.Inode) bool {
		if err := encodeInode(w, ino, in); err != nil {
			encodeErr = err
			return false
		}
		return true
	})
	if encodeErr != nil {
		return fmt.Errorf("%s: %w", op, encodeErr)
	}
	return nil
}

func encodeInode(w io.Writer, ino int64, in *vfs.Inode) error {
	hdr := struct {
		Ino      int64
		Type     uint16
		Mode     uint32
		Created  int64
		Modified int64
		Size     int64
	}{
		Ino:      ino,
		Type:     uint16(in.Type),
		Mode:     in.Meta.Mode,
		Created:  in.Meta.CreatedAt.UnixNano(),
		Modified: in.Meta.ModifiedAt.UnixNano(),
		Size:     in.Meta.Size,
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}

	switch in.Type {
	case models.NodeTypeFile:
		content := in.Content()
		if err := binary.Write(w, binary.LittleEndian, int64(len(content))); err != nil {
			return err
		}
		if _, err := w.Write(content); err != nil {
			return err
		}
	case models.NodeTypeDir:
		if err := encodeIndexNode(w, in.Index().Dump()); err != nil {
			return fmt.Errorf("inode %d: %w", ino, err)
		}
	default:
		return fmt.Errorf("inode %d: unknown type %d", ino, in.Type)
	}
	return nil
}

// Decode rebuilds a namespace from r.
func Decode(r io.Reader) (*vfs.Namespace, error) {
	const op = "snapshot.Decode"

	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if m != magic {
		return nil, fmt.Errorf("%s: bad magic %q", op, m[:])
	}

	var order uint32
	if err := binary.Read(r, binary.LittleEndian, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var next, count int64
	if err := binary.Read(r, binary.LittleEndian, &next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count < 0 || next < count {
		return nil, fmt.Errorf("%s: inconsistent counts next=%d count=%d", op, next, count)
	}

	nodes := make(map[int64]*vfs.Inode, count)
	for i := int64(0); i < count; i++ {
		ino, in, err := decodeInode(r, int(order))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, dup := nodes[ino]; dup {
			return nil, fmt.Errorf("%s: duplicate identity %d", op, ino)
		}
		nodes[ino] = in
	}

	table, err := vfs.RestoreTable(next, nodes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ns, err := vfs.Restore(int(order), table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ns, nil
}

func decodeInode(r io.Reader, order int) (int64, *vfs.Inode, error) {
	var hdr struct {
		Ino      int64
		Type     uint16
		Mode     uint32
		Created  int64
		Modified int64
		Size     int64
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, nil, err
	}

	meta := models.Metadata{
		CreatedAt:  time.Unix(0, hdr.Created),
		ModifiedAt: time.Unix(0, hdr.Modified),
		Size:       hdr.Size,
		Mode:       hdr.Mode,
	}

	switch models.NodeType(hdr.Type) {
	case models.NodeTypeFile:
		var size int64
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return 0, nil, err
		}
		if size < 0 {
			return 0, nil, fmt.Errorf("inode %d: negative content size %d", hdr.Ino, size)
		}
		content := make([]byte, size)
		if _, err := io.ReadFull(r, content); err != nil {
			return 0, nil, err
		}
		in := vfs.NewFile(content)
		in.Meta = meta
		return hdr.Ino, in, nil
	case models.NodeTypeDir:
		dump, err := decodeIndexNode(r, 0)
		if err != nil {
			return 0, nil, fmt.Errorf("inode %d: %w", hdr.Ino, err)
		}
		tree, err := index.FromDump(order, dump)
		if err != nil {
			return 0, nil, fmt.Errorf("inode %d: %w", hdr.Ino, err)
		}
		in := vfs.NewDirFromIndex(tree)
		in.Meta = meta
		return hdr.Ino, in, nil
	default:
		return 0, nil, fmt.Errorf("inode %d: unknown type %d", hdr.Ino, hdr.Type)
	}
}

// maxIndexDepth bounds recursion while decoding index nodes; a real tree of
// this depth would hold far more keys than one directory can.
const maxIndexDepth = 64

// encodeIndexNode writes one index node and, for internal nodes, its whole
// subtree.
func encodeIndexNode(w io.Writer, d *index.NodeDump) error {
	var kind uint8
	if d.Leaf {
		kind = 1
	}
	if err := binary.Write(w, binary.LittleEndian, kind); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, int64(len(d.Keys))); err != nil {
		return err
	}
	for _, key := range d.Keys {
		if len(key) > int(^uint16(0)) {
			return fmt.Errorf("index key too long: %d bytes", len(key))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(key))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, key); err != nil {
			return err
		}
	}

	if d.Leaf {
		for _, val := range d.Vals {
			if err := binary.Write(w, binary.LittleEndian, val); err != nil {
				return err
			}
		}
		return nil
	}

	if err := binary.Write(w, binary.LittleEndian, int64(len(d.Kids))); err != nil {
		return err
	}
	for _, kid := range d.Kids {
		if err := encodeIndexNode(w, kid); err != nil {
			return err
		}
	}
	return nil
}

func decodeIndexNode(r io.Reader, depth int) (*index.NodeDump, error) {
	if depth > maxIndexDepth {
		return nil, fmt.Errorf("index node nesting exceeds %d", maxIndexDepth)
	}

	var kind uint8
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return nil, err
	}
	d := &index.NodeDump{Leaf: kind == 1}

	var keyCount int64
	if err := binary.Read(r, binary.LittleEndian, &keyCount); err != nil {
		return nil, err
	}
	if keyCount < 0 {
		return nil, fmt.Errorf("negative key count %d", keyCount)
	}
	for i := int64(0); i < keyCount; i++ {
		var keyLen uint16
		if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
			return nil, err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, err
		}
		d.Keys = append(d.Keys, string(key))
	}

	if d.Leaf {
		for i := int64(0); i < keyCount; i++ {
			var val int64
			if err := binary.Read(r, binary.LittleEndian, &val); err != nil {
				return nil, err
			}
			d.Vals = append(d.Vals, val)
		}
		return d, nil
	}

	var kidCount int64
	if err := binary.Read(r, binary.LittleEndian, &kidCount); err != nil {
		return nil, err
	}
	if kidCount < 0 {
		return nil, fmt.Errorf("negative child count %d", kidCount)
	}
	for i := int64(0); i < kidCount; i++ {
		kid, err := decodeIndexNode(r, depth+1)
		if err != nil {
			return nil, err
		}
		d.Kids = append(d.Kids, kid)
	}
	return d, nil
}

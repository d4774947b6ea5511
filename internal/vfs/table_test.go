package vfs

import (
	"errors"
	"testing"

	"github.com/akulagin/indexfs/internal/index"
	"github.com/akulagin/indexfs/internal/models"
)

func TestAllocateAndRetrieve(t *testing.T) {
	tbl := NewTable()

	rootIno := tbl.Allocate(NewDir(index.DefaultOrder))
	fileIno := tbl.Allocate(NewFile([]byte("hello")))

	if rootIno != 0 {
		t.Errorf("first identity = %d, want 0", rootIno)
	}
	if fileIno != 1 {
		t.Errorf("second identity = %d, want 1", fileIno)
	}

	root, err := tbl.Get(rootIno)
	if err != nil {
		t.Fatalf("Get(root) error: %v", err)
	}
	if root.Type != models.NodeTypeDir {
		t.Errorf("root type = %v, want dir", root.Type)
	}

	f, err := tbl.Get(fileIno)
	if err != nil {
		t.Fatalf("Get(file) error: %v", err)
	}
	if f.Type != models.NodeTypeFile {
		t.Errorf("file type = %v, want file", f.Type)
	}
	if string(f.Content()) != "hello" {
		t.Errorf("content = %q, want %q", f.Content(), "hello")
	}
}

func TestGetUnallocatedIdentity(t *testing.T) {
	tbl := NewTable()
	tbl.Allocate(NewDir(index.DefaultOrder))

	if _, err := tbl.Get(42); !errors.Is(err, ErrInvalidIno) {
		t.Errorf("Get(42) error = %v, want ErrInvalidIno", err)
	}
}

func TestIdentitiesAreMonotonic(t *testing.T) {
	tbl := NewTable()
	for want := int64(0); want < 100; want++ {
		if got := tbl.Allocate(NewFile(nil)); got != want {
			t.Fatalf("Allocate #%d = %d", want, got)
		}
	}
	if tbl.NextIno() != 100 {
		t.Errorf("NextIno() = %d, want 100", tbl.NextIno())
	}
}

func TestRangeAscending(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 10; i++ {
		tbl.Allocate(NewFile(nil))
	}

	prev := int64(-1)
	tbl.Range(func(ino int64, in *Inode) bool {
		if ino <= prev {
			t.Errorf("Range out of order: %d after %d", ino, prev)
		}
		if in.Ino != ino {
			t.Errorf("inode stamped with %d, stored under %d", in.Ino, ino)
		}
		prev = ino
		return true
	})
	if prev != 9 {
		t.Errorf("Range stopped at %d, want 9", prev)
	}
}

func TestRestoreTable(t *testing.T) {
	nodes := map[int64]*Inode{
		0: NewDir(index.DefaultOrder),
		3: NewFile([]byte("x")),
	}
	tbl, err := RestoreTable(7, nodes)
	if err != nil {
		t.Fatalf("RestoreTable error: %v", err)
	}
	if tbl.NextIno() != 7 {
		t.Errorf("NextIno() = %d, want 7", tbl.NextIno())
	}
	if got := tbl.Allocate(NewFile(nil)); got != 7 {
		t.Errorf("Allocate after restore = %d, want 7", got)
	}

	if _, err := RestoreTable(3, map[int64]*Inode{5: NewFile(nil)}); err == nil {
		t.Error("RestoreTable accepted identity above next identity")
	}
}

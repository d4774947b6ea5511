package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/akulagin/indexfs/internal/index"
	"github.com/akulagin/indexfs/internal/models"
)

func newNS(t *testing.T) *Namespace {
	t.Helper()
	return New(index.DefaultOrder)
}

func TestMkdirThenLs(t *testing.T) {
	ns := newNS(t)

	if err := ns.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	names, err := ns.Ls("/")
	if err != nil {
		t.Fatalf("Ls error: %v", err)
	}
	if diff := cmp.Diff([]string{"docs"}, names); diff != "" {
		t.Errorf("Ls(/) mismatch (-want +got):\n%s", diff)
	}
}

func TestMkdirTwiceFails(t *testing.T) {
	ns := newNS(t)

	if err := ns.Mkdir("/a"); err != nil {
		t.Fatalf("first Mkdir error: %v", err)
	}
	if err := ns.Mkdir("/a"); !errors.Is(err, ErrExists) {
		t.Errorf("second Mkdir error = %v, want ErrExists", err)
	}
}

func TestCreateOverOtherKindFails(t *testing.T) {
	// AlreadyExists is kind-agnostic: a file blocks mkdir and a directory
	// blocks touch.
	ns := newNS(t)

	if err := ns.Touch("/x"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if err := ns.Mkdir("/x"); !errors.Is(err, ErrExists) {
		t.Errorf("Mkdir over file error = %v, want ErrExists", err)
	}

	if err := ns.Mkdir("/y"); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	if err := ns.Touch("/y"); !errors.Is(err, ErrExists) {
		t.Errorf("Touch over dir error = %v, want ErrExists", err)
	}
}

func TestTouchThenReadEmpty(t *testing.T) {
	ns := newNS(t)

	if err := ns.Touch("/empty.txt"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	data, err := ns.Read("/empty.txt")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Read = %q, want empty", data)
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("hi")},
		{"empty", []byte{}},
		{"binary", []byte{0x00, 0xff, 0xfe, 0x01, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := newNS(t)
			if err := ns.Write("/f.bin", tt.data); err != nil {
				t.Fatalf("Write error: %v", err)
			}
			got, err := ns.Read("/f.bin")
			if err != nil {
				t.Fatalf("Read error: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("Read = %v, want %v", got, tt.data)
			}
		})
	}
}

func TestWriteIsIdempotentOnContent(t *testing.T) {
	ns := newNS(t)
	data := []byte("same")

	if err := ns.Write("/f", data); err != nil {
		t.Fatalf("first Write error: %v", err)
	}
	if err := ns.Write("/f", data); err != nil {
		t.Fatalf("second Write error: %v", err)
	}

	got, err := ns.Read("/f")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read = %q, want %q", got, data)
	}
	names, _ := ns.Ls("/")
	if diff := cmp.Diff([]string{"f"}, names); diff != "" {
		t.Errorf("duplicate entry after rewrite (-want +got):\n%s", diff)
	}
}

func TestWriteUpdatesSizeInPlace(t *testing.T) {
	ns := newNS(t)

	if err := ns.Write("/f", []byte("abcdef")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	before, _ := ns.Stat("/f")
	if err := ns.Write("/f", []byte("xy")); err != nil {
		t.Fatalf("rewrite error: %v", err)
	}
	after, _ := ns.Stat("/f")

	if before.Size != 6 || after.Size != 2 {
		t.Errorf("sizes = %d then %d, want 6 then 2", before.Size, after.Size)
	}
	if before.Ino != after.Ino {
		t.Errorf("rewrite reallocated inode: %d -> %d", before.Ino, after.Ino)
	}
}

func TestWriteOntoDirectoryFails(t *testing.T) {
	ns := newNS(t)
	if err := ns.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	if err := ns.Write("/d", []byte("x")); !errors.Is(err, ErrNotDir) {
		t.Errorf("Write onto dir error = %v, want ErrNotDir", err)
	}
}

func TestReadDirectoryFails(t *testing.T) {
	ns := newNS(t)
	if err := ns.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	if _, err := ns.Read("/d"); !errors.Is(err, ErrNotDir) {
		t.Errorf("Read(dir) error = %v, want ErrNotDir", err)
	}
}

func TestImplicitParentCreation(t *testing.T) {
	ns := newNS(t)

	if err := ns.Touch("/a/b/c.txt"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}

	rootNames, err := ns.Ls("/")
	if err != nil {
		t.Fatalf("Ls(/) error: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, rootNames); diff != "" {
		t.Errorf("Ls(/) mismatch (-want +got):\n%s", diff)
	}

	aNames, err := ns.Ls("/a")
	if err != nil {
		t.Fatalf("Ls(/a) error: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, aNames); diff != "" {
		t.Errorf("Ls(/a) mismatch (-want +got):\n%s", diff)
	}

	bNames, err := ns.Ls("/a/b")
	if err != nil {
		t.Fatalf("Ls(/a/b) error: %v", err)
	}
	if diff := cmp.Diff([]string{"c.txt"}, bNames); diff != "" {
		t.Errorf("Ls(/a/b) mismatch (-want +got):\n%s", diff)
	}
}

func TestTraversalThroughFileFails(t *testing.T) {
	ns := newNS(t)
	if err := ns.Touch("/f"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if err := ns.Mkdir("/f/sub"); !errors.Is(err, ErrNotDir) {
		t.Errorf("Mkdir through file error = %v, want ErrNotDir", err)
	}
	if _, err := ns.Read("/f/deeper/x"); !errors.Is(err, ErrNotDir) {
		t.Errorf("Read through file error = %v, want ErrNotDir", err)
	}
}

func TestRelativePathRejected(t *testing.T) {
	ns := newNS(t)
	if err := ns.Mkdir("docs"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Mkdir(relative) error = %v, want ErrInvalidPath", err)
	}
	if _, err := ns.Read(""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Read(empty) error = %v, want ErrInvalidPath", err)
	}
}

func TestRootIsNotCreatableOrRemovable(t *testing.T) {
	ns := newNS(t)
	if err := ns.Mkdir("/"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Mkdir(/) error = %v, want ErrInvalidPath", err)
	}
	if err := ns.Rm("/"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Rm(/) error = %v, want ErrInvalidPath", err)
	}
}

func TestRmThenReadFails(t *testing.T) {
	ns := newNS(t)
	if err := ns.Write("/f", []byte("data")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := ns.Rm("/f"); err != nil {
		t.Fatalf("Rm error: %v", err)
	}
	if _, err := ns.Read("/f"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Rm error = %v, want ErrNotFound", err)
	}
	if err := ns.Rm("/f"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Rm error = %v, want ErrNotFound", err)
	}
}

func TestRmKeepsInodeInTable(t *testing.T) {
	// rm detaches the name only; the table retains the subtree forever and a
	// re-created path gets a fresh identity.
	ns := newNS(t)

	if err := ns.Touch("/dir/leaf"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	allocated := ns.Table().Len()

	if err := ns.Rm("/dir"); err != nil {
		t.Fatalf("Rm error: %v", err)
	}
	if got := ns.Table().Len(); got != allocated {
		t.Errorf("table size after Rm = %d, want %d", got, allocated)
	}

	if err := ns.Mkdir("/dir"); err != nil {
		t.Fatalf("re-Mkdir error: %v", err)
	}
	meta, err := ns.Stat("/dir")
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if meta.Ino != int64(allocated) {
		t.Errorf("re-created ino = %d, want fresh identity %d", meta.Ino, allocated)
	}
}

func TestRmNonEmptyDirectoryIsAllowed(t *testing.T) {
	ns := newNS(t)
	if err := ns.Write("/d/inner.txt", []byte("x")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := ns.Rm("/d"); err != nil {
		t.Errorf("Rm(non-empty dir) error = %v, want nil", err)
	}
	if _, err := ns.Ls("/d"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ls after Rm error = %v, want ErrNotFound", err)
	}
}

func TestLsMissingTarget(t *testing.T) {
	ns := newNS(t)
	if _, err := ns.Ls("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ls(missing) error = %v, want ErrNotFound", err)
	}

	if err := ns.Touch("/f"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if _, err := ns.Ls("/f"); !errors.Is(err, ErrNotDir) {
		t.Errorf("Ls(file) error = %v, want ErrNotDir", err)
	}
}

func TestReadMissingOnFreshNamespace(t *testing.T) {
	ns := newNS(t)
	if _, err := ns.Read("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStat(t *testing.T) {
	ns := newNS(t)
	if err := ns.Write("/docs/hello.txt", []byte("hi")); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	root, err := ns.Stat("/")
	if err != nil {
		t.Fatalf("Stat(/) error: %v", err)
	}
	if root.Ino != RootIno || root.ParentIno != RootIno || root.Type != models.NodeTypeDir {
		t.Errorf("Stat(/) = %+v", root)
	}

	meta, err := ns.Stat("/docs/hello.txt")
	if err != nil {
		t.Fatalf("Stat(file) error: %v", err)
	}
	if meta.Type != models.NodeTypeFile || meta.Size != 2 || meta.Mode != FileMode {
		t.Errorf("Stat(file) = %+v", meta)
	}

	if _, err := ns.Stat("/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat(missing) error = %v, want ErrNotFound", err)
	}
}

func TestEntries(t *testing.T) {
	ns := newNS(t)
	if err := ns.Mkdir("/d/sub"); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	if err := ns.Write("/d/a.txt", []byte("abc")); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	entries, err := ns.Entries("/d")
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Entries returned %d entries, want 2", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[0].Type != models.NodeTypeFile {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Name != "sub" || entries[1].Type != models.NodeTypeDir {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestSessionScenario(t *testing.T) {
	ns := newNS(t)

	if err := ns.Mkdir("/docs"); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	if err := ns.Touch("/docs/hello.txt"); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if err := ns.Write("/docs/hello.txt", []byte("hi")); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	data, err := ns.Read("/docs/hello.txt")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("Read = %q, want %q", data, "hi")
	}

	rootNames, _ := ns.Ls("/")
	if diff := cmp.Diff([]string{"docs"}, rootNames); diff != "" {
		t.Errorf("Ls(/) mismatch (-want +got):\n%s", diff)
	}
	docNames, _ := ns.Ls("/docs")
	if diff := cmp.Diff([]string{"hello.txt"}, docNames); diff != "" {
		t.Errorf("Ls(/docs) mismatch (-want +got):\n%s", diff)
	}
}

func TestBigDirectory(t *testing.T) {
	// Mirrors the directory-scaling check: many files in one directory, all
	// reachable names listed in order. Listing may repeat promoted pivot
	// names once the index splits, so assert the distinct name set.
	ns := newNS(t)
	const n = 2000

	for i := 0; i < n; i++ {
		if err := ns.Touch(fmt.Sprintf("/big/f%05d", i)); err != nil {
			t.Fatalf("Touch #%d error: %v", i, err)
		}
	}

	data, err := ns.Read("/big/f00000")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Read = %q, want empty", data)
	}

	names, err := ns.Ls("/big")
	if err != nil {
		t.Fatalf("Ls error: %v", err)
	}
	distinct := map[string]struct{}{}
	for _, name := range names {
		distinct[name] = struct{}{}
	}
	if len(distinct) != n {
		t.Errorf("Ls(/big) distinct names = %d, want %d", len(distinct), n)
	}

	entries, err := ns.Entries("/big")
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != n {
		t.Errorf("Entries(/big) = %d entries, want %d", len(entries), n)
	}
}

func TestRestoreRejectsBadRoot(t *testing.T) {
	tbl := NewTable()
	tbl.Allocate(NewFile(nil))
	if _, err := Restore(index.DefaultOrder, tbl); err == nil {
		t.Error("Restore accepted a file at identity 0")
	}

	if _, err := Restore(index.DefaultOrder, NewTable()); err == nil {
		t.Error("Restore accepted an empty table")
	}
}

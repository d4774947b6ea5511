package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/akulagin/indexfs/internal/pkg/kerrors"
	"github.com/akulagin/indexfs/internal/snapshot"
	"github.com/akulagin/indexfs/internal/vfs"
)

func newTestService(t *testing.T) (FileSystemService, snapshot.Store) {
	t.Helper()
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "state.bin.gz"), 4)
	return NewFileSystemService(vfs.New(4), store), store
}

func serviceCode(t *testing.T, err error) int64 {
	t.Helper()
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
	return svcErr.Code
}

func TestWriteReadThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Write(ctx, "/docs/hello.txt", []byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := svc.Read(ctx, "/docs/hello.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("read = %q, want %q", data, "hi")
	}

	names, err := svc.List(ctx, "/docs")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"hello.txt"}, names); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorCodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Mkdir(ctx, "/d"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := svc.Touch(ctx, "/f"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	tests := []struct {
		name string
		err  error
		code int64
	}{
		{"relative path", svc.Mkdir(ctx, "relative"), kerrors.EINVAL},
		{"duplicate dir", svc.Mkdir(ctx, "/d"), kerrors.EEXIST},
		{"missing file", func() error { _, err := svc.Read(ctx, "/nope"); return err }(), kerrors.ENOENT},
		{"read a dir", func() error { _, err := svc.Read(ctx, "/d"); return err }(), kerrors.ENOTDIR},
		{"list a file", func() error { _, err := svc.List(ctx, "/f"); return err }(), kerrors.ENOTDIR},
		{"remove missing", svc.Remove(ctx, "/nope"), kerrors.ENOENT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("expected an error")
			}
			if got := serviceCode(t, tt.err); got != tt.code {
				t.Errorf("code = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestStatThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Write(ctx, "/a/f", []byte("abc")); err != nil {
		t.Fatalf("write: %v", err)
	}
	meta, err := svc.Stat(ctx, "/a/f")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if meta.Size != 3 {
		t.Errorf("size = %d, want 3", meta.Size)
	}

	dirents, err := svc.Entries(ctx, "/a")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(dirents) != 1 || dirents[0].Name != "f" || dirents[0].Ino != meta.Ino {
		t.Errorf("entries = %+v, want one entry f/%d", dirents, meta.Ino)
	}
}

func TestSavePersistsState(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Write(ctx, "/keep", []byte("v1")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := svc.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	ns, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data, err := ns.Read("/keep")
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(data) != "v1" {
		t.Errorf("read = %q, want %q", data, "v1")
	}
}

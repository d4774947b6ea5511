package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"

	"github.com/akulagin/indexfs/internal/vfs"
	"github.com/akulagin/indexfs/pkg/database/postgresql"
)

// Store loads and saves whole-namespace snapshots.
type Store interface {
	Load(ctx context.Context) (*vfs.Namespace, error)
	Save(ctx context.Context, ns *vfs.Namespace) error
}

// fileStore keeps the snapshot in a single gzip-compressed file.
type fileStore struct {
	path  string
	order int
}

func NewFileStore(path string, order int) Store {
	return &fileStore{path: path, order: order}
}

// Load reads the snapshot file. A missing file is not an error: it means a
// first run, so a fresh namespace is returned.
func (s *fileStore) Load(_ context.Context) (*vfs.Namespace, error) {
	const op = "snapshot.fileStore.Load"

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return vfs.New(s.order), nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer zr.Close()

	ns, err := Decode(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ns, nil
}

// Save writes to a temporary file and renames it over the target, so a crash
// mid-write never clobbers the previous snapshot.
func (s *fileStore) Save(_ context.Context, ns *vfs.Namespace) error {
	const op = "snapshot.fileStore.Save"

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := Encode(zw, ns); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// postgresStore keeps one snapshot blob per name in a snapshots table.
type postgresStore struct {
	db    postgresql.Client
	name  string
	order int
}

func NewPostgresStore(ctx context.Context, db postgresql.Client, name string, order int) (Store, error) {
	const op = "snapshot.NewPostgresStore"

	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			name TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := db.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &postgresStore{db: db, name: name, order: order}, nil
}

func (s *postgresStore) Load(ctx context.Context) (*vfs.Namespace, error) {
	const op = "snapshot.postgresStore.Load"

	query := `
		SELECT data
		FROM snapshots
		WHERE name = $1
	`

	var data []byte
	db := postgresql.GetDBClient(ctx, s.db)
	err := db.QueryRow(ctx, query, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vfs.New(s.order), nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ns, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ns, nil
}

func (s *postgresStore) Save(ctx context.Context, ns *vfs.Namespace) error {
	const op = "snapshot.postgresStore.Save"

	var buf bytes.Buffer
	if err := Encode(&buf, ns); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		query := `
			INSERT INTO snapshots (name, data, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name)
			DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		`
		db := postgresql.GetDBClient(txCtx, s.db)
		_, err := db.Exec(txCtx, query, s.name, buf.Bytes())
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/akulagin/indexfs/internal/models"
	"github.com/akulagin/indexfs/internal/pkg/kerrors"
	"github.com/akulagin/indexfs/internal/snapshot"
	"github.com/akulagin/indexfs/internal/vfs"
	"github.com/akulagin/indexfs/pkg/logging"
	"github.com/akulagin/indexfs/pkg/logging/slogext"
)

type FileSystemService interface {
	Mkdir(ctx context.Context, path string) error
	Touch(ctx context.Context, path string) error
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, path string) ([]string, error)
	Entries(ctx context.Context, path string) ([]models.Dirent, error)
	Remove(ctx context.Context, path string) error
	Stat(ctx context.Context, path string) (*models.NodeMeta, error)
	Save(ctx context.Context) error
}

// fileSystemService serializes all namespace access behind a single mutex.
// The namespace itself is not safe for concurrent use.
type fileSystemService struct {
	mu    sync.Mutex
	ns    *vfs.Namespace
	store snapshot.Store
}

func NewFileSystemService(ns *vfs.Namespace, store snapshot.Store) FileSystemService {
	return &fileSystemService{ns: ns, store: store}
}

func (s *fileSystemService) Mkdir(ctx context.Context, path string) error {
	const op = "service.fileSystemService.Mkdir"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Mkdir", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ns.Mkdir(path); err != nil {
		logger.Debug("Mkdir failed", slogext.Err(err), slog.String("path", path))
		return mapError(op, err)
	}

	logger.Debug("Mkdir successful", slog.String("path", path))
	return nil
}

func (s *fileSystemService) Touch(ctx context.Context, path string) error {
	const op = "service.fileSystemService.Touch"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Touch", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ns.Touch(path); err != nil {
		logger.Debug("Touch failed", slogext.Err(err), slog.String("path", path))
		return mapError(op, err)
	}

	logger.Debug("Touch successful", slog.String("path", path))
	return nil
}

func (s *fileSystemService) Write(ctx context.Context, path string, data []byte) error {
	const op = "service.fileSystemService.Write"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Write", slog.String("path", path), slog.Int("length", len(data)))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ns.Write(path, data); err != nil {
		logger.Debug("Write failed", slogext.Err(err), slog.String("path", path))
		return mapError(op, err)
	}

	logger.Debug("Write successful", slog.String("path", path), slog.Int("length", len(data)))
	return nil
}

func (s *fileSystemService) Read(ctx context.Context, path string) ([]byte, error) {
	const op = "service.fileSystemService.Read"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Read", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.ns.Read(path)
	if err != nil {
		logger.Debug("Read failed", slogext.Err(err), slog.String("path", path))
		return nil, mapError(op, err)
	}

	logger.Debug("Read successful", slog.String("path", path), slog.Int("length", len(data)))
	return data, nil
}

func (s *fileSystemService) List(ctx context.Context, path string) ([]string, error) {
	const op = "service.fileSystemService.List"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("List", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.ns.Ls(path)
	if err != nil {
		logger.Debug("List failed", slogext.Err(err), slog.String("path", path))
		return nil, mapError(op, err)
	}

	logger.Debug("List successful", slog.String("path", path), slog.Int("entries", len(names)))
	return names, nil
}

func (s *fileSystemService) Entries(ctx context.Context, path string) ([]models.Dirent, error) {
	const op = "service.fileSystemService.Entries"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Entries", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	dirents, err := s.ns.Entries(path)
	if err != nil {
		logger.Debug("Entries failed", slogext.Err(err), slog.String("path", path))
		return nil, mapError(op, err)
	}

	logger.Debug("Entries successful", slog.String("path", path), slog.Int("entries", len(dirents)))
	return dirents, nil
}

func (s *fileSystemService) Remove(ctx context.Context, path string) error {
	const op = "service.fileSystemService.Remove"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Remove", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ns.Rm(path); err != nil {
		logger.Debug("Remove failed", slogext.Err(err), slog.String("path", path))
		return mapError(op, err)
	}

	logger.Debug("Remove successful", slog.String("path", path))
	return nil
}

func (s *fileSystemService) Stat(ctx context.Context, path string) (*models.NodeMeta, error) {
	const op = "service.fileSystemService.Stat"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Stat", slog.String("path", path))

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.ns.Stat(path)
	if err != nil {
		logger.Debug("Stat failed", slogext.Err(err), slog.String("path", path))
		return nil, mapError(op, err)
	}

	logger.Debug("Stat successful",
		slog.String("path", path),
		slog.Int64("ino", meta.Ino),
		slog.String("type", meta.Type.String()),
	)
	return meta, nil
}

func (s *fileSystemService) Save(ctx context.Context) error {
	const op = "service.fileSystemService.Save"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Save")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, s.ns); err != nil {
		logger.Error("Failed to save snapshot", slogext.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug("Save successful")
	return nil
}

// mapError translates namespace sentinels into ServiceError codes. Anything
// unrecognized is an internal fault and stays wrapped.
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, vfs.ErrInvalidPath):
		return &ServiceError{Code: kerrors.EINVAL, Message: err.Error()}
	case errors.Is(err, vfs.ErrExists):
		return &ServiceError{Code: kerrors.EEXIST, Message: err.Error()}
	case errors.Is(err, vfs.ErrNotFound):
		return &ServiceError{Code: kerrors.ENOENT, Message: err.Error()}
	case errors.Is(err, vfs.ErrNotDir):
		return &ServiceError{Code: kerrors.ENOTDIR, Message: err.Error()}
	case errors.Is(err, vfs.ErrInvalidIno):
		return &ServiceError{Code: kerrors.ENOMEM, Message: err.Error()}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type ServiceError struct {
	Code    int64
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) GetCode() int64 {
	return e.Code
}

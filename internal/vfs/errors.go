package vfs

import "errors"

// Error taxonomy of the namespace. Every public operation fails with exactly
// one of these kinds, wrapped with path context; callers classify with
// errors.Is.
var (
	// ErrInvalidPath reports a path that does not start with '/', or an
	// operation that targets "/" itself where that is not meaningful.
	ErrInvalidPath = errors.New("invalid path")

	// ErrExists reports a creation attempt on an occupied name, regardless
	// of the existing object's kind.
	ErrExists = errors.New("already exists")

	// ErrNotFound reports a read/remove/list on a name absent from its
	// parent's index.
	ErrNotFound = errors.New("not found")

	// ErrNotDir is the coarse type-mismatch signal: a traversal component or
	// an operation target turned out to be the wrong kind.
	ErrNotDir = errors.New("not a directory")

	// ErrInvalidIno reports an identity present in a directory index but
	// missing from the inode table. It is never user-triggerable; observing
	// it means the namespace is corrupted.
	ErrInvalidIno = errors.New("invalid inode identity")
)

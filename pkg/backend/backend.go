// Package backend abstracts the storage media that synchronization jobs
// mutate. A Backend performs file and directory operations against one
// medium (local disk, in-memory staging) behind a uniform contract: the
// mutating operations never raise on ordinary failure, they log a
// categorized message and report success as a bool, so one failed file
// never aborts a whole run.
package backend

import (
	"fmt"
	"io"
	"log"
	"os"

	apperrors "github.com/joe/batchsync/pkg/errors"
)

// Exported constants.
const (
	// ChunkSize is the buffer size for chunked file copies (256 KiB).
	ChunkSize = 256 * 1024
)

// unexported constants.
const (
	defaultDirPerm = 0o750
	ownerWrite     = 0o200
)

// ProgressFunc receives copy progress after every chunk written.
// total is the source file's length; current is the cumulative number of
// bytes written so far, monotonically non-decreasing within one copy.
type ProgressFunc func(total, current int64)

// Source is the narrow read capability every backend satisfies. Copies read
// through Source, so the bytes may come from a different backend than the
// one performing the write.
type Source interface {
	// OpenReadStream opens the file for shared read-only access.
	// The caller owns the stream and must close it.
	OpenReadStream(file FileHandle) (io.ReadCloser, error)

	// FileSize returns the file's length in bytes.
	FileSize(file FileHandle) (int64, error)
}

// Backend identifies one storage medium and performs operations against it.
//
// DeleteFile, CreateDirectory, DeleteDirectory, and CopyFile are total:
// any access, permission, or I/O failure is logged with its category and
// reported as false, never raised. The backend holds no cross-call state;
// two operations targeting the same path concurrently have undefined
// interleaving.
type Backend interface {
	Source

	// Name identifies the medium for display and logging.
	Name() string

	// ResolveFile returns a file handle for path. The path does not have
	// to exist; existence is only observed through the handle or explicit
	// checks.
	ResolveFile(path string) FileHandle

	// ResolveDirectory returns a directory handle for path. The path does
	// not have to exist.
	ResolveDirectory(path string) DirHandle

	// FileExists reports whether path names an existing regular file.
	FileExists(path string) bool

	// DirectoryExists reports whether path names an existing directory.
	DirectoryExists(path string) bool

	// ReadDir lists the immediate children of path.
	ReadDir(path string) ([]os.FileInfo, error)

	// Stat returns file information for path.
	Stat(path string) (os.FileInfo, error)

	// Join joins path elements with the medium's separator.
	Join(elem ...string) string

	// DeleteFile clears any read-only mode bit, then deletes the file.
	DeleteFile(file FileHandle) bool

	// CreateDirectory creates a child directory under target named after
	// source. The source handle may belong to any backend; only its name
	// is read.
	CreateDirectory(source, target DirHandle) bool

	// DeleteDirectory removes the directory and everything beneath it.
	DeleteDirectory(dir DirHandle) bool

	// CopyFile copies file from source into targetDir on this backend,
	// invoking onProgress after every chunk written. A destination left
	// partially written by a failure is deleted before false is returned.
	// targetDir must belong to this backend; a cross-backend target is a
	// caller bug and panics.
	CopyFile(source Source, file FileHandle, targetDir DirHandle, onProgress ProgressFunc) bool
}

// mustOwn panics when a write-target handle belongs to a different backend.
// That is a programming error in the caller, not an environment failure, so
// it is not converted into a logged false result.
func mustOwn(b Backend, dir DirHandle) {
	owner := dir.Backend()
	if owner == nil {
		panic(fmt.Sprintf("backend %s: write target %q has no backend", b.Name(), dir.Path()))
	}

	if owner != b {
		panic(fmt.Sprintf("backend %s: write target %q belongs to backend %s",
			b.Name(), dir.Path(), owner.Name()))
	}
}

// logErr logs a categorized operation failure for paths that return the
// error to the caller.
func logErr(logger *log.Logger, op, path string, err error) {
	logger.Printf("%s [%s]: %s: %v", op, apperrors.Classify(err), path, err)
}

// failOp logs a categorized operation failure and reports it as a false
// result, keeping access failures from escaping as raised faults.
func failOp(logger *log.Logger, op, path string, err error) bool {
	logErr(logger, op, path, err)
	return false
}

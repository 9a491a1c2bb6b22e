package backend

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Local is a Backend over the machine's own filesystem.
type Local struct {
	log *log.Logger
}

// NewLocal creates a local-disk backend. A nil logger defaults to stderr
// with a "[local]" prefix.
func NewLocal(logger *log.Logger) *Local {
	if logger == nil {
		logger = log.New(os.Stderr, "[local] ", log.LstdFlags)
	}

	return &Local{log: logger}
}

// Name identifies the medium.
func (l *Local) Name() string { return "local" }

// ResolveFile returns a lazily backed file handle for path.
func (l *Local) ResolveFile(path string) FileHandle {
	return NewFileHandle(l, path)
}

// ResolveDirectory returns a lazily backed directory handle for path.
func (l *Local) ResolveDirectory(path string) DirHandle {
	return NewDirHandle(l, path)
}

// FileExists reports whether path names an existing regular file.
func (l *Local) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists reports whether path names an existing directory.
func (l *Local) DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// OpenReadStream opens the file for shared read-only access.
func (l *Local) OpenReadStream(file FileHandle) (io.ReadCloser, error) {
	f, err := os.Open(file.Path()) // #nosec G304 - paths come from resolved handles
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Path(), err)
	}

	return f, nil
}

// FileSize returns the file's length in bytes.
func (l *Local) FileSize(file FileHandle) (int64, error) {
	info, err := os.Stat(file.Path())
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", file.Path(), err)
	}

	return info.Size(), nil
}

// ReadDir lists the immediate children of path. Failures are logged as well
// as returned, so handle listings that swallow the error still leave a trace.
func (l *Local) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		err = fmt.Errorf("read dir %s: %w", path, err)
		logErr(l.log, "list directory", path, err)

		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(entries))

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", path, err)
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// Stat returns file information for path.
func (l *Local) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return info, nil
}

// Join joins path elements with the OS separator.
func (l *Local) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// DeleteFile clears any read-only mode bit, then deletes the file.
// Failures are logged with their category and reported as false.
func (l *Local) DeleteFile(file FileHandle) bool {
	path := file.Path()

	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&ownerWrite == 0 {
		if err := os.Chmod(path, info.Mode().Perm()|ownerWrite); err != nil {
			return failOp(l.log, "delete file", path, err)
		}
	}

	if err := os.Remove(path); err != nil {
		return failOp(l.log, "delete file", path, err)
	}

	return true
}

// CreateDirectory creates a child of target named after source.
func (l *Local) CreateDirectory(source, target DirHandle) bool {
	path := l.Join(target.Path(), source.Name())

	if err := os.MkdirAll(path, defaultDirPerm); err != nil {
		return failOp(l.log, "create directory", path, err)
	}

	return true
}

// DeleteDirectory removes dir and everything beneath it.
func (l *Local) DeleteDirectory(dir DirHandle) bool {
	path := dir.Path()

	// RemoveAll treats a missing root as success; the contract reports it.
	if !l.DirectoryExists(path) {
		return failOp(l.log, "delete directory", path, os.ErrNotExist)
	}

	if err := os.RemoveAll(path); err != nil {
		return failOp(l.log, "delete directory", path, err)
	}

	return true
}

// CopyFile copies file from source into targetDir on this backend in
// ChunkSize pieces, reporting progress after every chunk. A partially
// written destination is deleted before the failure is reported.
func (l *Local) CopyFile(source Source, file FileHandle, targetDir DirHandle, onProgress ProgressFunc) bool {
	mustOwn(l, targetDir)

	total, err := source.FileSize(file)
	if err != nil {
		return failOp(l.log, "copy file", file.Path(), err)
	}

	src, err := source.OpenReadStream(file)
	if err != nil {
		return failOp(l.log, "copy file", file.Path(), err)
	}

	defer func() {
		_ = src.Close()
	}()

	dstPath := l.Join(targetDir.Path(), file.Name())

	dst, err := os.Create(dstPath) // #nosec G304 - paths come from resolved handles
	if err != nil {
		return failOp(l.log, "copy file", dstPath, err)
	}

	copyCompleted := false

	defer func() {
		_ = dst.Close()
		if !copyCompleted {
			_ = os.Remove(dstPath)
		}
	}()

	if err := copyChunks(src, dst, total, onProgress); err != nil {
		return failOp(l.log, "copy file", dstPath, err)
	}

	if err := dst.Close(); err != nil {
		return failOp(l.log, "copy file", dstPath, err)
	}

	copyCompleted = true

	return true
}

package backend

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Billy is a Backend over any billy.Filesystem, which lets jobs target
// in-memory trees and chrooted directories with the same code paths as
// the local disk.
type Billy struct {
	name string
	fs   billy.Filesystem
	log  *log.Logger
}

// NewBilly wraps fsys as a backend named name. A nil logger defaults to
// stderr with the backend name as prefix.
func NewBilly(name string, fsys billy.Filesystem, logger *log.Logger) *Billy {
	if logger == nil {
		logger = log.New(os.Stderr, "["+name+"] ", log.LstdFlags)
	}

	return &Billy{name: name, fs: fsys, log: logger}
}

// NewMemory creates a backend over a fresh in-memory filesystem.
func NewMemory(logger *log.Logger) *Billy {
	return NewBilly("memory", memfs.New(), logger)
}

// NewOS creates a backend chrooted at dir on the local disk.
func NewOS(dir string, logger *log.Logger) *Billy {
	return NewBilly("os:"+dir, osfs.New(dir), logger)
}

// Name identifies the medium.
func (b *Billy) Name() string { return b.name }

// ResolveFile returns a lazily backed file handle for path.
func (b *Billy) ResolveFile(path string) FileHandle {
	return NewFileHandle(b, path)
}

// ResolveDirectory returns a lazily backed directory handle for path.
func (b *Billy) ResolveDirectory(path string) DirHandle {
	return NewDirHandle(b, path)
}

// FileExists reports whether path names an existing regular file.
func (b *Billy) FileExists(path string) bool {
	info, err := b.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists reports whether path names an existing directory.
func (b *Billy) DirectoryExists(path string) bool {
	info, err := b.fs.Stat(path)
	return err == nil && info.IsDir()
}

// OpenReadStream opens the file for read-only access.
func (b *Billy) OpenReadStream(file FileHandle) (io.ReadCloser, error) {
	f, err := b.fs.Open(file.Path())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Path(), err)
	}

	return f, nil
}

// FileSize returns the file's length in bytes.
func (b *Billy) FileSize(file FileHandle) (int64, error) {
	info, err := b.fs.Stat(file.Path())
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", file.Path(), err)
	}

	return info.Size(), nil
}

// ReadDir lists the immediate children of path. Failures are logged as well
// as returned, so handle listings that swallow the error still leave a trace.
func (b *Billy) ReadDir(path string) ([]os.FileInfo, error) {
	infos, err := b.fs.ReadDir(path)
	if err != nil {
		err = fmt.Errorf("read dir %s: %w", path, err)
		logErr(b.log, "list directory", path, err)

		return nil, err
	}

	return infos, nil
}

// Stat returns file information for path.
func (b *Billy) Stat(path string) (os.FileInfo, error) {
	info, err := b.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return info, nil
}

// Join joins path elements with the filesystem's separator.
func (b *Billy) Join(elem ...string) string {
	return b.fs.Join(elem...)
}

// DeleteFile clears any read-only mode bit when the filesystem supports
// permission changes, then deletes the file.
func (b *Billy) DeleteFile(file FileHandle) bool {
	path := file.Path()

	if ch, ok := b.fs.(billy.Change); ok {
		if info, err := b.fs.Stat(path); err == nil && info.Mode().Perm()&ownerWrite == 0 {
			if err := ch.Chmod(path, info.Mode().Perm()|ownerWrite); err != nil {
				return failOp(b.log, "delete file", path, err)
			}
		}
	}

	if err := b.fs.Remove(path); err != nil {
		return failOp(b.log, "delete file", path, err)
	}

	return true
}

// CreateDirectory creates a child of target named after source.
func (b *Billy) CreateDirectory(source, target DirHandle) bool {
	path := b.Join(target.Path(), source.Name())

	if err := b.fs.MkdirAll(path, defaultDirPerm); err != nil {
		return failOp(b.log, "create directory", path, err)
	}

	return true
}

// DeleteDirectory removes dir and everything beneath it.
func (b *Billy) DeleteDirectory(dir DirHandle) bool {
	path := dir.Path()

	if !b.DirectoryExists(path) {
		return failOp(b.log, "delete directory", path, os.ErrNotExist)
	}

	if err := util.RemoveAll(b.fs, path); err != nil {
		return failOp(b.log, "delete directory", path, err)
	}

	return true
}

// CopyFile copies file from source into targetDir on this backend in
// ChunkSize pieces, reporting progress after every chunk. A partially
// written destination is deleted before the failure is reported.
func (b *Billy) CopyFile(source Source, file FileHandle, targetDir DirHandle, onProgress ProgressFunc) bool {
	mustOwn(b, targetDir)

	total, err := source.FileSize(file)
	if err != nil {
		return failOp(b.log, "copy file", file.Path(), err)
	}

	src, err := source.OpenReadStream(file)
	if err != nil {
		return failOp(b.log, "copy file", file.Path(), err)
	}

	defer func() {
		_ = src.Close()
	}()

	dstPath := b.Join(targetDir.Path(), file.Name())

	dst, err := b.fs.Create(dstPath)
	if err != nil {
		return failOp(b.log, "copy file", dstPath, err)
	}

	copyCompleted := false

	defer func() {
		_ = dst.Close()
		if !copyCompleted {
			_ = b.fs.Remove(dstPath)
		}
	}()

	if err := copyChunks(src, dst, total, onProgress); err != nil {
		return failOp(b.log, "copy file", dstPath, err)
	}

	if err := dst.Close(); err != nil {
		return failOp(b.log, "copy file", dstPath, err)
	}

	copyCompleted = true

	return true
}

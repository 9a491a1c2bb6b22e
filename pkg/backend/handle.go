package backend

import "path/filepath"

// FileHandle is a lightweight value identifying a file path on a specific
// backend. Handles are lazily backed: constructing one for a non-existent
// path is not an error. A handle owns no resource; opening a stream from it
// is a separate, explicitly scoped operation.
type FileHandle struct {
	backend Backend
	path    string
}

// NewFileHandle builds a file handle on the given backend. Backend
// implementations call this from ResolveFile.
func NewFileHandle(b Backend, path string) FileHandle {
	return FileHandle{backend: b, path: path}
}

// Backend returns the backend the handle belongs to.
func (h FileHandle) Backend() Backend { return h.backend }

// Path returns the full path.
func (h FileHandle) Path() string { return h.path }

// Name returns the final path element.
func (h FileHandle) Name() string { return filepath.Base(h.path) }

// Exists reports whether the file currently exists.
func (h FileHandle) Exists() bool {
	return h.backend != nil && h.backend.FileExists(h.path)
}

// Size returns the file's length in bytes, or 0 when it cannot be
// determined.
func (h FileHandle) Size() int64 {
	if h.backend == nil {
		return 0
	}

	size, err := h.backend.FileSize(h)
	if err != nil {
		return 0
	}

	return size
}

// DirHandle is a lightweight value identifying a directory path on a
// specific backend. Like FileHandle, it is lazily backed.
type DirHandle struct {
	backend Backend
	path    string
}

// NewDirHandle builds a directory handle on the given backend. Backend
// implementations call this from ResolveDirectory.
func NewDirHandle(b Backend, path string) DirHandle {
	return DirHandle{backend: b, path: path}
}

// Backend returns the backend the handle belongs to.
func (h DirHandle) Backend() Backend { return h.backend }

// Path returns the full path.
func (h DirHandle) Path() string { return h.path }

// Name returns the final path element.
func (h DirHandle) Name() string { return filepath.Base(h.path) }

// Exists reports whether the directory currently exists.
func (h DirHandle) Exists() bool {
	return h.backend != nil && h.backend.DirectoryExists(h.path)
}

// Parent returns the handle of the containing directory.
func (h DirHandle) Parent() DirHandle {
	return DirHandle{backend: h.backend, path: filepath.Dir(h.path)}
}

// Files returns the directory's immediate child files. A listing failure
// yields an empty slice; callers that need the failure use Backend.ReadDir.
func (h DirHandle) Files() []FileHandle {
	if h.backend == nil {
		return nil
	}

	infos, err := h.backend.ReadDir(h.path)
	if err != nil {
		return nil
	}

	var files []FileHandle

	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		files = append(files, NewFileHandle(h.backend, h.backend.Join(h.path, info.Name())))
	}

	return files
}

// Dirs returns the directory's immediate child directories. A listing
// failure yields an empty slice.
func (h DirHandle) Dirs() []DirHandle {
	if h.backend == nil {
		return nil
	}

	infos, err := h.backend.ReadDir(h.path)
	if err != nil {
		return nil
	}

	var dirs []DirHandle

	for _, info := range infos {
		if !info.IsDir() {
			continue
		}

		dirs = append(dirs, NewDirHandle(h.backend, h.backend.Join(h.path, info.Name())))
	}

	return dirs
}

package backend

import (
	"os"

	"github.com/kr/fs"
)

// walkFS adapts a Backend to the walker's filesystem interface.
type walkFS struct {
	b Backend
}

func (w walkFS) ReadDir(dirname string) ([]os.FileInfo, error) { return w.b.ReadDir(dirname) }
func (w walkFS) Lstat(name string) (os.FileInfo, error)        { return w.b.Stat(name) }
func (w walkFS) Join(elem ...string) string                    { return w.b.Join(elem...) }

// Walk returns a depth-first walker over root on b. Callers drive it
// with Step and check Err after each step.
func Walk(b Backend, root string) *fs.Walker {
	return fs.WalkFS(root, walkFS{b: b})
}

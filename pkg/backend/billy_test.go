package backend_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchsync/pkg/backend"
	"github.com/joe/batchsync/pkg/backend/backendtest"
)

func memoryEnv(t *testing.T) *backendtest.Env {
	t.Helper()

	fsys := memfs.New()

	return &backendtest.Env{
		Backend: backend.NewBilly("memory", fsys, testLogger()),
		Root:    "/",
		WriteFile: func(path string, data []byte) {
			t.Helper()

			if err := util.WriteFile(fsys, path, data, 0o600); err != nil {
				t.Fatalf("write fixture %s: %v", path, err)
			}
		},
	}
}

func osEnv(t *testing.T) *backendtest.Env {
	t.Helper()

	dir := t.TempDir()

	return &backendtest.Env{
		Backend: backend.NewOS(dir, testLogger()),
		Root:    "/",
		WriteFile: func(path string, data []byte) {
			t.Helper()

			full := filepath.Join(dir, path)
			if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
				t.Fatalf("mkdir for fixture %s: %v", path, err)
			}

			if err := os.WriteFile(full, data, 0o600); err != nil {
				t.Fatalf("write fixture %s: %v", path, err)
			}
		},
	}
}

func TestMemoryConformance(t *testing.T) {
	t.Parallel()
	backendtest.Suite(t, memoryEnv)
}

func TestOSConformance(t *testing.T) {
	t.Parallel()
	backendtest.Suite(t, osEnv)
}

func TestCopyFileAcrossBackends(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	srcDir := t.TempDir()
	local := backend.NewLocal(testLogger())
	mem := backend.NewMemory(testLogger())

	content := make([]byte, backend.ChunkSize+512)
	for i := range content {
		content[i] = byte(i % 201)
	}

	srcPath := filepath.Join(srcDir, "ship.bin")
	g.Expect(os.WriteFile(srcPath, content, 0o600)).To(Succeed())

	// Local disk to memory: the read goes through the source backend,
	// the write through the target backend.
	var progress [][2]int64

	ok := mem.CopyFile(local, local.ResolveFile(srcPath), mem.ResolveDirectory("/landed"),
		func(total, current int64) {
			progress = append(progress, [2]int64{total, current})
		})
	g.Expect(ok).To(BeTrue())

	stream, err := mem.OpenReadStream(mem.ResolveFile("/landed/ship.bin"))
	g.Expect(err).ShouldNot(HaveOccurred())

	landed, err := io.ReadAll(stream)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(stream.Close()).To(Succeed())
	g.Expect(bytes.Equal(landed, content)).To(BeTrue())

	g.Expect(len(progress)).To(BeNumerically(">=", 2))
	g.Expect(progress[len(progress)-1]).To(Equal([2]int64{int64(len(content)), int64(len(content))}))

	// And back: memory to local disk.
	returnDir := local.ResolveDirectory(t.TempDir())
	g.Expect(local.CopyFile(mem, mem.ResolveFile("/landed/ship.bin"), returnDir, nil)).To(BeTrue())

	returned, err := os.ReadFile(filepath.Join(returnDir.Path(), "ship.bin"))
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(bytes.Equal(returned, content)).To(BeTrue())
}

// shortWriteFS fails every write past a byte budget, standing in for a
// medium that runs out of space mid-copy.
type shortWriteFS struct {
	billy.Filesystem
	budget int
}

func (f *shortWriteFS) Create(name string) (billy.File, error) {
	file, err := f.Filesystem.Create(name)
	if err != nil {
		return nil, err
	}

	return &shortWriteFile{File: file, fs: f}, nil
}

var errNoSpace = errors.New("no space left on device")

type shortWriteFile struct {
	billy.File
	fs *shortWriteFS
}

func (f *shortWriteFile) Write(p []byte) (int, error) {
	if len(p) <= f.fs.budget {
		f.fs.budget -= len(p)
		return f.File.Write(p)
	}

	n, err := f.File.Write(p[:f.fs.budget])
	f.fs.budget = 0

	if err != nil {
		return n, err
	}

	return n, errNoSpace
}

func TestBillyCopyFileRemovesPartialDestinationOnWriteFailure(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := &shortWriteFS{Filesystem: memfs.New(), budget: 100}
	b := backend.NewBilly("cramped", fsys, testLogger())

	content := make([]byte, 500)
	for i := range content {
		content[i] = byte(i)
	}

	g.Expect(util.WriteFile(fsys.Filesystem, "/src/big.bin", content, 0o600)).To(Succeed())

	ok := b.CopyFile(b, b.ResolveFile("/src/big.bin"), b.ResolveDirectory("/dst"), nil)

	g.Expect(ok).To(BeFalse(), "a write failure is reported, not raised")
	g.Expect(b.FileExists("/dst/big.bin")).To(BeFalse(),
		"the 100 bytes that landed are cleaned up before the failure is reported")
}

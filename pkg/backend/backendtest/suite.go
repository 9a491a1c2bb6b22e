// Package backendtest provides a conformance suite for Backend
// implementations.
//
// Implementation packages import it from their own tests and hand it a
// factory that builds a fresh, empty backend per subtest:
//
//	func TestLocalConformance(t *testing.T) {
//	    backendtest.Suite(t, func(t *testing.T) *backendtest.Env { ... })
//	}
//
// The suite exercises the operation contracts shared by every medium:
// lazy handles, existence checks, deletion results, chunked copies with
// progress reporting, and the cross-backend write guard.
package backendtest

import (
	"bytes"
	"io"
	"sort"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchsync/pkg/backend"
)

// Env is one backend under test plus the out-of-band fixture helpers the
// suite needs.
type Env struct {
	// Backend is the implementation under test.
	Backend backend.Backend

	// Root is an existing, empty, writable directory on Backend.
	Root string

	// WriteFile creates a file with the given content, creating parent
	// directories as needed. It must bypass Backend so fixtures do not
	// depend on the operations under test.
	WriteFile func(path string, data []byte)
}

// Factory returns a fresh Env. The suite calls it once per subtest, so
// state never leaks between cases.
type Factory func(t *testing.T) *Env

type progressRecord struct {
	total   int64
	current int64
}

// Suite runs the conformance tests against backends built by newEnv.
func Suite(t *testing.T, newEnv Factory) {
	t.Helper()

	t.Run("ResolveIsLazy", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		path := b.Join(env.Root, "ghost.txt")
		file := b.ResolveFile(path)
		g.Expect(file.Exists()).To(BeFalse(), "resolving a missing path is not an error")
		g.Expect(file.Name()).To(Equal("ghost.txt"))
		g.Expect(file.Path()).To(Equal(path))

		env.WriteFile(path, []byte("now real"))
		g.Expect(file.Exists()).To(BeTrue(), "handles reflect current state, not resolve-time state")
		g.Expect(file.Size()).To(Equal(int64(len("now real"))))

		dir := b.ResolveDirectory(b.Join(env.Root, "ghostdir"))
		g.Expect(dir.Exists()).To(BeFalse())
		g.Expect(dir.Name()).To(Equal("ghostdir"))
		g.Expect(dir.Parent().Path()).To(Equal(env.Root))
	})

	t.Run("ExistenceChecks", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		filePath := b.Join(env.Root, "data", "a.txt")
		dirPath := b.Join(env.Root, "data")
		env.WriteFile(filePath, []byte("a"))

		g.Expect(b.FileExists(filePath)).To(BeTrue())
		g.Expect(b.FileExists(dirPath)).To(BeFalse(), "a directory is not a file")
		g.Expect(b.DirectoryExists(dirPath)).To(BeTrue())
		g.Expect(b.DirectoryExists(filePath)).To(BeFalse(), "a file is not a directory")
		g.Expect(b.FileExists(b.Join(env.Root, "missing"))).To(BeFalse())
		g.Expect(b.DirectoryExists(b.Join(env.Root, "missing"))).To(BeFalse())
	})

	t.Run("CreateDirectory", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		source := b.ResolveDirectory(b.Join(env.Root, "incoming", "photos"))
		target := b.ResolveDirectory(b.Join(env.Root, "mirror"))

		g.Expect(b.CreateDirectory(source, target)).To(BeTrue())
		g.Expect(b.DirectoryExists(b.Join(env.Root, "mirror", "photos"))).To(BeTrue(),
			"the created child is named after the source directory")
	})

	t.Run("DeleteFile", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		path := b.Join(env.Root, "doomed.txt")
		env.WriteFile(path, []byte("bye"))

		g.Expect(b.DeleteFile(b.ResolveFile(path))).To(BeTrue())
		g.Expect(b.FileExists(path)).To(BeFalse())
	})

	t.Run("DeleteFileMissing", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		missing := b.ResolveFile(b.Join(env.Root, "never.txt"))
		g.Expect(b.DeleteFile(missing)).To(BeFalse(), "deletion failures report false rather than raising")
	})

	t.Run("DeleteDirectoryRecursive", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		env.WriteFile(b.Join(env.Root, "tree", "sub", "deep.txt"), []byte("x"))
		env.WriteFile(b.Join(env.Root, "tree", "top.txt"), []byte("y"))

		dir := b.ResolveDirectory(b.Join(env.Root, "tree"))
		g.Expect(b.DeleteDirectory(dir)).To(BeTrue())
		g.Expect(b.DirectoryExists(dir.Path())).To(BeFalse())
		g.Expect(b.FileExists(b.Join(env.Root, "tree", "top.txt"))).To(BeFalse())
	})

	t.Run("DeleteDirectoryMissing", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		missing := b.ResolveDirectory(b.Join(env.Root, "absent"))
		g.Expect(b.DeleteDirectory(missing)).To(BeFalse(),
			"a missing directory is a reported failure, not a silent success")
	})

	t.Run("CopyFileRoundTrip", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		// Two full chunks plus a short tail, so progress fires mid-copy.
		content := make([]byte, 2*backend.ChunkSize+17)
		for i := range content {
			content[i] = byte(i % 251)
		}

		srcPath := b.Join(env.Root, "src", "payload.bin")
		env.WriteFile(srcPath, content)

		file := b.ResolveFile(srcPath)
		targetDir := b.ResolveDirectory(b.Join(env.Root, "dst"))
		env.WriteFile(b.Join(env.Root, "dst", ".keep"), nil)

		var progress []progressRecord

		ok := b.CopyFile(b, file, targetDir, func(total, current int64) {
			progress = append(progress, progressRecord{total: total, current: current})
		})
		g.Expect(ok).To(BeTrue())

		dstPath := b.Join(env.Root, "dst", "payload.bin")
		g.Expect(b.FileExists(dstPath)).To(BeTrue())

		stream, err := b.OpenReadStream(b.ResolveFile(dstPath))
		g.Expect(err).ShouldNot(HaveOccurred())

		defer func() {
			_ = stream.Close()
		}()

		copied, err := io.ReadAll(stream)
		g.Expect(err).ShouldNot(HaveOccurred())
		g.Expect(bytes.Equal(copied, content)).To(BeTrue(), "destination bytes must match the source exactly")

		g.Expect(len(progress)).To(BeNumerically(">=", 3),
			"a three-chunk copy reports progress at least once per chunk")
		g.Expect(progress[len(progress)-1].current).To(Equal(int64(len(content))))

		var prev int64
		for _, p := range progress {
			g.Expect(p.total).To(Equal(int64(len(content))), "every report carries the full source length")
			g.Expect(p.current).To(BeNumerically(">=", prev), "written byte counts never go backwards")
			prev = p.current
		}
	})

	t.Run("CopyFileNilProgress", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		srcPath := b.Join(env.Root, "small.txt")
		env.WriteFile(srcPath, []byte("tiny"))
		env.WriteFile(b.Join(env.Root, "out", ".keep"), nil)

		targetDir := b.ResolveDirectory(b.Join(env.Root, "out"))
		g.Expect(b.CopyFile(b, b.ResolveFile(srcPath), targetDir, nil)).To(BeTrue())
		g.Expect(b.FileExists(b.Join(env.Root, "out", "small.txt"))).To(BeTrue())
	})

	t.Run("CopyFileMissingSource", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		env.WriteFile(b.Join(env.Root, "dst", ".keep"), nil)
		targetDir := b.ResolveDirectory(b.Join(env.Root, "dst"))
		missing := b.ResolveFile(b.Join(env.Root, "nope.bin"))

		g.Expect(b.CopyFile(b, missing, targetDir, nil)).To(BeFalse())
		g.Expect(b.FileExists(b.Join(env.Root, "dst", "nope.bin"))).To(BeFalse())
	})

	t.Run("CopyRejectsForeignTarget", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		srcPath := b.Join(env.Root, "a.txt")
		env.WriteFile(srcPath, []byte("a"))

		foreign := backend.NewMemory(nil)
		foreignDir := foreign.ResolveDirectory("/elsewhere")

		g.Expect(func() {
			b.CopyFile(b, b.ResolveFile(srcPath), foreignDir, nil)
		}).To(Panic(), "writing through another backend's handle is a caller bug")
	})

	t.Run("ListChildren", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		env.WriteFile(b.Join(env.Root, "box", "one.txt"), []byte("1"))
		env.WriteFile(b.Join(env.Root, "box", "two.txt"), []byte("2"))
		env.WriteFile(b.Join(env.Root, "box", "inner", "three.txt"), []byte("3"))

		dir := b.ResolveDirectory(b.Join(env.Root, "box"))

		var fileNames []string
		for _, f := range dir.Files() {
			fileNames = append(fileNames, f.Name())
		}

		sort.Strings(fileNames)
		g.Expect(fileNames).To(Equal([]string{"one.txt", "two.txt"}))

		dirs := dir.Dirs()
		g.Expect(dirs).To(HaveLen(1))
		g.Expect(dirs[0].Name()).To(Equal("inner"))
		g.Expect(dirs[0].Parent().Path()).To(Equal(dir.Path()))
	})

	t.Run("Walk", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		env.WriteFile(b.Join(env.Root, "w", "a.txt"), []byte("a"))
		env.WriteFile(b.Join(env.Root, "w", "sub", "b.txt"), []byte("b"))

		var names []string

		walker := backend.Walk(b, b.Join(env.Root, "w"))
		for walker.Step() {
			g.Expect(walker.Err()).ShouldNot(HaveOccurred())

			if walker.Stat().IsDir() {
				continue
			}

			names = append(names, walker.Stat().Name())
		}

		sort.Strings(names)
		g.Expect(names).To(Equal([]string{"a.txt", "b.txt"}))
	})

	t.Run("OpenReadStreamMissing", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := newEnv(t)
		b := env.Backend

		_, err := b.OpenReadStream(b.ResolveFile(b.Join(env.Root, "void.txt")))
		g.Expect(err).Should(HaveOccurred())
	})
}

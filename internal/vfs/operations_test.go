package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOps(t *testing.T, opts Options) *Ops {
	t.Helper()
	ops, err := NewOps(t.TempDir(), zap.NewNop(), opts)
	require.NoError(t, err)
	return ops
}

func TestWriteReadRoundTrip(t *testing.T) {
	ops := newTestOps(t, Options{})

	entry, err := ops.Write("docs/note.txt", Text("hello volume"), true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("docs", "note.txt"), entry.Path)
	assert.Equal(t, int64(len("hello volume")), entry.Size)

	payload, class, err := ops.Read("docs/note.txt")
	require.NoError(t, err)
	assert.False(t, payload.IsBinary())
	assert.Equal(t, "hello volume", payload.String())
	assert.Equal(t, "text/plain", class.MIME)
}

func TestWriteReadHTML(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.Write("page.html", Text("<html></html>"), false)
	require.NoError(t, err)

	payload, class, err := ops.Read("page.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", payload.String())
	assert.Equal(t, "text/html", class.MIME)
	assert.False(t, class.Binary)
}

func TestWriteBinaryRoundTrip(t *testing.T) {
	ops := newTestOps(t, Options{})

	content := []byte{0x00, 0x01, 0xff, 0xfe, 0x7f}
	_, err := ops.Write("blob.bin", Binary(content), false)
	require.NoError(t, err)

	payload, class, err := ops.Read("blob.bin")
	require.NoError(t, err)
	assert.True(t, payload.IsBinary())
	assert.True(t, class.Binary)
	assert.Equal(t, content, payload.Bytes())
}

func TestWriteWithoutParents(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.Write("missing/dir/file.txt", Text("x"), false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteOverwritesAtomically(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.Write("f.txt", Text("old"), false)
	require.NoError(t, err)
	_, err = ops.Write("f.txt", Text("new"), false)
	require.NoError(t, err)

	payload, _, err := ops.Read("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", payload.String())

	// No temp files left behind.
	entries, err := os.ReadDir(ops.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteToDirectory(t *testing.T) {
	ops := newTestOps(t, Options{})
	require.NoError(t, ops.Mkdir("d"))

	_, err := ops.Write("d", Text("x"), false)
	assert.ErrorIs(t, err, ErrIsDir)
}

func TestWriteTraversalRejected(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.Write("../escape.txt", Text("x"), false)
	assert.ErrorIs(t, err, ErrTraversal)

	_, err = ops.Write("../escape.txt", Text("x"), true)
	assert.ErrorIs(t, err, ErrTraversal)
}

func TestWriteAllowedExtensions(t *testing.T) {
	ops := newTestOps(t, Options{AllowedExtensions: []string{"txt", ".MD"}})

	_, err := ops.Write("ok.txt", Text("x"), false)
	assert.NoError(t, err)
	_, err = ops.Write("ok.md", Text("x"), false)
	assert.NoError(t, err)

	_, err = ops.Write("bad.exe", Text("x"), false)
	assert.ErrorIs(t, err, ErrPermission)
}

func TestReadMissing(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, _, err := ops.Read("nope.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadDirectory(t *testing.T) {
	ops := newTestOps(t, Options{})
	require.NoError(t, ops.Mkdir("d"))

	_, _, err := ops.Read("d")
	assert.ErrorIs(t, err, ErrIsDir)
}

func TestReadSizeLimit(t *testing.T) {
	ops := newTestOps(t, Options{MaxReadBytes: 4})

	_, err := ops.Write("big.txt", Text("exceeds the cap"), false)
	require.NoError(t, err)

	_, _, err = ops.Read("big.txt")
	assert.ErrorIs(t, err, ErrIO)
}

func TestReadInvalidUTF8(t *testing.T) {
	ops := newTestOps(t, Options{})

	// Classified as text by extension but not valid UTF-8.
	_, err := ops.Write("bad.txt", Binary([]byte{0xff, 0xfe, 0xfd}), false)
	require.NoError(t, err)

	_, _, err = ops.Read("bad.txt")
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestListSortsDirectoriesFirst(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.Write("a.txt", Text("a"), false)
	require.NoError(t, err)
	require.NoError(t, ops.Mkdir("z"))
	require.NoError(t, ops.Mkdir("b"))

	entries, err := ops.List("")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Name)
	assert.Equal(t, KindDirectory, entries[0].Kind)
	assert.Equal(t, "z", entries[1].Name)
	assert.Equal(t, "a.txt", entries[2].Name)
	assert.Equal(t, KindFile, entries[2].Kind)
}

func TestListNonDirectory(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("f.txt", Text("x"), false)
	require.NoError(t, err)

	_, err = ops.List("f.txt")
	assert.ErrorIs(t, err, ErrNotDir)
}

func TestListTraversalRejected(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.List("../..")
	assert.ErrorIs(t, err, ErrTraversal)
}

func TestDeleteFile(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("f.txt", Text("x"), false)
	require.NoError(t, err)

	require.NoError(t, ops.Delete("f.txt"))

	_, err = ops.Stat("f.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTree(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("a/b/c.txt", Text("x"), true)
	require.NoError(t, err)
	_, err = ops.Write("a/d.txt", Text("y"), true)
	require.NoError(t, err)

	require.NoError(t, ops.Delete("a"))

	_, err = ops.Stat("a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRootRefused(t *testing.T) {
	ops := newTestOps(t, Options{})

	assert.ErrorIs(t, ops.Delete(""), ErrPermission)
	assert.ErrorIs(t, ops.Delete("/"), ErrPermission)
}

func TestDeleteUnlinksSymlinkWithoutFollowing(t *testing.T) {
	ops := newTestOps(t, Options{})

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "keep.txt"), []byte("k"), 0o644))
	require.NoError(t, ops.Mkdir("d"))
	require.NoError(t, os.Symlink(outside, filepath.Join(ops.Root(), "d", "link")))

	require.NoError(t, ops.Delete("d"))

	// The link target survives untouched.
	_, err := os.Stat(filepath.Join(outside, "keep.txt"))
	assert.NoError(t, err)
}

func TestMkdirIdempotent(t *testing.T) {
	ops := newTestOps(t, Options{})

	require.NoError(t, ops.Mkdir("a/b/c"))
	require.NoError(t, ops.Mkdir("a/b/c"))

	entry, err := ops.Stat("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, entry.Kind)
}

func TestMkdirOverFile(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("f.txt", Text("x"), false)
	require.NoError(t, err)

	assert.ErrorIs(t, ops.Mkdir("f.txt"), ErrExists)
}

func TestStatFile(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("doc.md", Text("# title"), false)
	require.NoError(t, err)

	entry, err := ops.Stat("doc.md")
	require.NoError(t, err)
	assert.Equal(t, "doc.md", entry.Name)
	assert.Equal(t, KindFile, entry.Kind)
	assert.Equal(t, "text/markdown", entry.MIMEType)
	assert.False(t, entry.IsBinary)
	assert.False(t, entry.Modified.IsZero())
}

func TestExists(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("f.txt", Text("x"), false)
	require.NoError(t, err)

	exists, err := ops.Exists("f.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = ops.Exists("nope.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = ops.Exists("../etc")
	assert.ErrorIs(t, err, ErrTraversal)
}

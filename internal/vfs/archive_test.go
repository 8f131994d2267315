package vfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipGunzipRoundTrip(t *testing.T) {
	ops := newTestOps(t, Options{})

	original := strings.Repeat("compressible line of text\n", 200)
	_, err := ops.Write("notes.txt", Text(original), false)
	require.NoError(t, err)

	compressed, err := ops.Gzip("notes.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt.gz", compressed.Path)
	assert.Less(t, compressed.Size, int64(len(original)))

	restored, err := ops.Gunzip("notes.txt.gz", "restored.txt")
	require.NoError(t, err)
	assert.Equal(t, "restored.txt", restored.Path)

	payload, _, err := ops.Read("restored.txt")
	require.NoError(t, err)
	assert.Equal(t, original, payload.String())
}

func TestGunzipDefaultName(t *testing.T) {
	ops := newTestOps(t, Options{})

	_, err := ops.Write("data.txt", Text("payload"), false)
	require.NoError(t, err)
	_, err = ops.Gzip("data.txt", "")
	require.NoError(t, err)

	require.NoError(t, ops.Delete("data.txt"))
	restored, err := ops.Gunzip("data.txt.gz", "")
	require.NoError(t, err)
	assert.Equal(t, "data.txt", restored.Path)
}

func TestGunzipRequiresDerivableName(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("plain.txt", Text("x"), false)
	require.NoError(t, err)

	_, err = ops.Gunzip("plain.txt", "")
	assert.ErrorIs(t, err, ErrIO)
}

func TestGzipDirectory(t *testing.T) {
	ops := newTestOps(t, Options{})
	require.NoError(t, ops.Mkdir("d"))

	_, err := ops.Gzip("d", "")
	assert.ErrorIs(t, err, ErrIsDir)
}

func TestGunzipBoundedOutput(t *testing.T) {
	ops := newTestOps(t, Options{MaxReadBytes: 64})

	// Compresses far below the limit, expands far above it.
	_, err := ops.Write("bomb.txt", Text(strings.Repeat("a", 4096)), false)
	require.NoError(t, err)
	_, err = ops.Gzip("bomb.txt", "")
	require.NoError(t, err)

	_, err = ops.Gunzip("bomb.txt.gz", "out.txt")
	assert.Error(t, err)
}

func TestGzipTraversalRejected(t *testing.T) {
	ops := newTestOps(t, Options{})
	_, err := ops.Write("f.txt", Text("x"), false)
	require.NoError(t, err)

	_, err = ops.Gzip("f.txt", "../out.gz")
	assert.ErrorIs(t, err, ErrTraversal)
}

//go:build unix

package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AOSIP/platform-art/internal/layout"
)

func TestReserveCommitWrite(t *testing.T) {
	m, err := Reserve("test", 4*layout.PageSize, 0)
	require.NoError(t, err)
	defer m.Release()

	require.Equal(t, 4*layout.PageSize, m.Size())
	require.NotZero(t, m.Begin())
	require.Equal(t, m.Begin()+uintptr(m.Size()), m.End())

	require.NoError(t, m.Commit(0, layout.PageSize))
	b := m.Slice(0, layout.PageSize)
	b[0] = 0xAB
	b[layout.PageSize-1] = 0xCD
	require.Equal(t, byte(0xAB), m.Bytes()[0])
}

func TestReserveRoundsUpToPage(t *testing.T) {
	m, err := Reserve("test", 100, 0)
	require.NoError(t, err)
	defer m.Release()
	require.Equal(t, layout.PageSize, m.Size())
}

func TestReserveRejectsBadLength(t *testing.T) {
	_, err := Reserve("test", 0, 0)
	require.ErrorIs(t, err, ErrBadLength)
	_, err = Reserve("test", -4096, 0)
	require.ErrorIs(t, err, ErrBadLength)
}

func TestDecommitZeroesOnRecommit(t *testing.T) {
	m, err := Reserve("test", 2*layout.PageSize, 0)
	require.NoError(t, err)
	defer m.Release()

	require.NoError(t, m.Commit(0, 2*layout.PageSize))
	m.Bytes()[123] = 0xFF

	require.NoError(t, m.Decommit(layout.PageSize, layout.PageSize))
	require.NoError(t, m.Commit(layout.PageSize, layout.PageSize))

	// first page untouched, decommitted page reads back zero
	require.Equal(t, byte(0xFF), m.Bytes()[123])
	require.Equal(t, byte(0), m.Bytes()[layout.PageSize+7])
}

func TestCommitRejectsUnalignedRange(t *testing.T) {
	m, err := Reserve("test", 2*layout.PageSize, 0)
	require.NoError(t, err)
	defer m.Release()

	require.Error(t, m.Commit(100, layout.PageSize))
	require.Error(t, m.Commit(0, 100))
	require.Error(t, m.Commit(0, 3*layout.PageSize))
}

func TestSplit(t *testing.T) {
	m, err := Reserve("head", 4*layout.PageSize, 0)
	require.NoError(t, err)

	tail, err := m.Split(layout.PageSize, "tail")
	require.NoError(t, err)

	require.Equal(t, layout.PageSize, m.Size())
	require.Equal(t, 3*layout.PageSize, tail.Size())
	require.Equal(t, m.End(), tail.Begin())
	require.Equal(t, "tail", tail.Name())

	// both halves stay independently usable and releasable
	require.NoError(t, m.Commit(0, layout.PageSize))
	require.NoError(t, tail.Commit(0, layout.PageSize))
	m.Bytes()[0] = 1
	tail.Bytes()[0] = 2

	require.NoError(t, tail.Release())
	require.NoError(t, m.Release())
}

func TestSplitRejectsBadOffset(t *testing.T) {
	m, err := Reserve("test", 4*layout.PageSize, 0)
	require.NoError(t, err)
	defer m.Release()

	_, err = m.Split(0, "tail")
	require.ErrorIs(t, err, ErrBadSplit)
	_, err = m.Split(4*layout.PageSize, "tail")
	require.ErrorIs(t, err, ErrBadSplit)
	_, err = m.Split(100, "tail")
	require.ErrorIs(t, err, ErrBadSplit)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	content := []byte("managed heap image bytes")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m, err := OpenFile("blob", path)
	require.NoError(t, err)
	defer m.Release()

	require.Equal(t, len(content), m.Size())
	require.Equal(t, content, m.Bytes())

	// read-only view refuses mutation entry points
	require.ErrorIs(t, m.Commit(0, 0), ErrReadOnly)
	_, err = m.Split(layout.PageSize, "x")
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile("nope", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestOpenFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := OpenFile("empty", path)
	require.Error(t, err)
}

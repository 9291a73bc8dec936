package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AOSIP/platform-art/internal/layout"
)

func buildTestImage(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	b := NewBuilder()
	for _, p := range payloads {
		b.Add(p)
	}
	return b.Bytes()
}

func TestBuilderRoundTrip(t *testing.T) {
	data := buildTestImage(t,
		[]byte("first object"),
		[]byte("second"),
		[]byte("third, somewhat longer object payload"),
	)

	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint32(Version), h.Version())
	require.Equal(t, 3, h.ObjectCount())
	require.Equal(t, len(data), h.DataSize())
	require.NoError(t, h.Validate(len(data)))

	offs, err := ReadObjectTable(data, h)
	require.NoError(t, err)
	require.Len(t, offs, 3)
	require.Equal(t, []byte("first object"), data[offs[0]:offs[0]+12])
	require.Equal(t, []byte("second"), data[offs[1]:offs[1]+6])
	for _, off := range offs {
		require.True(t, layout.WordAligned(uintptr(off)))
	}
}

func TestBuilderSetRoot(t *testing.T) {
	b := NewBuilder()
	b.Add([]byte("a"))
	b.Add([]byte("b"))
	require.Error(t, b.SetRoot(2))
	require.NoError(t, b.SetRoot(1))

	h, err := ParseHeader(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, h.RootIndex())
}

func TestBuilderEmptyImage(t *testing.T) {
	data := NewBuilder().Bytes()
	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, 0, h.ObjectCount())
	require.NoError(t, h.Validate(len(data)))

	offs, err := ReadObjectTable(data, h)
	require.NoError(t, err)
	require.Empty(t, offs)
}

func TestParseHeaderBadMagic(t *testing.T) {
	data := buildTestImage(t, []byte("obj"))
	data[0] = 'X'
	_, err := ParseHeader(data)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestParseHeaderVersionMismatch(t *testing.T) {
	data := buildTestImage(t, []byte("obj"))
	layout.PutU32(data, versionOffset, Version+1)
	_, err := ParseHeader(data)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestParseHeaderTruncated(t *testing.T) {
	_, err := ParseHeader(make([]byte, 10))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestValidateDeclaredSizeBeyondFile(t *testing.T) {
	data := buildTestImage(t, []byte("obj"))
	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.ErrorIs(t, h.Validate(len(data)-8), ErrTruncated)
}

func TestReadObjectTableCorruption(t *testing.T) {
	base := buildTestImage(t, []byte("aaaaaaaa"), []byte("bbbbbbbb"))
	h, err := ParseHeader(base)
	require.NoError(t, err)
	offs, err := ReadObjectTable(base, h)
	require.NoError(t, err)

	t.Run("out of bounds", func(t *testing.T) {
		data := append([]byte(nil), base...)
		layout.PutU32(data, h.TableOffset(), uint32(h.DataSize()+8))
		_, err := ReadObjectTable(data, parseHeaderOK(t, data))
		require.ErrorIs(t, err, ErrCorruptTable)
	})

	t.Run("unaligned", func(t *testing.T) {
		data := append([]byte(nil), base...)
		layout.PutU32(data, h.TableOffset(), uint32(offs[0]+3))
		_, err := ReadObjectTable(data, parseHeaderOK(t, data))
		require.ErrorIs(t, err, ErrCorruptTable)
	})

	t.Run("not ascending", func(t *testing.T) {
		data := append([]byte(nil), base...)
		layout.PutU32(data, h.TableOffset()+4, uint32(offs[0]))
		_, err := ReadObjectTable(data, parseHeaderOK(t, data))
		require.ErrorIs(t, err, ErrCorruptTable)
	})
}

// parseHeaderOK parses a header that is expected to be well-formed.
func parseHeaderOK(t *testing.T, data []byte) *Header {
	t.Helper()
	h, err := ParseHeader(data)
	require.NoError(t, err)
	return h
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.img")
	b := NewBuilder()
	b.Add([]byte("object"))
	require.NoError(t, b.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, b.Bytes(), data)
}

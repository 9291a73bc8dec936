package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlignWord(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 0},
		{1, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{4095, 4096},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AlignWord(c.in), "AlignWord(%d)", c.in)
	}
}

func TestAlignPage(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 0},
		{1, 4096},
		{4096, 4096},
		{4097, 8192},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AlignPage(c.in), "AlignPage(%d)", c.in)
	}
}

func TestAlignedPredicates(t *testing.T) {
	require.True(t, WordAligned(0))
	require.True(t, WordAligned(16))
	require.False(t, WordAligned(12))

	require.True(t, PageAligned(0))
	require.True(t, PageAligned(8192))
	require.False(t, PageAligned(4100))
}

func TestEncodingRoundTrip(t *testing.T) {
	b := make([]byte, 16)

	PutU32(b, 0, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), ReadU32(b, 0))
	// little-endian on the wire
	require.Equal(t, byte(0xEF), b[0])

	PutU64(b, 8, 0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), ReadU64(b, 8))
	require.Equal(t, byte(0x08), b[8])
}

package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AOSIP/platform-art/internal/layout"
)

const testBase = uintptr(0x70000000)

func TestSetTestClear(t *testing.T) {
	b := New("live", testBase, 4096)

	addr := testBase + 128
	require.False(t, b.Test(addr))

	b.Set(addr)
	require.True(t, b.Test(addr))
	require.Equal(t, 1, b.Count())

	b.Clear(addr)
	require.False(t, b.Test(addr))
	require.Equal(t, 0, b.Count())
}

func TestTestOutsideRangeIsFalse(t *testing.T) {
	b := New("live", testBase, 4096)
	require.False(t, b.Test(testBase-layout.WordSize))
	require.False(t, b.Test(testBase+4096))
	require.False(t, b.Test(0))
}

func TestSetOutsideRangePanics(t *testing.T) {
	b := New("live", testBase, 4096)
	require.Panics(t, func() { b.Set(testBase + 4096) })
	require.Panics(t, func() { b.Set(testBase + 3) }) // unaligned
}

func TestNewUnalignedBasePanics(t *testing.T) {
	require.Panics(t, func() { New("live", testBase+1, 4096) })
}

func TestWalkAscending(t *testing.T) {
	b := New("live", testBase, 1<<16)

	want := []uintptr{
		testBase,
		testBase + 8,
		testBase + 512,
		testBase + 4096,
		testBase + 1<<16 - 8,
	}
	// set out of order
	for _, i := range []int{3, 0, 4, 2, 1} {
		b.Set(want[i])
	}

	var got []uintptr
	b.Walk(func(addr uintptr) { got = append(got, addr) })
	require.Equal(t, want, got)
}

func TestReset(t *testing.T) {
	b := New("mark", testBase, 4096)
	for off := 0; off < 4096; off += 64 {
		b.Set(testBase + uintptr(off))
	}
	require.Equal(t, 64, b.Count())

	b.Reset()
	require.Equal(t, 0, b.Count())
	require.False(t, b.Test(testBase))
}

func TestSizeRoundsUpToWord(t *testing.T) {
	b := New("live", testBase, 5)
	require.Equal(t, layout.WordSize, b.HeapSize())
	require.True(t, b.HasAddress(testBase))
	require.False(t, b.HasAddress(testBase+8))
}

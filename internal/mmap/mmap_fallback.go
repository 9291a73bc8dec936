//go:build !unix

package mmap

import (
	"fmt"
	"io"
	"os"
)

// sysReserve allocates a heap buffer standing in for a reservation. There is
// no page protection on this path; Commit and Decommit degrade to
// bookkeeping (plus zeroing, so decommitted pages still read back as zero).
func sysReserve(length int, _ uintptr) ([]byte, error) {
	return make([]byte, length), nil
}

// sysMapFile reads the file at path into memory.
func sysMapFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("mmap: empty file: %s", path)
	}
	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func sysCommit(_ []byte) error { return nil }

func sysDecommit(b []byte) error {
	clear(b)
	return nil
}

func sysDontNeed(b []byte) error {
	clear(b)
	return nil
}

func sysRelease(_ []byte, _ bool) error { return nil }

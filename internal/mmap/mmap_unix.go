//go:build unix

package mmap

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sysReserve creates an anonymous PROT_NONE mapping of length bytes.
// requestedBase is passed to the kernel as a placement hint (never MAP_FIXED),
// so the grant may land anywhere; callers re-query Begin on the result.
//
// MmapPtr is used instead of unix.Mmap because reservations are released with
// MunmapPtr, which accepts the page-aligned sub-ranges produced by Split.
func sysReserve(length int, requestedBase uintptr) ([]byte, error) {
	var hint unsafe.Pointer
	if requestedBase != 0 {
		hint = unsafe.Pointer(requestedBase) //nolint:govet // OS placement hint, not a Go pointer
	}
	p, err := unix.MmapPtr(-1, 0, hint, uintptr(length),
		unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(p), length), nil
}

// sysMapFile maps the file at path read-only.
func sysMapFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("mmap: empty file: %s", path)
	}
	if size > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("mmap: file too large to map (%d bytes)", size)
	}
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
}

func sysCommit(b []byte) error {
	return unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE)
}

func sysDecommit(b []byte) error {
	if err := unix.Madvise(b, unix.MADV_DONTNEED); err != nil {
		return err
	}
	return unix.Mprotect(b, unix.PROT_NONE)
}

func sysDontNeed(b []byte) error {
	return unix.Madvise(b, unix.MADV_DONTNEED)
}

func sysRelease(b []byte, readOnly bool) error {
	if readOnly {
		// File mappings come from unix.Mmap and are never split.
		err := unix.Munmap(b)
		if err == unix.EINVAL {
			return nil
		}
		return err
	}
	return unix.MunmapPtr(unsafe.Pointer(&b[0]), uintptr(len(b)))
}

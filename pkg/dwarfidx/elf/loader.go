package elf

import (
	"os"

	"golang.org/x/sys/unix"
)

// Mapping owns a private-writable mmap of one ELF file. Private so that
// relocation fixups never reach the file on disk, copy-on-write keeps
// every mutation local to this process. Grounded on the DataDog dyninst
// object loader's mmap-then-parse shape among the retrieved examples;
// the teacher's own llvm.ParseBinaryFile reads the whole file into a byte
// slice via debug/elf and cannot satisfy the in-place relocation
// requirement of spec.md §4.1.
type Mapping struct {
	Path  string
	Bytes []byte
}

// Load opens path read-only, stats it, and maps it MAP_PRIVATE with
// PROT_READ|PROT_WRITE. Open, stat and mmap failures are *OSError values
// preserving the underlying errno and path per spec.md §4.1; an empty file
// is rejected with a *FormatError before mapping.
func Load(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, osErrorf(path, "open", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, osErrorf(path, "fstat", err)
	}

	size := info.Size()
	if size == 0 {
		return nil, formatErrorf(path, "empty file")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, osErrorf(path, "mmap", err)
	}

	return &Mapping{Path: path, Bytes: data}, nil
}

// Close unmaps the region. Safe to call more than once: calls after the
// first do nothing and return nil. The index calls it when
// tearing down a file, per spec.md §5's release order (abbrev buffers,
// then CU vectors, then unmap).
func (m *Mapping) Close() error {
	if m.Bytes == nil {
		return nil
	}
	err := unix.Munmap(m.Bytes)
	m.Bytes = nil
	if err != nil {
		return osErrorf(m.Path, "munmap", err)
	}
	return nil
}

// Package elf provides the minimal 64-bit little-endian ELF mechanics
// dwarfidx needs: section discovery and in-place relocation of debug
// sections. It is not a general-purpose ELF reader; it only understands
// enough of the format to locate .symtab, .debug_abbrev, .debug_info,
// .debug_str and their paired .rela sections.
package elf

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel wrapped by every structural ELF problem:
// bad magic, wrong class/endianness, section headers outside the file,
// a missing required section, and so on.
var ErrFormat = errors.New("elf: format error")

// ErrUnsupported is the sentinel wrapped when the input uses a feature
// this package intentionally does not implement (32-bit ELF, big-endian
// ELF data, relocation types other than X86_64 NONE/32/64).
var ErrUnsupported = errors.New("elf: unsupported feature")

// ErrOS is the sentinel wrapped around I/O failures (open/fstat/mmap).
var ErrOS = errors.New("elf: os error")

// FormatError reports a structural ELF problem, wrapping ErrFormat.
type FormatError struct {
	Path string
	msg  string
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return "elf: " + e.Path + ": " + e.msg
	}
	return "elf: " + e.msg
}

func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErrorf(path string, format string, args ...any) error {
	return &FormatError{Path: path, msg: fmt.Sprintf(format, args...)}
}

// UnsupportedError reports a recognized-but-unsupported ELF feature,
// wrapping ErrUnsupported.
type UnsupportedError struct {
	Path string
	msg  string
}

func (e *UnsupportedError) Error() string {
	if e.Path != "" {
		return "elf: " + e.Path + ": " + e.msg
	}
	return "elf: " + e.msg
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func unsupportedErrorf(path string, format string, args ...any) error {
	return &UnsupportedError{Path: path, msg: fmt.Sprintf(format, args...)}
}

// OSError wraps an I/O failure, preserving the underlying errno-bearing
// error and the offending path, per spec.md §4.1 ("Failure to open/stat/map
// fails with an OS-error kind preserving errno and the filename").
type OSError struct {
	Path string
	Op   string
	Err  error
}

func (e *OSError) Error() string {
	return "elf: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OSError) Unwrap() error { return errors.Join(ErrOS, e.Err) }

func osErrorf(path, op string, err error) error {
	return &OSError{Path: path, Op: op, Err: err}
}

// Package dwarf implements the DWARF v2/v3/v4 mechanics dwarfidx needs:
// compiling abbreviation declarations into skip programs, reading CU
// headers, and walking DIE trees to extract top-level names. It
// deliberately does not decode general DIE content — see spec.md §1.
package dwarf

import (
	"errors"
	"fmt"
)

// ErrFormat wraps every DWARF structural problem: malformed abbreviation
// table, out-of-range abbrev code, unit_length running past .debug_info,
// non-sequential abbrev codes handled as FormatError rather than
// Unsupported since spec.md treats them as a fatal structural problem,
// not a feature gap. An unsupported DWARF version is ErrUnsupported and a
// truncated structure is ErrEOF.
var ErrFormat = errors.New("dwarf: format error")

// ErrUnsupported wraps DW_FORM_indirect and any other deliberately
// unimplemented DWARF feature.
var ErrUnsupported = errors.New("dwarf: unsupported feature")

// ErrEOF wraps truncation mid-structure.
var ErrEOF = errors.New("dwarf: unexpected end of buffer")

// ErrOverflow wraps a ULEB128/SLEB128 value exceeding 64 bits.
var ErrOverflow = errors.New("dwarf: leb128 overflow")

// FormatError reports a structural DWARF problem.
type FormatError struct{ msg string }

func (e *FormatError) Error() string { return "dwarf: " + e.msg }
func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErrorf(format string, args ...any) error {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

// UnsupportedError reports a recognized-but-unimplemented DWARF feature.
type UnsupportedError struct{ msg string }

func (e *UnsupportedError) Error() string { return "dwarf: " + e.msg }
func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func unsupportedErrorf(format string, args ...any) error {
	return &UnsupportedError{msg: fmt.Sprintf(format, args...)}
}

// EOFError reports a bounds-checked read running past its buffer.
type EOFError struct{ msg string }

func (e *EOFError) Error() string { return "dwarf: " + e.msg }
func (e *EOFError) Unwrap() error { return ErrEOF }

func eofErrorf(format string, args ...any) error {
	return &EOFError{msg: fmt.Sprintf(format, args...)}
}

// OverflowError reports a LEB128 value wider than 64 bits.
type OverflowError struct{ msg string }

func (e *OverflowError) Error() string { return "dwarf: " + e.msg }
func (e *OverflowError) Unwrap() error { return ErrOverflow }

func overflowErrorf(format string, args ...any) error {
	return &OverflowError{msg: fmt.Sprintf(format, args...)}
}

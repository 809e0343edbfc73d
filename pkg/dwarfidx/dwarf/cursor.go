package dwarf

import "encoding/binary"

// Cursor is a bounds-checked reader over one byte slice, used for both
// .debug_abbrev and .debug_info. It never panics on a short read; every
// method returns an *EOFError instead, matching spec.md §7 ("truncation
// anywhere ... is EOF"). Grounded structurally on the teacher's
// decodeULEB128/decodeSLEB128 helpers in llvm/dwarfparser.go, extended
// with the overflow detection and bounds checks spec.md requires (the
// teacher trusts debug/dwarf to have pre-validated its input; we cannot).
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor builds a cursor over buf starting at pos.
func NewCursor(buf []byte, pos int) *Cursor {
	return &Cursor{buf: buf, pos: pos}
}

// Pos returns the current byte offset into buf.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Seek repositions the cursor, bounds-checked against [0, len(buf)].
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return eofErrorf("seek to %d out of bounds (len %d)", pos, len(c.buf))
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes, bounds-checked.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.pos+n > len(c.buf) || c.pos+n < c.pos {
		return eofErrorf("skip %d bytes past end (pos %d, len %d)", n, c.pos, len(c.buf))
	}
	c.pos += n
	return nil
}

func (c *Cursor) need(n int) error {
	if c.pos+n > len(c.buf) || c.pos+n < c.pos {
		return eofErrorf("need %d bytes at pos %d (len %d)", n, c.pos, len(c.buf))
	}
	return nil
}

// ReadU8 reads one byte and advances.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// ReadU16 reads a little-endian uint16 and advances.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32 and advances.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

// ReadU64 reads a little-endian uint64 and advances.
func (c *Cursor) ReadU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

// ReadULEB128 decodes an unsigned LEB128 integer, failing with
// *OverflowError past 64 significant bits (spec.md §6 Overflow class).
func (c *Cursor) ReadULEB128() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := c.ReadU8()
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, overflowErrorf("uleb128 exceeds 64 bits at pos %d", c.pos)
		}
		if shift == 63 && b&0x7e != 0 {
			return 0, overflowErrorf("uleb128 exceeds 64 bits at pos %d", c.pos)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadSLEB128 decodes a signed LEB128 integer with the same overflow rule.
func (c *Cursor) ReadSLEB128() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = c.ReadU8()
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, overflowErrorf("sleb128 exceeds 64 bits at pos %d", c.pos)
		}
		if shift == 63 && b&0x7f != 0 && b&0x7f != 0x7f {
			return 0, overflowErrorf("sleb128 exceeds 64 bits at pos %d", c.pos)
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && (b&0x40) != 0 {
				result |= -1 << shift
			}
			return result, nil
		}
	}
}

// SkipCString advances past a NUL-terminated string and returns the
// cursor position where the string began (useful as a name pointer).
func (c *Cursor) SkipCString() (start int, err error) {
	start = c.pos
	for {
		b, err := c.ReadU8()
		if err != nil {
			return start, err
		}
		if b == 0 {
			return start, nil
		}
	}
}

// CString reads bytes from the buffer starting at pos up to (not
// including) the terminating NUL, bounds-checking that a NUL exists.
func CString(buf []byte, pos int) (string, error) {
	if pos < 0 || pos > len(buf) {
		return "", eofErrorf("cstring offset %d out of bounds (len %d)", pos, len(buf))
	}
	end := pos
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	if end >= len(buf) {
		return "", eofErrorf("cstring at %d has no terminating NUL", pos)
	}
	return string(buf[pos:end]), nil
}

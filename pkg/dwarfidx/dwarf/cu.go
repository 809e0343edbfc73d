package dwarf

// CompilationUnit is one CU header read from .debug_info, plus its
// compiled abbreviation table, per spec.md §3/§4.5.
type CompilationUnit struct {
	HeaderOffset      int // offset of this CU's length prefix in .debug_info
	UnitLength        uint64
	Version           uint16
	DebugAbbrevOffset uint64
	AddressSize       int
	Is64Bit           bool
	Abbrev            *AbbrevTable
}

// headerBytes returns 23 for the 64-bit DWARF format (12-byte length
// prefix + 8-byte abbrev offset + 2-byte version + 1-byte address size)
// or 11 for the 32-bit format (4+4+2+1), per spec.md §4.5/§4.6.
func (cu *CompilationUnit) headerBytes() int {
	if cu.Is64Bit {
		return 23
	}
	return 11
}

// FirstDIEOffset returns the offset of the CU's first DIE.
func (cu *CompilationUnit) FirstDIEOffset() int {
	return cu.HeaderOffset + cu.headerBytes()
}

// End returns the offset one past the end of this CU in .debug_info.
func (cu *CompilationUnit) End() int {
	lengthPrefixSize := 4
	if cu.Is64Bit {
		lengthPrefixSize = 12
	}
	return cu.HeaderOffset + lengthPrefixSize + int(cu.UnitLength)
}

// ReadCUHeader parses one CU header at offset in debugInfo, per
// spec.md §4.5. It does not compile the abbreviation table; call
// CompileAbbrevTable separately once the header is known.
func ReadCUHeader(debugInfo []byte, offset int) (*CompilationUnit, error) {
	cur := NewCursor(debugInfo, offset)

	initial, err := cur.ReadU32()
	if err != nil {
		return nil, err
	}

	cu := &CompilationUnit{HeaderOffset: offset}

	if initial == 0xffffffff {
		cu.Is64Bit = true
		unitLength, err := cur.ReadU64()
		if err != nil {
			return nil, err
		}
		cu.UnitLength = unitLength

		version, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		cu.Version = version

		abbrevOffset, err := cur.ReadU64()
		if err != nil {
			return nil, err
		}
		cu.DebugAbbrevOffset = abbrevOffset
	} else {
		cu.UnitLength = uint64(initial)

		version, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		cu.Version = version

		abbrevOffset, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		cu.DebugAbbrevOffset = uint64(abbrevOffset)
	}

	if cu.Version < 2 || cu.Version > 4 {
		return nil, unsupportedErrorf("unsupported DWARF version %d", cu.Version)
	}

	addressSize, err := cur.ReadU8()
	if err != nil {
		return nil, err
	}
	cu.AddressSize = int(addressSize)

	if cu.End() > len(debugInfo) || cu.End() < cu.HeaderOffset {
		return nil, formatErrorf("CU at %d: unit_length runs past end of .debug_info", offset)
	}

	return cu, nil
}

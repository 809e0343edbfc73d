package elf

import "encoding/binary"

// ELF64 structural constants (see elf(5)). Only what spec.md §4.2 needs.
const (
	ehdrSize = 64
	shdrSize = 64
	symSize  = 24 // sizeof(Elf64_Sym) — see relocate.go for why this matters.
	relaSize = 24 // sizeof(Elf64_Rela)

	eiMag0    = 0x7f
	eiMag1    = 'E'
	eiMag2    = 'L'
	eiMag3    = 'F'
	eiClass64 = 2
	eiDataLSB = 1
	evCurrent = 1

	shtProgbits = 1
	shtSymtab   = 2
	shtRela     = 4

	shnUndef  = 0
	shnXindex = 0xffff
)

// Section is a byte slice into a Mapping's memory together with the
// section-header-table index it came from, kept so RELA sections can be
// matched to their target by sh_info (spec.md §3 Section).
type Section struct {
	Index int
	Bytes []byte
}

// Sections is everything the DWARF index needs out of one ELF file:
// the symbol table, the three debug sections, and any RELA section that
// targets one of them.
type Sections struct {
	Symtab      Section
	DebugAbbrev Section
	DebugInfo   Section
	DebugStr    Section

	RelaAbbrev *Section
	RelaInfo   *Section
	RelaStr    *Section
}

type shdr struct {
	name      uint32
	shType    uint32
	flags     uint64
	addr      uint64
	offset    uint64
	size      uint64
	link      uint32
	info      uint32
	addralign uint64
	entsize   uint64
}

func readShdr(b []byte) shdr {
	return shdr{
		name:      binary.LittleEndian.Uint32(b[0:4]),
		shType:    binary.LittleEndian.Uint32(b[4:8]),
		flags:     binary.LittleEndian.Uint64(b[8:16]),
		addr:      binary.LittleEndian.Uint64(b[16:24]),
		offset:    binary.LittleEndian.Uint64(b[24:32]),
		size:      binary.LittleEndian.Uint64(b[32:40]),
		link:      binary.LittleEndian.Uint32(b[40:44]),
		info:      binary.LittleEndian.Uint32(b[44:48]),
		addralign: binary.LittleEndian.Uint64(b[48:56]),
		entsize:   binary.LittleEndian.Uint64(b[56:64]),
	}
}

// Discover validates the ELF header and returns the symtab/debug/rela
// sections per spec.md §4.2. path is used only to annotate errors.
func Discover(path string, data []byte) (*Sections, error) {
	if len(data) < ehdrSize {
		return nil, formatErrorf(path, "file too small for ELF header (%d bytes)", len(data))
	}
	if data[0] != eiMag0 || data[1] != eiMag1 || data[2] != eiMag2 || data[3] != eiMag3 {
		return nil, formatErrorf(path, "bad ELF magic")
	}
	if data[6] != evCurrent {
		return nil, formatErrorf(path, "bad EI_VERSION")
	}
	if data[5] != eiDataLSB {
		return nil, unsupportedErrorf(path, "non-little-endian ELF (EI_DATA=%d)", data[5])
	}
	if data[4] != eiClass64 {
		return nil, unsupportedErrorf(path, "non-64-bit ELF (EI_CLASS=%d)", data[4])
	}

	ehsize := binary.LittleEndian.Uint16(data[52:54])
	if int(ehsize) < ehdrSize {
		return nil, formatErrorf(path, "bad e_ehsize %d", ehsize)
	}

	shoff := binary.LittleEndian.Uint64(data[40:48])
	shentsize := binary.LittleEndian.Uint16(data[58:60])
	shnum := binary.LittleEndian.Uint16(data[60:62])
	shstrndx := binary.LittleEndian.Uint16(data[62:64])

	if shnum == 0 {
		return nil, formatErrorf(path, "e_shnum == 0")
	}
	if int(shentsize) < shdrSize {
		return nil, formatErrorf(path, "bad e_shentsize %d", shentsize)
	}

	shtabEnd := shoff + uint64(shnum)*uint64(shentsize)
	if shoff == 0 || shtabEnd > uint64(len(data)) || shtabEnd < shoff {
		return nil, formatErrorf(path, "section header table out of bounds")
	}

	shdrAt := func(i uint16) shdr {
		off := shoff + uint64(i)*uint64(shentsize)
		return readShdr(data[off : off+shdrSize])
	}

	strndx := shstrndx
	if strndx == shnXindex {
		strndx = uint16(shdrAt(0).link)
	}
	if strndx == shnUndef || int(strndx) >= int(shnum) {
		return nil, formatErrorf(path, "invalid e_shstrndx %d", shstrndx)
	}

	strSec := shdrAt(strndx)
	if strSec.offset+strSec.size > uint64(len(data)) || strSec.offset+strSec.size < strSec.offset {
		return nil, formatErrorf(path, "section name string table out of bounds")
	}
	shstrtab := data[strSec.offset : strSec.offset+strSec.size]

	nameAt := func(nameOff uint32, literal string) bool {
		if uint64(nameOff)+uint64(len(literal)) >= uint64(len(shstrtab)) {
			return false
		}
		if string(shstrtab[nameOff:int(nameOff)+len(literal)]) != literal {
			return false
		}
		return shstrtab[int(nameOff)+len(literal)] == 0
	}

	result := &Sections{}
	haveSymtab, haveAbbrev, haveInfo, haveStr := false, false, false, false
	var symIdx, abbrevIdx, infoIdx, strIdx int

	// First pass: symtab + the three debug sections.
	for i := uint16(0); i < shnum; i++ {
		h := shdrAt(i)
		if h.shType != shtProgbits && h.shType != shtSymtab {
			continue
		}
		if h.offset+h.size > uint64(len(data)) || h.offset+h.size < h.offset {
			return nil, formatErrorf(path, "section %d out of bounds", i)
		}
		bytes := data[h.offset : h.offset+h.size]

		switch {
		case h.shType == shtSymtab && !haveSymtab:
			result.Symtab = Section{Index: int(i), Bytes: bytes}
			haveSymtab = true
			symIdx = int(i)
		case h.shType == shtProgbits && nameAt(h.name, ".debug_abbrev"):
			result.DebugAbbrev = Section{Index: int(i), Bytes: bytes}
			haveAbbrev = true
			abbrevIdx = int(i)
		case h.shType == shtProgbits && nameAt(h.name, ".debug_info"):
			result.DebugInfo = Section{Index: int(i), Bytes: bytes}
			haveInfo = true
			infoIdx = int(i)
		case h.shType == shtProgbits && nameAt(h.name, ".debug_str"):
			result.DebugStr = Section{Index: int(i), Bytes: bytes}
			haveStr = true
			strIdx = int(i)
		}
	}

	if !haveSymtab {
		return nil, formatErrorf(path, "missing .symtab")
	}
	if !haveAbbrev {
		return nil, formatErrorf(path, "missing .debug_abbrev")
	}
	if !haveInfo {
		return nil, formatErrorf(path, "missing .debug_info")
	}
	if !haveStr {
		return nil, formatErrorf(path, "missing .debug_str")
	}
	if len(result.DebugStr.Bytes) == 0 || result.DebugStr.Bytes[len(result.DebugStr.Bytes)-1] != 0 {
		return nil, formatErrorf(path, ".debug_str missing trailing NUL")
	}

	// Second pass: RELA sections targeting one of the three debug sections.
	for i := uint16(0); i < shnum; i++ {
		h := shdrAt(i)
		if h.shType != shtRela {
			continue
		}
		if int(h.link) != symIdx {
			continue
		}
		if h.offset+h.size > uint64(len(data)) || h.offset+h.size < h.offset {
			return nil, formatErrorf(path, "rela section %d out of bounds", i)
		}
		sec := Section{Index: int(i), Bytes: data[h.offset : h.offset+h.size]}
		switch int(h.info) {
		case abbrevIdx:
			result.RelaAbbrev = &sec
		case infoIdx:
			result.RelaInfo = &sec
		case strIdx:
			result.RelaStr = &sec
		}
	}

	return result, nil
}

package elf

import "encoding/binary"

// Relocation types this package understands, per spec.md §4.3's Non-goals
// (only X86_64 NONE/32/64 are supported; everything else is an
// UnsupportedError).
const (
	rX8664None = 0
	rX8664_64  = 1
	rX8664_32  = 10
)

// Relocate applies every RELA entry in rela to target in place, using
// symtab for symbol values. This is the "open question" spot flagged by
// spec.md §4.3/§9: the original computes num_syms from sizeof(Rela)
// instead of sizeof(Sym); we use sizeof(Sym) here, as instructed.
func Relocate(path string, target []byte, rela, symtab []byte) error {
	if rela == nil {
		return nil
	}
	if len(rela)%relaSize != 0 {
		return formatErrorf(path, "rela section size %d not a multiple of %d", len(rela), relaSize)
	}
	numSyms := len(symtab) / symSize // sizeof(Elf64_Sym), NOT sizeof(Elf64_Rela) — see SPEC_FULL.md open questions.

	for off := 0; off < len(rela); off += relaSize {
		entry := rela[off : off+relaSize]
		rOffset := binary.LittleEndian.Uint64(entry[0:8])
		rInfo := binary.LittleEndian.Uint64(entry[8:16])
		rAddend := int64(binary.LittleEndian.Uint64(entry[16:24]))

		rSym := uint32(rInfo >> 32)
		rType := uint32(rInfo)

		if rType == rX8664None {
			continue
		}

		var writeSize uint64
		switch rType {
		case rX8664_32:
			writeSize = 4
		case rX8664_64:
			writeSize = 8
		default:
			return unsupportedErrorf(path, "unsupported relocation type %d", rType)
		}

		if int(rSym) >= numSyms {
			return formatErrorf(path, "relocation r_sym %d out of range (%d symbols)", rSym, numSyms)
		}
		if rOffset+writeSize > uint64(len(target)) || rOffset+writeSize < rOffset {
			return formatErrorf(path, "relocation r_offset %d out of bounds", rOffset)
		}

		sym := symtab[int(rSym)*symSize : int(rSym)*symSize+symSize]
		stValue := binary.LittleEndian.Uint64(sym[8:16])
		value := uint64(int64(stValue) + rAddend)

		switch writeSize {
		case 4:
			binary.LittleEndian.PutUint32(target[rOffset:rOffset+4], uint32(value))
		case 8:
			binary.LittleEndian.PutUint64(target[rOffset:rOffset+8], value)
		}
	}

	return nil
}

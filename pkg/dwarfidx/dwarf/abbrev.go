package dwarf

// DWARF tag and attribute constants this package actually inspects.
// Everything else passes through the skip program uninterpreted.
const (
	tagClassType        = 0x02
	tagEnumerationType  = 0x04
	tagStructureType    = 0x13
	tagTypedef          = 0x16
	tagUnionType        = 0x17
	tagBaseType         = 0x24
	tagVariable         = 0x34

	atSibling     = 0x01
	atName        = 0x03
	atDeclaration = 0x3c

	formAddr        = 0x01
	formBlock2      = 0x03
	formBlock4      = 0x04
	formData2       = 0x05
	formData4       = 0x06
	formData8       = 0x07
	formString      = 0x08
	formBlock1      = 0x0a
	formData1       = 0x0b
	formFlag        = 0x0c
	formSdata       = 0x0d
	formStrp        = 0x0e
	formUdata       = 0x0f
	formRefAddr     = 0x10
	formRef1        = 0x11
	formRef2        = 0x12
	formRef4        = 0x13
	formRef8        = 0x14
	formRefUdata    = 0x15
	formIndirect    = 0x16
	formSecOffset   = 0x17
	formExprloc     = 0x18
	formFlagPresent = 0x19
	formRefSig8     = 0x20
)

// Skip-program command bytes, per spec.md §4.4. Values below
// cmdMinSentinel are literal skip lengths; values at or above it are
// sentinel commands.
const (
	cmdMinSentinel = 243
	maxLiteral     = cmdMinSentinel - 1 // 242

	cmdBlock1          = 243
	cmdBlock2          = 244
	cmdBlock4          = 245
	cmdExprloc         = 246
	cmdLeb128          = 247
	cmdString          = 248
	cmdSiblingRef1     = 249
	cmdSiblingRef2     = 250
	cmdSiblingRef4     = 251
	cmdSiblingRef8     = 252
	cmdSiblingRefUdata = 253
	cmdNameStrp        = 254
	cmdNameString      = 255
)

// indexableTag reports whether tag is in the filtered tag set of spec.md
// §4.4: only these DIE tags are ever indexed, anything else compiles to a
// Tag of 0.
func indexableTag(tag uint64) bool {
	switch tag {
	case tagBaseType, tagClassType, tagEnumerationType, tagStructureType, tagTypedef, tagUnionType, tagVariable:
		return true
	}
	return false
}

// AbbrevDecl is one compiled abbreviation: a skip program, its filtered
// tag (0 meaning "do not index"), and whether it has children.
type AbbrevDecl struct {
	Cmds     []byte
	Tag      uint64
	Children bool
}

// AbbrevTable is a dense, code-indexed (code-1) vector of compiled
// abbreviations for one CU, per spec.md §3.
type AbbrevTable struct {
	Decls []AbbrevDecl
}

// Decl returns the declaration for the given abbreviation code (1-based),
// failing if code is out of range.
func (t *AbbrevTable) Decl(code uint64) (*AbbrevDecl, error) {
	if code < 1 || int(code) > len(t.Decls) {
		return nil, formatErrorf("abbrev code %d out of range (%d declarations)", code, len(t.Decls))
	}
	return &t.Decls[code-1], nil
}

// abbrevBuilder accumulates one AbbrevDecl's skip program, coalescing
// adjacent fixed-length literal skips per spec.md §4.4.
type abbrevBuilder struct {
	cmds        []byte
	lastLiteral int // index into cmds of the last literal byte, or -1
}

func newAbbrevBuilder() *abbrevBuilder {
	return &abbrevBuilder{lastLiteral: -1}
}

// emitLiteral appends a fixed-length skip of n bytes, merging with an
// immediately preceding literal skip when possible.
func (b *abbrevBuilder) emitLiteral(n int) {
	for n > 0 {
		if b.lastLiteral >= 0 {
			prev := int(b.cmds[b.lastLiteral])
			sum := prev + n
			if sum < cmdMinSentinel {
				b.cmds[b.lastLiteral] = byte(sum)
				return
			}
			b.cmds[b.lastLiteral] = maxLiteral
			n = sum - maxLiteral
			b.lastLiteral = -1
			continue
		}
		if n < cmdMinSentinel {
			b.lastLiteral = len(b.cmds)
			b.cmds = append(b.cmds, byte(n))
			return
		}
		b.cmds = append(b.cmds, maxLiteral)
		b.lastLiteral = len(b.cmds) - 1
		n -= maxLiteral
	}
}

// emitSentinel appends a non-coalesceable sentinel command.
func (b *abbrevBuilder) emitSentinel(cmd byte) {
	b.cmds = append(b.cmds, cmd)
	b.lastLiteral = -1
}

// finish terminates the program with 0x00, tag, children, per spec.md §4.4.
func (b *abbrevBuilder) finish(tag uint64, children bool) AbbrevDecl {
	cmds := append(b.cmds, 0)
	var c byte
	if children {
		c = 1
	}
	cmds = append(cmds, byte(tag), c)
	return AbbrevDecl{Cmds: cmds, Tag: tag, Children: children}
}

// CompileAbbrevTable reads .debug_abbrev starting at offset, compiling
// every declaration until code 0, per spec.md §4.4. addressSize and
// is64Bit come from the owning CU header and govern form widths (`addr`,
// `ref_addr`/`sec_offset`/`strp`).
func CompileAbbrevTable(abbrev []byte, offset uint64, addressSize int, is64Bit bool) (*AbbrevTable, error) {
	cur := NewCursor(abbrev, int(offset))
	table := &AbbrevTable{}

	for count := uint64(0); ; count++ {
		code, err := cur.ReadULEB128()
		if err != nil {
			return nil, err
		}
		if code == 0 {
			break
		}
		if code != count+1 {
			return nil, formatErrorf("non-sequential abbreviation code %d (expected %d)", code, count+1)
		}

		rawTag, err := cur.ReadULEB128()
		if err != nil {
			return nil, err
		}
		childrenByte, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		children := childrenByte != 0

		tag := rawTag
		if !indexableTag(tag) {
			tag = 0
		}

		b := newAbbrevBuilder()
		sawDeclaration := false

		for {
			name, err := cur.ReadULEB128()
			if err != nil {
				return nil, err
			}
			form, err := cur.ReadULEB128()
			if err != nil {
				return nil, err
			}
			if name == 0 && form == 0 {
				break
			}

			if name == atDeclaration {
				sawDeclaration = true
			}

			switch {
			case name == atSibling && isSiblingForm(form):
				b.emitSentinel(siblingCmd(form))
				continue
			case name == atName && form == formStrp && tag != 0:
				b.emitSentinel(cmdNameStrp)
				continue
			case name == atName && form == formString && tag != 0:
				b.emitSentinel(cmdNameString)
				continue
			}

			switch form {
			case formAddr:
				b.emitLiteral(addressSize)
			case formData1, formRef1, formFlag:
				b.emitLiteral(1)
			case formData2, formRef2:
				b.emitLiteral(2)
			case formData4, formRef4:
				b.emitLiteral(4)
			case formData8, formRef8, formRefSig8:
				b.emitLiteral(8)
			case formRefAddr, formSecOffset, formStrp:
				if is64Bit {
					b.emitLiteral(8)
				} else {
					b.emitLiteral(4)
				}
			case formBlock1:
				b.emitSentinel(cmdBlock1)
			case formBlock2:
				b.emitSentinel(cmdBlock2)
			case formBlock4:
				b.emitSentinel(cmdBlock4)
			case formExprloc:
				b.emitSentinel(cmdExprloc)
			case formSdata, formUdata, formRefUdata:
				b.emitSentinel(cmdLeb128)
			case formString:
				b.emitSentinel(cmdString)
			case formFlagPresent:
				// Nothing emitted: the value is implied by presence alone.
			case formIndirect:
				return nil, unsupportedErrorf("DW_FORM_indirect is not supported")
			default:
				return nil, unsupportedErrorf("unknown DW_FORM 0x%x", form)
			}
		}

		if sawDeclaration && tag != tagVariable {
			tag = 0
		}

		table.Decls = append(table.Decls, b.finish(tag, children))
	}

	return table, nil
}

func isSiblingForm(form uint64) bool {
	switch form {
	case formRef1, formRef2, formRef4, formRef8, formRefUdata:
		return true
	}
	return false
}

func siblingCmd(form uint64) byte {
	switch form {
	case formRef1:
		return cmdSiblingRef1
	case formRef2:
		return cmdSiblingRef2
	case formRef4:
		return cmdSiblingRef4
	case formRef8:
		return cmdSiblingRef8
	default:
		return cmdSiblingRefUdata
	}
}

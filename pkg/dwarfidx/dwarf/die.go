package dwarf

// Insert is called once for every top-level, named, indexable DIE found
// while walking a CU, per spec.md §4.6 rule 6. name is a slice aliasing
// either .debug_str or .debug_info of the owning file; it stays valid as
// long as that mapping is not unmapped, since the slice keeps the
// backing array reachable for the Go garbage collector (the arena-style
// alternative to raw pointers spec.md §9 recommends for memory-safe
// languages). cuOffset/dieOffset are byte offsets into debugInfo.
type Insert func(name []byte, tag uint64, cuOffset, dieOffset int) error

// IndexCU walks one compilation unit's DIE tree, executing each DIE's
// compiled abbreviation skip program, and calls insert for every
// depth-1 DIE with both a name and a non-zero (indexable) tag, per
// spec.md §4.6.
func IndexCU(cu *CompilationUnit, debugInfo, debugStr []byte, insert Insert) error {
	end := cu.End()
	cur := NewCursor(debugInfo, cu.FirstDIEOffset())
	depth := 0

	for {
		if cur.Pos() >= end && depth == 0 {
			return nil
		}

		diePtr := cur.Pos()
		code, err := cur.ReadULEB128()
		if err != nil {
			return err
		}

		if code == 0 {
			depth--
			if depth == 0 {
				return nil
			}
			if depth < 0 {
				return formatErrorf("CU at %d: unbalanced null DIE terminator at %d", cu.HeaderOffset, diePtr)
			}
			continue
		}

		decl, err := cu.Abbrev.Decl(code)
		if err != nil {
			return err
		}

		var name []byte
		haveName := false
		sibling := -1

		i := 0
		for {
			if i >= len(decl.Cmds) {
				return formatErrorf("CU at %d: abbrev program missing terminator", cu.HeaderOffset)
			}
			cmd := decl.Cmds[i]
			i++
			if cmd == 0 {
				break
			}
			if cmd < cmdMinSentinel {
				if err := cur.Skip(int(cmd)); err != nil {
					return err
				}
				continue
			}

			switch cmd {
			case cmdBlock1:
				n, err := cur.ReadU8()
				if err != nil {
					return err
				}
				if err := cur.Skip(int(n)); err != nil {
					return err
				}
			case cmdBlock2:
				n, err := cur.ReadU16()
				if err != nil {
					return err
				}
				if err := cur.Skip(int(n)); err != nil {
					return err
				}
			case cmdBlock4:
				n, err := cur.ReadU32()
				if err != nil {
					return err
				}
				if err := cur.Skip(int(n)); err != nil {
					return err
				}
			case cmdExprloc:
				n, err := cur.ReadULEB128()
				if err != nil {
					return err
				}
				if err := cur.Skip(int(n)); err != nil {
					return err
				}
			case cmdLeb128:
				if _, err := cur.ReadULEB128(); err != nil {
					return err
				}
			case cmdString:
				if _, err := cur.SkipCString(); err != nil {
					return err
				}
			case cmdNameString:
				start, err := cur.SkipCString()
				if err != nil {
					return err
				}
				name = debugInfo[start : cur.Pos()-1]
				haveName = true
			case cmdSiblingRef1, cmdSiblingRef2, cmdSiblingRef4, cmdSiblingRef8, cmdSiblingRefUdata:
				var offset uint64
				switch cmd {
				case cmdSiblingRef1:
					v, err := cur.ReadU8()
					if err != nil {
						return err
					}
					offset = uint64(v)
				case cmdSiblingRef2:
					v, err := cur.ReadU16()
					if err != nil {
						return err
					}
					offset = uint64(v)
				case cmdSiblingRef4:
					v, err := cur.ReadU32()
					if err != nil {
						return err
					}
					offset = uint64(v)
				case cmdSiblingRef8:
					v, err := cur.ReadU64()
					if err != nil {
						return err
					}
					offset = v
				default:
					v, err := cur.ReadULEB128()
					if err != nil {
						return err
					}
					offset = v
				}
				target := cu.HeaderOffset + int(offset)
				if target < 0 || target > len(debugInfo) {
					return formatErrorf("CU at %d: sibling offset %d out of bounds", cu.HeaderOffset, offset)
				}
				sibling = target
			case cmdNameStrp:
				var offset uint64
				if cu.Is64Bit {
					v, err := cur.ReadU64()
					if err != nil {
						return err
					}
					offset = v
				} else {
					v, err := cur.ReadU32()
					if err != nil {
						return err
					}
					offset = uint64(v)
				}
				str, err := CString(debugStr, int(offset))
				if err != nil {
					return err
				}
				name = []byte(debugStr[int(offset) : int(offset)+len(str)])
				haveName = true
			default:
				return formatErrorf("CU at %d: unknown abbrev command 0x%x", cu.HeaderOffset, cmd)
			}
		}

		if depth == 1 && haveName && decl.Tag != 0 {
			if err := insert(name, decl.Tag, cu.HeaderOffset, diePtr); err != nil {
				return err
			}
		}

		switch {
		case decl.Children && sibling >= 0:
			if err := cur.Seek(sibling); err != nil {
				return err
			}
		case decl.Children:
			depth++
		case depth == 0:
			return nil
		}
	}
}

package dwarfidx

// DWARF tag values exposed so callers of Find don't need to hardcode
// the DWARF spec's numeric constants themselves. These are the only
// tags the index ever stores (spec.md §4.4's filtered tag set).
const (
	TagClassType       = 0x02
	TagEnumerationType = 0x04
	TagStructureType   = 0x13
	TagTypedef         = 0x16
	TagUnionType       = 0x17
	TagBaseType        = 0x24
	TagVariable        = 0x34
)

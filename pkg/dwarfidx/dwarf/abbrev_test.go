package dwarf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func abbrevDecl(code, tag uint64, children byte, attrs [][2]uint64) []byte {
	var out []byte
	out = append(out, uleb(code)...)
	out = append(out, uleb(tag)...)
	out = append(out, children)
	for _, a := range attrs {
		out = append(out, uleb(a[0])...)
		out = append(out, uleb(a[1])...)
	}
	out = append(out, uleb(0)...)
	out = append(out, uleb(0)...)
	return out
}

func TestCompileAbbrevTable_SimpleVariable(t *testing.T) {
	// code 1, DW_TAG_variable, no children: DW_AT_name(strp), DW_AT_type(ref4)
	buf := abbrevDecl(1, tagVariable, 0, [][2]uint64{
		{atName, formStrp},
		{0x49, formRef4}, // DW_AT_type
	})
	buf = append(buf, uleb(0)...) // terminate table (code 0)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	require.Len(t, table.Decls, 1)

	decl := table.Decls[0]
	assert.Equal(t, uint64(tagVariable), decl.Tag)
	assert.False(t, decl.Children)
	// Expect: NAME_STRP, literal(4), 0x00, tag, children
	require.Len(t, decl.Cmds, 5)
	assert.Equal(t, byte(cmdNameStrp), decl.Cmds[0])
	assert.Equal(t, byte(4), decl.Cmds[1])
	assert.Equal(t, byte(0), decl.Cmds[2])
	assert.Equal(t, byte(tagVariable), decl.Cmds[3])
	assert.Equal(t, byte(0), decl.Cmds[4])
}

func TestCompileAbbrevTable_NonIndexableTag(t *testing.T) {
	// DW_TAG_compile_unit (0x11) is not in the filtered tag set.
	buf := abbrevDecl(1, 0x11, 1, [][2]uint64{{atName, formStrp}})
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	require.Len(t, table.Decls, 1)
	assert.Equal(t, uint64(0), table.Decls[0].Tag)
	// NAME_STRP is only emitted when tag != 0, so this should compile to
	// a literal skip of 4 instead.
	assert.Equal(t, byte(4), table.Decls[0].Cmds[0])
}

func TestCompileAbbrevTable_DeclarationSuppressesNonVariable(t *testing.T) {
	buf := abbrevDecl(1, tagStructureType, 0, [][2]uint64{
		{atDeclaration, formFlagPresent},
		{atName, formStrp},
	})
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), table.Decls[0].Tag)
}

func TestCompileAbbrevTable_DeclarationAllowsVariable(t *testing.T) {
	buf := abbrevDecl(1, tagVariable, 0, [][2]uint64{
		{atDeclaration, formFlagPresent},
		{atName, formStrp},
	})
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(tagVariable), table.Decls[0].Tag)
}

func TestCompileAbbrevTable_SkipCoalescing(t *testing.T) {
	// 10 data1 attributes (1 byte each, 10 total) followed by an sdata
	// (LEB128) attribute: expect a single literal(10) then ATTRIB_LEB128.
	var attrs [][2]uint64
	for i := 0; i < 10; i++ {
		attrs = append(attrs, [2]uint64{0x50 + uint64(i), formData1})
	}
	attrs = append(attrs, [2]uint64{0x60, formSdata})

	buf := abbrevDecl(1, tagVariable, 0, attrs)
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	cmds := table.Decls[0].Cmds
	assert.Equal(t, byte(10), cmds[0])
	assert.Equal(t, byte(cmdLeb128), cmds[1])
}

func TestCompileAbbrevTable_SkipCoalescingStaysBelowCmdMin(t *testing.T) {
	// 137 bytes of fixed skips (emulated via 137 one-byte attrs) must
	// coalesce into a single literal 137, not split, since 137 < 243.
	var attrs [][2]uint64
	for i := 0; i < 137; i++ {
		attrs = append(attrs, [2]uint64{0x50, formData1})
	}
	buf := abbrevDecl(1, tagVariable, 0, attrs)
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	cmds := table.Decls[0].Cmds
	assert.Equal(t, byte(137), cmds[0])
	assert.Equal(t, byte(0), cmds[1]) // terminator directly follows
}

func TestCompileAbbrevTable_SkipCoalescingSplitsPast242(t *testing.T) {
	// 250 one-byte attrs: should split into literal(242) + literal(8).
	var attrs [][2]uint64
	for i := 0; i < 250; i++ {
		attrs = append(attrs, [2]uint64{0x50, formData1})
	}
	buf := abbrevDecl(1, tagVariable, 0, attrs)
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	cmds := table.Decls[0].Cmds
	assert.Equal(t, byte(242), cmds[0])
	assert.Equal(t, byte(8), cmds[1])
	assert.Equal(t, byte(0), cmds[2])
}

func TestCompileAbbrevTable_NonSequentialCode(t *testing.T) {
	buf := abbrevDecl(2, tagVariable, 0, nil)
	buf = append(buf, uleb(0)...)

	_, err := CompileAbbrevTable(buf, 0, 8, false)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestCompileAbbrevTable_IndirectFormUnsupported(t *testing.T) {
	buf := abbrevDecl(1, tagVariable, 0, [][2]uint64{{atName, formIndirect}})
	buf = append(buf, uleb(0)...)

	_, err := CompileAbbrevTable(buf, 0, 8, false)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCompileAbbrevTable_EmptyTable(t *testing.T) {
	buf := uleb(0) // code 0 immediately: empty table.
	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	assert.Empty(t, table.Decls)
}

func TestCompileAbbrevTable_SiblingRef(t *testing.T) {
	buf := abbrevDecl(1, tagStructureType, 1, [][2]uint64{{atSibling, formRef4}})
	buf = append(buf, uleb(0)...)

	table, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	assert.Equal(t, byte(cmdSiblingRef4), table.Decls[0].Cmds[0])
}

func TestCompileAbbrevTable_StrpWidthByFormat(t *testing.T) {
	buf := abbrevDecl(1, 0x11, 1, [][2]uint64{{0x72, formSecOffset}}) // non-name strp-sized form
	buf = append(buf, uleb(0)...)

	table32, err := CompileAbbrevTable(buf, 0, 8, false)
	require.NoError(t, err)
	assert.Equal(t, byte(4), table32.Decls[0].Cmds[0])

	table64, err := CompileAbbrevTable(buf, 0, 8, true)
	require.NoError(t, err)
	assert.Equal(t, byte(8), table64.Decls[0].Cmds[0])
}

func TestDecl_OutOfRange(t *testing.T) {
	table := &AbbrevTable{Decls: []AbbrevDecl{{}}}
	_, err := table.Decl(0)
	assert.Error(t, err)
	_, err = table.Decl(2)
	assert.Error(t, err)
	_, err = table.Decl(1)
	assert.NoError(t, err)
}

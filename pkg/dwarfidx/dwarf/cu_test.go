package dwarf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build32CUHeader(version uint16, abbrevOffset uint32, addressSize byte, extraBytes int) []byte {
	// unit_length counts everything after the 4-byte length field.
	unitLength := uint32(2 + 4 + 1 + extraBytes)
	buf := make([]byte, 4+int(unitLength))
	binary.LittleEndian.PutUint32(buf[0:4], unitLength)
	binary.LittleEndian.PutUint16(buf[4:6], version)
	binary.LittleEndian.PutUint32(buf[6:10], abbrevOffset)
	buf[10] = addressSize
	return buf
}

func build64CUHeader(version uint16, abbrevOffset uint64, addressSize byte, extraBytes int) []byte {
	unitLength := uint64(2 + 8 + 1 + extraBytes)
	buf := make([]byte, 12+int(unitLength))
	binary.LittleEndian.PutUint32(buf[0:4], 0xffffffff)
	binary.LittleEndian.PutUint64(buf[4:12], unitLength)
	binary.LittleEndian.PutUint16(buf[12:14], version)
	binary.LittleEndian.PutUint64(buf[14:22], abbrevOffset)
	buf[22] = addressSize
	return buf
}

func TestReadCUHeader_32Bit(t *testing.T) {
	buf := build32CUHeader(4, 0, 8, 0)
	cu, err := ReadCUHeader(buf, 0)
	require.NoError(t, err)
	assert.False(t, cu.Is64Bit)
	assert.Equal(t, uint16(4), cu.Version)
	assert.Equal(t, 8, cu.AddressSize)
	assert.Equal(t, 11, cu.FirstDIEOffset())
	assert.Equal(t, len(buf), cu.End())
}

func TestReadCUHeader_64Bit(t *testing.T) {
	buf := build64CUHeader(3, 0, 8, 0)
	cu, err := ReadCUHeader(buf, 0)
	require.NoError(t, err)
	assert.True(t, cu.Is64Bit)
	assert.Equal(t, uint16(3), cu.Version)
	assert.Equal(t, 23, cu.FirstDIEOffset())
	assert.Equal(t, len(buf), cu.End())
}

func TestReadCUHeader_ZeroLengthCU(t *testing.T) {
	buf := build32CUHeader(4, 0, 8, 0)
	cu, err := ReadCUHeader(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, cu.FirstDIEOffset(), cu.End())
}

func TestReadCUHeader_BadVersion(t *testing.T) {
	buf := build32CUHeader(5, 0, 8, 0)
	_, err := ReadCUHeader(buf, 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReadCUHeader_LengthRunsPastBuffer(t *testing.T) {
	buf := build32CUHeader(4, 0, 8, 0)
	binary.LittleEndian.PutUint32(buf[0:4], 0xfffff0)
	_, err := ReadCUHeader(buf, 0)
	assert.Error(t, err)
}

func TestReadCUHeader_Truncated(t *testing.T) {
	buf := build32CUHeader(4, 0, 8, 0)[:5]
	_, err := ReadCUHeader(buf, 0)
	assert.ErrorIs(t, err, ErrEOF)
}

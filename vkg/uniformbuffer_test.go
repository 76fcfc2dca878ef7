package vkg

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a uniform buffer over plain heap memory; enough to exercise the
// instance offset arithmetic without a device
func hostUniformBuffer(instanceSize uint64, alignment uint64, count int) (*UniformBuffer, []byte) {
	alignmentSize := AlignUp(instanceSize, alignment)
	backing := make([]byte, alignmentSize*uint64(count))
	return &UniformBuffer{
		InstanceSize:  instanceSize,
		AlignmentSize: alignmentSize,
		InstanceCount: count,
		mapped:        unsafe.Pointer(&backing[0]),
	}, backing
}

func TestUniformBufferOffsetsAreAligned(t *testing.T) {
	u, _ := hostUniformBuffer(200, 256, 3)

	assert.EqualValues(t, 256, u.AlignmentSize)
	assert.EqualValues(t, 0, u.OffsetForIndex(0))
	assert.EqualValues(t, 256, u.OffsetForIndex(1))
	assert.EqualValues(t, 512, u.OffsetForIndex(2))
}

func TestUniformBufferWritesLandInTheirSlot(t *testing.T) {
	u, backing := hostUniformBuffer(8, 64, 2)

	require.NoError(t, u.WriteToIndex([]byte{1, 2, 3, 4}, 0))
	require.NoError(t, u.WriteToIndex([]byte{9, 8, 7, 6}, 1))

	assert.Equal(t, []byte{1, 2, 3, 4}, backing[0:4])
	assert.Equal(t, []byte{9, 8, 7, 6}, backing[64:68])

	// slot 0 untouched by the slot 1 write
	assert.Equal(t, []byte{0, 0, 0, 0}, backing[4:8])
}

func TestUniformBufferWriteRejectsBadInput(t *testing.T) {
	u, _ := hostUniformBuffer(8, 64, 2)

	assert.Error(t, u.WriteToIndex([]byte{1}, -1))
	assert.Error(t, u.WriteToIndex([]byte{1}, 2))
	assert.Error(t, u.WriteToIndex(make([]byte, 9), 0), "write larger than instance size")
}

func TestUniformBufferDSInfoRangesOneInstance(t *testing.T) {
	u, _ := hostUniformBuffer(200, 256, 2)

	info := u.DSInfoForIndex(1)
	assert.EqualValues(t, 256, info.Offset)
	assert.EqualValues(t, 200, info.Range)
}

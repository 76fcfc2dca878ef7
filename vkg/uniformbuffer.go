package vkg

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// UniformBuffer is a persistently mapped, host visible buffer holding
// instanceCount copies of a uniform block, each padded out to the
// device's uniform offset alignment. Render systems write the instance
// for the frame in flight they are recording and flush just that slot,
// so frames never stomp on uniforms the GPU is still reading.
type UniformBuffer struct {
	Buffer *Buffer
	Memory *DeviceMemory

	InstanceSize  uint64
	AlignmentSize uint64
	InstanceCount int

	mapped unsafe.Pointer
}

// CreateUniformBuffer creates and maps a uniform buffer with
// instanceCount slots of instanceSize bytes each.
func (d *Device) CreateUniformBuffer(instanceSize uint64, instanceCount int) (*UniformBuffer, error) {
	alignmentSize := AlignUp(instanceSize, d.MinUniformBufferOffsetAlignment())
	totalSize := alignmentSize * uint64(instanceCount)

	buffer, memory, err := d.CreateAndBindBufferAndMemory(totalSize,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}

	mapped, err := memory.Map()
	if err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, err
	}

	return &UniformBuffer{
		Buffer:        buffer,
		Memory:        memory,
		InstanceSize:  instanceSize,
		AlignmentSize: alignmentSize,
		InstanceCount: instanceCount,
		mapped:        mapped,
	}, nil
}

// OffsetForIndex returns the byte offset of the given instance slot.
func (u *UniformBuffer) OffsetForIndex(index int) uint64 {
	return u.AlignmentSize * uint64(index)
}

// WriteToIndex copies data into the instance slot at index. Only the
// instance belonging to the frame currently being recorded may be
// written.
func (u *UniformBuffer) WriteToIndex(data []byte, index int) error {
	if index < 0 || index >= u.InstanceCount {
		return fmt.Errorf("uniform instance index %d out of range [0,%d)", index, u.InstanceCount)
	}
	if uint64(len(data)) > u.InstanceSize {
		return fmt.Errorf("uniform write of %d bytes exceeds instance size %d", len(data), u.InstanceSize)
	}

	dst := ToBytes(unsafe.Pointer(uintptr(u.mapped)+uintptr(u.OffsetForIndex(index))), len(data))
	copy(dst, data)
	return nil
}

// FlushIndex makes the writes to a single instance slot visible to the
// device.
func (u *UniformBuffer) FlushIndex(index int) error {
	if index < 0 || index >= u.InstanceCount {
		return fmt.Errorf("uniform instance index %d out of range [0,%d)", index, u.InstanceCount)
	}
	return u.Memory.Flush(u.OffsetForIndex(index), u.AlignmentSize)
}

// Flush makes all instance slots visible to the device.
func (u *UniformBuffer) Flush() error {
	return u.Memory.Flush(0, vk.WholeSize)
}

// DSInfoForIndex describes a single instance slot for a descriptor
// write.
func (u *UniformBuffer) DSInfoForIndex(index int) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: u.Buffer.VKBuffer,
		Offset: vk.DeviceSize(u.OffsetForIndex(index)),
		Range:  vk.DeviceSize(u.InstanceSize),
	}
}

func (u *UniformBuffer) Destroy() {
	if u.Memory.IsMapped() {
		u.Memory.Unmap()
	}
	u.Buffer.Destroy()
	u.Memory.Destroy()
}

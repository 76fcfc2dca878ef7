package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// Buffer maps hunks of data that are then bound to resources used by
// the pipeline and command buffers to render data.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Size     uint64
}

func (d *Device) CreateBufferWithOptions(sizeInBytes uint64, usage vk.BufferUsageFlags, sharing vk.SharingMode) (*Buffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(sizeInBytes),
		Usage:       usage,
		SharingMode: sharing,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return nil, err
	}

	return &Buffer{Device: d, VKBuffer: buffer, Size: sizeInBytes}, nil
}

func (b *Buffer) VKMemoryRequirements() vk.MemoryRequirements {
	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.Device.VKDevice, b.VKBuffer, &memoryRequirements)
	return memoryRequirements
}

func (b *Buffer) AllocationRequirements() *AllocationRequirements {
	memoryRequirements := b.VKMemoryRequirements()
	mr := &memoryRequirements
	mr.Deref()

	return &AllocationRequirements{
		Size:           int(mr.Size),
		MemoryTypeBits: mr.MemoryTypeBits,
	}
}

// DSInfo describes this buffer for a descriptor write
func (b *Buffer) DSInfo(offset int) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(b.Size),
	}
}

func (b *Buffer) Bind(memory *DeviceMemory, offset uint64) error {
	return vk.Error(vk.BindBufferMemory(b.Device.VKDevice, b.VKBuffer, memory.VKDeviceMemory, vk.DeviceSize(offset)))
}

func (b *Buffer) Destroy() {
	vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
}

// BoundBuffer couples a buffer with the memory backing it so callers
// can destroy both in one call.
type BoundBuffer struct {
	Buffer *Buffer
	Memory *DeviceMemory
}

func (b *BoundBuffer) Destroy() {
	b.Buffer.Destroy()
	b.Memory.Destroy()
}

// CreateAndBindBufferAndMemory creates a buffer, allocates memory with
// the requested properties and binds the two together.
func (d *Device) CreateAndBindBufferAndMemory(sizeInBytes uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags, sharing vk.SharingMode) (*Buffer, *DeviceMemory, error) {
	buffer, err := d.CreateBufferWithOptions(sizeInBytes, usage, sharing)
	if err != nil {
		return nil, nil, err
	}

	memory, err := d.AllocateForBuffer(buffer, props)
	if err != nil {
		buffer.Destroy()
		return nil, nil, err
	}

	if err := buffer.Bind(memory, 0); err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, err
	}

	return buffer, memory, nil
}

// CreateDeviceLocalBuffer uploads data into a device-local buffer
// through a host visible staging buffer. Used for vertex and index
// data which the CPU never touches again after load.
func (d *Device) CreateDeviceLocalBuffer(data []byte, usage vk.BufferUsageFlags) (*BoundBuffer, error) {
	size := uint64(len(data))

	staging, stagingMemory, err := d.CreateAndBindBufferAndMemory(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}
	defer stagingMemory.Destroy()
	defer staging.Destroy()

	if err := stagingMemory.MapCopyUnmap(data); err != nil {
		return nil, err
	}

	buffer, memory, err := d.CreateAndBindBufferAndMemory(size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}

	err = d.OneTimeSubmit(func(cb *CommandBuffer) error {
		cb.CmdCopyBuffer(staging, buffer, size)
		return nil
	})
	if err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, err
	}

	return &BoundBuffer{Buffer: buffer, Memory: memory}, nil
}

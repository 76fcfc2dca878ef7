package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Device is the logical device plus the queues and the upload command
// pool the rest of the engine works through. GraphicsQueue, PresentQueue
// and LoadPool are populated during engine bootstrap right after
// creation; OneTimeSubmit requires them.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	GraphicsQueue *Queue
	PresentQueue  *Queue
	LoadPool      *CommandPool
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
}

func (p *PhysicalDevice) CreateLogicalDeviceWithOptions(qfs QueueFamilySlice, options *CreateDeviceOptions) (*Device, error) {
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(qfs))
	for j, q := range qfs {
		queueCreateInfos[j] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(q.Index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	// enable exactly what the hardware reports; anisotropic sampling
	// availability was already a selection requirement
	deviceFeatures := p.VKPhysicalDeviceFeatures()

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(qfs)),
		PQueueCreateInfos:    queueCreateInfos,
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{deviceFeatures},
	}

	if options != nil {
		if options.EnabledExtensions != nil {
			deviceCreateInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
			deviceCreateInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
		}
		if options.EnabledLayers != nil {
			deviceCreateInfo.EnabledLayerCount = uint32(len(options.EnabledLayers))
			deviceCreateInfo.PpEnabledLayerNames = safeStrings(options.EnabledLayers)
		}
	}

	var ldevice vk.Device
	err := vk.Error(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice))
	if err != nil {
		return nil, err
	}

	return &Device{PhysicalDevice: p, VKDevice: ldevice}, nil
}

func (p *PhysicalDevice) CreateLogicalDevice(qfs QueueFamilySlice) (*Device, error) {
	return p.CreateLogicalDeviceWithOptions(qfs, nil)
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() {
	vk.DeviceWaitIdle(d.VKDevice)
}

func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	var vkq vk.Queue
	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)

	return &Queue{Device: d, QueueFamily: qf, VKQueue: vkq}
}

// MinUniformBufferOffsetAlignment returns the device limit instance
// indexed uniform buffers must align their per-instance stride to.
func (d *Device) MinUniformBufferOffsetAlignment() uint64 {
	limits := d.PhysicalDevice.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	return uint64(limits.MinUniformBufferOffsetAlignment)
}

// NonCoherentAtomSize returns the alignment mapped memory flushes must
// honor on non-coherent heaps.
func (d *Device) NonCoherentAtomSize() uint64 {
	limits := d.PhysicalDevice.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	return uint64(limits.NonCoherentAtomSize)
}

type AllocationRequirements struct {
	Size           int
	MemoryTypeBits uint32
}

func (d *Device) AllocateForBuffer(b *Buffer, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	ar := b.AllocationRequirements()
	return d.Allocate(ar.Size, ar.MemoryTypeBits, memoryProperties)
}

func (d *Device) Allocate(sizeInBytes int, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	memoryTypeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, vk.MemoryPropertyFlagBits(memoryProperties))
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(sizeInBytes),
		MemoryTypeIndex: memoryTypeIndex,
	}

	var deviceMemory vk.DeviceMemory
	err = vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, err
	}

	return &DeviceMemory{
		Device:         d,
		VKDeviceMemory: deviceMemory,
		Size:           uint64(sizeInBytes),
	}, nil
}

// OneTimeSubmit records fn into a transient command buffer from the load
// pool, submits it on the graphics queue and waits for the queue to
// drain. Every upload path in the engine funnels through here.
func (d *Device) OneTimeSubmit(fn func(cb *CommandBuffer) error) error {
	if d.LoadPool == nil || d.GraphicsQueue == nil {
		return fmt.Errorf("device queues not initialized")
	}

	cb, err := d.LoadPool.AllocateBuffer()
	if err != nil {
		return err
	}
	defer d.LoadPool.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		return err
	}
	if err := fn(cb); err != nil {
		return err
	}
	if err := cb.End(); err != nil {
		return err
	}

	return d.GraphicsQueue.SubmitWaitIdle(cb)
}

package vkg

import (
	"fmt"
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

type VKPresentModes []vk.PresentMode

func (v VKPresentModes) Filter(f vk.PresentMode) VKPresentModes {
	ret := make(VKPresentModes, 0)
	for _, s := range v {
		if f == s {
			ret = append(ret, s)
		}
	}
	return ret
}

type VKSurfaceFormats []vk.SurfaceFormat

func (v VKSurfaceFormats) Filter(f func(f vk.SurfaceFormat) bool) VKSurfaceFormats {
	ret := make(VKSurfaceFormats, 0)
	for _, s := range v {
		s.Deref()
		if f(s) {
			ret = append(ret, s)
		}
	}
	return ret
}

type PhysicalDevice struct {
	DeviceName                 string
	DeviceType                 vk.PhysicalDeviceType
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) (VKPresentModes, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.PresentMode, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) (VKSurfaceFormats, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.SurfaceFormat, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps))
	if err != nil {
		return nil, err
	}

	return &caps, err
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var queueFamilyCount uint32

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, nil)

	if queueFamilyCount == 0 {
		return nil, nil
	}

	queues := make([]vk.QueueFamilyProperties, queueFamilyCount)

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, queues)

	ret := make([]*QueueFamily, queueFamilyCount)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}

	return ret, nil
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var deviceFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &deviceFeatures)
	deviceFeatures.Deref()
	return deviceFeatures
}

func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)

	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}

	names := make([]string, count)
	for i := range ext {
		ext[i].Deref()
		names[i] = vk.ToString(ext[i].ExtensionName[:])
	}
	return names, nil
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	return memoryProperties
}

func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	memoryProperties := p.VKPhysicalDeviceMemoryProperties()
	mp := &memoryProperties
	mp.Deref()

	var i uint32
	for i = 0; i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]

		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 &&
			vk.MemoryPropertyFlagBits(mt.PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no matching memory type found")
}

// ErrNoSuitableDevice is returned when no physical device passes the
// suitability checks. Callers treat it as fatal at startup.
var ErrNoSuitableDevice = fmt.Errorf("no suitable GPU found")

// RequiredDeviceExtensions are the device extensions every candidate
// must support.
var RequiredDeviceExtensions = []string{"VK_KHR_swapchain"}

// DeviceCandidate collects the facts device selection decides on. It is
// gathered from a live PhysicalDevice by GatherCandidate but carries no
// handles itself so selection can be exercised without a GPU.
type DeviceCandidate struct {
	Name              string
	Type              vk.PhysicalDeviceType
	Extensions        []string
	HasGraphicsQueue  bool
	HasPresentQueue   bool
	SurfaceFormats    int
	PresentModes      int
	SamplerAnisotropy bool
}

// Suitable reports whether the candidate passes every check except the
// blacklist: complete queue families, the required extensions, at least
// one surface format and present mode, and anisotropic sampling.
func (c *DeviceCandidate) Suitable() bool {
	if !c.HasGraphicsQueue || !c.HasPresentQueue {
		return false
	}
	for _, req := range RequiredDeviceExtensions {
		found := false
		for _, ext := range c.Extensions {
			if ext == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return c.SurfaceFormats > 0 && c.PresentModes > 0 && c.SamplerAnisotropy
}

// Blacklisted reports whether the candidate's name contains the
// blacklist entry, case-insensitively. An empty blacklist matches
// nothing.
func (c *DeviceCandidate) Blacklisted(blacklist string) bool {
	if blacklist == "" {
		return false
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(blacklist))
}

// SelectPhysicalDevice picks a device index from candidates. The first
// pass accepts only discrete GPUs passing all suitability checks; if
// none qualifies, the second pass accepts the first suitable device of
// any type. Blacklisted devices are never selected. Returns
// ErrNoSuitableDevice when nothing qualifies.
func SelectPhysicalDevice(candidates []DeviceCandidate, blacklist string) (int, error) {
	for i := range candidates {
		c := &candidates[i]
		if c.Blacklisted(blacklist) || !c.Suitable() {
			continue
		}
		if c.Type == vk.PhysicalDeviceTypeDiscreteGpu {
			return i, nil
		}
	}
	for i := range candidates {
		c := &candidates[i]
		if c.Blacklisted(blacklist) || !c.Suitable() {
			continue
		}
		return i, nil
	}
	return -1, ErrNoSuitableDevice
}

// GatherCandidate queries the live device for the facts selection needs.
func (p *PhysicalDevice) GatherCandidate(surface vk.Surface) (DeviceCandidate, error) {
	c := DeviceCandidate{
		Name: p.DeviceName,
		Type: p.DeviceType,
	}

	extensions, err := p.SupportedExtensions()
	if err != nil {
		return c, fmt.Errorf("enumerating extensions of %s: %w", p.DeviceName, err)
	}
	c.Extensions = extensions

	families, err := p.QueueFamilies()
	if err != nil {
		return c, fmt.Errorf("loading queue families of %s: %w", p.DeviceName, err)
	}
	c.HasGraphicsQueue = len(families.FilterGraphics()) > 0
	c.HasPresentQueue = len(families.FilterPresent(surface)) > 0

	formats, err := p.GetSurfaceFormats(surface)
	if err != nil {
		return c, err
	}
	c.SurfaceFormats = len(formats)

	modes, err := p.GetSurfacePresentModes(surface)
	if err != nil {
		return c, err
	}
	c.PresentModes = len(modes)

	c.SamplerAnisotropy = p.VKPhysicalDeviceFeatures().SamplerAnisotropy == vk.True

	return c, nil
}

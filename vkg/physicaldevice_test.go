package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func suitableCandidate(name string, devType vk.PhysicalDeviceType) DeviceCandidate {
	return DeviceCandidate{
		Name:              name,
		Type:              devType,
		Extensions:        []string{"VK_KHR_swapchain"},
		HasGraphicsQueue:  true,
		HasPresentQueue:   true,
		SurfaceFormats:    2,
		PresentModes:      3,
		SamplerAnisotropy: true,
	}
}

func TestSelectPrefersDiscreteGPU(t *testing.T) {
	candidates := []DeviceCandidate{
		suitableCandidate("Intel UHD Graphics 770", vk.PhysicalDeviceTypeIntegratedGpu),
		suitableCandidate("NVIDIA GeForce RTX 3070", vk.PhysicalDeviceTypeDiscreteGpu),
	}

	idx, err := SelectPhysicalDevice(candidates, "")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestSelectFallsBackToIntegrated(t *testing.T) {
	candidates := []DeviceCandidate{
		suitableCandidate("Intel UHD Graphics 770", vk.PhysicalDeviceTypeIntegratedGpu),
		suitableCandidate("llvmpipe (LLVM 15.0.7)", vk.PhysicalDeviceTypeCpu),
	}

	idx, err := SelectPhysicalDevice(candidates, "")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSelectIsDeterministic(t *testing.T) {
	candidates := []DeviceCandidate{
		suitableCandidate("AMD Radeon RX 6800", vk.PhysicalDeviceTypeDiscreteGpu),
		suitableCandidate("NVIDIA GeForce RTX 3070", vk.PhysicalDeviceTypeDiscreteGpu),
	}

	first, err := SelectPhysicalDevice(candidates, "")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		idx, err := SelectPhysicalDevice(candidates, "")
		require.NoError(t, err)
		assert.Equal(t, first, idx, "selection must not vary between runs")
	}
	// ties between equally ranked devices go to enumeration order
	assert.Equal(t, 0, first)
}

func TestSelectBlacklistIsCaseInsensitiveSubstring(t *testing.T) {
	candidates := []DeviceCandidate{
		suitableCandidate("NVIDIA GeForce RTX 3070", vk.PhysicalDeviceTypeDiscreteGpu),
		suitableCandidate("Intel UHD Graphics 770", vk.PhysicalDeviceTypeIntegratedGpu),
	}

	idx, err := SelectPhysicalDevice(candidates, "geforce")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = SelectPhysicalDevice(candidates, "RTX")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestSelectBlacklistCanExhaustAllDevices(t *testing.T) {
	candidates := []DeviceCandidate{
		suitableCandidate("NVIDIA GeForce RTX 3070", vk.PhysicalDeviceTypeDiscreteGpu),
	}

	_, err := SelectPhysicalDevice(candidates, "nvidia")
	assert.ErrorIs(t, err, ErrNoSuitableDevice)
}

func TestSelectRejectsUnsuitableDevices(t *testing.T) {
	noSwapchain := suitableCandidate("Card A", vk.PhysicalDeviceTypeDiscreteGpu)
	noSwapchain.Extensions = nil

	noPresent := suitableCandidate("Card B", vk.PhysicalDeviceTypeDiscreteGpu)
	noPresent.HasPresentQueue = false

	noFormats := suitableCandidate("Card C", vk.PhysicalDeviceTypeDiscreteGpu)
	noFormats.SurfaceFormats = 0

	noAnisotropy := suitableCandidate("Card D", vk.PhysicalDeviceTypeDiscreteGpu)
	noAnisotropy.SamplerAnisotropy = false

	candidates := []DeviceCandidate{
		noSwapchain, noPresent, noFormats, noAnisotropy,
		suitableCandidate("Card E", vk.PhysicalDeviceTypeIntegratedGpu),
	}

	idx, err := SelectPhysicalDevice(candidates, "")
	require.NoError(t, err)
	assert.Equal(t, 4, idx)

	_, err = SelectPhysicalDevice(candidates[:4], "")
	assert.ErrorIs(t, err, ErrNoSuitableDevice)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), AlignUp(0, 256))
	assert.Equal(t, uint64(256), AlignUp(1, 256))
	assert.Equal(t, uint64(256), AlignUp(256, 256))
	assert.Equal(t, uint64(512), AlignUp(257, 256))
	// zero alignment means no requirement
	assert.Equal(t, uint64(100), AlignUp(100, 0))
}

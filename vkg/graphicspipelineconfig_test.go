package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func fullColorMask() vk.ColorComponentFlags {
	return vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
}

func TestNoBlendAttachmentDisablesBlending(t *testing.T) {
	a := NoBlendAttachment()

	assert.Equal(t, vk.Bool32(vk.False), a.BlendEnable)
	assert.Equal(t, fullColorMask(), a.ColorWriteMask)
}

func TestAdditiveBlendAttachmentAccumulates(t *testing.T) {
	a := AdditiveBlendAttachment()

	assert.Equal(t, vk.Bool32(vk.True), a.BlendEnable)
	assert.Equal(t, vk.BlendFactorSrcAlpha, a.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOne, a.DstColorBlendFactor)
	assert.Equal(t, vk.BlendOpAdd, a.ColorBlendOp)
	assert.Equal(t, fullColorMask(), a.ColorWriteMask)
}

func TestAlphaBlendAttachmentIsConventionalTransparency(t *testing.T) {
	a := AlphaBlendAttachment()

	assert.Equal(t, vk.Bool32(vk.True), a.BlendEnable)
	assert.Equal(t, vk.BlendFactorSrcAlpha, a.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, a.DstColorBlendFactor)
	assert.Equal(t, vk.BlendOpAdd, a.ColorBlendOp)
	assert.Equal(t, fullColorMask(), a.ColorWriteMask)
}

func TestPipelineCreateInfoCarriesBlendAttachments(t *testing.T) {
	config := (&Device{}).CreateGraphicsPipelineConfig()
	config.AddBlendAttachment(AlphaBlendAttachment())

	info, err := config.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	require.EqualValues(t, 1, info.PColorBlendState.AttachmentCount)
	assert.Equal(t, vk.Bool32(vk.True), info.PColorBlendState.PAttachments[0].BlendEnable)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, info.PColorBlendState.PAttachments[0].DstColorBlendFactor)
}

func TestPipelineCreateInfoDefaultsToOneNoBlendAttachment(t *testing.T) {
	config := (&Device{}).CreateGraphicsPipelineConfig()

	info, err := config.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	require.EqualValues(t, 1, info.PColorBlendState.AttachmentCount)
	assert.Equal(t, vk.Bool32(vk.False), info.PColorBlendState.PAttachments[0].BlendEnable)
}

func TestPipelineCreateInfoAppliesDepthBias(t *testing.T) {
	config := (&Device{}).CreateGraphicsPipelineConfig()
	config.SetDepthBias(8.0, 0.0, 3.0)

	info, err := config.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 2048, Height: 2048})
	require.NoError(t, err)

	raster := info.PRasterizationState
	assert.Equal(t, vk.Bool32(vk.True), raster.DepthBiasEnable)
	assert.Equal(t, float32(8.0), raster.DepthBiasConstantFactor)
	assert.Equal(t, float32(3.0), raster.DepthBiasSlopeFactor)
}

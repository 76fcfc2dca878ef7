package renderer

import (
	"fmt"

	"github.com/GDBobby/vulkan/vkg"
	vk "github.com/vulkan-go/vulkan"
)

// DeferredSystem resolves the G-buffer during the lighting subpass: a
// single full screen quad reads position, normal, albedo and material
// as input attachments, samples the shadow map and accumulates the
// light environment from the global uniform block. No vertex buffer is
// bound; the quad corners come from the vertex index.
type DeferredSystem struct {
	device   *vkg.Device
	layout   *vkg.PipelineLayout
	pipeline vk.Pipeline

	inputLayout *vkg.DescriptorSetLayout
	inputSet    *vkg.DescriptorSet
}

// NewDeferredSystem builds the resolve pipeline and the input
// attachment descriptor set over the render pass's G-buffer.
func NewDeferredSystem(device *vkg.Device, cache *vkg.PipelineCache, renderPass *vkg.RenderPass, pool *vkg.DescriptorPool, globalLayout *vkg.DescriptorSetLayout, shadowMaps []*vkg.ShadowMap, shaderDir string) (*DeferredSystem, error) {
	if len(shadowMaps) != MaxDirectionalLights {
		return nil, fmt.Errorf("deferred system needs %d shadow maps, got %d", MaxDirectionalLights, len(shadowMaps))
	}

	inputLayout := device.NewDescriptorSetLayout()
	inputLayout.AddSimpleBinding(vk.DescriptorTypeInputAttachment, vk.ShaderStageFragmentBit) // position
	inputLayout.AddSimpleBinding(vk.DescriptorTypeInputAttachment, vk.ShaderStageFragmentBit) // normal
	inputLayout.AddSimpleBinding(vk.DescriptorTypeInputAttachment, vk.ShaderStageFragmentBit) // albedo
	inputLayout.AddSimpleBinding(vk.DescriptorTypeInputAttachment, vk.ShaderStageFragmentBit) // material
	for range shadowMaps {
		inputLayout.AddSimpleBinding(vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit)
	}

	if _, err := device.CreateDescriptorSetLayout(inputLayout); err != nil {
		return nil, err
	}

	s := &DeferredSystem{device: device, inputLayout: inputLayout}

	var err error
	s.layout, err = device.CreatePipelineLayout(globalLayout, inputLayout)
	if err != nil {
		s.Destroy()
		return nil, err
	}

	config := device.CreateGraphicsPipelineConfig()
	config.SetPipelineLayout(s.layout)
	config.SetSubpass(vkg.SubpassLighting)
	config.SetCullMode(vk.CullModeNone)
	config.DepthTestEnable = false
	config.DepthWriteEnable = false
	config.AddBlendAttachment(vkg.AlphaBlendAttachment())
	defer config.Destroy()

	if err := config.AddShaderStageFromFile(shaderDir+"/deferred.vert.spv", "main", vk.ShaderStageVertexBit); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := config.AddShaderStageFromFile(shaderDir+"/deferred.frag.spv", "main", vk.ShaderStageFragmentBit); err != nil {
		s.Destroy()
		return nil, err
	}

	s.pipeline, err = device.CreateGraphicsPipeline(cache, config, renderPass.VKRenderPass, renderPass.Extent)
	if err != nil {
		s.Destroy()
		return nil, err
	}

	if err := s.RebuildInputSet(renderPass, pool, shadowMaps); err != nil {
		s.Destroy()
		return nil, err
	}

	return s, nil
}

// RebuildInputSet rewrites the input attachment set against a (re)built
// render pass. Called at startup and again after every swapchain
// recreation since the G-buffer images are new.
func (s *DeferredSystem) RebuildInputSet(renderPass *vkg.RenderPass, pool *vkg.DescriptorPool, shadowMaps []*vkg.ShadowMap) error {
	if s.inputSet == nil {
		set, err := pool.Allocate(s.inputLayout)
		if err != nil {
			return err
		}
		s.inputSet = set
	}

	g := renderPass.GBuffer
	s.inputSet.AddInputAttachment(0, g.PositionView.VKImageView)
	s.inputSet.AddInputAttachment(1, g.NormalView.VKImageView)
	s.inputSet.AddInputAttachment(2, g.ColorView.VKImageView)
	s.inputSet.AddInputAttachment(3, g.MaterialView.VKImageView)
	for i, shadowMap := range shadowMaps {
		s.inputSet.AddCombinedImageSampler(4+i, vk.ImageLayoutShaderReadOnlyOptimal,
			shadowMap.DepthView.VKImageView, shadowMap.Sampler)
	}
	s.inputSet.Write()
	return nil
}

// Render records the full screen resolve draw.
func (s *DeferredSystem) Render(frame *FrameInfo) {
	frame.Cmd.CmdBindGraphicsPipeline(s.pipeline)
	frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.layout, 0, frame.GlobalSet, s.inputSet)
	frame.Cmd.CmdDraw(6, 1, 0, 0)
}

func (s *DeferredSystem) Destroy() {
	if s.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(s.device.VKDevice, s.pipeline, nil)
	}
	if s.layout != nil {
		s.layout.Destroy()
	}
	s.inputLayout.Destroy()
}

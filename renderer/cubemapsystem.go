package renderer

import (
	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	vk "github.com/vulkan-go/vulkan"
)

// CubemapSystem draws the sky during the transparency subpass, before
// any blended geometry. The cube is 36 shader-generated vertices; depth
// test runs at less-or-equal against the far plane so sky fragments
// only survive where no geometry was drawn, and depth writes stay off.
type CubemapSystem struct {
	device   *vkg.Device
	layout   *vkg.PipelineLayout
	pipeline vk.Pipeline

	// EnvironmentLayout binds the environment texture an entity tagged
	// CubemapTag provides.
	EnvironmentLayout *vkg.DescriptorSetLayout
}

func NewCubemapSystem(device *vkg.Device, cache *vkg.PipelineCache, renderPass *vkg.RenderPass, globalLayout *vkg.DescriptorSetLayout, shaderDir string) (*CubemapSystem, error) {
	envLayout := device.NewDescriptorSetLayout()
	envLayout.AddSimpleBinding(vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit)
	if _, err := device.CreateDescriptorSetLayout(envLayout); err != nil {
		return nil, err
	}

	layout, err := device.CreatePipelineLayout(globalLayout, envLayout)
	if err != nil {
		envLayout.Destroy()
		return nil, err
	}

	config := device.CreateGraphicsPipelineConfig()
	config.SetPipelineLayout(layout)
	config.SetSubpass(vkg.SubpassTransparency)
	config.SetCullMode(vk.CullModeFrontBit)
	config.DepthWriteEnable = false
	config.AddBlendAttachment(vkg.NoBlendAttachment())
	config.Configure = func(ci *vk.GraphicsPipelineCreateInfo) {
		ci.PDepthStencilState.DepthCompareOp = vk.CompareOpLessOrEqual
	}
	defer config.Destroy()

	if err := config.AddShaderStageFromFile(shaderDir+"/cubemap.vert.spv", "main", vk.ShaderStageVertexBit); err != nil {
		layout.Destroy()
		envLayout.Destroy()
		return nil, err
	}
	if err := config.AddShaderStageFromFile(shaderDir+"/cubemap.frag.spv", "main", vk.ShaderStageFragmentBit); err != nil {
		layout.Destroy()
		envLayout.Destroy()
		return nil, err
	}

	pipeline, err := device.CreateGraphicsPipeline(cache, config, renderPass.VKRenderPass, renderPass.Extent)
	if err != nil {
		layout.Destroy()
		envLayout.Destroy()
		return nil, err
	}

	return &CubemapSystem{
		device:            device,
		layout:            layout,
		pipeline:          pipeline,
		EnvironmentLayout: envLayout,
	}, nil
}

// Render draws the first cubemap-tagged entity that has an environment
// set. More than one sky per scene makes no sense; extras are ignored.
func (s *CubemapSystem) Render(frame *FrameInfo, environmentSets map[ecs.Entity]*vkg.DescriptorSet) {
	reg := frame.Scene.Registry

	view := ecs.ViewOf[scene.CubemapTag](reg)
	for view.Next() {
		set, ok := environmentSets[view.Entity()]
		if !ok {
			continue
		}

		frame.Cmd.CmdBindGraphicsPipeline(s.pipeline)
		frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.layout, 0, frame.GlobalSet, set)
		frame.Cmd.CmdDraw(36, 1, 0, 0)
		return
	}
}

func (s *CubemapSystem) Destroy() {
	vk.DestroyPipeline(s.device.VKDevice, s.pipeline, nil)
	s.layout.Destroy()
	s.EnvironmentLayout.Destroy()
}

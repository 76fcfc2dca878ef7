package renderer

import (
	"unsafe"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

type spritePush struct {
	Transform mgl32.Mat4
}

// SpriteSystem draws screen-space quads during the overlay pass with
// conventional alpha blending. Sprites are entities tagged SpriteTag
// carrying a Transform2D and a sprite descriptor set with their
// texture.
type SpriteSystem struct {
	device   *vkg.Device
	layout   *vkg.PipelineLayout
	pipeline vk.Pipeline

	// SpriteLayout is the set layout sprite textures are bound with
	SpriteLayout *vkg.DescriptorSetLayout
}

func NewSpriteSystem(device *vkg.Device, cache *vkg.PipelineCache, guiPass *vkg.RenderPass, shaderDir string) (*SpriteSystem, error) {
	spriteLayout := device.NewDescriptorSetLayout()
	spriteLayout.AddSimpleBinding(vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit)
	if _, err := device.CreateDescriptorSetLayout(spriteLayout); err != nil {
		return nil, err
	}

	pushRange := []vk.PushConstantRange{{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Size:       uint32(unsafe.Sizeof(spritePush{})),
	}}

	layout, err := device.CreatePipelineLayoutWithPushConstants(
		[]*vkg.DescriptorSetLayout{spriteLayout}, pushRange)
	if err != nil {
		spriteLayout.Destroy()
		return nil, err
	}

	config := device.CreateGraphicsPipelineConfig()
	config.SetPipelineLayout(layout)
	config.SetCullMode(vk.CullModeNone)
	config.DepthTestEnable = false
	config.DepthWriteEnable = false
	config.AddBlendAttachment(vkg.AlphaBlendAttachment())
	defer config.Destroy()

	if err := config.AddShaderStageFromFile(shaderDir+"/sprite.vert.spv", "main", vk.ShaderStageVertexBit); err != nil {
		layout.Destroy()
		spriteLayout.Destroy()
		return nil, err
	}
	if err := config.AddShaderStageFromFile(shaderDir+"/sprite.frag.spv", "main", vk.ShaderStageFragmentBit); err != nil {
		layout.Destroy()
		spriteLayout.Destroy()
		return nil, err
	}

	pipeline, err := device.CreateGraphicsPipeline(cache, config, guiPass.VKRenderPass, guiPass.Extent)
	if err != nil {
		layout.Destroy()
		spriteLayout.Destroy()
		return nil, err
	}

	return &SpriteSystem{
		device:       device,
		layout:       layout,
		pipeline:     pipeline,
		SpriteLayout: spriteLayout,
	}, nil
}

func spriteMatrix(t *scene.Transform2D) mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), 0)
	rotate := mgl32.HomogRotate3DZ(t.Rotation)
	size := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), 1)
	return translate.Mul4(rotate).Mul4(size)
}

// Render draws every sprite entity as a shader-generated quad.
func (s *SpriteSystem) Render(frame *FrameInfo, spriteSets map[ecs.Entity]*vkg.DescriptorSet) {
	reg := frame.Scene.Registry
	bound := false

	view := ecs.View2[scene.Transform2D, scene.SpriteTag](reg)
	for view.Next() {
		e := view.Entity()
		set, ok := spriteSets[e]
		if !ok {
			continue
		}

		if !bound {
			frame.Cmd.CmdBindGraphicsPipeline(s.pipeline)
			bound = true
		}

		frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.layout, 0, set)

		push := spritePush{Transform: spriteMatrix(ecs.Get[scene.Transform2D](reg, e))}
		frame.Cmd.CmdPushConstants(s.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			unsafe.Pointer(&push), int(unsafe.Sizeof(push)))

		frame.Cmd.CmdDraw(6, 1, 0, 0)
	}
}

func (s *SpriteSystem) Destroy() {
	vk.DestroyPipeline(s.device.VKDevice, s.pipeline, nil)
	s.layout.Destroy()
	s.SpriteLayout.Destroy()
}

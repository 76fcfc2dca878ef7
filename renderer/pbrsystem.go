package renderer

import (
	"unsafe"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// modelPush is the per-draw push constant block of the mesh pipelines.
// The normal matrix rides in a mat4 to keep std430 row padding out of
// the picture.
type modelPush struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

func pushFromTransform(t *scene.TransformComponent) modelPush {
	normal := t.NormalMatrix()
	return modelPush{
		ModelMatrix:  t.Mat4(),
		NormalMatrix: normal.Mat4(),
	}
}

func modelPushRange() []vk.PushConstantRange {
	return []vk.PushConstantRange{{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Size:       uint32(unsafe.Sizeof(modelPush{})),
	}}
}

// PbrSystem fills the G-buffer during the geometry subpass. Textured
// meshes go through the material pipeline with their texture set bound;
// meshes tagged PbrNoMapTag render through the untextured variant which
// derives albedo from vertex color.
type PbrSystem struct {
	device *vkg.Device

	texturedLayout *vkg.PipelineLayout
	noMapLayout    *vkg.PipelineLayout

	texturedPipeline vk.Pipeline
	noMapPipeline    vk.Pipeline
}

func NewPbrSystem(device *vkg.Device, cache *vkg.PipelineCache, renderPass *vkg.RenderPass, globalLayout, materialLayout *vkg.DescriptorSetLayout, shaderDir string) (*PbrSystem, error) {
	texturedLayout, err := device.CreatePipelineLayoutWithPushConstants(
		[]*vkg.DescriptorSetLayout{globalLayout, materialLayout}, modelPushRange())
	if err != nil {
		return nil, err
	}

	noMapLayout, err := device.CreatePipelineLayoutWithPushConstants(
		[]*vkg.DescriptorSetLayout{globalLayout}, modelPushRange())
	if err != nil {
		texturedLayout.Destroy()
		return nil, err
	}

	buildPipeline := func(layout *vkg.PipelineLayout, vert, frag string) (vk.Pipeline, error) {
		config := device.CreateGraphicsPipelineConfig()
		config.SetPipelineLayout(layout)
		config.SetSubpass(vkg.SubpassGeometry)
		config.AddNoBlendAttachments(4)
		config.AddVertexDescriptor(Vertex{})
		defer config.Destroy()

		if err := config.AddShaderStageFromFile(shaderDir+"/"+vert, "main", vk.ShaderStageVertexBit); err != nil {
			return vk.NullPipeline, err
		}
		if err := config.AddShaderStageFromFile(shaderDir+"/"+frag, "main", vk.ShaderStageFragmentBit); err != nil {
			return vk.NullPipeline, err
		}
		return device.CreateGraphicsPipeline(cache, config, renderPass.VKRenderPass, renderPass.Extent)
	}

	s := &PbrSystem{
		device:         device,
		texturedLayout: texturedLayout,
		noMapLayout:    noMapLayout,
	}

	s.texturedPipeline, err = buildPipeline(texturedLayout, "pbr.vert.spv", "pbr.frag.spv")
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.noMapPipeline, err = buildPipeline(noMapLayout, "pbrNoMap.vert.spv", "pbrNoMap.frag.spv")
	if err != nil {
		s.Destroy()
		return nil, err
	}

	return s, nil
}

// Render draws every enabled mesh into the G-buffer.
func (s *PbrSystem) Render(frame *FrameInfo, materialSets map[ecs.Entity]*vkg.DescriptorSet) {
	reg := frame.Scene.Registry

	// untextured first, then textured, so each pipeline binds once
	s.renderNoMap(frame, reg)
	s.renderTextured(frame, reg, materialSets)
}

func (s *PbrSystem) renderNoMap(frame *FrameInfo, reg *ecs.Registry) {
	bound := false

	view := ecs.View3[scene.MeshComponent, scene.TransformComponent, scene.PbrNoMapTag](reg)
	for view.Next() {
		e := view.Entity()
		mesh := ecs.Get[scene.MeshComponent](reg, e)
		if !mesh.Enabled {
			continue
		}
		model, ok := mesh.Model.(*Model)
		if !ok {
			continue
		}

		if !bound {
			frame.Cmd.CmdBindGraphicsPipeline(s.noMapPipeline)
			frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.noMapLayout, 0, frame.GlobalSet)
			bound = true
		}

		push := pushFromTransform(ecs.Get[scene.TransformComponent](reg, e))
		frame.Cmd.CmdPushConstants(s.noMapLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			unsafe.Pointer(&push), int(unsafe.Sizeof(push)))

		model.Bind(frame.Cmd)
		model.Draw(frame.Cmd)
	}
}

func (s *PbrSystem) renderTextured(frame *FrameInfo, reg *ecs.Registry, materialSets map[ecs.Entity]*vkg.DescriptorSet) {
	bound := false

	view := ecs.View2[scene.MeshComponent, scene.TransformComponent](reg)
	for view.Next() {
		e := view.Entity()
		if ecs.Has[scene.PbrNoMapTag](reg, e) {
			continue
		}
		mesh := ecs.Get[scene.MeshComponent](reg, e)
		if !mesh.Enabled {
			continue
		}
		model, ok := mesh.Model.(*Model)
		if !ok {
			continue
		}
		materialSet, ok := materialSets[e]
		if !ok {
			continue
		}

		if !bound {
			frame.Cmd.CmdBindGraphicsPipeline(s.texturedPipeline)
			frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.texturedLayout, 0, frame.GlobalSet)
			bound = true
		}

		frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.texturedLayout, 1, materialSet)

		push := pushFromTransform(ecs.Get[scene.TransformComponent](reg, e))
		frame.Cmd.CmdPushConstants(s.texturedLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			unsafe.Pointer(&push), int(unsafe.Sizeof(push)))

		model.Bind(frame.Cmd)
		model.Draw(frame.Cmd)
	}
}

func (s *PbrSystem) Destroy() {
	if s.texturedPipeline != vk.NullPipeline {
		vk.DestroyPipeline(s.device.VKDevice, s.texturedPipeline, nil)
	}
	if s.noMapPipeline != vk.NullPipeline {
		vk.DestroyPipeline(s.device.VKDevice, s.noMapPipeline, nil)
	}
	s.texturedLayout.Destroy()
	s.noMapLayout.Destroy()
}

package renderer

import (
	"fmt"
	"unsafe"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Depth bias factors applied while rendering shadow casters. Constant
// and slope bias push the stored depth away from the light, which
// trades a sliver of peter-panning for acne-free surfaces.
const (
	shadowDepthBiasConstant = 8.0
	shadowDepthBiasClamp    = 0.0
	shadowDepthBiasSlope    = 3.0
)

// shadowPush selects the light view/projection slot of the pass being
// rendered alongside the model matrix.
type shadowPush struct {
	ModelMatrix mgl32.Mat4
	LightIndex  int32
	_           [3]int32
}

func shadowPushRange() []vk.PushConstantRange {
	return []vk.PushConstantRange{{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Size:       uint32(unsafe.Sizeof(shadowPush{})),
	}}
}

// ShadowSystem renders the scene's meshes into the directional lights'
// shadow maps, one pipeline per shadow pass. Depth only: the pipelines
// carry a vertex shader and no fragment stage.
type ShadowSystem struct {
	device    *vkg.Device
	layout    *vkg.PipelineLayout
	pipelines [MaxDirectionalLights]vk.Pipeline
}

func NewShadowSystem(device *vkg.Device, cache *vkg.PipelineCache, shadowMaps []*vkg.ShadowMap, globalLayout *vkg.DescriptorSetLayout, shaderDir string) (*ShadowSystem, error) {
	if len(shadowMaps) != MaxDirectionalLights {
		return nil, fmt.Errorf("shadow system needs %d shadow maps, got %d", MaxDirectionalLights, len(shadowMaps))
	}

	layout, err := device.CreatePipelineLayoutWithPushConstants(
		[]*vkg.DescriptorSetLayout{globalLayout}, shadowPushRange())
	if err != nil {
		return nil, err
	}

	s := &ShadowSystem{device: device, layout: layout}

	for i, shadowMap := range shadowMaps {
		config := device.CreateGraphicsPipelineConfig()
		config.SetPipelineLayout(layout)
		config.AddVertexDescriptor(Vertex{})
		config.SetDepthBias(shadowDepthBiasConstant, shadowDepthBiasClamp, shadowDepthBiasSlope)
		// front face culling reduces acne further on closed meshes
		config.SetCullMode(vk.CullModeFrontBit)
		config.BlendAttachments = []vk.PipelineColorBlendAttachmentState{}

		if err := config.AddShaderStageFromFile(shaderDir+"/shadow.vert.spv", "main", vk.ShaderStageVertexBit); err != nil {
			config.Destroy()
			s.Destroy()
			return nil, err
		}

		s.pipelines[i], err = device.CreateGraphicsPipeline(cache, config, shadowMap.VKRenderPass, shadowMap.Extent)
		config.Destroy()
		if err != nil {
			s.Destroy()
			return nil, err
		}
	}

	return s, nil
}

// Render records every enabled mesh into the currently begun shadow
// pass for passIndex. The matching light view and projection come from
// the global uniform block, selected by the push constant.
func (s *ShadowSystem) Render(frame *FrameInfo, passIndex int) {
	if passIndex < 0 || passIndex >= MaxDirectionalLights {
		return
	}

	reg := frame.Scene.Registry

	frame.Cmd.CmdBindGraphicsPipeline(s.pipelines[passIndex])
	frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, s.layout, 0, frame.GlobalSet)

	view := ecs.View2[scene.MeshComponent, scene.TransformComponent](reg)
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

		push := shadowPush{
			ModelMatrix: ecs.Get[scene.TransformComponent](reg, e).Mat4(),
			LightIndex:  int32(passIndex),
		}
		frame.Cmd.CmdPushConstants(s.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			unsafe.Pointer(&push), int(unsafe.Sizeof(push)))

		model.Bind(frame.Cmd)
		model.Draw(frame.Cmd)
	}
}

func (s *ShadowSystem) Destroy() {
	for _, p := range s.pipelines {
		if p != vk.NullPipeline {
			vk.DestroyPipeline(s.device.VKDevice, p, nil)
		}
	}
	s.layout.Destroy()
}

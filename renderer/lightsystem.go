package renderer

import (
	"sort"
	"unsafe"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// PointLightEntry is one point light gathered from the scene along with
// its squared distance to the camera.
type PointLightEntry struct {
	Entity   ecs.Entity
	Position mgl32.Vec3
	Light    scene.PointLightComponent
	DistSq   float32
}

// CollectPointLights gathers every entity carrying both a transform and
// a point light, sorted back to front: squared camera distances are
// non-increasing, so the additive billboards blend correctly when drawn
// in slice order. Lights at equal distance keep no particular relative
// order.
func CollectPointLights(s *scene.Scene, cameraPosition mgl32.Vec3) []PointLightEntry {
	entries := make([]PointLightEntry, 0)

	view := ecs.View2[scene.TransformComponent, scene.PointLightComponent](s.Registry)
	for view.Next() {
		e := view.Entity()
		transform := ecs.Get[scene.TransformComponent](s.Registry, e)
		position := transform.Translation()
		offset := position.Sub(cameraPosition)

		entries = append(entries, PointLightEntry{
			Entity:   e,
			Position: position,
			Light:    *ecs.Get[scene.PointLightComponent](s.Registry, e),
			DistSq:   offset.Dot(offset),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DistSq > entries[j].DistSq
	})

	return entries
}

// FillLightUniform writes the sorted lights into the global uniform
// block, truncating to the array capacity. The farthest lights are
// dropped first since the nearest ones dominate the image.
func FillLightUniform(ubo *GlobalUniform, entries []PointLightEntry) {
	if len(entries) > MaxPointLights {
		entries = entries[len(entries)-MaxPointLights:]
	}

	for i, entry := range entries {
		ubo.PointLights[i] = PointLightUniform{
			Position: entry.Position.Vec4(1),
			Color:    entry.Light.Color.Vec4(entry.Light.Intensity),
		}
	}
	ubo.NumPointLights = int32(len(entries))
}

// DirectionalLightEntry is a directional light with the shadow pass
// index it claimed.
type DirectionalLightEntry struct {
	Entity    ecs.Entity
	Light     scene.DirectionalLightComponent
	PassIndex int
}

// CollectDirectionalLights gathers directional lights keyed by their
// shadow pass index. A light with an index outside
// [0,MaxDirectionalLights) is skipped, and when two lights claim the
// same pass the first one encountered keeps it. Entries come back in
// pass index order.
func CollectDirectionalLights(s *scene.Scene) []DirectionalLightEntry {
	var slots [MaxDirectionalLights]*DirectionalLightEntry

	view := ecs.ViewOf[scene.DirectionalLightComponent](s.Registry)
	for view.Next() {
		e := view.Entity()
		light := ecs.Get[scene.DirectionalLightComponent](s.Registry, e)
		index := light.RenderPass
		if index < 0 || index >= MaxDirectionalLights || slots[index] != nil {
			continue
		}
		slots[index] = &DirectionalLightEntry{Entity: e, Light: *light, PassIndex: index}
	}

	entries := make([]DirectionalLightEntry, 0, MaxDirectionalLights)
	for _, slot := range slots {
		if slot != nil {
			entries = append(entries, *slot)
		}
	}
	return entries
}

// FillDirectionalLights writes every light into the uniform slot its
// pass index names. Unclaimed slots get identity matrices and a zero
// intensity light so shaders can iterate 0..NumDirectionalLights-1.
func FillDirectionalLights(ubo *GlobalUniform, entries []DirectionalLightEntry) {
	for i := 0; i < MaxDirectionalLights; i++ {
		ubo.LightProjection[i] = mgl32.Ident4()
		ubo.LightView[i] = mgl32.Ident4()
		ubo.DirectionalLights[i] = DirectionalLightUniform{}
	}

	num := int32(0)
	for _, entry := range entries {
		i := entry.PassIndex
		ubo.DirectionalLights[i] = DirectionalLightUniform{
			Direction: entry.Light.Direction.Vec4(0),
			Color:     entry.Light.Color.Vec4(entry.Light.Intensity),
		}
		if entry.Light.LightView != nil {
			ubo.LightProjection[i] = entry.Light.LightView.Projection()
			ubo.LightView[i] = entry.Light.LightView.View()
		}
		if int32(i)+1 > num {
			num = int32(i) + 1
		}
	}
	ubo.NumDirectionalLights = num
}

type pointLightPush struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Radius   float32
	_        [3]float32
}

// LightSystem draws a camera-facing billboard per point light during
// the transparency subpass. The quad corners are generated in the
// vertex shader, so no vertex buffer is ever bound.
type LightSystem struct {
	device   *vkg.Device
	layout   *vkg.PipelineLayout
	pipeline vk.Pipeline
}

func NewLightSystem(device *vkg.Device, cache *vkg.PipelineCache, renderPass *vkg.RenderPass, globalLayout *vkg.DescriptorSetLayout, shaderDir string) (*LightSystem, error) {
	pushRange := []vk.PushConstantRange{{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		Size:       uint32(unsafe.Sizeof(pointLightPush{})),
	}}

	layout, err := device.CreatePipelineLayoutWithPushConstants([]*vkg.DescriptorSetLayout{globalLayout}, pushRange)
	if err != nil {
		return nil, err
	}

	config := device.CreateGraphicsPipelineConfig()
	config.SetPipelineLayout(layout)
	config.SetSubpass(vkg.SubpassTransparency)
	config.SetCullMode(vk.CullModeNone)
	config.DepthWriteEnable = false
	config.AddBlendAttachment(vkg.AdditiveBlendAttachment())
	defer config.Destroy()

	if err := config.AddShaderStageFromFile(shaderDir+"/pointLight.vert.spv", "main", vk.ShaderStageVertexBit); err != nil {
		layout.Destroy()
		return nil, err
	}
	if err := config.AddShaderStageFromFile(shaderDir+"/pointLight.frag.spv", "main", vk.ShaderStageFragmentBit); err != nil {
		layout.Destroy()
		return nil, err
	}

	pipeline, err := device.CreateGraphicsPipeline(cache, config, renderPass.VKRenderPass, renderPass.Extent)
	if err != nil {
		layout.Destroy()
		return nil, err
	}

	return &LightSystem{device: device, layout: layout, pipeline: pipeline}, nil
}

// Render draws the pre-sorted lights back to front.
func (ls *LightSystem) Render(frame *FrameInfo, entries []PointLightEntry) {
	if len(entries) == 0 {
		return
	}

	frame.Cmd.CmdBindGraphicsPipeline(ls.pipeline)
	frame.Cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, ls.layout, 0, frame.GlobalSet)

	for _, entry := range entries {
		push := pointLightPush{
			Position: entry.Position.Vec4(1),
			Color:    entry.Light.Color.Vec4(entry.Light.Intensity),
			Radius:   entry.Light.Radius,
		}
		frame.Cmd.CmdPushConstants(ls.layout,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
			unsafe.Pointer(&push), int(unsafe.Sizeof(push)))

		// two triangles generated from gl_VertexIndex
		frame.Cmd.CmdDraw(6, 1, 0, 0)
	}
}

func (ls *LightSystem) Destroy() {
	vk.DestroyPipeline(ls.device.VKDevice, ls.pipeline, nil)
	ls.layout.Destroy()
}

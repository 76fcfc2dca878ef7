package renderer

import (
	"errors"
	"fmt"
	"log"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Options configures renderer construction.
type Options struct {
	// ShaderDir is where the compiled SPIR-V modules live. Defaults to
	// "shaders".
	ShaderDir string

	// ShadowMapSize is the square shadow map resolution. Defaults to
	// 2048.
	ShadowMapSize int

	// ExtentFn reports the current framebuffer size in pixels. It is
	// consulted when the surface does not pin the swapchain extent,
	// typically on resize.
	ExtentFn func() vk.Extent2D
}

func (o *Options) fillDefaults() {
	if o.ShaderDir == "" {
		o.ShaderDir = "shaders"
	}
	if o.ShadowMapSize == 0 {
		o.ShadowMapSize = 2048
	}
}

// SceneResources carries the descriptor sets the application maintains
// per entity. The renderer does not own texture lifetimes; it only
// binds what it is handed.
type SceneResources struct {
	// MaterialSets bind PBR texture maps, laid out per MaterialLayout.
	MaterialSets map[ecs.Entity]*vkg.DescriptorSet

	// EnvironmentSets bind cubemap textures for sky entities.
	EnvironmentSets map[ecs.Entity]*vkg.DescriptorSet

	// SpriteSets bind overlay sprite textures.
	SpriteSets map[ecs.Entity]*vkg.DescriptorSet
}

// Renderer owns the swapchain, the render passes and the render
// systems, and drives them through the frame in a fixed order: shadow
// pass, deferred pass (geometry, lighting, transparency subpasses),
// then the overlay pass. Out of order calls are rejected with
// ErrFrameState.
type Renderer struct {
	device  *vkg.Device
	surface vk.Surface
	options Options

	swapchain    *vkg.Swapchain
	deferredPass *vkg.RenderPass
	overlayPass  *vkg.RenderPass
	shadowMaps   [MaxDirectionalLights]*vkg.ShadowMap

	cache   *vkg.PipelineCache
	pool    *vkg.DescriptorPool
	cmdPool *vkg.CommandPool

	globalLayout *vkg.DescriptorSetLayout

	// MaterialLayout is the set layout PBR material sets are allocated
	// against: albedo, normal, roughness, metallic and ambient
	// occlusion samplers in that binding order.
	MaterialLayout *vkg.DescriptorSetLayout

	globalUBO  *vkg.UniformBuffer
	globalSets [vkg.MaxFramesInFlight]*vkg.DescriptorSet

	commandBuffers []*vkg.CommandBuffer

	Pbr      *PbrSystem
	Shadow   *ShadowSystem
	Deferred *DeferredSystem
	Lights   *LightSystem
	Cubemap  *CubemapSystem
	Sprites  *SpriteSystem

	state frameStateMachine
}

// NewRenderer builds the full rendering stack against an existing
// device and surface.
func NewRenderer(device *vkg.Device, surface vk.Surface, options Options) (*Renderer, error) {
	options.fillDefaults()

	r := &Renderer{
		device:  device,
		surface: surface,
		options: options,
	}

	var err error
	if r.cache, err = device.CreatePipelineCache(); err != nil {
		return nil, fmt.Errorf("pipeline cache: %w", err)
	}

	r.globalLayout = device.NewDescriptorSetLayout()
	r.globalLayout.AddSimpleBinding(vk.DescriptorTypeUniformBuffer,
		vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit)
	if _, err = device.CreateDescriptorSetLayout(r.globalLayout); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("global set layout: %w", err)
	}

	r.MaterialLayout = device.NewDescriptorSetLayout()
	for i := 0; i < 5; i++ {
		r.MaterialLayout.AddSimpleBinding(vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit)
	}
	if _, err = device.CreateDescriptorSetLayout(r.MaterialLayout); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("material set layout: %w", err)
	}

	pool := device.NewDescriptorPool()
	pool.AddPoolSize(vk.DescriptorTypeUniformBuffer, vkg.MaxFramesInFlight)
	pool.AddPoolSize(vk.DescriptorTypeInputAttachment, 4)
	pool.AddPoolSize(vk.DescriptorTypeCombinedImageSampler, 256)
	if r.pool, err = device.CreateDescriptorPool(pool, 256); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("descriptor pool: %w", err)
	}

	if r.globalUBO, err = device.CreateUniformBuffer(GlobalUniformSize(), vkg.MaxFramesInFlight); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("global uniform buffer: %w", err)
	}
	for i := 0; i < vkg.MaxFramesInFlight; i++ {
		set, err := r.pool.Allocate(r.globalLayout)
		if err != nil {
			r.Destroy()
			return nil, fmt.Errorf("global descriptor set %d: %w", i, err)
		}
		set.AddBufferInfo(0, vk.DescriptorTypeUniformBuffer, r.globalUBO.DSInfoForIndex(i))
		set.Write()
		r.globalSets[i] = set
	}

	if r.cmdPool, err = device.CreateCommandPool(device.GraphicsQueue.QueueFamily); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("command pool: %w", err)
	}
	if r.commandBuffers, err = r.cmdPool.AllocateBuffers(vkg.MaxFramesInFlight); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("command buffers: %w", err)
	}

	for i := range r.shadowMaps {
		if r.shadowMaps[i], err = device.CreateShadowMap(options.ShadowMapSize); err != nil {
			r.Destroy()
			return nil, fmt.Errorf("shadow map %d: %w", i, err)
		}
	}

	if err = r.createSwapchainAndPasses(nil); err != nil {
		r.Destroy()
		return nil, err
	}

	if err = r.createSystems(); err != nil {
		r.Destroy()
		return nil, err
	}

	return r, nil
}

func (r *Renderer) createSwapchainAndPasses(old *vkg.Swapchain) error {
	opts := &vkg.CreateSwapchainOptions{OldSwapchain: old}
	if r.options.ExtentFn != nil {
		opts.ActualSize = r.options.ExtentFn()
	}

	swapchain, err := r.device.CreateSwapchain(r.surface, r.device.GraphicsQueue, r.device.PresentQueue, opts)
	if err != nil {
		return fmt.Errorf("swapchain: %w", err)
	}
	r.swapchain = swapchain

	if r.deferredPass, err = r.device.CreateDeferredRenderPass(swapchain); err != nil {
		return fmt.Errorf("deferred render pass: %w", err)
	}
	if r.overlayPass, err = r.device.CreateGUIRenderPass(swapchain); err != nil {
		return fmt.Errorf("overlay render pass: %w", err)
	}
	return nil
}

func (r *Renderer) createSystems() error {
	var err error
	shaderDir := r.options.ShaderDir

	if r.Pbr, err = NewPbrSystem(r.device, r.cache, r.deferredPass, r.globalLayout, r.MaterialLayout, shaderDir); err != nil {
		return fmt.Errorf("pbr system: %w", err)
	}
	if r.Shadow, err = NewShadowSystem(r.device, r.cache, r.shadowMaps[:], r.globalLayout, shaderDir); err != nil {
		return fmt.Errorf("shadow system: %w", err)
	}
	if r.Deferred, err = NewDeferredSystem(r.device, r.cache, r.deferredPass, r.pool, r.globalLayout, r.shadowMaps[:], shaderDir); err != nil {
		return fmt.Errorf("deferred system: %w", err)
	}
	if r.Lights, err = NewLightSystem(r.device, r.cache, r.deferredPass, r.globalLayout, shaderDir); err != nil {
		return fmt.Errorf("light system: %w", err)
	}
	if r.Cubemap, err = NewCubemapSystem(r.device, r.cache, r.deferredPass, r.globalLayout, shaderDir); err != nil {
		return fmt.Errorf("cubemap system: %w", err)
	}
	if r.Sprites, err = NewSpriteSystem(r.device, r.cache, r.overlayPass, shaderDir); err != nil {
		return fmt.Errorf("sprite system: %w", err)
	}
	return nil
}

// recreateSwapchain rebuilds the swapchain and both render passes after
// the surface changed. Pipelines survive because viewport and scissor
// are dynamic; a format change would invalidate them and is reported as
// an error.
func (r *Renderer) recreateSwapchain() error {
	r.device.WaitIdle()

	old := r.swapchain
	r.overlayPass.Destroy()
	r.deferredPass.Destroy()
	r.overlayPass = nil
	r.deferredPass = nil

	err := r.createSwapchainAndPasses(old)
	if old != nil {
		sameFormat := old.CompareFormats(r.swapchain)
		old.Destroy()
		if err == nil && !sameFormat {
			return errors.New("swapchain image format changed on recreation")
		}
	}
	if err != nil {
		return err
	}

	if err := r.Deferred.RebuildInputSet(r.deferredPass, r.pool, r.shadowMaps[:]); err != nil {
		return fmt.Errorf("rebuild deferred input set: %w", err)
	}

	log.Printf("renderer: swapchain recreated at %dx%d", r.swapchain.Extent.Width, r.swapchain.Extent.Height)
	return nil
}

// Extent returns the current swapchain extent.
func (r *Renderer) Extent() vk.Extent2D {
	return r.swapchain.Extent
}

// AspectRatio returns the swapchain width over height, for camera
// projection setup.
func (r *Renderer) AspectRatio() float32 {
	return float32(r.swapchain.Extent.Width) / float32(r.swapchain.Extent.Height)
}

// BeginFrame acquires the next swapchain image and starts command
// recording. A nil frame with a nil error means the swapchain was stale
// and has been recreated; the caller skips this frame and tries again
// next tick.
func (r *Renderer) BeginFrame(s *scene.Scene, dt float32) (*FrameInfo, error) {
	if err := r.state.BeginFrame(); err != nil {
		return nil, err
	}

	imageIndex, err := r.swapchain.AcquireNextImage()
	if errors.Is(err, vkg.ErrSwapchainStale) {
		r.state.Abort()
		if err := r.recreateSwapchain(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		r.state.Abort()
		return nil, err
	}

	frameIndex := r.swapchain.CurrentFrame()
	cmd := r.commandBuffers[frameIndex]
	if err := cmd.Reset(); err != nil {
		r.state.Abort()
		return nil, err
	}
	if err := cmd.Begin(); err != nil {
		r.state.Abort()
		return nil, err
	}

	return &FrameInfo{
		FrameIndex: frameIndex,
		ImageIndex: imageIndex,
		DeltaTime:  dt,
		Cmd:        cmd,
		Scene:      s,
		GlobalSet:  r.globalSets[frameIndex],
	}, nil
}

// UpdateGlobalUniform fills and flushes the uniform slot of the frame
// in flight: camera matrices, the directional lights with their shadow
// matrices slotted by pass index, and the pre-sorted point lights.
func (r *Renderer) UpdateGlobalUniform(frame *FrameInfo, lights []PointLightEntry, dirLights []DirectionalLightEntry) error {
	s := frame.Scene

	ubo := GlobalUniform{
		Projection:   s.Camera.Projection(),
		View:         s.Camera.View(),
		AmbientColor: mgl32.Vec4{1, 1, 1, 0.02},
	}

	FillDirectionalLights(&ubo, dirLights)
	FillLightUniform(&ubo, lights)

	if err := r.globalUBO.WriteToIndex(ubo.Bytes(), frame.FrameIndex); err != nil {
		return err
	}
	return r.globalUBO.FlushIndex(frame.FrameIndex)
}

// BeginShadowPass starts the depth-only shadow pass for one
// directional light, named by its pass index.
func (r *Renderer) BeginShadowPass(frame *FrameInfo, passIndex int) error {
	if passIndex < 0 || passIndex >= MaxDirectionalLights {
		return fmt.Errorf("shadow pass index %d out of range [0,%d)", passIndex, MaxDirectionalLights)
	}
	if err := r.state.BeginShadowPass(); err != nil {
		return err
	}
	r.shadowMaps[passIndex].Begin(frame.Cmd)
	return nil
}

func (r *Renderer) EndShadowPass(frame *FrameInfo) error {
	if err := r.state.EndShadowPass(); err != nil {
		return err
	}
	frame.Cmd.CmdEndRenderPass()
	return nil
}

// BeginDeferredPass starts the deferred pass in its geometry subpass.
func (r *Renderer) BeginDeferredPass(frame *FrameInfo) error {
	if err := r.state.BeginDeferredPass(); err != nil {
		return err
	}
	r.deferredPass.Begin(frame.Cmd, frame.ImageIndex)
	return nil
}

// NextSubpass advances geometry to lighting, then lighting to
// transparency.
func (r *Renderer) NextSubpass(frame *FrameInfo) error {
	if err := r.state.NextSubpass(); err != nil {
		return err
	}
	frame.Cmd.CmdNextSubpass()
	return nil
}

func (r *Renderer) EndDeferredPass(frame *FrameInfo) error {
	if err := r.state.EndDeferredPass(); err != nil {
		return err
	}
	frame.Cmd.CmdEndRenderPass()
	return nil
}

// BeginOverlayPass starts the overlay pass, which presents.
func (r *Renderer) BeginOverlayPass(frame *FrameInfo) error {
	if err := r.state.BeginOverlayPass(); err != nil {
		return err
	}
	r.overlayPass.Begin(frame.Cmd, frame.ImageIndex)
	return nil
}

func (r *Renderer) EndOverlayPass(frame *FrameInfo) error {
	if err := r.state.EndOverlayPass(); err != nil {
		return err
	}
	frame.Cmd.CmdEndRenderPass()
	return nil
}

// EndFrame finishes recording, submits and presents. A stale swapchain
// at present time is recreated here and is not an error.
func (r *Renderer) EndFrame(frame *FrameInfo) error {
	if err := r.state.EndFrame(); err != nil {
		return err
	}
	if err := frame.Cmd.End(); err != nil {
		return err
	}

	err := r.swapchain.SubmitAndPresent(frame.Cmd, frame.ImageIndex)
	if errors.Is(err, vkg.ErrSwapchainStale) {
		return r.recreateSwapchain()
	}
	return err
}

// DrawFrame runs one complete frame: shadow pass, deferred pass with
// its three subpasses, then the overlay pass. Returns without error on
// a skipped frame when the swapchain had to be recreated.
func (r *Renderer) DrawFrame(s *scene.Scene, dt float32, res *SceneResources) error {
	frame, err := r.BeginFrame(s, dt)
	if err != nil || frame == nil {
		return err
	}

	lights := CollectPointLights(s, s.Camera.Position())
	dirLights := CollectDirectionalLights(s)
	if err := r.UpdateGlobalUniform(frame, lights, dirLights); err != nil {
		return err
	}

	for _, dl := range dirLights {
		if err := r.BeginShadowPass(frame, dl.PassIndex); err != nil {
			return err
		}
		r.Shadow.Render(frame, dl.PassIndex)
		if err := r.EndShadowPass(frame); err != nil {
			return err
		}
	}

	if err := r.BeginDeferredPass(frame); err != nil {
		return err
	}
	r.Pbr.Render(frame, res.MaterialSets)
	if err := r.NextSubpass(frame); err != nil {
		return err
	}
	r.Deferred.Render(frame)
	if err := r.NextSubpass(frame); err != nil {
		return err
	}
	r.Cubemap.Render(frame, res.EnvironmentSets)
	r.Lights.Render(frame, lights)
	if err := r.EndDeferredPass(frame); err != nil {
		return err
	}

	if err := r.BeginOverlayPass(frame); err != nil {
		return err
	}
	r.Sprites.Render(frame, res.SpriteSets)
	if err := r.EndOverlayPass(frame); err != nil {
		return err
	}

	return r.EndFrame(frame)
}

// AllocateMaterialSet allocates and writes a PBR material descriptor
// set from the renderer's pool. Textures bind in layout order.
func (r *Renderer) AllocateMaterialSet(textures ...*vkg.Texture) (*vkg.DescriptorSet, error) {
	if len(textures) != len(r.MaterialLayout.VKDescriptorSetLayoutBindings) {
		return nil, fmt.Errorf("material set needs %d textures, got %d",
			len(r.MaterialLayout.VKDescriptorSetLayoutBindings), len(textures))
	}

	set, err := r.pool.Allocate(r.MaterialLayout)
	if err != nil {
		return nil, err
	}
	for i, t := range textures {
		info := t.DSInfo()
		set.AddCombinedImageSampler(i, info.ImageLayout, info.ImageView, info.Sampler)
	}
	set.Write()
	return set, nil
}

// AllocateTextureSet allocates a single-sampler descriptor set against
// the given layout, used for sprite and environment textures.
func (r *Renderer) AllocateTextureSet(layout *vkg.DescriptorSetLayout, t *vkg.Texture) (*vkg.DescriptorSet, error) {
	set, err := r.pool.Allocate(layout)
	if err != nil {
		return nil, err
	}
	info := t.DSInfo()
	set.AddCombinedImageSampler(0, info.ImageLayout, info.ImageView, info.Sampler)
	set.Write()
	return set, nil
}

// Destroy tears the whole stack down. Safe to call on a partially
// constructed renderer.
func (r *Renderer) Destroy() {
	r.device.WaitIdle()

	if r.Sprites != nil {
		r.Sprites.Destroy()
	}
	if r.Cubemap != nil {
		r.Cubemap.Destroy()
	}
	if r.Lights != nil {
		r.Lights.Destroy()
	}
	if r.Deferred != nil {
		r.Deferred.Destroy()
	}
	if r.Shadow != nil {
		r.Shadow.Destroy()
	}
	if r.Pbr != nil {
		r.Pbr.Destroy()
	}

	if r.overlayPass != nil {
		r.overlayPass.Destroy()
	}
	if r.deferredPass != nil {
		r.deferredPass.Destroy()
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
	}
	for _, sm := range r.shadowMaps {
		if sm != nil {
			sm.Destroy()
		}
	}
	if r.globalUBO != nil {
		r.globalUBO.Destroy()
	}
	if r.cmdPool != nil {
		r.cmdPool.Destroy()
	}
	if r.pool != nil {
		r.pool.Destroy()
	}
	if r.MaterialLayout != nil && r.MaterialLayout.VKDescriptorSetLayout != vk.NullDescriptorSetLayout {
		r.MaterialLayout.Destroy()
	}
	if r.globalLayout != nil && r.globalLayout.VKDescriptorSetLayout != vk.NullDescriptorSetLayout {
		r.globalLayout.Destroy()
	}
	if r.cache != nil {
		r.cache.Destroy()
	}
}

package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// Subpass indices of the deferred render pass. Geometry fills the
// G-buffer, lighting resolves it into the swapchain image, transparency
// draws forward on top with the depth buffer still bound.
const (
	SubpassGeometry = iota
	SubpassLighting
	SubpassTransparency
	NumSubpasses
)

// G-buffer attachment formats. Position and normal need the range and
// sign of a float target; albedo is plain 8-bit color; material packs
// roughness/metallic/ao.
const (
	GBufferPositionFormat = vk.FormatR16g16b16a16Sfloat
	GBufferNormalFormat   = vk.FormatR16g16b16a16Sfloat
	GBufferColorFormat    = vk.FormatR8g8b8a8Unorm
	GBufferMaterialFormat = vk.FormatR16g16b16a16Sfloat
	DepthFormat           = vk.FormatD32Sfloat
)

// GBuffer holds the per-fragment geometry data written by the geometry
// subpass and consumed as input attachments by the lighting subpass.
type GBuffer struct {
	Position *BoundImage
	Normal   *BoundImage
	Color    *BoundImage
	Material *BoundImage

	PositionView *ImageView
	NormalView   *ImageView
	ColorView    *ImageView
	MaterialView *ImageView
}

func (g *GBuffer) Destroy() {
	g.PositionView.Destroy()
	g.NormalView.Destroy()
	g.ColorView.Destroy()
	g.MaterialView.Destroy()
	g.Position.Destroy()
	g.Normal.Destroy()
	g.Color.Destroy()
	g.Material.Destroy()
}

func (d *Device) createGBuffer(extent vk.Extent2D) (*GBuffer, error) {
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageInputAttachmentBit)
	props := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	g := &GBuffer{}

	var err error
	create := func(format vk.Format) (*BoundImage, *ImageView) {
		if err != nil {
			return nil, nil
		}
		var img *BoundImage
		img, err = d.CreateBoundImage(extent, format, vk.ImageTilingOptimal, usage, props)
		if err != nil {
			return nil, nil
		}
		var view *ImageView
		view, err = img.CreateImageView()
		return img, view
	}

	g.Position, g.PositionView = create(GBufferPositionFormat)
	g.Normal, g.NormalView = create(GBufferNormalFormat)
	g.Color, g.ColorView = create(GBufferColorFormat)
	g.Material, g.MaterialView = create(GBufferMaterialFormat)

	if err != nil {
		return nil, err
	}
	return g, nil
}

// RenderPass wraps a native render pass with the attachments and
// framebuffers it renders into.
type RenderPass struct {
	Device       *Device
	VKRenderPass vk.RenderPass
	Extent       vk.Extent2D

	GBuffer      *GBuffer
	Depth        *BoundImage
	DepthView    *ImageView
	Framebuffers []vk.Framebuffer

	ClearValues []vk.ClearValue
}

// Begin starts the render pass on the framebuffer for imageIndex and
// sets the dynamic viewport and scissor.
func (r *RenderPass) Begin(cmd *CommandBuffer, imageIndex uint32) {
	cmd.CmdBeginRenderPass(r.VKRenderPass, r.Framebuffers[imageIndex], r.Extent, r.ClearValues)
	cmd.CmdSetViewportAndScissor(r.Extent)
}

func (r *RenderPass) Destroy() {
	for _, fb := range r.Framebuffers {
		vk.DestroyFramebuffer(r.Device.VKDevice, fb, nil)
	}
	r.Framebuffers = nil

	if r.DepthView != nil {
		r.DepthView.Destroy()
		r.Depth.Destroy()
	}
	if r.GBuffer != nil {
		r.GBuffer.Destroy()
	}

	vk.DestroyRenderPass(r.Device.VKDevice, r.VKRenderPass, nil)
}

func clearColor(r, g, b, a float32) vk.ClearValue {
	var cv vk.ClearValue
	cv.SetColor([]float32{r, g, b, a})
	return cv
}

func clearDepth(depth float32) vk.ClearValue {
	var cv vk.ClearValue
	cv.SetDepthStencil(depth, 0)
	return cv
}

// CreateDeferredRenderPass builds the three subpass deferred pass over
// the swapchain: geometry into the G-buffer, lighting resolving the
// G-buffer through input attachments, then transparency rendered
// forward against the same depth buffer.
//
// Attachment order: swapchain color, depth, then the four G-buffer
// targets.
func (d *Device) CreateDeferredRenderPass(swapchain *Swapchain) (*RenderPass, error) {
	extent := swapchain.Extent

	gbuffer, err := d.createGBuffer(extent)
	if err != nil {
		return nil, err
	}

	depth, err := d.CreateBoundImage(extent, DepthFormat, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		gbuffer.Destroy()
		return nil, err
	}

	depthView, err := depth.CreateImageViewWithAspectMask(vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		depth.Destroy()
		gbuffer.Destroy()
		return nil, err
	}

	gbufferAttachment := func(format vk.Format) vk.AttachmentDescription {
		return vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutShaderReadOnlyOptimal,
		}
	}

	attachments := []vk.AttachmentDescription{
		{
			Format:         swapchain.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		},
		{
			Format:         DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
		gbufferAttachment(GBufferPositionFormat),
		gbufferAttachment(GBufferNormalFormat),
		gbufferAttachment(GBufferColorFormat),
		gbufferAttachment(GBufferMaterialFormat),
	}

	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	geometryColorRefs := []vk.AttachmentReference{
		{Attachment: 2, Layout: vk.ImageLayoutColorAttachmentOptimal},
		{Attachment: 3, Layout: vk.ImageLayoutColorAttachmentOptimal},
		{Attachment: 4, Layout: vk.ImageLayoutColorAttachmentOptimal},
		{Attachment: 5, Layout: vk.ImageLayoutColorAttachmentOptimal},
	}

	swapchainColorRefs := []vk.AttachmentReference{
		{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
	}

	lightingInputRefs := []vk.AttachmentReference{
		{Attachment: 2, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Attachment: 3, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Attachment: 4, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Attachment: 5, Layout: vk.ImageLayoutShaderReadOnlyOptimal},
	}

	subpasses := []vk.SubpassDescription{
		{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    uint32(len(geometryColorRefs)),
			PColorAttachments:       geometryColorRefs,
			PDepthStencilAttachment: &depthRef,
		},
		{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    1,
			PColorAttachments:       swapchainColorRefs,
			InputAttachmentCount:    uint32(len(lightingInputRefs)),
			PInputAttachments:       lightingInputRefs,
			PDepthStencilAttachment: &depthRef,
		},
		{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    1,
			PColorAttachments:       swapchainColorRefs,
			PDepthStencilAttachment: &depthRef,
		},
	}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    SubpassGeometry,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			SrcAccessMask: 0,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:    SubpassGeometry,
			DstSubpass:    SubpassLighting,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			DstAccessMask: vk.AccessFlags(vk.AccessInputAttachmentReadBit),
		},
		{
			SrcSubpass:    SubpassLighting,
			DstSubpass:    SubpassTransparency,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		},
	}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var renderPass vk.RenderPass
	err = vk.Error(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		depthView.Destroy()
		depth.Destroy()
		gbuffer.Destroy()
		return nil, err
	}

	r := &RenderPass{
		Device:       d,
		VKRenderPass: renderPass,
		Extent:       extent,
		GBuffer:      gbuffer,
		Depth:        depth,
		DepthView:    depthView,
		ClearValues: []vk.ClearValue{
			clearColor(0.01, 0.01, 0.01, 1.0),
			clearDepth(1.0),
			clearColor(0, 0, 0, 0),
			clearColor(0, 0, 0, 0),
			clearColor(0, 0, 0, 0),
			clearColor(0, 0, 0, 0),
		},
	}

	r.Framebuffers = make([]vk.Framebuffer, len(swapchain.ImageViews))
	for i, view := range swapchain.ImageViews {
		fbAttachments := []vk.ImageView{
			view.VKImageView,
			depthView.VKImageView,
			gbuffer.PositionView.VKImageView,
			gbuffer.NormalView.VKImageView,
			gbuffer.ColorView.VKImageView,
			gbuffer.MaterialView.VKImageView,
		}
		fbCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			Layers:          1,
			AttachmentCount: uint32(len(fbAttachments)),
			PAttachments:    fbAttachments,
			Width:           extent.Width,
			Height:          extent.Height,
		}
		err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &r.Framebuffers[i]))
		if err != nil {
			r.Destroy()
			return nil, err
		}
	}

	return r, nil
}

// CreateGUIRenderPass builds the single subpass overlay pass. It loads
// the swapchain image the deferred pass produced rather than clearing
// it, and it is the pass that transitions the image to present layout.
func (d *Device) CreateGUIRenderPass(swapchain *Swapchain) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         swapchain.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorRefs := []vk.AttachmentReference{
		{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
	}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorRefs,
	}}

	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		return nil, err
	}

	r := &RenderPass{
		Device:       d,
		VKRenderPass: renderPass,
		Extent:       swapchain.Extent,
	}

	r.Framebuffers = make([]vk.Framebuffer, len(swapchain.ImageViews))
	for i, view := range swapchain.ImageViews {
		fbCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			Layers:          1,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view.VKImageView},
			Width:           swapchain.Extent.Width,
			Height:          swapchain.Extent.Height,
		}
		err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &r.Framebuffers[i]))
		if err != nil {
			r.Destroy()
			return nil, err
		}
	}

	return r, nil
}

package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// ShadowMap is a depth-only render target rendered from a directional
// light's point of view and sampled during lighting.
type ShadowMap struct {
	Device       *Device
	VKRenderPass vk.RenderPass
	Framebuffer  vk.Framebuffer
	Extent       vk.Extent2D

	Depth     *BoundImage
	DepthView *ImageView
	Sampler   vk.Sampler
}

// CreateShadowMap creates a size x size depth-only pass. The depth
// attachment ends the pass in shader-read layout so the lighting pass
// can sample it without an explicit barrier.
func (d *Device) CreateShadowMap(size int) (*ShadowMap, error) {
	extent := vk.Extent2D{Width: uint32(size), Height: uint32(size)}

	depth, err := d.CreateBoundImage(extent, DepthFormat, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	depthView, err := depth.CreateImageViewWithAspectMask(vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		depth.Destroy()
		return nil, err
	}

	attachments := []vk.AttachmentDescription{{
		Format:         DepthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutShaderReadOnlyOptimal,
	}}

	depthRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		PDepthStencilAttachment: &depthRef,
	}}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			DstAccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
		},
	}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var renderPass vk.RenderPass
	err = vk.Error(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		depthView.Destroy()
		depth.Destroy()
		return nil, err
	}

	var framebuffer vk.Framebuffer
	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		Layers:          1,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{depthView.VKImageView},
		Width:           extent.Width,
		Height:          extent.Height,
	}
	err = vk.Error(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &framebuffer))
	if err != nil {
		vk.DestroyRenderPass(d.VKDevice, renderPass, nil)
		depthView.Destroy()
		depth.Destroy()
		return nil, err
	}

	sampler, err := d.CreateShadowSampler()
	if err != nil {
		vk.DestroyFramebuffer(d.VKDevice, framebuffer, nil)
		vk.DestroyRenderPass(d.VKDevice, renderPass, nil)
		depthView.Destroy()
		depth.Destroy()
		return nil, err
	}

	return &ShadowMap{
		Device:       d,
		VKRenderPass: renderPass,
		Framebuffer:  framebuffer,
		Extent:       extent,
		Depth:        depth,
		DepthView:    depthView,
		Sampler:      sampler,
	}, nil
}

// Begin starts the shadow pass and sets viewport and scissor to the map
// extent.
func (s *ShadowMap) Begin(cmd *CommandBuffer) {
	cmd.CmdBeginRenderPass(s.VKRenderPass, s.Framebuffer, s.Extent, []vk.ClearValue{clearDepth(1.0)})
	cmd.CmdSetViewportAndScissor(s.Extent)
}

// DSInfo describes the shadow depth texture for a descriptor write
func (s *ShadowMap) DSInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		ImageView:   s.DepthView.VKImageView,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		Sampler:     s.Sampler,
	}
}

func (s *ShadowMap) Destroy() {
	vk.DestroySampler(s.Device.VKDevice, s.Sampler, nil)
	vk.DestroyFramebuffer(s.Device.VKDevice, s.Framebuffer, nil)
	vk.DestroyRenderPass(s.Device.VKDevice, s.VKRenderPass, nil)
	s.DepthView.Destroy()
	s.Depth.Destroy()
}

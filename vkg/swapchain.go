package vkg

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight is how many frames the CPU may record ahead of the
// GPU. Uniform buffers and descriptor sets are duplicated per frame in
// flight and indexed by the frame slot.
const MaxFramesInFlight = 2

// ErrSwapchainStale is returned by AcquireNextImage and
// SubmitAndPresent when the swapchain no longer matches the surface,
// typically after a window resize. The caller recreates the swapchain
// and retries the frame; nothing was rendered.
var ErrSwapchainStale = errors.New("swapchain is stale and must be recreated")

type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain
	Extent      vk.Extent2D
	Format      vk.Format

	Images     []*Image
	ImageViews []*ImageView

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []vk.Fence
	imagesInFlight []vk.Fence

	currentFrame int
}

type CreateSwapchainOptions struct {
	OldSwapchain *Swapchain
	ActualSize   vk.Extent2D
}

func (d *Device) DefaultNumSwapchainImages(surface vk.Surface) (int, error) {
	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return 0, err
	}
	caps.Deref()

	return int(caps.MinImageCount) + 1, nil
}

func (d *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainOptions) (*Swapchain, error) {
	modes, err := d.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}

	// mailbox when available, fifo is the guaranteed fallback
	presentMode := vk.PresentModeFifo
	if m := modes.Filter(vk.PresentModeMailbox); len(m) > 0 {
		presentMode = m[0]
	}

	formats, err := d.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}

	var format vk.SurfaceFormat
	formats.Filter(func(f vk.SurfaceFormat) bool {
		if f.Format == vk.FormatB8g8r8a8Unorm {
			format = f
			return true
		}
		return false
	})

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}
	caps.Deref()

	var swapchainSize vk.Extent2D
	caps.CurrentExtent.Deref()
	if caps.CurrentExtent.Width == vk.MaxUint32 {
		if options != nil {
			swapchainSize = options.ActualSize
		} else {
			swapchainSize = caps.MinImageExtent
		}
	} else {
		swapchainSize = caps.CurrentExtent
	}

	desiredImages, err := d.DefaultNumSwapchainImages(surface)
	if err != nil {
		return nil, err
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    uint32(desiredImages),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      swapchainSize,
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if options != nil && options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	err = vk.Error(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, err
	}

	s := &Swapchain{
		Device:      d,
		VKSwapchain: swapchain,
		Extent:      swapchainSize,
		Format:      format.Format,
	}

	if err := s.loadImages(); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createSyncObjects(); err != nil {
		s.Destroy()
		return nil, err
	}

	return s, nil
}

func (s *Swapchain) loadImages() error {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return err
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))
	if err != nil {
		return err
	}

	s.Images = make([]*Image, imageCount)
	s.ImageViews = make([]*ImageView, imageCount)
	for i := range swapchainImages {
		s.Images[i] = &Image{Device: s.Device, VKImage: swapchainImages[i], VKFormat: s.Format}
		s.ImageViews[i], err = s.Images[i].CreateImageView()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Swapchain) createSyncObjects() error {
	s.imageAvailable = make([]vk.Semaphore, MaxFramesInFlight)
	s.renderFinished = make([]vk.Semaphore, MaxFramesInFlight)
	s.inFlight = make([]vk.Fence, MaxFramesInFlight)
	s.imagesInFlight = make([]vk.Fence, len(s.Images))

	var err error
	for i := 0; i < MaxFramesInFlight; i++ {
		if s.imageAvailable[i], err = s.Device.VKCreateSemaphore(); err != nil {
			return err
		}
		if s.renderFinished[i], err = s.Device.VKCreateSemaphore(); err != nil {
			return err
		}
		if s.inFlight[i], err = s.Device.VKCreateFence(true); err != nil {
			return err
		}
	}
	return nil
}

// ImageCount returns the number of presentable images
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// CurrentFrame is the frame-in-flight slot the caller should record
// into
func (s *Swapchain) CurrentFrame() int {
	return s.currentFrame
}

// CompareFormats reports whether a recreated swapchain kept the same
// image format, which decides whether render passes stay valid.
func (s *Swapchain) CompareFormats(other *Swapchain) bool {
	return other != nil && s.Format == other.Format
}

// AcquireNextImage blocks until the current frame slot's previous work
// finished, then asks the presentation engine for the next image.
func (s *Swapchain) AcquireNextImage() (uint32, error) {
	vk.WaitForFences(s.Device.VKDevice, 1, []vk.Fence{s.inFlight[s.currentFrame]}, vk.True, vk.MaxUint64)

	var imageIndex uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64,
		s.imageAvailable[s.currentFrame], vk.NullFence, &imageIndex)

	if res == vk.ErrorOutOfDate {
		return 0, ErrSwapchainStale
	}
	if res != vk.Success && res != vk.Suboptimal {
		return 0, vk.Error(res)
	}

	return imageIndex, nil
}

// SubmitAndPresent submits the recorded command buffer for imageIndex
// and queues it for presentation, then advances the frame slot.
func (s *Swapchain) SubmitAndPresent(cmd *CommandBuffer, imageIndex uint32) error {
	if s.imagesInFlight[imageIndex] != vk.NullFence {
		vk.WaitForFences(s.Device.VKDevice, 1, []vk.Fence{s.imagesInFlight[imageIndex]}, vk.True, vk.MaxUint64)
	}
	s.imagesInFlight[imageIndex] = s.inFlight[s.currentFrame]

	vk.ResetFences(s.Device.VKDevice, 1, []vk.Fence{s.inFlight[s.currentFrame]})

	waitSemaphores := []vk.Semaphore{s.imageAvailable[s.currentFrame]}
	signalSemaphores := []vk.Semaphore{s.renderFinished[s.currentFrame]}
	waitStages := []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}

	submitInfo := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      waitSemaphores,
		PWaitDstStageMask:    waitStages,
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    signalSemaphores,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd.VKCommandBuffer},
	}}

	err := vk.Error(vk.QueueSubmit(s.Device.GraphicsQueue.VKQueue, 1, submitInfo, s.inFlight[s.currentFrame]))
	if err != nil {
		return err
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.VKSwapchain},
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    signalSemaphores,
		PImageIndices:      []uint32{imageIndex},
	}

	res := vk.QueuePresent(s.Device.PresentQueue.VKQueue, &presentInfo)

	s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight

	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		return ErrSwapchainStale
	}
	return vk.Error(res)
}

func (s *Swapchain) Destroy() {
	for _, sem := range s.imageAvailable {
		s.Device.VKDestroySemaphore(sem)
	}
	for _, sem := range s.renderFinished {
		s.Device.VKDestroySemaphore(sem)
	}
	for _, fence := range s.inFlight {
		s.Device.VKDestroyFence(fence)
	}
	s.imageAvailable = nil
	s.renderFinished = nil
	s.inFlight = nil
	s.imagesInFlight = nil

	for _, view := range s.ImageViews {
		view.Destroy()
	}
	s.ImageViews = nil

	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

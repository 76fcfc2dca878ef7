package vkg

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	_ "image/jpeg"
	_ "image/png"

	vk "github.com/vulkan-go/vulkan"
)

// Texture is a sampled image ready for use in a material descriptor
// set: device-local pixels, a view and a sampler.
type Texture struct {
	Image   *BoundImage
	View    *ImageView
	Sampler vk.Sampler
	Width   int
	Height  int
}

func (t *Texture) Destroy() {
	vk.DestroySampler(t.Image.Device.VKDevice, t.Sampler, nil)
	t.View.Destroy()
	t.Image.Destroy()
}

// DSInfo describes this texture for a descriptor write
func (t *Texture) DSInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		ImageView:   t.View.VKImageView,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		Sampler:     t.Sampler,
	}
}

func decodeRGBA(file string) (*image.RGBA, error) {
	imageFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer imageFile.Close()

	src, _, err := image.Decode(imageFile)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file, err)
	}

	b := src.Bounds()
	m := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)
	return m, nil
}

// CreateTextureFromFile decodes a PNG or JPEG from disk and uploads it
// into a device-local sampled image through a staging buffer.
func (d *Device) CreateTextureFromFile(file string) (*Texture, error) {
	img, err := decodeRGBA(file)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return d.CreateTextureFromRGBA(img.Pix, bounds.Dx(), bounds.Dy())
}

// CreateTextureFromRGBA uploads tightly packed RGBA pixels.
func (d *Device) CreateTextureFromRGBA(pixels []byte, width, height int) (*Texture, error) {
	size := uint64(width * height * 4)
	if uint64(len(pixels)) < size {
		return nil, fmt.Errorf("texture data is %d bytes, need %d for %dx%d", len(pixels), size, width, height)
	}

	staging, stagingMemory, err := d.CreateAndBindBufferAndMemory(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}
	defer stagingMemory.Destroy()
	defer staging.Destroy()

	if err := stagingMemory.MapCopyUnmap(pixels[:size]); err != nil {
		return nil, err
	}

	bi, err := d.CreateBoundImage(
		vk.Extent2D{Width: uint32(width), Height: uint32(height)},
		vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	err = d.OneTimeSubmit(func(cb *CommandBuffer) error {
		cb.TransitionImageLayout(&bi.Image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		cb.CmdCopyBufferToImage(staging, &bi.Image, width, height)
		cb.TransitionImageLayout(&bi.Image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
		return nil
	})
	if err != nil {
		bi.Destroy()
		return nil, err
	}

	view, err := bi.CreateImageView()
	if err != nil {
		bi.Destroy()
		return nil, err
	}

	sampler, err := d.CreateTextureSampler()
	if err != nil {
		view.Destroy()
		bi.Destroy()
		return nil, err
	}

	return &Texture{
		Image:   bi,
		View:    view,
		Sampler: sampler,
		Width:   width,
		Height:  height,
	}, nil
}

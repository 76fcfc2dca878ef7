package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSet is a binding of resources to a descriptor, per a
// specific DescriptorSetLayout. Add* calls accumulate writes which are
// applied together by Write.
type DescriptorSet struct {
	Device               *Device
	DescriptorPool       *DescriptorPool
	VKDescriptorSet      vk.DescriptorSet
	VKWriteDescriptorSet []vk.WriteDescriptorSet
}

// AddBuffer adds a whole buffer to this descriptor set
func (du *DescriptorSet) AddBuffer(dstBinding int, dtype vk.DescriptorType, b *Buffer, offset int) {
	du.AddBufferInfo(dstBinding, dtype, b.DSInfo(offset))
}

// AddBufferInfo adds an explicit buffer range, used for instance
// indexed uniform buffers where each set sees one slot
func (du *DescriptorSet) AddBufferInfo(dstBinding int, dtype vk.DescriptorType, info vk.DescriptorBufferInfo) {
	du.VKWriteDescriptorSet = append(du.VKWriteDescriptorSet, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(dstBinding),
		DescriptorCount: 1,
		DescriptorType:  dtype,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	})
}

// AddCombinedImageSampler adds an image layout, image view and sampler
// to support sampling a texture
func (du *DescriptorSet) AddCombinedImageSampler(dstBinding int, layout vk.ImageLayout, imageView vk.ImageView, sampler vk.Sampler) {
	du.VKWriteDescriptorSet = append(du.VKWriteDescriptorSet, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(dstBinding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   imageView,
			ImageLayout: layout,
			Sampler:     sampler,
		}},
	})
}

// AddInputAttachment binds an attachment written by an earlier subpass
// for per-fragment reads in a later one
func (du *DescriptorSet) AddInputAttachment(dstBinding int, imageView vk.ImageView) {
	du.VKWriteDescriptorSet = append(du.VKWriteDescriptorSet, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(dstBinding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeInputAttachment,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   imageView,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	})
}

// Write applies the accumulated writes to the descriptor set
func (du *DescriptorSet) Write() {
	for i := range du.VKWriteDescriptorSet {
		du.VKWriteDescriptorSet[i].DstSet = du.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(du.Device.VKDevice, uint32(len(du.VKWriteDescriptorSet)), du.VKWriteDescriptorSet, 0, nil)
	du.VKWriteDescriptorSet = nil
}

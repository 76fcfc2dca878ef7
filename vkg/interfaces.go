package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// IDestructable is implemented by every wrapper owning a native handle
type IDestructable interface {
	Destroy()
}

// VertexDescriptor describes how vertex data is laid out in a vertex
// buffer
type VertexDescriptor interface {
	GetBindingDescription() vk.VertexInputBindingDescription
	GetAttributeDescriptions() []vk.VertexInputAttributeDescription
}

package renderer

import (
	"fmt"
	"unsafe"

	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Vertex is the interleaved vertex layout every mesh pipeline consumes.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Tangent  mgl32.Vec3
}

func (Vertex) GetBindingDescription() vk.VertexInputBindingDescription {
	var v Vertex
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(v)),
		InputRate: vk.VertexInputRateVertex,
	}
}

func (Vertex) GetAttributeDescriptions() []vk.VertexInputAttributeDescription {
	var v Vertex
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Color))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Normal))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.UV))},
		{Location: 4, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Tangent))},
	}
}

// ModelData is the CPU-side mesh before upload. Indices may be empty
// for non-indexed meshes.
type ModelData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Model owns the device-local vertex and index buffers of one mesh.
// It satisfies the mesh component's model interface so the scene layer
// never imports Vulkan.
type Model struct {
	device *vkg.Device

	vertexBuffer *vkg.BoundBuffer
	indexBuffer  *vkg.BoundBuffer

	vertexCount int
	indexCount  int

	// Textures referenced by the material, in binding order. May be
	// empty for untextured meshes drawn by the no-map pipeline.
	Textures []*vkg.Texture
}

// NewModel uploads mesh data into device-local memory through the
// staging path.
func NewModel(device *vkg.Device, data ModelData) (*Model, error) {
	if len(data.Vertices) < 3 {
		return nil, fmt.Errorf("model needs at least 3 vertices, got %d", len(data.Vertices))
	}

	var v Vertex
	vertexBytes := vkg.ToBytes(unsafe.Pointer(&data.Vertices[0]), len(data.Vertices)*int(unsafe.Sizeof(v)))

	vertexBuffer, err := device.CreateDeviceLocalBuffer(vertexBytes, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, fmt.Errorf("uploading vertex buffer: %w", err)
	}

	m := &Model{
		device:       device,
		vertexBuffer: vertexBuffer,
		vertexCount:  len(data.Vertices),
	}

	if len(data.Indices) > 0 {
		indexBytes := vkg.ToBytes(unsafe.Pointer(&data.Indices[0]), len(data.Indices)*4)
		m.indexBuffer, err = device.CreateDeviceLocalBuffer(indexBytes, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
		if err != nil {
			vertexBuffer.Destroy()
			return nil, fmt.Errorf("uploading index buffer: %w", err)
		}
		m.indexCount = len(data.Indices)
	}

	return m, nil
}

// IsModel marks Model as a scene-attachable mesh resource.
func (*Model) IsModel() {}

func (m *Model) VertexCount() int { return m.vertexCount }
func (m *Model) IndexCount() int  { return m.indexCount }

// Bind binds the vertex buffer and, when present, the index buffer.
func (m *Model) Bind(cmd *vkg.CommandBuffer) {
	cmd.CmdBindVertexBuffer(m.vertexBuffer.Buffer, 0)
	if m.indexBuffer != nil {
		cmd.CmdBindIndexBuffer(m.indexBuffer.Buffer, 0)
	}
}

// Draw issues the draw call, indexed when index data was uploaded.
func (m *Model) Draw(cmd *vkg.CommandBuffer) {
	if m.indexBuffer != nil {
		cmd.CmdDrawIndexed(m.indexCount, 1, 0, 0, 0)
		return
	}
	cmd.CmdDraw(m.vertexCount, 1, 0, 0)
}

func (m *Model) Destroy() {
	for _, t := range m.Textures {
		t.Destroy()
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
	}
	m.vertexBuffer.Destroy()
}

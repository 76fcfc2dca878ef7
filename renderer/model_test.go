package renderer

import (
	"testing"
	"unsafe"

	"github.com/GDBobby/vulkan/scene"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

// a Model is attachable to a MeshComponent
var _ scene.Model = (*Model)(nil)

func TestNewModelRejectsDegenerateMeshes(t *testing.T) {
	_, err := NewModel(nil, ModelData{})
	assert.Error(t, err)

	_, err = NewModel(nil, ModelData{Vertices: make([]Vertex, 2)})
	assert.Error(t, err)
}

func TestVertexLayoutMatchesShaderLocations(t *testing.T) {
	var v Vertex

	binding := v.GetBindingDescription()
	assert.EqualValues(t, unsafe.Sizeof(v), binding.Stride)
	assert.Equal(t, vk.VertexInputRateVertex, binding.InputRate)

	attrs := v.GetAttributeDescriptions()
	assert.Len(t, attrs, 5)
	for i, attr := range attrs {
		assert.EqualValues(t, i, attr.Location)
		assert.EqualValues(t, 0, attr.Binding)
	}
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[3].Format, "UV is the only vec2 attribute")
}

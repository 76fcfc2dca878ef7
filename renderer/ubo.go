package renderer

import (
	"unsafe"

	"github.com/GDBobby/vulkan/vkg"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights is the size of the point light array in the global
// uniform block. Must match the shader side.
const MaxPointLights = 16

// MaxDirectionalLights is the number of shadow-casting directional
// lights, each owning one shadow pass. Must match the shader side.
const MaxDirectionalLights = 2

// PointLightUniform is one entry of the light array, std140 friendly:
// position and color are vec4 with the scalar packed in w.
type PointLightUniform struct {
	// Position, w unused
	Position mgl32.Vec4
	// Color, intensity in w
	Color mgl32.Vec4
}

// DirectionalLightUniform mirrors the directional light block.
type DirectionalLightUniform struct {
	// Direction, w unused
	Direction mgl32.Vec4
	// Color, intensity in w
	Color mgl32.Vec4
}

// GlobalUniform is the per-frame uniform block shared by every render
// system: camera matrices, the light environment and the shadow
// matrices of the directional lights, indexed by shadow pass.
type GlobalUniform struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4

	LightProjection [MaxDirectionalLights]mgl32.Mat4
	LightView       [MaxDirectionalLights]mgl32.Mat4

	// AmbientColor, intensity in w
	AmbientColor mgl32.Vec4

	PointLights       [MaxPointLights]PointLightUniform
	DirectionalLights [MaxDirectionalLights]DirectionalLightUniform

	NumPointLights       int32
	NumDirectionalLights int32
	_                    [2]int32
}

// Bytes views the uniform block as a byte slice for buffer writes.
func (g *GlobalUniform) Bytes() []byte {
	return vkg.ToBytes(unsafe.Pointer(g), int(unsafe.Sizeof(*g)))
}

// GlobalUniformSize is the byte size of one uniform instance.
func GlobalUniformSize() uint64 {
	var g GlobalUniform
	return uint64(unsafe.Sizeof(g))
}

package renderer

import (
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
)

// FrameInfo carries everything a render system needs while recording
// one frame: the command buffer being recorded, the frame-in-flight
// slot selecting uniform instances and descriptor sets, and the scene
// being drawn.
type FrameInfo struct {
	FrameIndex int
	ImageIndex uint32
	DeltaTime  float32

	Cmd   *vkg.CommandBuffer
	Scene *scene.Scene

	GlobalSet *vkg.DescriptorSet
}

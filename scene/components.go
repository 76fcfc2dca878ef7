package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Model marks the shared mesh resource a MeshComponent refers to.
// Concrete models live in the renderer and are recovered there by type
// assertion; the scene layer never touches GPU state. Multiple entities
// may share one model and the model stays alive as long as any holder
// does.
type Model interface {
	IsModel()
}

var defaultMeshNameCounter uint

// MeshComponent attaches a drawable model to an entity.
type MeshComponent struct {
	Name    string
	Model   Model
	Enabled bool
}

// NewMeshComponent builds a mesh component with an auto-generated name.
func NewMeshComponent(model Model) MeshComponent {
	name := fmt.Sprintf("mesh component %d", defaultMeshNameCounter)
	defaultMeshNameCounter++
	return MeshComponent{Name: name, Model: model, Enabled: true}
}

// NewNamedMeshComponent builds a mesh component under an explicit name.
func NewNamedMeshComponent(name string, model Model) MeshComponent {
	return MeshComponent{Name: name, Model: model, Enabled: true}
}

// PointLightComponent is a positional light; its placement comes from the
// entity's TransformComponent.
type PointLightComponent struct {
	Color     mgl32.Vec3
	Intensity float32
	Radius    float32
}

// DirectionalLightComponent is a sun-style light. LightView is the
// camera the shadow pass renders the scene from and RenderPass selects
// which of the shadow render passes this light owns.
type DirectionalLightComponent struct {
	Color      mgl32.Vec3
	Intensity  float32
	Direction  mgl32.Vec3
	LightView  *Camera
	RenderPass int
}

// Script is the per-frame behavior an entity can carry. Concrete scripts
// implement OnUpdate; dt is the frame timestep in seconds.
type Script interface {
	OnUpdate(dt float32)
}

// ScriptComponent names a script file and optionally holds the loaded
// script object. A nil Script is valid gameplay (logged once per entity
// by the owning scene).
type ScriptComponent struct {
	Filepath string
	Script   Script
}

// Material tags select which render system draws an entity.
type (
	PbrNoMapTag struct{}
	CubemapTag  struct{}
	SpriteTag   struct{}
)

// Transform2D places a sprite in the GUI pass.
type Transform2D struct {
	Position mgl32.Vec2
	Scale    mgl32.Vec2
	Rotation float32
}

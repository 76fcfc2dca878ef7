package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the projection and view matrices the renderer consumes.
// Directional lights also use one as their shadow "light view".
type Camera struct {
	projection mgl32.Mat4
	view       mgl32.Mat4
	position   mgl32.Vec3
}

func NewCamera() *Camera {
	return &Camera{
		projection: mgl32.Ident4(),
		view:       mgl32.Ident4(),
	}
}

func (c *Camera) Projection() mgl32.Mat4 { return c.projection }
func (c *Camera) View() mgl32.Mat4       { return c.view }
func (c *Camera) Position() mgl32.Vec3   { return c.position }

// SetPerspectiveProjection configures a perspective projection; fovY in
// radians.
func (c *Camera) SetPerspectiveProjection(fovY, aspect, near, far float32) {
	c.projection = mgl32.Perspective(fovY, aspect, near, far)
}

// SetOrthographicProjection configures an orthographic projection, used
// by shadow light views.
func (c *Camera) SetOrthographicProjection(left, right, bottom, top, near, far float32) {
	c.projection = mgl32.Ortho(left, right, bottom, top, near, far)
}

// SetViewTarget aims the camera at target from position.
func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.position = position
	c.view = mgl32.LookAtV(position, target, up)
}

// SetViewDirection aims the camera along direction from position.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	c.SetViewTarget(position, position.Add(direction), up)
}

// SetViewYXZ derives the view matrix from a position and Euler rotation,
// matching the transform component's angle convention.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c.position = position
	rot := mgl32.AnglesToQuat(rotation.X(), rotation.Y(), rotation.Z(), mgl32.XYZ).Mat4()
	c.view = rot.Transpose().Mul4(mgl32.Translate3D(-position.X(), -position.Y(), -position.Z()))
}

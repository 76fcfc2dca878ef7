package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent holds scale, rotation (Euler angles, radians) and
// translation. The 4x4 transform and 3x3 normal matrix are recomputed
// lazily: setters only mark the component dirty, the first matrix read
// after a mutation recomputes both. Reads therefore always observe the
// latest scale/rotation/translation.
type TransformComponent struct {
	scale       mgl32.Vec3
	rotation    mgl32.Vec3
	translation mgl32.Vec3

	mat4         mgl32.Mat4
	normalMatrix mgl32.Mat3
	dirty        bool
}

// NewTransformComponent returns an identity transform.
func NewTransformComponent() TransformComponent {
	return TransformComponent{
		scale: mgl32.Vec3{1, 1, 1},
		dirty: true,
	}
}

func (t *TransformComponent) Scale() mgl32.Vec3       { return t.scale }
func (t *TransformComponent) Rotation() mgl32.Vec3    { return t.rotation }
func (t *TransformComponent) Translation() mgl32.Vec3 { return t.translation }

func (t *TransformComponent) SetScale(s mgl32.Vec3) {
	t.scale = s
	t.dirty = true
}

func (t *TransformComponent) SetScaleUniform(s float32) {
	t.SetScale(mgl32.Vec3{s, s, s})
}

func (t *TransformComponent) AddScale(delta mgl32.Vec3) {
	t.SetScale(t.scale.Add(delta))
}

func (t *TransformComponent) SetRotation(r mgl32.Vec3) {
	t.rotation = r
	t.dirty = true
}

func (t *TransformComponent) AddRotation(delta mgl32.Vec3) {
	t.SetRotation(t.rotation.Add(delta))
}

func (t *TransformComponent) SetTranslation(tr mgl32.Vec3) {
	t.translation = tr
	t.dirty = true
}

func (t *TransformComponent) SetTranslationX(x float32) {
	t.translation[0] = x
	t.dirty = true
}

func (t *TransformComponent) SetTranslationY(y float32) {
	t.translation[1] = y
	t.dirty = true
}

func (t *TransformComponent) SetTranslationZ(z float32) {
	t.translation[2] = z
	t.dirty = true
}

func (t *TransformComponent) AddTranslation(delta mgl32.Vec3) {
	t.SetTranslation(t.translation.Add(delta))
}

// Mat4 returns translation * rotation * scale.
func (t *TransformComponent) Mat4() mgl32.Mat4 {
	if t.dirty {
		t.recalculate()
	}
	return t.mat4
}

// NormalMatrix returns transpose(inverse(mat3(Mat4()))).
func (t *TransformComponent) NormalMatrix() mgl32.Mat3 {
	if t.dirty {
		t.recalculate()
	}
	return t.normalMatrix
}

func (t *TransformComponent) recalculate() {
	scale := mgl32.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z())
	rotation := mgl32.AnglesToQuat(t.rotation.X(), t.rotation.Y(), t.rotation.Z(), mgl32.XYZ).Mat4()
	translation := mgl32.Translate3D(t.translation.X(), t.translation.Y(), t.translation.Z())

	t.mat4 = translation.Mul4(rotation).Mul4(scale)
	t.normalMatrix = t.mat4.Mat3().Inv().Transpose()
	t.dirty = false
}

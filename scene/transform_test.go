package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-5

func assertMat4Near(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	for i := 0; i < 16; i++ {
		assert.InDelta(t, want[i], got[i], tolerance, "element %d", i)
	}
}

func freshMat4(tf *TransformComponent) mgl32.Mat4 {
	s := tf.Scale()
	r := tf.Rotation()
	tr := tf.Translation()
	scale := mgl32.Scale3D(s.X(), s.Y(), s.Z())
	rotation := mgl32.AnglesToQuat(r.X(), r.Y(), r.Z(), mgl32.XYZ).Mat4()
	translation := mgl32.Translate3D(tr.X(), tr.Y(), tr.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

func TestTransformDefaultsToIdentity(t *testing.T) {
	tf := NewTransformComponent()
	assertMat4Near(t, mgl32.Ident4(), tf.Mat4())
}

func TestTransformComposition(t *testing.T) {
	tf := NewTransformComponent()
	tf.SetScale(mgl32.Vec3{2, 2, 2})
	tf.SetRotation(mgl32.Vec3{0, 0, 0})
	tf.SetTranslation(mgl32.Vec3{1, 0, 0})

	want := mgl32.Translate3D(1, 0, 0).
		Mul4(mgl32.Ident4()).
		Mul4(mgl32.Scale3D(2, 2, 2))
	assertMat4Near(t, want, tf.Mat4())
}

// Every matrix read must reflect the latest setter calls, no matter how
// setters and reads interleave.
func TestTransformCacheNeverStale(t *testing.T) {
	tf := NewTransformComponent()

	steps := []func(){
		func() { tf.SetScale(mgl32.Vec3{2, 3, 4}) },
		func() { tf.SetRotation(mgl32.Vec3{0.3, 0, 0}) },
		func() { tf.SetTranslation(mgl32.Vec3{5, -1, 2}) },
		func() { tf.AddTranslation(mgl32.Vec3{0, 1, 0}) },
		func() { tf.SetScaleUniform(0.5) },
		func() { tf.AddRotation(mgl32.Vec3{0, 1.2, -0.7}) },
		func() { tf.SetTranslationY(9) },
		func() { tf.AddScale(mgl32.Vec3{0.1, 0.1, 0.1}) },
	}

	for i, step := range steps {
		step()
		assertMat4Near(t, freshMat4(&tf), tf.Mat4())
		// read twice; the cached value must match the fresh one too
		assertMat4Near(t, freshMat4(&tf), tf.Mat4())

		if i%2 == 0 {
			normal := tf.NormalMatrix()
			wantNormal := freshMat4(&tf).Mat3().Inv().Transpose()
			for j := 0; j < 9; j++ {
				assert.InDelta(t, wantNormal[j], normal[j], tolerance)
			}
		}
	}
}

func TestNormalMatrixConsistentWithMat4(t *testing.T) {
	tf := NewTransformComponent()
	tf.SetScale(mgl32.Vec3{1, 2, 3})
	tf.SetRotation(mgl32.Vec3{0.4, 0.5, 0.6})

	// reading the normal matrix first must still clear the dirty flag
	// for both matrices
	normal := tf.NormalMatrix()
	want := tf.Mat4().Mat3().Inv().Transpose()
	for i := 0; i < 9; i++ {
		require.InDelta(t, want[i], normal[i], tolerance)
	}
}

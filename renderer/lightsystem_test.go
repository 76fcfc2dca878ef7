package renderer

import (
	"math/rand"
	"testing"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/GDBobby/vulkan/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addLight(s *scene.Scene, position mgl32.Vec3, intensity float32) ecs.Entity {
	e := s.CreateEntity("light")
	tf := scene.NewTransformComponent()
	tf.SetTranslation(position)
	ecs.Attach(s.Registry, e, tf)
	ecs.Attach(s.Registry, e, scene.PointLightComponent{
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: intensity,
		Radius:    0.1,
	})
	return e
}

func addDirectionalLight(s *scene.Scene, passIndex int, intensity float32) ecs.Entity {
	e := s.CreateEntity("sun")
	ecs.Attach(s.Registry, e, scene.DirectionalLightComponent{
		Color:      mgl32.Vec3{1, 1, 1},
		Intensity:  intensity,
		Direction:  mgl32.Vec3{0, 1, 0},
		RenderPass: passIndex,
	})
	return e
}

func TestCollectPointLightsSortsBackToFront(t *testing.T) {
	s := scene.NewScene("test")
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 64; i++ {
		addLight(s, mgl32.Vec3{
			rng.Float32()*20 - 10,
			rng.Float32()*20 - 10,
			rng.Float32()*20 - 10,
		}, 1)
	}

	camera := mgl32.Vec3{1, 2, 3}
	entries := CollectPointLights(s, camera)
	require.Len(t, entries, 64)

	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].DistSq, entries[i].DistSq,
			"entry %d is closer than entry %d", i-1, i)
	}

	for _, entry := range entries {
		offset := entry.Position.Sub(camera)
		assert.InDelta(t, offset.Dot(offset), entry.DistSq, 1e-5)
	}
}

func TestCollectPointLightsIgnoresOtherEntities(t *testing.T) {
	s := scene.NewScene("test")

	addLight(s, mgl32.Vec3{1, 0, 0}, 1)

	// a transform without a light and a light without a transform
	e := s.CreateEntity("prop")
	ecs.Attach(s.Registry, e, scene.NewTransformComponent())
	bare := s.CreateEntity("bare light")
	ecs.Attach(s.Registry, bare, scene.PointLightComponent{Intensity: 1})

	entries := CollectPointLights(s, mgl32.Vec3{})
	require.Len(t, entries, 1)
}

func TestFillLightUniformKeepsNearestOnOverflow(t *testing.T) {
	s := scene.NewScene("test")

	// distances 1..MaxPointLights+8 along x, shuffled insertion order
	count := MaxPointLights + 8
	for _, d := range rand.New(rand.NewSource(3)).Perm(count) {
		addLight(s, mgl32.Vec3{float32(d + 1), 0, 0}, float32(d+1))
	}

	entries := CollectPointLights(s, mgl32.Vec3{})
	require.Len(t, entries, count)

	var ubo GlobalUniform
	FillLightUniform(&ubo, entries)

	require.EqualValues(t, MaxPointLights, ubo.NumPointLights)

	// the furthest lights were dropped; everything written sits within
	// the nearest MaxPointLights distances
	for i := 0; i < MaxPointLights; i++ {
		assert.LessOrEqual(t, ubo.PointLights[i].Position.X(), float32(MaxPointLights))
	}

	// order within the array stays back to front
	for i := 1; i < MaxPointLights; i++ {
		assert.GreaterOrEqual(t, ubo.PointLights[i-1].Position.X(), ubo.PointLights[i].Position.X())
	}
}

func TestFillLightUniformUnderCapacity(t *testing.T) {
	s := scene.NewScene("test")
	addLight(s, mgl32.Vec3{2, 0, 0}, 3)
	addLight(s, mgl32.Vec3{5, 0, 0}, 7)

	entries := CollectPointLights(s, mgl32.Vec3{})

	var ubo GlobalUniform
	FillLightUniform(&ubo, entries)

	require.EqualValues(t, 2, ubo.NumPointLights)
	assert.Equal(t, float32(5), ubo.PointLights[0].Position.X())
	assert.Equal(t, float32(7), ubo.PointLights[0].Color.W(), "intensity rides in color w")
	assert.Equal(t, float32(2), ubo.PointLights[1].Position.X())
	assert.Equal(t, float32(3), ubo.PointLights[1].Color.W())
}

func TestCollectDirectionalLightsOrdersByPassIndex(t *testing.T) {
	s := scene.NewScene("test")

	// insertion order is the reverse of pass index order
	second := addDirectionalLight(s, 1, 2)
	first := addDirectionalLight(s, 0, 5)

	entries := CollectDirectionalLights(s)
	require.Len(t, entries, 2)

	assert.Equal(t, first, entries[0].Entity)
	assert.Equal(t, 0, entries[0].PassIndex)
	assert.Equal(t, second, entries[1].Entity)
	assert.Equal(t, 1, entries[1].PassIndex)
}

func TestCollectDirectionalLightsSkipsOutOfRangeIndexes(t *testing.T) {
	s := scene.NewScene("test")

	addDirectionalLight(s, -1, 1)
	addDirectionalLight(s, MaxDirectionalLights, 1)
	kept := addDirectionalLight(s, 1, 1)

	entries := CollectDirectionalLights(s)
	require.Len(t, entries, 1)
	assert.Equal(t, kept, entries[0].Entity)
	assert.Equal(t, 1, entries[0].PassIndex)
}

func TestCollectDirectionalLightsFirstClaimKeepsThePass(t *testing.T) {
	s := scene.NewScene("test")

	winner := addDirectionalLight(s, 0, 4)
	addDirectionalLight(s, 0, 9)

	entries := CollectDirectionalLights(s)
	require.Len(t, entries, 1)
	assert.Equal(t, winner, entries[0].Entity)
	assert.Equal(t, float32(4), entries[0].Light.Intensity)
}

func TestFillDirectionalLightsRoutesByPassIndex(t *testing.T) {
	s := scene.NewScene("test")

	view := scene.NewCamera()
	view.SetOrthographicProjection(-10, 10, -10, 10, 0.1, 50)
	view.SetViewTarget(mgl32.Vec3{5, -10, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, -1, 0})

	e := s.CreateEntity("fill light")
	ecs.Attach(s.Registry, e, scene.DirectionalLightComponent{
		Color:      mgl32.Vec3{0.5, 0.6, 1},
		Intensity:  3,
		Direction:  mgl32.Vec3{0, 1, 0},
		LightView:  view,
		RenderPass: 1,
	})

	var ubo GlobalUniform
	FillDirectionalLights(&ubo, CollectDirectionalLights(s))

	// the light landed in slot 1 and the count spans the claimed slots
	assert.EqualValues(t, 2, ubo.NumDirectionalLights)
	assert.Equal(t, float32(3), ubo.DirectionalLights[1].Color.W())
	assert.Equal(t, view.Projection(), ubo.LightProjection[1])
	assert.Equal(t, view.View(), ubo.LightView[1])

	// the unclaimed slot stays inert
	assert.Equal(t, DirectionalLightUniform{}, ubo.DirectionalLights[0])
	assert.Equal(t, mgl32.Ident4(), ubo.LightProjection[0])
	assert.Equal(t, mgl32.Ident4(), ubo.LightView[0])
}

func TestFillDirectionalLightsWithoutLights(t *testing.T) {
	var ubo GlobalUniform
	ubo.NumDirectionalLights = 99

	FillDirectionalLights(&ubo, nil)

	assert.EqualValues(t, 0, ubo.NumDirectionalLights)
	for i := 0; i < MaxDirectionalLights; i++ {
		assert.Equal(t, mgl32.Ident4(), ubo.LightProjection[i])
		assert.Equal(t, mgl32.Ident4(), ubo.LightView[i])
	}
}

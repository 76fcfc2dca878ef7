package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameStateFullFrame(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginShadowPass())
	require.NoError(t, m.EndShadowPass())
	require.NoError(t, m.BeginDeferredPass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.EndDeferredPass())
	require.NoError(t, m.BeginOverlayPass())
	require.NoError(t, m.EndOverlayPass())
	require.NoError(t, m.EndFrame())

	assert.False(t, m.InFrame())
}

func TestFrameStateShadowPassIsOptional(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginDeferredPass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.EndDeferredPass())
	require.NoError(t, m.EndFrame())
}

func TestFrameStateShadowPassRepeatsPerLight(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginShadowPass())
	require.NoError(t, m.EndShadowPass())
	require.NoError(t, m.BeginShadowPass())
	require.NoError(t, m.EndShadowPass())
	require.NoError(t, m.BeginDeferredPass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.EndDeferredPass())
	require.NoError(t, m.EndFrame())
}

func TestFrameStatePassBeforeFrame(t *testing.T) {
	var m frameStateMachine

	assert.ErrorIs(t, m.BeginShadowPass(), ErrFrameState)
	assert.ErrorIs(t, m.BeginDeferredPass(), ErrFrameState)
	assert.ErrorIs(t, m.BeginOverlayPass(), ErrFrameState)
	assert.ErrorIs(t, m.EndFrame(), ErrFrameState)
	assert.False(t, m.InFrame())
}

func TestFrameStateDoubleBeginFrame(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	assert.ErrorIs(t, m.BeginFrame(), ErrFrameState)
}

func TestFrameStateNestedPasses(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginShadowPass())

	assert.ErrorIs(t, m.BeginShadowPass(), ErrFrameState)
	assert.ErrorIs(t, m.BeginDeferredPass(), ErrFrameState)
	assert.ErrorIs(t, m.BeginOverlayPass(), ErrFrameState)
}

func TestFrameStateSubpassOnlyInsideDeferredPass(t *testing.T) {
	var m frameStateMachine

	assert.ErrorIs(t, m.NextSubpass(), ErrFrameState)

	require.NoError(t, m.BeginFrame())
	assert.ErrorIs(t, m.NextSubpass(), ErrFrameState)

	require.NoError(t, m.BeginShadowPass())
	assert.ErrorIs(t, m.NextSubpass(), ErrFrameState)
}

func TestFrameStateSubpassOverrun(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginDeferredPass())
	require.NoError(t, m.NextSubpass())
	require.NoError(t, m.NextSubpass())

	// only three subpasses exist
	assert.ErrorIs(t, m.NextSubpass(), ErrFrameState)
}

func TestFrameStateEarlyEndDeferredPass(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginDeferredPass())

	// still in the geometry subpass
	assert.ErrorIs(t, m.EndDeferredPass(), ErrFrameState)
	require.NoError(t, m.NextSubpass())
	assert.ErrorIs(t, m.EndDeferredPass(), ErrFrameState)
}

func TestFrameStateEndFrameInsidePass(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginOverlayPass())
	assert.ErrorIs(t, m.EndFrame(), ErrFrameState)
}

func TestFrameStateViolationNamesPhase(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginShadowPass())

	err := m.BeginDeferredPass()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BeginDeferredPass")
	assert.Contains(t, err.Error(), "shadow pass")
}

func TestFrameStateAbortRecovers(t *testing.T) {
	var m frameStateMachine

	require.NoError(t, m.BeginFrame())
	require.NoError(t, m.BeginDeferredPass())
	m.Abort()

	assert.False(t, m.InFrame())
	require.NoError(t, m.BeginFrame())
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	var s CoreSettings
	s.Normalize()
	assert.Equal(t, DefaultSettings(), s)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	s := CoreSettings{
		WindowTitle:       "demo",
		Width:             640,
		Height:            480,
		BlacklistedDevice: "llvmpipe",
		EnableValidation:  true,
		ShaderDir:         "assets/spv",
		ShadowMapSize:     1024,
	}
	want := s
	s.Normalize()
	assert.Equal(t, want, s)
}

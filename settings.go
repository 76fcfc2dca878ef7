package engine

// CoreSettings configures engine startup. Zero values are filled with
// defaults by Normalize, so applications only set what they care about.
type CoreSettings struct {
	WindowTitle string
	Width       int
	Height      int

	// BlacklistedDevice rejects any GPU whose reported name contains
	// this substring, compared case insensitively. Empty disables the
	// blacklist.
	BlacklistedDevice string

	// EnableValidation turns on the Khronos validation layer and debug
	// reporting. Fatal at startup if the layer is not installed.
	EnableValidation bool

	ShaderDir     string
	ShadowMapSize int
}

// DefaultSettings returns the settings a bare demo runs with.
func DefaultSettings() CoreSettings {
	return CoreSettings{
		WindowTitle:   "renderEngine",
		Width:         1280,
		Height:        720,
		ShaderDir:     "shaders",
		ShadowMapSize: 2048,
	}
}

// Normalize fills zero fields with their defaults.
func (s *CoreSettings) Normalize() {
	def := DefaultSettings()
	if s.WindowTitle == "" {
		s.WindowTitle = def.WindowTitle
	}
	if s.Width <= 0 {
		s.Width = def.Width
	}
	if s.Height <= 0 {
		s.Height = def.Height
	}
	if s.ShaderDir == "" {
		s.ShaderDir = def.ShaderDir
	}
	if s.ShadowMapSize <= 0 {
		s.ShadowMapSize = def.ShadowMapSize
	}
}

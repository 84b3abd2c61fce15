package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalml/transit/contract"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "artifacts", s.ArtifactsDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.Preload)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"artifactsDir: /srv/models\nlogLevel: debug\npreload: [kepler, tess]\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/models", s.ArtifactsDir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, []contract.Variant{contract.Kepler, contract.TESS}, s.PreloadVariants())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artifactsDir: /srv/models\n"), 0o644))
	t.Setenv(EnvArtifactsDir, "/opt/override")
	t.Setenv(EnvPreload, "tess-full")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/override", s.ArtifactsDir)
	assert.Equal(t, []contract.Variant{contract.TESSFull}, s.PreloadVariants())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artifactsDir: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownPreload(t *testing.T) {
	s := defaults()
	s.Preload = []string{"k2"}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsEmptyArtifactsDir(t *testing.T) {
	s := Settings{}
	assert.Error(t, s.Validate())
}

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelseg/pkg/voxel"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.Processing.NumCores = 3
			cfg.DistanceTransform.SuppressZ = true
			cfg.DistanceTransform.ZScale = 2.5
			cfg.Merge.MaxDistanceCOG = "1.5um"
			cfg.Merge.MaxDistanceDeltaContour = 0.75
			cfg.Output.JSONLogs = true
			require.NoError(t, SaveConfig(cfg, path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadYAMLWithResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg.yaml")
	doc := `
resolution:
  x: 0.5e-6
  y: 0.5e-6
  z: 2.0e-6
merge:
  maxDistanceCOG: "3um"
  maxDistanceDeltaContour: 0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	res := cfg.VoxelResolution()
	require.NotNil(t, res)
	assert.InDelta(t, 16.0, cfg.ZScaleSquared(), 1e-9)

	params, err := cfg.MergeParams()
	require.NoError(t, err)
	assert.Equal(t, voxel.Distance{Value: 3, Unit: voxel.Micrometers}, params.MaxDistanceCOG)
	assert.True(t, math.IsInf(params.MaxDistanceDeltaContour, 1))
	assert.Equal(t, 0.5e-6, params.Resolution.X)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg.toml")
	doc := `
[distanceTransform]
suppressZ = true
zScale = 3.0

[merge]
maxDistanceCOG = "4vx"
maxDistanceDeltaContour = 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.DistanceTransform.SuppressZ)
	assert.Equal(t, 9.0, cfg.ZScaleSquared())
	assert.Nil(t, cfg.VoxelResolution())

	params, err := cfg.MergeParams()
	require.NoError(t, err)
	assert.Equal(t, voxel.Distance{Value: 4, Unit: voxel.Voxels}, params.MaxDistanceCOG)
	assert.Equal(t, 1.5, params.MaxDistanceDeltaContour)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.ZScaleSquared())

	cfg.Merge.MaxDistanceCOG = "far"
	assert.ErrorIs(t, cfg.Validate(), voxel.ErrConfiguration)

	cfg = DefaultConfig()
	cfg.DistanceTransform.ZScale = -1
	assert.ErrorIs(t, cfg.Validate(), voxel.ErrConfiguration)

	cfg = DefaultConfig()
	cfg.DistanceTransform.MultiplyBy = 0
	assert.ErrorIs(t, cfg.Validate(), voxel.ErrConfiguration)
}

func TestMissingZResolutionIsNaN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = &struct {
		X float64 `yaml:"x" toml:"x"`
		Y float64 `yaml:"y" toml:"y"`
		Z float64 `yaml:"z" toml:"z"`
	}{X: 1e-6, Y: 1e-6}

	res := cfg.VoxelResolution()
	require.NotNil(t, res)
	assert.True(t, math.IsNaN(res.Z))
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxelseg.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

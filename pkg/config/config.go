// Package config provides configuration loading and management for voxelseg.
// It handles loading configuration from YAML or TOML files and provides
// default values.
package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"voxelseg/pkg/merge"
	"voxelseg/pkg/voxel"
)

// Config represents the application configuration loaded from YAML or TOML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores" toml:"numCores"`
	} `yaml:"processing" toml:"processing"`

	// Resolution is the physical voxel size in metres. Leave it out for
	// unscaled data; merging with physical distances then fails.
	Resolution *struct {
		X float64 `yaml:"x" toml:"x"`
		Y float64 `yaml:"y" toml:"y"`
		Z float64 `yaml:"z" toml:"z"`
	} `yaml:"resolution,omitempty" toml:"resolution,omitempty"`

	// Distance transform parameters
	DistanceTransform struct {
		// SuppressZ transforms each slice on its own
		SuppressZ bool `yaml:"suppressZ" toml:"suppressZ"`

		// ZScale is the z voxel spacing relative to x. Zero takes it from
		// the resolution, or 1 without one.
		ZScale float64 `yaml:"zScale" toml:"zScale"`

		// MultiplyBy scales distances when exporting them as 16-bit images
		MultiplyBy float64 `yaml:"multiplyBy" toml:"multiplyBy"`

		// ApplyResolution additionally multiplies exported distances by the x
		// voxel size
		ApplyResolution bool `yaml:"applyResolution" toml:"applyResolution"`
	} `yaml:"distanceTransform" toml:"distanceTransform"`

	// Region merge parameters
	Merge struct {
		// MaxDistanceCOG is a distance such as "5", "5vx" or "2.5um"
		MaxDistanceCOG string `yaml:"maxDistanceCOG" toml:"maxDistanceCOG"`

		// MaxDistanceDeltaContour is the largest contour difference for a
		// merge. Zero or less disables the contour criterion.
		MaxDistanceDeltaContour float64 `yaml:"maxDistanceDeltaContour" toml:"maxDistanceDeltaContour"`
	} `yaml:"merge" toml:"merge"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose" toml:"verbose"`

		// JSONLogs switches the log formatter from text to JSON
		JSONLogs bool `yaml:"jsonLogs" toml:"jsonLogs"`
	} `yaml:"output" toml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.DistanceTransform.SuppressZ = false
	cfg.DistanceTransform.MultiplyBy = 1.0

	cfg.Merge.MaxDistanceCOG = "5"
	cfg.Merge.MaxDistanceDeltaContour = 2.0

	cfg.Output.Verbose = false

	return cfg
}

// isTOML reports whether path should be read and written as TOML
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by
// extension. If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML or TOML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks values that the loaders accept but the engines would reject
func (c *Config) Validate() error {
	if _, err := voxel.ParseDistance(c.Merge.MaxDistanceCOG); err != nil {
		return fmt.Errorf("merge.maxDistanceCOG: %w", err)
	}
	if z := c.DistanceTransform.ZScale; z < 0 || math.IsNaN(z) {
		return fmt.Errorf("distanceTransform.zScale: %w: must not be negative, got %v", voxel.ErrConfiguration, z)
	}
	if c.DistanceTransform.MultiplyBy <= 0 {
		return fmt.Errorf("distanceTransform.multiplyBy: %w: must be positive, got %v",
			voxel.ErrConfiguration, c.DistanceTransform.MultiplyBy)
	}
	return nil
}

// VoxelResolution returns the configured resolution, or nil when none is set
func (c *Config) VoxelResolution() *voxel.Resolution {
	if c.Resolution == nil {
		return nil
	}
	z := c.Resolution.Z
	if z == 0 {
		z = math.NaN()
	}
	return &voxel.Resolution{X: c.Resolution.X, Y: c.Resolution.Y, Z: z}
}

// ZScaleSquared is the distance transform's z constant: the square of the
// configured relative z spacing, else of the resolution's, else 1
func (c *Config) ZScaleSquared() float64 {
	if z := c.DistanceTransform.ZScale; z > 0 {
		return z * z
	}
	if res := c.VoxelResolution(); res != nil {
		return res.ZScaleSquared()
	}
	return 1
}

// MergeParams converts the merge section into merge.Params
func (c *Config) MergeParams() (merge.Params, error) {
	maxCOG, err := voxel.ParseDistance(c.Merge.MaxDistanceCOG)
	if err != nil {
		return merge.Params{}, fmt.Errorf("merge.maxDistanceCOG: %w", err)
	}
	delta := c.Merge.MaxDistanceDeltaContour
	if delta <= 0 {
		delta = math.Inf(1)
	}
	return merge.Params{
		MaxDistanceCOG:          maxCOG,
		MaxDistanceDeltaContour: delta,
		Resolution:              c.VoxelResolution(),
		Workers:                 c.Processing.NumCores,
	}, nil
}

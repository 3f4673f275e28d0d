// Package config loads the generator's run configuration from JSON or YAML.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/sdg/internal/projection"
	"github.com/banshee-data/sdg/internal/sweep"
)

// ExampleConfigPath is the annotated example configuration shipped with the
// repository.
const ExampleConfigPath = "config/sdg.example.yaml"

// Supported rendering engines.
const (
	EngineBlender = "blender"
	EngineBlank   = "blank"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// RenderingConfig is the root configuration for a generation run. Optional
// fields are pointers; the Get* methods supply defaults for omitted values.
type RenderingConfig struct {
	TargetPath    string   `json:"target_path" yaml:"target_path"`
	Engine        *string  `json:"engine,omitempty" yaml:"engine,omitempty"`
	Debug         *bool    `json:"debug,omitempty" yaml:"debug,omitempty"`
	RandomSeed    *int64   `json:"random_seed,omitempty" yaml:"random_seed,omitempty"`
	Resolution    []int    `json:"resolution,omitempty" yaml:"resolution,omitempty"` // [width, height]
	Samples       *int     `json:"samples,omitempty" yaml:"samples,omitempty"`
	BBoxSpace     *string  `json:"bbox_space,omitempty" yaml:"bbox_space,omitempty"`
	ZeroNudge     *float64 `json:"zero_nudge,omitempty" yaml:"zero_nudge,omitempty"`
	Workers       *int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	DatabasePath  *string  `json:"database_path,omitempty" yaml:"database_path,omitempty"`
	RenderCommand []string `json:"render_command,omitempty" yaml:"render_command,omitempty"`

	Scene SceneConfig `json:"scene_config" yaml:"scene_config"`
	Sweep SweepConfig `json:"sweep_config" yaml:"sweep_config"`
}

// SceneConfig names the scene file and the nodes that fill each role.
type SceneConfig struct {
	ScenePath    string   `json:"scene_path" yaml:"scene_path"`
	SceneName    string   `json:"scene_name" yaml:"scene_name"`
	CameraNames  []string `json:"camera_names" yaml:"camera_names"`
	AxisNames    []string `json:"axis_names" yaml:"axis_names"`
	ElementNames []string `json:"element_names" yaml:"element_names"`
	LightNames   []string `json:"light_names" yaml:"light_names"`
}

// SweepConfig holds inclusive [min, max] limits swept with a shared step.
type SweepConfig struct {
	Name               string `json:"name" yaml:"name"`
	Step               int    `json:"step" yaml:"step"`
	YawLimits          [2]int `json:"yaw_limits" yaml:"yaw_limits"`
	RollLimits         [2]int `json:"roll_limits" yaml:"roll_limits"`
	CameraHeightLimits [2]int `json:"camera_height_limits" yaml:"camera_height_limits"`
	LightEnergyLimits  [2]int `json:"light_energy_limits" yaml:"light_energy_limits"`
}

// Plan converts the limits into a sweep plan.
func (s SweepConfig) Plan() sweep.Plan {
	return sweep.Plan{
		Name:               s.Name,
		Step:               s.Step,
		YawLimits:          sweep.Limits(s.YawLimits),
		RollLimits:         sweep.Limits(s.RollLimits),
		CameraHeightLimits: sweep.Limits(s.CameraHeightLimits),
		LightEnergyLimits:  sweep.Limits(s.LightEnergyLimits),
	}
}

// LoadRenderingConfig loads and validates a configuration file. The file
// must have a .json, .yaml or .yml extension and be under 1MB. Relative
// target_path, database_path and scene_path values are resolved against the
// configuration file's directory.
func LoadRenderingConfig(path string) (*RenderingConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RenderingConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	base := filepath.Dir(cleanPath)
	cfg.TargetPath = resolvePath(base, cfg.TargetPath)
	cfg.Scene.ScenePath = resolvePath(base, cfg.Scene.ScenePath)
	if cfg.DatabasePath != nil {
		p := resolvePath(base, *cfg.DatabasePath)
		cfg.DatabasePath = &p
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks that the configuration values are usable.
func (c *RenderingConfig) Validate() error {
	if c.TargetPath == "" {
		return errors.New("target_path is required")
	}

	switch c.GetEngine() {
	case EngineBlender:
		if len(c.RenderCommand) == 0 {
			return errors.New("render_command is required for the blender engine")
		}
	case EngineBlank:
	default:
		return fmt.Errorf("unsupported engine %q", c.GetEngine())
	}

	if c.Resolution != nil {
		if len(c.Resolution) != 2 {
			return fmt.Errorf("resolution must be [width, height], got %v", c.Resolution)
		}
		if c.Resolution[0] <= 0 || c.Resolution[1] <= 0 {
			return fmt.Errorf("resolution must be positive, got %v", c.Resolution)
		}
	}
	if c.Samples != nil && *c.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", *c.Samples)
	}
	if c.BBoxSpace != nil {
		if _, err := projection.ParseSpace(*c.BBoxSpace); err != nil {
			return err
		}
	}
	if c.ZeroNudge != nil && (*c.ZeroNudge < 0 || *c.ZeroNudge >= projection.MaxZeroNudge) {
		return fmt.Errorf("zero_nudge must be in [0, %g), got %g", projection.MaxZeroNudge, *c.ZeroNudge)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.Scene.ScenePath == "" {
		return errors.New("scene_config.scene_path is required")
	}
	if len(c.Scene.CameraNames) == 0 {
		return errors.New("scene_config.camera_names must name at least one camera")
	}
	if len(c.Scene.AxisNames) == 0 {
		return errors.New("scene_config.axis_names must name at least one axis")
	}

	if err := c.Sweep.Plan().Validate(); err != nil {
		return fmt.Errorf("sweep_config: %w", err)
	}
	return nil
}

// GetEngine returns the engine name or "blender".
func (c *RenderingConfig) GetEngine() string {
	if c.Engine == nil || *c.Engine == "" {
		return EngineBlender
	}
	return strings.ToLower(*c.Engine)
}

// GetDebug returns whether debug overlays and reports are written.
func (c *RenderingConfig) GetDebug() bool {
	if c.Debug == nil {
		return false
	}
	return *c.Debug
}

// GetRandomSeed returns the seed for snapshot ids, default 0.
func (c *RenderingConfig) GetRandomSeed() int64 {
	if c.RandomSeed == nil {
		return 0
	}
	return *c.RandomSeed
}

// GetResolution returns the output size, default 256x256.
func (c *RenderingConfig) GetResolution() projection.Resolution {
	if len(c.Resolution) != 2 {
		return projection.Resolution{Width: 256, Height: 256}
	}
	return projection.Resolution{Width: c.Resolution[0], Height: c.Resolution[1]}
}

// GetSamples returns the render sample count, default 64.
func (c *RenderingConfig) GetSamples() int {
	if c.Samples == nil {
		return 64
	}
	return *c.Samples
}

// GetBBoxSpace returns the bounding-box coordinate space, default pixel.
func (c *RenderingConfig) GetBBoxSpace() projection.Space {
	if c.BBoxSpace == nil {
		return projection.SpacePixel
	}
	s, err := projection.ParseSpace(*c.BBoxSpace)
	if err != nil {
		return projection.SpacePixel
	}
	return s
}

// GetZeroNudge returns the value substituted for a zero top coordinate.
func (c *RenderingConfig) GetZeroNudge() float64 {
	if c.ZeroNudge == nil {
		return projection.DefaultZeroNudge
	}
	return *c.ZeroNudge
}

// GetWorkers returns the per-snapshot annotation parallelism; 0 means one
// worker per CPU.
func (c *RenderingConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetDatabasePath returns the dataset database path, default
// <target_path>/sdg.db.
func (c *RenderingConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return filepath.Join(c.TargetPath, "sdg.db")
	}
	return *c.DatabasePath
}

// BoxOptions returns the projection options implied by the configuration.
func (c *RenderingConfig) BoxOptions() projection.BoxOptions {
	res := c.GetResolution()
	return projection.BoxOptions{
		Space:      c.GetBBoxSpace(),
		Resolution: &res,
		ZeroNudge:  c.GetZeroNudge(),
	}
}

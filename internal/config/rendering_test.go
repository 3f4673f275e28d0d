package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sdg/internal/projection"
	"github.com/banshee-data/sdg/internal/testutil"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

func validConfig() *RenderingConfig {
	return &RenderingConfig{
		TargetPath: "out",
		Engine:     ptrString(EngineBlank),
		Scene: SceneConfig{
			ScenePath:   "scene.yaml",
			CameraNames: []string{"Camera"},
			AxisNames:   []string{"Axis"},
		},
		Sweep: SweepConfig{Name: "s", Step: 1, YawLimits: [2]int{0, 1}},
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Engine = nil

	assert.Equal(t, EngineBlender, cfg.GetEngine())
	assert.False(t, cfg.GetDebug())
	assert.Equal(t, int64(0), cfg.GetRandomSeed())
	assert.Equal(t, projection.Resolution{Width: 256, Height: 256}, cfg.GetResolution())
	assert.Equal(t, 64, cfg.GetSamples())
	assert.Equal(t, projection.SpacePixel, cfg.GetBBoxSpace())
	assert.Equal(t, projection.DefaultZeroNudge, cfg.GetZeroNudge())
	assert.Equal(t, 0, cfg.GetWorkers())
	assert.Equal(t, filepath.Join("out", "sdg.db"), cfg.GetDatabasePath())

	opts := cfg.BoxOptions()
	require.NotNil(t, opts.Resolution)
	assert.Equal(t, 256, opts.Resolution.Width)
	assert.Equal(t, projection.SpacePixel, opts.Space)
}

func TestLoadRenderingConfigYAML(t *testing.T) {
	t.Parallel()
	path := testutil.WriteFile(t, "run.yaml", `
target_path: /tmp/out
engine: blank
debug: true
random_seed: 9
resolution: [640, 480]
samples: 8
bbox_space: normalized
zero_nudge: 0
workers: 2
scene_config:
  scene_path: scenes/table.yaml
  scene_name: Scene
  camera_names: [Camera, Backup]
  axis_names: [Axis]
  element_names: [a, b]
  light_names: [Sun]
sweep_config:
  name: table
  step: 5
  yaw_limits: [0, 10]
  roll_limits: [0, 0]
  camera_height_limits: [2, 4]
  light_energy_limits: [100, 100]
`)
	cfg, err := LoadRenderingConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.GetDebug())
	assert.Equal(t, int64(9), cfg.GetRandomSeed())
	assert.Equal(t, projection.Resolution{Width: 640, Height: 480}, cfg.GetResolution())
	assert.Equal(t, 8, cfg.GetSamples())
	assert.Equal(t, projection.SpaceNormalized, cfg.GetBBoxSpace())
	assert.Zero(t, cfg.GetZeroNudge())
	assert.Equal(t, 2, cfg.GetWorkers())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "scenes", "table.yaml"), cfg.Scene.ScenePath)
	assert.Equal(t, "/tmp/out", cfg.TargetPath, "absolute paths are kept")
	assert.Equal(t, []string{"Camera", "Backup"}, cfg.Scene.CameraNames)

	plan := cfg.Sweep.Plan()
	assert.Equal(t, 5, plan.Step)
	assert.Equal(t, 3*1*1*1, plan.Size())
}

func TestLoadRenderingConfigJSON(t *testing.T) {
	t.Parallel()
	path := testutil.WriteFile(t, "run.json", `{
  "target_path": "out",
  "engine": "blender",
  "render_command": ["blender", "{scene}"],
  "scene_config": {"scene_path": "/abs/scene.json", "camera_names": ["c"], "axis_names": ["a"]},
  "sweep_config": {"name": "j", "step": 1}
}`)
	cfg, err := LoadRenderingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, EngineBlender, cfg.GetEngine())
	assert.Equal(t, "/abs/scene.json", cfg.Scene.ScenePath)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "out"), cfg.TargetPath)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "out", "sdg.db"), cfg.GetDatabasePath())
	assert.Equal(t, 1, cfg.Sweep.Plan().Size())
}

func TestLoadRenderingConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadRenderingConfig(testutil.WriteFile(t, "run.toml", "x = 1"))
	assert.ErrorContains(t, err, "extension")

	_, err = LoadRenderingConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "stat")

	_, err = LoadRenderingConfig(testutil.WriteFile(t, "bad.json", "{"))
	assert.ErrorContains(t, err, "parse")

	big := make([]byte, maxFileSize+1)
	_, err = LoadRenderingConfig(testutil.WriteFile(t, "big.yaml", string(big)))
	assert.ErrorContains(t, err, "too large")

	_, err = LoadRenderingConfig(testutil.WriteFile(t, "invalid.yaml", "target_path: ''"))
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *RenderingConfig)
		wantErr string
	}{
		{"valid", func(c *RenderingConfig) {}, ""},
		{"no_target", func(c *RenderingConfig) { c.TargetPath = "" }, "target_path"},
		{"unknown_engine", func(c *RenderingConfig) { c.Engine = ptrString("cycles") }, "unsupported engine"},
		{"blender_without_command", func(c *RenderingConfig) { c.Engine = ptrString("Blender") }, "render_command"},
		{"short_resolution", func(c *RenderingConfig) { c.Resolution = []int{256} }, "resolution"},
		{"zero_resolution", func(c *RenderingConfig) { c.Resolution = []int{0, 256} }, "resolution"},
		{"zero_samples", func(c *RenderingConfig) { c.Samples = ptrInt(0) }, "samples"},
		{"bad_space", func(c *RenderingConfig) { c.BBoxSpace = ptrString("relative") }, "relative"},
		{"negative_nudge", func(c *RenderingConfig) { c.ZeroNudge = ptrFloat64(-1) }, "zero_nudge"},
		{"large_nudge", func(c *RenderingConfig) { c.ZeroNudge = ptrFloat64(0.9) }, "zero_nudge"},
		{"nudge_at_cap", func(c *RenderingConfig) { c.ZeroNudge = ptrFloat64(projection.MaxZeroNudge) }, "zero_nudge"},
		{"small_nudge", func(c *RenderingConfig) { c.ZeroNudge = ptrFloat64(1e-4) }, ""},
		{"negative_workers", func(c *RenderingConfig) { c.Workers = ptrInt(-1) }, "workers"},
		{"no_scene", func(c *RenderingConfig) { c.Scene.ScenePath = "" }, "scene_path"},
		{"no_camera", func(c *RenderingConfig) { c.Scene.CameraNames = nil }, "camera_names"},
		{"no_axis", func(c *RenderingConfig) { c.Scene.AxisNames = nil }, "axis_names"},
		{"zero_step", func(c *RenderingConfig) { c.Sweep.Step = 0 }, "sweep_config"},
		{"empty_limits", func(c *RenderingConfig) { c.Sweep.YawLimits = [2]int{5, 0} }, "yaw"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Parallel()
	cfg, err := LoadRenderingConfig(filepath.Join("..", "..", ExampleConfigPath))
	require.NoError(t, err)
	assert.Equal(t, EngineBlank, cfg.GetEngine())
	assert.Equal(t, 3*3*1*1, cfg.Sweep.Plan().Size())
	assert.Equal(t, filepath.Join("..", "..", "out", "example"), cfg.TargetPath, "target is next to config/")
}

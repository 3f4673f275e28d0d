// Package pipeline drives a generation run: for each snapshot of the sweep
// it configures the scene, renders, annotates and persists, strictly in
// sweep order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/sdg/internal/config"
	"github.com/banshee-data/sdg/internal/dataset"
	"github.com/banshee-data/sdg/internal/debugdraw"
	"github.com/banshee-data/sdg/internal/monitoring"
	"github.com/banshee-data/sdg/internal/projection"
	"github.com/banshee-data/sdg/internal/render"
	"github.com/banshee-data/sdg/internal/report"
	"github.com/banshee-data/sdg/internal/scene"
	"github.com/banshee-data/sdg/internal/sweep"
	"github.com/banshee-data/sdg/internal/timeutil"
)

// SweepCSV lists every processed snapshot with its visible object count.
const SweepCSV = "sweep.csv"

// Generator holds everything a run needs.
type Generator struct {
	Config    *config.RenderingConfig
	Scene     *scene.Scene
	Renderer  render.Renderer
	Annotator *projection.Annotator
	Store     *dataset.Store

	clock timeutil.Clock
}

// Result summarises a finished or cancelled run.
type Result struct {
	RunID       string
	Snapshots   int
	Annotations int
	Cancelled   bool
}

// New loads the scene, builds the renderer for the configured engine and
// opens the dataset store. The caller owns the returned generator's Store.
func New(cfg *config.RenderingConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sc, err := LoadScene(cfg)
	if err != nil {
		return nil, err
	}
	r, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.TargetPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create target dir: %w", err)
	}
	store, err := dataset.OpenStore(cfg.GetDatabasePath())
	if err != nil {
		return nil, err
	}

	a := projection.NewAnnotator(cfg.BoxOptions())
	a.Workers = cfg.GetWorkers()

	return &Generator{
		Config:    cfg,
		Scene:     sc,
		Renderer:  r,
		Annotator: a,
		Store:     store,
		clock:     timeutil.RealClock{},
	}, nil
}

// SetClock sets the clock behind manifest and store timestamps.
func (g *Generator) SetClock(c timeutil.Clock) {
	g.clock = c
	if g.Store != nil {
		g.Store.SetClock(c)
	}
}

// LoadScene reads the scene file and binds the configured roles and render
// settings.
func LoadScene(cfg *config.RenderingConfig) (*scene.Scene, error) {
	sc, err := scene.LoadFile(cfg.Scene.ScenePath, cfg.Scene.SceneName)
	if err != nil {
		return nil, err
	}
	res := cfg.GetResolution()
	sc.Render = scene.RenderSettings{Width: res.Width, Height: res.Height, Samples: cfg.GetSamples()}
	sc.Roles = scene.Roles{
		Cameras:  cfg.Scene.CameraNames,
		Axes:     cfg.Scene.AxisNames,
		Elements: cfg.Scene.ElementNames,
		Lights:   cfg.Scene.LightNames,
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Resolve(); err != nil {
		return nil, err
	}
	return sc, nil
}

// NewRenderer returns the renderer for the configured engine.
func NewRenderer(cfg *config.RenderingConfig) (render.Renderer, error) {
	switch cfg.GetEngine() {
	case config.EngineBlender:
		r, err := render.NewCommandRenderer(cfg.RenderCommand)
		if err != nil {
			return nil, err
		}
		r.Stderr = os.Stderr
		return r, nil
	case config.EngineBlank:
		return render.BlankRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.GetEngine())
	}
}

// Run processes every snapshot. Cancellation is checked between snapshots
// and between objects; everything written before cancellation is complete
// and the result is marked Cancelled with a nil error.
func (g *Generator) Run(ctx context.Context) (res Result, err error) {
	if g.clock == nil {
		g.clock = timeutil.RealClock{}
	}
	cfg := g.Config
	plan := cfg.Sweep.Plan()

	snaps, err := plan.Snapshots(cfg.GetRandomSeed())
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(cfg.TargetPath, 0o755); err != nil {
		return res, fmt.Errorf("failed to create target dir: %w", err)
	}

	res.RunID, err = g.Store.BeginRun(ctx, dataset.RunInfo{
		SweepName:  plan.Name,
		TargetPath: cfg.TargetPath,
		Engine:     cfg.GetEngine(),
		BBoxSpace:  cfg.GetBBoxSpace().String(),
		Width:      g.Scene.Render.Width,
		Height:     g.Scene.Render.Height,
		RandomSeed: cfg.GetRandomSeed(),
	})
	if err != nil {
		return res, err
	}
	monitoring.Opsf("run %s: sweep %q, %d snapshots, engine %s", res.RunID, plan.Name, len(snaps), cfg.GetEngine())

	jsonl, err := dataset.NewJSONLWriter(filepath.Join(cfg.TargetPath, dataset.AnnotationsFile))
	if err != nil {
		return res, err
	}
	csvFile, err := os.Create(filepath.Join(cfg.TargetPath, SweepCSV))
	if err != nil {
		jsonl.Close()
		return res, fmt.Errorf("failed to create sweep csv: %w", err)
	}
	rows, err := sweep.NewCSVWriter(csvFile)
	if err != nil {
		jsonl.Close()
		csvFile.Close()
		return res, err
	}

	defer func() {
		err = errors.Join(err, rows.Flush(), csvFile.Close(), jsonl.Close())
		status := dataset.StatusComplete
		switch {
		case err != nil:
			status = dataset.StatusFailed
		case res.Cancelled:
			status = dataset.StatusCancelled
		}
		// the run context may already be cancelled
		if ferr := g.Store.FinishRun(context.Background(), res.RunID, status); ferr != nil {
			err = errors.Join(err, ferr)
		}
		if err == nil {
			err = g.finish(res, plan.Name, status == dataset.StatusComplete)
		}
		monitoring.Opsf("run %s %s: %d snapshots, %d annotations", res.RunID, status, res.Snapshots, res.Annotations)
	}()

	// a snapshot that reached persistence is written in full even if the
	// run is cancelled meanwhile
	persistCtx := context.WithoutCancel(ctx)
	for i, snap := range snaps {
		if ctx.Err() != nil {
			res.Cancelled = true
			return res, nil
		}
		ann, err := g.processSnapshot(ctx, snap)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				res.Cancelled = true
				return res, nil
			}
			return res, fmt.Errorf("snapshot %s: %w", snap.ID, err)
		}

		if err := jsonl.Write(ann); err != nil {
			return res, err
		}
		if err := g.Store.RecordSnapshot(persistCtx, res.RunID, i, snap, ann); err != nil {
			return res, err
		}
		if err := rows.WriteRow(snap, ann.Len()); err != nil {
			return res, err
		}
		res.Snapshots++
		res.Annotations += ann.Len()

		monitoring.Diagf("snapshot %d/%d %s yaw=%g roll=%g height=%g energy=%g visible=%d",
			i+1, len(snaps), snap.ID, snap.Yaw, snap.Roll, snap.CameraHeight, snap.LightEnergy, ann.Len())
	}
	return res, nil
}

// processSnapshot configures, renders and annotates one snapshot. A failed
// annotation leaves the rendered image in place.
func (g *Generator) processSnapshot(ctx context.Context, snap sweep.Snapshot) (projection.Annotation, error) {
	configured, err := scene.Apply(g.Scene, snap)
	if err != nil {
		return projection.Annotation{}, err
	}

	fileName := projection.AnnotationFileName(snap.ID)
	imagePath := filepath.Join(g.Config.TargetPath, fileName)
	if err := g.Renderer.Render(ctx, render.Request{
		ScenePath: g.Config.Scene.ScenePath,
		Scene:     configured,
		Snapshot:  snap,
		Output:    imagePath,
	}); err != nil {
		return projection.Annotation{}, err
	}

	ann, err := g.Annotator.Annotate(ctx, CameraSources(configured), MeshSources(configured), fileName)
	if err != nil {
		return projection.Annotation{}, err
	}

	if g.Config.GetDebug() {
		if err := g.writeOverlay(imagePath, ann, snap); err != nil {
			return projection.Annotation{}, err
		}
	}
	return ann, nil
}

func (g *Generator) writeOverlay(imagePath string, ann projection.Annotation, snap sweep.Snapshot) error {
	img, err := render.ReadPNG(imagePath)
	if err != nil {
		return err
	}
	out, err := debugdraw.Overlay(img, ann, g.Config.GetBBoxSpace(), snap)
	if err != nil {
		return err
	}
	return render.WritePNG(debugdraw.AnnotatedPath(g.Config.TargetPath, snap.ID), out)
}

// finish writes the manifest and, in debug mode, the run report.
func (g *Generator) finish(res Result, sweepName string, complete bool) error {
	cfg := g.Config
	m := dataset.Manifest{
		Path:            cfg.TargetPath,
		AnnotationCount: res.Snapshots,
		RunID:           res.RunID,
		Sweep:           sweepName,
		Engine:          cfg.GetEngine(),
		BBoxSpace:       cfg.GetBBoxSpace().String(),
		Width:           g.Scene.Render.Width,
		Height:          g.Scene.Render.Height,
		Complete:        complete,
		GeneratedAt:     g.clock.Now().UTC(),
	}
	if err := dataset.WriteManifest(cfg.TargetPath, m); err != nil {
		return err
	}

	if !cfg.GetDebug() || res.Snapshots == 0 {
		return nil
	}
	ctx := context.Background()
	sums, err := g.Store.SnapshotSummaries(ctx, res.RunID)
	if err != nil {
		return err
	}
	counts, err := g.Store.CategoryCounts(ctx, res.RunID)
	if err != nil {
		return err
	}
	return report.Write(cfg.TargetPath, report.Input{
		RunID:      res.RunID,
		Sweep:      sweepName,
		Snapshots:  sums,
		Counts:     counts,
		Categories: cfg.Scene.ElementNames,
	})
}

// CameraSources adapts the scene's cameras for projection.
func CameraSources(s *scene.Scene) []projection.CameraSource {
	cams := s.Cameras()
	out := make([]projection.CameraSource, len(cams))
	for i, c := range cams {
		out[i] = c
	}
	return out
}

// MeshSources adapts the scene's objects of interest for projection.
func MeshSources(s *scene.Scene) []projection.MeshSource {
	els := s.Elements()
	out := make([]projection.MeshSource, len(els))
	for i, e := range els {
		out[i] = e
	}
	return out
}

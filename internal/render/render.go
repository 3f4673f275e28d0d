// Package render produces the image for one configured snapshot.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/sdg/internal/monitoring"
	"github.com/banshee-data/sdg/internal/scene"
	"github.com/banshee-data/sdg/internal/sweep"
)

// Request describes one render.
type Request struct {
	// ScenePath is the scene description the external renderer loads.
	ScenePath string
	// Scene is the scene already configured for Snapshot.
	Scene    *scene.Scene
	Snapshot sweep.Snapshot
	// Output is the PNG path to write.
	Output string
}

// Renderer writes the image for a request.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

// CommandRenderer runs an external renderer once per snapshot. Each argument
// of Args may contain placeholders: {scene}, {output}, {samples}, {width},
// {height}, {id}, {yaw}, {roll}, {camera_height}, {light_energy}.
type CommandRenderer struct {
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandRenderer returns a renderer for the given argv template.
func NewCommandRenderer(args []string) (*CommandRenderer, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, errors.New("render command must not be empty")
	}
	return &CommandRenderer{Args: args}, nil
}

// Expand substitutes the request's values into the argv template.
func (r *CommandRenderer) Expand(req Request) []string {
	var settings scene.RenderSettings
	if req.Scene != nil {
		settings = req.Scene.Render
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	repl := strings.NewReplacer(
		"{scene}", req.ScenePath,
		"{output}", req.Output,
		"{samples}", strconv.Itoa(settings.Samples),
		"{width}", strconv.Itoa(settings.Width),
		"{height}", strconv.Itoa(settings.Height),
		"{id}", req.Snapshot.ID,
		"{yaw}", f(req.Snapshot.Yaw),
		"{roll}", f(req.Snapshot.Roll),
		"{camera_height}", f(req.Snapshot.CameraHeight),
		"{light_energy}", f(req.Snapshot.LightEnergy),
	)
	out := make([]string, len(r.Args))
	for i, a := range r.Args {
		out[i] = repl.Replace(a)
	}
	return out
}

// Render runs the command and checks that it produced the output file.
func (r *CommandRenderer) Render(ctx context.Context, req Request) error {
	argv := r.Expand(req)
	monitoring.Tracef("render %s: %s", req.Snapshot.ID, strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("render command %q: %w", argv[0], err)
	}
	if _, err := os.Stat(req.Output); err != nil {
		return fmt.Errorf("render command produced no output: %w", err)
	}
	return nil
}

// BlankRenderer writes a flat image at the scene's resolution. Brightness
// follows light energy relative to FullEnergy.
type BlankRenderer struct {
	FullEnergy float64
}

// Render writes the PNG.
func (r BlankRenderer) Render(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Scene == nil {
		return errors.New("blank render needs a scene")
	}
	w, h := req.Scene.Render.Width, req.Scene.Render.Height
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid render size %dx%d", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := r.shade(req.Snapshot.LightEnergy)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return WritePNG(req.Output, img)
}

func (r BlankRenderer) shade(energy float64) color.RGBA {
	full := r.FullEnergy
	if full <= 0 {
		full = 1000
	}
	level := energy / full
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	v := uint8(32 + level*191)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create image dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// ReadPNG decodes a PNG file.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

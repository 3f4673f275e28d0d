// Package debugdraw renders annotation overlays for visual inspection of a
// generated snapshot.
package debugdraw

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/banshee-data/sdg/internal/projection"
	"github.com/banshee-data/sdg/internal/sweep"
)

var (
	boxColor   = color.RGBA{R: 255, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textColor  = color.RGBA{R: 255, G: 255, A: 255}
)

const labelPad = 2

// AnnotatedFileName returns the overlay file name for a snapshot.
func AnnotatedFileName(snapshotID string) string {
	return snapshotID + "_annotated.png"
}

// AnnotatedPath returns the overlay path beside the rendered image.
func AnnotatedPath(dir, snapshotID string) string {
	return filepath.Join(dir, AnnotatedFileName(snapshotID))
}

// Overlay draws every box of ann onto a copy of src. Boxes in normalized
// space are scaled to the image first. Each box gets a "<category>, (x, y)"
// label on a red background; the origin is marked "(0, 0)" and the snapshot
// parameters are printed along the bottom edge.
func Overlay(src image.Image, ann projection.Annotation, space projection.Space, snap sweep.Snapshot) (*image.RGBA, error) {
	if len(ann.Objects.BBox) != len(ann.Objects.Categories) {
		return nil, fmt.Errorf("annotation %s has %d boxes but %d categories",
			ann.FileName, len(ann.Objects.BBox), len(ann.Objects.Categories))
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	face := basicfont.Face7x13
	drawText(dst, face, "(0, 0)", image.Pt(labelPad, face.Ascent+labelPad), textColor)

	for i, box := range ann.Objects.BBox {
		if space == projection.SpaceNormalized {
			box = box.Scale(float64(b.Dx()), float64(b.Dy()))
		}
		r := image.Rect(
			int(math.Round(box.TopX)), int(math.Round(box.TopY)),
			int(math.Round(box.BottomX())), int(math.Round(box.BottomY())),
		)
		strokeRect(dst, r, boxColor)

		labelBox(dst, face, boxLabel(ann.Objects.Categories[i], box), r.Min)
	}

	params, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	drawText(dst, face, string(params), image.Pt(labelPad, b.Dy()-face.Descent-labelPad), textColor)
	return dst, nil
}

// boxLabel reads "<category>, (<top x>, <top y>)" with two decimals.
func boxLabel(category int, box projection.BoundingBox) string {
	return fmt.Sprintf("%d, (%.2f, %.2f)", category, box.TopX, box.TopY)
}

// strokeRect draws a one-pixel outline clipped to the image.
func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Canon()
	if r.Empty() {
		r.Max = r.Max.Add(image.Pt(1, 1))
	}
	u := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge.Intersect(dst.Bounds()), u, image.Point{}, draw.Src)
	}
}

// labelBox draws label above at, or inside the box when there is no room
// above.
func labelBox(dst *image.RGBA, face *basicfont.Face, label string, at image.Point) {
	d := font.Drawer{Face: face}
	w := d.MeasureString(label).Ceil() + 2*labelPad
	h := face.Height + labelPad

	top := at.Y - h
	if top < 0 {
		top = at.Y
	}
	bg := image.Rect(at.X, top, at.X+w, top+h)
	draw.Draw(dst, bg.Intersect(dst.Bounds()), image.NewUniform(boxColor), image.Point{}, draw.Src)
	drawText(dst, face, label, image.Pt(at.X+labelPad, top+face.Ascent+1), labelColor)
}

func drawText(dst *image.RGBA, face font.Face, text string, baseline image.Point, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(baseline.X, baseline.Y),
	}
	d.DrawString(strings.TrimSpace(text))
}

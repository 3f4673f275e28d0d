package debugdraw

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sdg/internal/projection"
	"github.com/banshee-data/sdg/internal/sweep"
)

func grey(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 40, G: 40, B: 40, A: 255}), image.Point{}, draw.Src)
	return img
}

func annotation(boxes []projection.BoundingBox, cats []int) projection.Annotation {
	a := projection.Annotation{FileName: "s.png"}
	a.Objects.BBox = boxes
	a.Objects.Categories = cats
	return a
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0 && b == 0
}

func TestOverlayPixelBoxes(t *testing.T) {
	t.Parallel()
	src := grey(128, 128)
	ann := annotation([]projection.BoundingBox{{TopX: 40, TopY: 60, Width: 30, Height: 20}}, []int{2})

	out, err := Overlay(src, ann, projection.SpacePixel, sweep.Snapshot{ID: "s"})
	require.NoError(t, err)

	assert.True(t, isRed(out.At(40, 70)), "left edge")
	assert.True(t, isRed(out.At(69, 70)), "right edge")
	assert.True(t, isRed(out.At(55, 79)), "bottom edge")
	assert.False(t, isRed(out.At(55, 70)), "interior untouched")

	// label background sits above the box
	assert.True(t, isRed(out.At(41, 59-labelPad)))

	// source is not modified
	assert.Equal(t, color.RGBA{R: 40, G: 40, B: 40, A: 255}, src.RGBAAt(40, 70))
}

func TestOverlayNormalizedBoxesAreScaled(t *testing.T) {
	t.Parallel()
	src := grey(200, 100)
	ann := annotation([]projection.BoundingBox{{TopX: 0.5, TopY: 0.5, Width: 0.25, Height: 0.25}}, []int{0})

	out, err := Overlay(src, ann, projection.SpaceNormalized, sweep.Snapshot{})
	require.NoError(t, err)

	// scaled box spans x 100..150, y 50..75
	assert.True(t, isRed(out.At(100, 60)))
	assert.True(t, isRed(out.At(149, 60)))
	assert.False(t, isRed(out.At(125, 60)))
}

func TestOverlayLabelInsideWhenAtTop(t *testing.T) {
	t.Parallel()
	src := grey(100, 100)
	ann := annotation([]projection.BoundingBox{{TopX: 50, TopY: 0, Width: 40, Height: 40}}, []int{1})

	out, err := Overlay(src, ann, projection.SpacePixel, sweep.Snapshot{})
	require.NoError(t, err)
	assert.True(t, isRed(out.At(51, 5)))
}

func TestOverlayMismatchedAnnotation(t *testing.T) {
	t.Parallel()
	ann := annotation([]projection.BoundingBox{{Width: 1, Height: 1}}, nil)
	_, err := Overlay(grey(10, 10), ann, projection.SpacePixel, sweep.Snapshot{})
	assert.Error(t, err)
}

func TestStrokeRectClipsAndHandlesEmpty(t *testing.T) {
	t.Parallel()
	dst := grey(10, 10)
	strokeRect(dst, image.Rect(-5, -5, 20, 20), color.RGBA{R: 255, A: 255})
	strokeRect(dst, image.Rect(3, 3, 3, 3), color.RGBA{R: 255, A: 255})
	assert.True(t, isRed(dst.At(3, 3)))
}

func TestAnnotatedPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc_annotated.png", AnnotatedFileName("abc"))
	assert.Equal(t, filepath.Join("out", "abc_annotated.png"), AnnotatedPath("out", "abc"))
}

func TestBoxLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cat  int
		box  projection.BoundingBox
		want string
	}{
		{0, projection.BoundingBox{TopX: 40.25, TopY: 60}, "0, (40.25, 60.00)"},
		{3, projection.BoundingBox{TopX: 1e-6, TopY: 0.126}, "3, (0.00, 0.13)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, boxLabel(tt.cat, tt.box))
	}
}

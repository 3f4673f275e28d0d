package projection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultZeroNudge replaces a box edge that sits exactly on 0. Downstream
// dataset tooling treats a literal 0 coordinate as unset, so boxes touching
// the left or top frame edge are shifted by this amount. It is cosmetic and
// biases those edges by at most 1e-6; set BoxOptions.ZeroNudge to 0 to get
// exact coordinates.
const DefaultZeroNudge = 1e-6

// MaxZeroNudge bounds the nudge so a shifted edge stays well inside the
// frame.
const MaxZeroNudge = 1e-3

// ErrMissingResolution is returned when pixel output is requested without
// an output resolution.
var ErrMissingResolution = errors.New("projection: resolution must be provided for pixel-space boxes")

// Space selects the coordinate space of computed boxes.
type Space int

const (
	// SpaceNormalized yields boxes as fractions of the frame in [0,1].
	SpaceNormalized Space = iota
	// SpacePixel yields boxes in output image pixels.
	SpacePixel
)

func (s Space) String() string {
	switch s {
	case SpaceNormalized:
		return "normalized"
	case SpacePixel:
		return "pixel"
	default:
		return fmt.Sprintf("Space(%d)", int(s))
	}
}

// ParseSpace parses "pixel" or "normalized".
func ParseSpace(s string) (Space, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pixel":
		return SpacePixel, nil
	case "normalized", "normalised":
		return SpaceNormalized, nil
	default:
		return 0, fmt.Errorf("unknown bbox space %q: expected pixel or normalized", s)
	}
}

// Resolution is an output image size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// BoxOptions controls ComputeBoundingBox.
type BoxOptions struct {
	Space Space
	// Resolution is required when Space is SpacePixel.
	Resolution *Resolution
	// ZeroNudge replaces a TopX or TopY of exactly 0 when positive.
	ZeroNudge float64
}

// BoundingBox is an axis-aligned box measured from the top-left corner of
// the image. It is encoded in JSON as [top_x, top_y, width, height].
type BoundingBox struct {
	TopX   float64
	TopY   float64
	Width  float64
	Height float64
}

// BottomX returns the right edge.
func (b BoundingBox) BottomX() float64 { return b.TopX + b.Width }

// BottomY returns the bottom edge.
func (b BoundingBox) BottomY() float64 { return b.TopY + b.Height }

// Scale multiplies the horizontal components by sx and the vertical ones by sy.
func (b BoundingBox) Scale(sx, sy float64) BoundingBox {
	return BoundingBox{TopX: b.TopX * sx, TopY: b.TopY * sy, Width: b.Width * sx, Height: b.Height * sy}
}

// MarshalJSON encodes the box as a four-element array.
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.TopX, b.TopY, b.Width, b.Height})
}

// UnmarshalJSON decodes a four-element array.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("bounding box must have 4 elements, got %d", len(v))
	}
	*b = BoundingBox{TopX: v[0], TopY: v[1], Width: v[2], Height: v[3]}
	return nil
}

// ComputeBoundingBox turns normalized frame coordinates into a box measured
// from the top-left of the image. ok is false when the object is not
// visible: no coordinates, or an extent that collapses to a line once
// clipped to the frame.
func ComputeBoundingBox(xs, ys []float64, opts BoxOptions) (box BoundingBox, ok bool, err error) {
	if len(xs) == 0 || len(ys) == 0 {
		return BoundingBox{}, false, nil
	}

	// Frame coordinates grow upwards; image rows grow downwards.
	minX, maxX := minMax(xs)
	minY, maxY := minMax(ys)
	topX, bottomX := clamp01(minX), clamp01(maxX)
	topY, bottomY := clamp01(1-maxY), clamp01(1-minY)

	if topX == bottomX || topY == bottomY {
		return BoundingBox{}, false, nil
	}

	if opts.Space == SpacePixel {
		if err := opts.checkResolution(); err != nil {
			return BoundingBox{}, false, err
		}
		w, h := float64(opts.Resolution.Width), float64(opts.Resolution.Height)
		topX, bottomX = topX*w, bottomX*w
		topY, bottomY = topY*h, bottomY*h
	}

	box = BoundingBox{
		TopX:   topX,
		TopY:   topY,
		Width:  bottomX - topX,
		Height: bottomY - topY,
	}
	if opts.ZeroNudge > 0 {
		if box.TopX == 0 {
			box.TopX = opts.ZeroNudge
		}
		if box.TopY == 0 {
			box.TopY = opts.ZeroNudge
		}
	}
	return box, true, nil
}

// checkResolution reports whether pixel-space output has a usable
// resolution.
func (o BoxOptions) checkResolution() error {
	if o.Space != SpacePixel {
		return nil
	}
	if o.Resolution == nil {
		return ErrMissingResolution
	}
	if o.Resolution.Width <= 0 || o.Resolution.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrMissingResolution, o.Resolution.Width, o.Resolution.Height)
	}
	return nil
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package scene

import (
	"fmt"

	"github.com/banshee-data/sdg/internal/geom"
)

// Cube returns the eight corners of an axis-aligned cube of edge size
// centred on the origin.
func Cube(size float64) []geom.Vector3 {
	h := size / 2
	out := make([]geom.Vector3, 0, 8)
	for _, x := range []float64{-h, h} {
		for _, y := range []float64{-h, h} {
			for _, z := range []float64{-h, h} {
				out = append(out, geom.Vector3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Plane returns the four corners of a square of edge size in the XY plane
// centred on the origin.
func Plane(size float64) []geom.Vector3 {
	h := size / 2
	return []geom.Vector3{
		{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h},
	}
}

func primitive(kind string, size float64) ([]geom.Vector3, error) {
	if size <= 0 {
		size = 2
	}
	switch kind {
	case "cube":
		return Cube(size), nil
	case "plane":
		return Plane(size), nil
	default:
		return nil, fmt.Errorf("unsupported primitive %q", kind)
	}
}

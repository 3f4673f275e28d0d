package geom

import (
	"fmt"
	"math"
)

// Frustum holds the four corners of a camera's frame plane in camera space,
// in the order top-right, bottom-right, bottom-left, top-left. The camera
// looks down its local -Z axis, so corners have negative Z.
type Frustum [4]Vector3

// PerspectiveFrustum returns the frame corners at unit distance for a
// perspective camera with horizontal-or-vertical field of view fovRad,
// fitted to the larger image axis, and an aspect ratio of width/height.
func PerspectiveFrustum(fovRad, aspect float64) (Frustum, error) {
	if fovRad <= 0 || fovRad >= math.Pi {
		return Frustum{}, fmt.Errorf("field of view must be in (0, π), got %f", fovRad)
	}
	if aspect <= 0 || math.IsInf(aspect, 0) || math.IsNaN(aspect) {
		return Frustum{}, fmt.Errorf("aspect ratio must be positive, got %f", aspect)
	}

	half := math.Tan(fovRad / 2)
	halfW, halfH := half, half/aspect
	if aspect < 1 {
		halfW, halfH = half*aspect, half
	}

	return Frustum{
		{X: halfW, Y: halfH, Z: -1},
		{X: halfW, Y: -halfH, Z: -1},
		{X: -halfW, Y: -halfH, Z: -1},
		{X: -halfW, Y: halfH, Z: -1},
	}, nil
}

package projection

import (
	"errors"
	"fmt"

	"github.com/banshee-data/sdg/internal/geom"
)

var (
	// ErrNoCamera is returned when a snapshot is annotated without a camera.
	ErrNoCamera = errors.New("projection: no camera configured")
	// ErrInvalidFrustum is returned when a frustum corner sits on the camera plane.
	ErrInvalidFrustum = errors.New("projection: frustum corner has zero depth")
)

// DegenerateCameraError reports a camera world transform that cannot be
// inverted, usually because the camera has a zero scale on some axis.
type DegenerateCameraError struct {
	Err error
}

func (e *DegenerateCameraError) Error() string {
	return fmt.Sprintf("degenerate camera transform: %v", e.Err)
}

func (e *DegenerateCameraError) Unwrap() error { return e.Err }

// ViewFrame is the camera's frame plane at unit depth in camera space. The
// corners are sign-negated from the raw frustum so they share the positive
// depth half-space used for projected vertices.
type ViewFrame struct {
	// YLow bounds the frame from below (lower y extent).
	YLow geom.Vector3
	// Pivot bounds the frame on the left (lower x) and on top (upper y).
	Pivot geom.Vector3
	// XHigh bounds the frame on the right (upper x extent).
	XHigh geom.Vector3
}

// NewViewFrame negates the first three frustum corners
// (top-right, bottom-right, bottom-left) into a ViewFrame.
func NewViewFrame(f geom.Frustum) ViewFrame {
	return ViewFrame{
		YLow:  f[0].Mul(-1),
		Pivot: f[1].Mul(-1),
		XHigh: f[2].Mul(-1),
	}
}

// At returns a copy of the frame with every corner moved to depth z along
// its own ray, which is the perspective divide for a point at that depth.
func (f ViewFrame) At(z float64) ViewFrame {
	scale := func(c geom.Vector3) geom.Vector3 { return c.Mul(1 / (c.Z / z)) }
	return ViewFrame{YLow: scale(f.YLow), Pivot: scale(f.Pivot), XHigh: scale(f.XHigh)}
}

// Extents returns the horizontal and vertical bounds of the frame.
func (f ViewFrame) Extents() (minX, maxX, minY, maxY float64) {
	return f.Pivot.X, f.XHigh.X, f.YLow.Y, f.Pivot.Y
}

// CameraModel is a camera ready for projection.
type CameraModel struct {
	// WorldToCamera is the inverted, column-normalized camera world transform.
	WorldToCamera geom.Transform
	Frame         ViewFrame
}

// NewCameraModel inverts the camera world transform and derives its view
// frame. A non-invertible transform yields a *DegenerateCameraError.
func NewCameraModel(world geom.Transform, frustum geom.Frustum) (*CameraModel, error) {
	inv, err := world.Inverse()
	if err != nil {
		return nil, &DegenerateCameraError{Err: err}
	}

	frame := NewViewFrame(frustum)
	if frame.YLow.Z == 0 || frame.Pivot.Z == 0 || frame.XHigh.Z == 0 {
		return nil, ErrInvalidFrustum
	}

	return &CameraModel{
		WorldToCamera: inv.Normalized(),
		Frame:         frame,
	}, nil
}

// CameraSource supplies what the projection needs to know about a camera.
type CameraSource interface {
	WorldTransform() geom.Transform
	Frustum() geom.Frustum
}

// SelectCamera returns the first camera. When several are supplied a single
// warning is emitted through warnf and the rest are ignored.
func SelectCamera(cameras []CameraSource, warnf func(format string, args ...interface{})) (CameraSource, error) {
	if len(cameras) == 0 {
		return nil, ErrNoCamera
	}
	if len(cameras) > 1 && warnf != nil {
		warnf("WARNING: %d cameras configured, multiple cameras are not supported; using the first", len(cameras))
	}
	return cameras[0], nil
}

package scene

import (
	"errors"
	"fmt"

	"github.com/banshee-data/sdg/internal/geom"
	"github.com/banshee-data/sdg/internal/monitoring"
	"github.com/banshee-data/sdg/internal/sweep"
)

var (
	// ErrNoAxis is returned by Apply when no axis role is filled.
	ErrNoAxis = errors.New("scene: no axis")
	// ErrNoCamera is returned by Apply when no camera role is filled.
	ErrNoCamera = errors.New("scene: no camera")
)

// Apply returns a copy of s configured for one snapshot: the first axis is
// placed at the origin and rotated by (yaw, roll, 0) degrees, the first
// camera is lifted to camera_height on Z, and the first light, if any,
// takes light_energy. s is not modified.
func Apply(s *Scene, snap sweep.Snapshot) (*Scene, error) {
	out := s.Clone()

	axes := out.Axes()
	if len(axes) == 0 {
		return nil, ErrNoAxis
	}
	if len(axes) > 1 {
		monitoring.Opsf("scene %s: %d axes configured, using %q", out.Name, len(axes), axes[0].Name)
	}
	cameras := out.Cameras()
	if len(cameras) == 0 {
		return nil, ErrNoCamera
	}
	lights := out.Lights()
	if len(lights) > 1 {
		monitoring.Opsf("scene %s: %d lights configured, using %q", out.Name, len(lights), lights[0].Name)
	}

	var axis interface {
		Positionable
		Rotatable
	} = axes[0]
	axis.SetLocation(geom.Vector3{})
	axis.SetRotationDegrees(geom.Vector3{X: snap.Yaw, Y: snap.Roll})

	var cam Positionable = cameras[0]
	cam.SetLocation(geom.Vector3{Z: snap.CameraHeight})

	if len(lights) > 0 {
		var light Illuminable = lights[0]
		light.SetEnergy(snap.LightEnergy)
	}

	if err := out.Resolve(); err != nil {
		return nil, fmt.Errorf("resolving snapshot %s: %w", snap.ID, err)
	}
	return out, nil
}

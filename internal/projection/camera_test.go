package projection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sdg/internal/geom"
)

func TestNewViewFrameNegatesCorners(t *testing.T) {
	t.Parallel()
	f := NewViewFrame(squareFrustum())

	assert.InDelta(t, -1.0, f.YLow.Y, 1e-9)
	assert.InDelta(t, 1.0, f.YLow.Z, 1e-9)
	minX, maxX, minY, maxY := f.Extents()
	assert.InDelta(t, -1.0, minX, 1e-9)
	assert.InDelta(t, 1.0, maxX, 1e-9)
	assert.InDelta(t, -1.0, minY, 1e-9)
	assert.InDelta(t, 1.0, maxY, 1e-9)
}

func TestViewFrameAtDepth(t *testing.T) {
	t.Parallel()
	f := NewViewFrame(squareFrustum()).At(4)

	minX, maxX, minY, maxY := f.Extents()
	assert.InDelta(t, -4.0, minX, 1e-9)
	assert.InDelta(t, 4.0, maxX, 1e-9)
	assert.InDelta(t, -4.0, minY, 1e-9)
	assert.InDelta(t, 4.0, maxY, 1e-9)
	assert.InDelta(t, 4.0, f.Pivot.Z, 1e-9)
}

func TestNewCameraModelInvertsWorld(t *testing.T) {
	t.Parallel()
	cam, err := NewCameraModel(geom.Translation(geom.Vector3{Z: 5}), squareFrustum())
	require.NoError(t, err)

	co := cam.WorldToCamera.Apply(geom.Vector3{})
	assert.InDelta(t, -5.0, co.Z, 1e-9)
}

func TestNewCameraModelDegenerate(t *testing.T) {
	t.Parallel()
	world := geom.Compose(geom.Vector3{Z: 5}, geom.Vector3{}, geom.Vector3{X: 1, Y: 1, Z: 0})

	_, err := NewCameraModel(world, squareFrustum())
	require.Error(t, err)

	var dce *DegenerateCameraError
	assert.True(t, errors.As(err, &dce))
	assert.ErrorIs(t, err, geom.ErrSingular)
}

func TestNewCameraModelInvalidFrustum(t *testing.T) {
	t.Parallel()
	_, err := NewCameraModel(geom.Identity(), geom.Frustum{})
	assert.ErrorIs(t, err, ErrInvalidFrustum)
}

func TestSelectCamera(t *testing.T) {
	t.Parallel()

	var warnings []string
	warnf := func(format string, args ...interface{}) { warnings = append(warnings, format) }

	first, second := cameraAt(3), cameraAt(7)
	got, err := SelectCamera([]CameraSource{first, second}, warnf)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Len(t, warnings, 1)

	warnings = nil
	_, err = SelectCamera([]CameraSource{first}, warnf)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	_, err = SelectCamera(nil, warnf)
	assert.ErrorIs(t, err, ErrNoCamera)
}

package projection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBoundingBoxEmpty(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name   string
		xs, ys []float64
	}{
		{"both empty", nil, nil},
		{"xs empty", nil, []float64{0.5}},
		{"ys empty", []float64{0.5}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := ComputeBoundingBox(tc.xs, tc.ys, BoxOptions{})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestComputeBoundingBoxFlipsY(t *testing.T) {
	t.Parallel()
	box, ok, err := ComputeBoundingBox([]float64{0.1, 0.3}, []float64{0.6, 0.9}, BoxOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 0.1, box.TopX, 1e-9)
	assert.InDelta(t, 0.1, box.TopY, 1e-9) // 1 - 0.9
	assert.InDelta(t, 0.2, box.Width, 1e-9)
	assert.InDelta(t, 0.3, box.Height, 1e-9)
}

func TestComputeBoundingBoxDegenerate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"shared x", []float64{0.4, 0.4, 0.4}, []float64{0.1, 0.5, 0.9}},
		{"shared y", []float64{0.1, 0.5, 0.9}, []float64{0.3, 0.3, 0.3}},
		{"clipped right of frame", []float64{1.2, 1.8}, []float64{0.2, 0.8}},
		{"clipped below frame", []float64{0.2, 0.8}, []float64{-0.5, -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := ComputeBoundingBox(tt.xs, tt.ys, BoxOptions{ZeroNudge: DefaultZeroNudge})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestComputeBoundingBoxClipsToFrame(t *testing.T) {
	t.Parallel()
	box, ok, err := ComputeBoundingBox([]float64{-0.5, 0.5}, []float64{0.2, 1.7}, BoxOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 0.0, box.TopX)
	assert.Equal(t, 0.0, box.TopY)
	assert.InDelta(t, 0.5, box.Width, 1e-9)
	assert.InDelta(t, 0.8, box.Height, 1e-9)
	assert.LessOrEqual(t, box.BottomX(), 1.0)
	assert.LessOrEqual(t, box.BottomY(), 1.0)
}

func TestComputeBoundingBoxClipsBeforeScaling(t *testing.T) {
	t.Parallel()
	res := &Resolution{Width: 640, Height: 480}
	box, ok, err := ComputeBoundingBox([]float64{-3, 4}, []float64{-2, 5}, BoxOptions{Space: SpacePixel, Resolution: res})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, BoundingBox{TopX: 0, TopY: 0, Width: 640, Height: 480}, box)
}

func TestComputeBoundingBoxPixelRoundTrip(t *testing.T) {
	t.Parallel()
	xs := []float64{0.25, 0.75}
	ys := []float64{0.25, 0.75}

	rel, ok, err := ComputeBoundingBox(xs, ys, BoxOptions{Space: SpaceNormalized})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, BoundingBox{TopX: 0.25, TopY: 0.25, Width: 0.5, Height: 0.5}, rel)

	px, ok, err := ComputeBoundingBox(xs, ys, BoxOptions{Space: SpacePixel, Resolution: &Resolution{Width: 256, Height: 256}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, BoundingBox{TopX: 64, TopY: 64, Width: 128, Height: 128}, px)
	assert.Equal(t, rel.Scale(256, 256), px)
}

func TestComputeBoundingBoxMissingResolution(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		res  *Resolution
	}{
		{"nil", nil},
		{"zero", &Resolution{}},
		{"zero width", &Resolution{Width: 0, Height: 480}},
		{"negative height", &Resolution{Width: 640, Height: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, ok, err := ComputeBoundingBox([]float64{0.2, 0.8}, []float64{0.2, 0.8}, BoxOptions{Space: SpacePixel, Resolution: tt.res})
			assert.ErrorIs(t, err, ErrMissingResolution)
			assert.False(t, ok)
			assert.Equal(t, BoundingBox{}, box)
		})
	}

	// normalized output ignores the resolution entirely
	_, ok, err := ComputeBoundingBox([]float64{0.2, 0.8}, []float64{0.2, 0.8}, BoxOptions{Resolution: &Resolution{}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestComputeBoundingBoxZeroNudge(t *testing.T) {
	t.Parallel()
	xs := []float64{-1, 0.5}
	ys := []float64{0.5, 2}

	box, ok, err := ComputeBoundingBox(xs, ys, BoxOptions{ZeroNudge: DefaultZeroNudge})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DefaultZeroNudge, box.TopX)
	assert.Equal(t, DefaultZeroNudge, box.TopY)
	// width and height come from the unnudged edges
	assert.InDelta(t, 0.5, box.Width, 1e-12)
	assert.InDelta(t, 0.5, box.Height, 1e-12)

	box, _, _ = ComputeBoundingBox(xs, ys, BoxOptions{})
	assert.Equal(t, 0.0, box.TopX)
	assert.Equal(t, 0.0, box.TopY)
}

func TestBoundingBoxJSON(t *testing.T) {
	t.Parallel()
	b := BoundingBox{TopX: 1, TopY: 2, Width: 3, Height: 4}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3,4]`, string(data))

	var got BoundingBox
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, b, got)

	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &got))
}

func TestParseSpace(t *testing.T) {
	t.Parallel()
	s, err := ParseSpace("Pixel")
	require.NoError(t, err)
	assert.Equal(t, SpacePixel, s)

	s, err = ParseSpace("normalized")
	require.NoError(t, err)
	assert.Equal(t, SpaceNormalized, s)
	assert.Equal(t, "normalized", s.String())

	_, err = ParseSpace("relative")
	assert.Error(t, err)
}

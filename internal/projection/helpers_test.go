package projection

import (
	"math"

	"github.com/banshee-data/sdg/internal/geom"
)

type fakeCamera struct {
	world   geom.Transform
	frustum geom.Frustum
}

func (c fakeCamera) WorldTransform() geom.Transform { return c.world }
func (c fakeCamera) Frustum() geom.Frustum          { return c.frustum }

type fakeMesh struct {
	world geom.Transform
	verts []geom.Vector3
}

func (m fakeMesh) WorldTransform() geom.Transform { return m.world }
func (m fakeMesh) Vertices() []geom.Vector3       { return m.verts }

// squareFrustum is a 90° field of view with a square frame: half extent 1
// at unit depth.
func squareFrustum() geom.Frustum {
	f, err := geom.PerspectiveFrustum(math.Pi/2, 1)
	if err != nil {
		panic(err)
	}
	return f
}

// cameraAt returns a camera on the +Z axis looking down -Z at the origin.
func cameraAt(height float64) fakeCamera {
	return fakeCamera{world: geom.Translation(geom.Vector3{Z: height}), frustum: squareFrustum()}
}

func unitCubeVertices(size float64) []geom.Vector3 {
	h := size / 2
	var out []geom.Vector3
	for _, x := range []float64{-h, h} {
		for _, y := range []float64{-h, h} {
			for _, z := range []float64{-h, h} {
				out = append(out, geom.Vector3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func cubeAt(loc geom.Vector3, size float64) fakeMesh {
	return fakeMesh{world: geom.Translation(loc), verts: unitCubeVertices(size)}
}

package projection

import "github.com/banshee-data/sdg/internal/geom"

// MeshSource supplies an object's placement and object-local vertices.
type MeshSource interface {
	WorldTransform() geom.Transform
	Vertices() []geom.Vector3
}

// ProjectVertices maps object-local vertices into normalized frame
// coordinates, where (0,0) is the bottom-left and (1,1) the top-right of the
// frame. Vertices on or behind the camera plane are dropped, so both slices
// are empty when the object is entirely behind the camera. Values outside
// [0,1] are kept; clipping is done by ComputeBoundingBox.
func ProjectVertices(objectWorld geom.Transform, vertices []geom.Vector3, cam *CameraModel) (xs, ys []float64) {
	toCamera := cam.WorldToCamera.Mul(objectWorld)

	xs = make([]float64, 0, len(vertices))
	ys = make([]float64, 0, len(vertices))
	for _, v := range vertices {
		co := toCamera.Apply(v)

		// Camera looks down -Z.
		z := -co.Z
		if z <= 0 {
			continue
		}

		minX, maxX, minY, maxY := cam.Frame.At(z).Extents()
		xs = append(xs, (co.X-minX)/(maxX-minX))
		ys = append(ys, (co.Y-minY)/(maxY-minY))
	}
	return xs, ys
}

// ProjectMesh is ProjectVertices for a MeshSource.
func ProjectMesh(obj MeshSource, cam *CameraModel) (xs, ys []float64) {
	return ProjectVertices(obj.WorldTransform(), obj.Vertices(), cam)
}

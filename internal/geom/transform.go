// Package geom holds the small amount of 3D math shared by the scene model
// and the projection core: vectors, 4x4 affine transforms and camera
// frustums.
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Vector3 is a point or direction in 3D space.
type Vector3 = r3.Vector

// singularTolerance is the ratio of the determinant to the product of the
// basis column lengths below which a transform is treated as non-invertible.
// The ratio is 1 for any rotation with uniform scale, however small.
const singularTolerance = 1e-12

// ErrSingular is returned when a transform cannot be inverted.
var ErrSingular = errors.New("geom: transform is singular")

// Transform is a 4x4 affine transform stored row-major:
// m00,m01,m02,m03, m10,m11,m12,m13, m20,..., m30,...,m33.
type Transform [16]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a transform that moves points by v.
func Translation(v Vector3) Transform {
	t := Identity()
	t[3], t[7], t[11] = v.X, v.Y, v.Z
	return t
}

// ScaleMatrix returns a transform scaling each axis independently.
func ScaleMatrix(s Vector3) Transform {
	t := Identity()
	t[0], t[5], t[10] = s.X, s.Y, s.Z
	return t
}

// RotationEulerXYZ builds a rotation from XYZ Euler angles in radians.
// The X rotation is applied first, then Y, then Z (R = Rz·Ry·Rx).
func RotationEulerXYZ(rx, ry, rz float64) Transform {
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	return Transform{
		cz * cy, cz*sy*sx - sz*cx, cz*sy*cx + sz*sx, 0,
		sz * cy, sz*sy*sx + cz*cx, sz*sy*cx - cz*sx, 0,
		-sy, cy * sx, cy * cx, 0,
		0, 0, 0, 1,
	}
}

// Compose returns the placement transform T·R·S for a location, XYZ Euler
// rotation (radians) and per-axis scale.
func Compose(location, rotation, scale Vector3) Transform {
	return Translation(location).
		Mul(RotationEulerXYZ(rotation.X, rotation.Y, rotation.Z)).
		Mul(ScaleMatrix(scale))
}

// Mul returns the product t·o. Applying the result to a point applies o
// first, then t.
func (t Transform) Mul(o Transform) Transform {
	var r Transform
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += t[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// Apply transforms point p (w = 1). The bottom row is assumed affine.
func (t Transform) Apply(p Vector3) Vector3 {
	return Vector3{
		X: t[0]*p.X + t[1]*p.Y + t[2]*p.Z + t[3],
		Y: t[4]*p.X + t[5]*p.Y + t[6]*p.Z + t[7],
		Z: t[8]*p.X + t[9]*p.Y + t[10]*p.Z + t[11],
	}
}

// Location returns the translation component.
func (t Transform) Location() Vector3 {
	return Vector3{X: t[3], Y: t[7], Z: t[11]}
}

// Inverse returns the inverse transform, or ErrSingular when the matrix has
// no usable inverse.
func (t Transform) Inverse() (Transform, error) {
	data := t
	m := mat.NewDense(4, 4, data[:])

	det := mat.Det(m)
	volume := t.basisVolume()
	if volume == 0 || math.IsNaN(det) || math.Abs(det) < singularTolerance*volume {
		return Transform{}, fmt.Errorf("%w: determinant %g", ErrSingular, det)
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Transform{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var out Transform
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = inv.At(row, col)
		}
	}
	return out, nil
}

// basisVolume is the product of the lengths of the three basis columns.
func (t Transform) basisVolume() float64 {
	v := 1.0
	for col := 0; col < 3; col++ {
		v *= math.Sqrt(t[col]*t[col] + t[4+col]*t[4+col] + t[8+col]*t[8+col])
	}
	return v
}

// Normalized scales each column of the upper-left 3x3 block to unit length,
// removing scale from the basis while keeping the translation. Zero-length
// columns are left as they are.
func (t Transform) Normalized() Transform {
	out := t
	for col := 0; col < 3; col++ {
		x, y, z := t[col], t[4+col], t[8+col]
		n := math.Sqrt(x*x + y*y + z*z)
		if n == 0 {
			continue
		}
		out[col], out[4+col], out[8+col] = x/n, y/n, z/n
	}
	return out
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

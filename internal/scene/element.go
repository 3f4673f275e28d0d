// Package scene models the host scene the generator drives: a flat set of
// named nodes (empties, meshes, cameras, lights) with optional parenting,
// plus the render settings that affect projection.
//
// A Scene is a value. Apply returns a configured copy for one snapshot and
// never mutates its input.
package scene

import (
	"github.com/banshee-data/sdg/internal/geom"
)

// Positionable can be moved.
type Positionable interface {
	SetLocation(loc geom.Vector3)
}

// Rotatable can be oriented with XYZ Euler angles.
type Rotatable interface {
	SetRotation(rad geom.Vector3)
	SetRotationDegrees(deg geom.Vector3)
}

// Illuminable has an adjustable light output.
type Illuminable interface {
	SetEnergy(energy float64)
}

var (
	_ Positionable = (*Element)(nil)
	_ Rotatable    = (*Element)(nil)
	_ Positionable = (*Camera)(nil)
	_ Rotatable    = (*Camera)(nil)
	_ Illuminable  = (*Light)(nil)
)

// Element is any placed node. Meshes carry object-local vertices; empties
// have none.
type Element struct {
	Name     string
	Location geom.Vector3
	Rotation geom.Vector3 // XYZ Euler, radians
	Scale    geom.Vector3
	Parent   string
	Mesh     []geom.Vector3

	world geom.Transform
}

// NewElement returns an element at the origin with unit scale.
func NewElement(name string) *Element {
	return &Element{Name: name, Scale: geom.Vector3{X: 1, Y: 1, Z: 1}}
}

func (e *Element) SetLocation(loc geom.Vector3) { e.Location = loc }

func (e *Element) SetRotation(rad geom.Vector3) { e.Rotation = rad }

// SetRotationDegrees sets the rotation from XYZ Euler angles in degrees.
func (e *Element) SetRotationDegrees(deg geom.Vector3) {
	e.Rotation = geom.Vector3{X: geom.DegToRad(deg.X), Y: geom.DegToRad(deg.Y), Z: geom.DegToRad(deg.Z)}
}

// Local returns the placement relative to the parent.
func (e *Element) Local() geom.Transform {
	return geom.Compose(e.Location, e.Rotation, e.Scale)
}

// WorldTransform returns the placement in world space as of the last
// Scene.Resolve.
func (e *Element) WorldTransform() geom.Transform { return e.world }

// Vertices returns the object-local mesh vertices.
func (e *Element) Vertices() []geom.Vector3 { return e.Mesh }

func (e *Element) clone() *Element {
	c := *e
	if e.Mesh != nil {
		c.Mesh = append([]geom.Vector3(nil), e.Mesh...)
	}
	return &c
}

// Camera is a perspective camera. FOV applies to the larger image axis.
type Camera struct {
	Element
	FOV float64 // radians

	aspect float64
}

// Frustum returns the frame corners for the scene's current output aspect.
// An invalid field of view yields a zero frustum, which the projection
// rejects.
func (c *Camera) Frustum() geom.Frustum {
	aspect := c.aspect
	if aspect == 0 {
		aspect = 1
	}
	f, err := geom.PerspectiveFrustum(c.FOV, aspect)
	if err != nil {
		return geom.Frustum{}
	}
	return f
}

// Light is a light source with a scalar energy.
type Light struct {
	Element
	Energy float64
}

func (l *Light) SetEnergy(energy float64) { l.Energy = energy }

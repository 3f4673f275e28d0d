package scene

import (
	"errors"
	"fmt"

	"github.com/banshee-data/sdg/internal/geom"
)

// maxParentDepth guards against parent cycles.
const maxParentDepth = 64

var (
	// ErrUnknownNode is returned when a name does not match any node.
	ErrUnknownNode = errors.New("scene: unknown node")
	// ErrParentCycle is returned when parent links loop.
	ErrParentCycle = errors.New("scene: parent cycle")
)

// RenderSettings mirror the host renderer's output settings.
type RenderSettings struct {
	Width   int
	Height  int
	Samples int
}

// Aspect returns width/height, or 1 when unset.
func (r RenderSettings) Aspect() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 1
	}
	return float64(r.Width) / float64(r.Height)
}

// Roles selects which nodes play which part, by name and in order.
type Roles struct {
	Cameras  []string
	Axes     []string
	Elements []string
	Lights   []string
}

// Scene is a set of named nodes and the roles they play.
type Scene struct {
	Name   string
	Render RenderSettings
	Roles  Roles

	nodes   map[string]*Element
	cameras map[string]*Camera
	lights  map[string]*Light
}

// New returns an empty scene.
func New(name string) *Scene {
	return &Scene{
		Name:    name,
		nodes:   make(map[string]*Element),
		cameras: make(map[string]*Camera),
		lights:  make(map[string]*Light),
	}
}

// AddElement adds an empty or mesh node.
func (s *Scene) AddElement(e *Element) error {
	if err := s.checkName(e.Name); err != nil {
		return err
	}
	s.nodes[e.Name] = e
	return nil
}

// AddCamera adds a camera node.
func (s *Scene) AddCamera(c *Camera) error {
	if err := s.checkName(c.Name); err != nil {
		return err
	}
	s.cameras[c.Name] = c
	return nil
}

// AddLight adds a light node.
func (s *Scene) AddLight(l *Light) error {
	if err := s.checkName(l.Name); err != nil {
		return err
	}
	s.lights[l.Name] = l
	return nil
}

func (s *Scene) checkName(name string) error {
	if name == "" {
		return errors.New("scene: node name must not be empty")
	}
	if s.node(name) != nil {
		return fmt.Errorf("scene: duplicate node %q", name)
	}
	return nil
}

// node returns the placement of any node kind.
func (s *Scene) node(name string) *Element {
	if e, ok := s.nodes[name]; ok {
		return e
	}
	if c, ok := s.cameras[name]; ok {
		return &c.Element
	}
	if l, ok := s.lights[name]; ok {
		return &l.Element
	}
	return nil
}

// Cameras returns the cameras named in Roles, in order.
func (s *Scene) Cameras() []*Camera {
	out := make([]*Camera, 0, len(s.Roles.Cameras))
	for _, n := range s.Roles.Cameras {
		if c, ok := s.cameras[n]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Lights returns the lights named in Roles, in order.
func (s *Scene) Lights() []*Light {
	out := make([]*Light, 0, len(s.Roles.Lights))
	for _, n := range s.Roles.Lights {
		if l, ok := s.lights[n]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Axes returns the sweep pivot nodes named in Roles, in order.
func (s *Scene) Axes() []*Element { return s.elementsNamed(s.Roles.Axes) }

// Elements returns the objects of interest named in Roles, in order. An
// element's index in this slice is its category.
func (s *Scene) Elements() []*Element { return s.elementsNamed(s.Roles.Elements) }

func (s *Scene) elementsNamed(names []string) []*Element {
	out := make([]*Element, 0, len(names))
	for _, n := range names {
		if e := s.node(n); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that every role name refers to a node of the right kind.
func (s *Scene) Validate() error {
	for _, n := range s.Roles.Cameras {
		if _, ok := s.cameras[n]; !ok {
			return fmt.Errorf("camera %q: %w", n, ErrUnknownNode)
		}
	}
	for _, n := range s.Roles.Lights {
		if _, ok := s.lights[n]; !ok {
			return fmt.Errorf("light %q: %w", n, ErrUnknownNode)
		}
	}
	for _, n := range append(append([]string(nil), s.Roles.Axes...), s.Roles.Elements...) {
		if s.node(n) == nil {
			return fmt.Errorf("element %q: %w", n, ErrUnknownNode)
		}
	}
	return nil
}

// Resolve recomputes every node's world transform from its parent chain and
// refreshes camera aspect ratios from the render settings.
func (s *Scene) Resolve() error {
	resolve := func(e *Element) error {
		world := e.Local()
		parent := e.Parent
		for depth := 0; parent != ""; depth++ {
			if depth >= maxParentDepth {
				return fmt.Errorf("node %q: %w", e.Name, ErrParentCycle)
			}
			p := s.node(parent)
			if p == nil {
				return fmt.Errorf("parent %q of %q: %w", parent, e.Name, ErrUnknownNode)
			}
			world = p.Local().Mul(world)
			parent = p.Parent
		}
		e.world = world
		return nil
	}

	for _, e := range s.nodes {
		if err := resolve(e); err != nil {
			return err
		}
	}
	for _, c := range s.cameras {
		if err := resolve(&c.Element); err != nil {
			return err
		}
		c.aspect = s.Render.Aspect()
	}
	for _, l := range s.lights {
		if err := resolve(&l.Element); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy. Nodes in the copy share nothing with s.
func (s *Scene) Clone() *Scene {
	c := New(s.Name)
	c.Render = s.Render
	c.Roles = Roles{
		Cameras:  append([]string(nil), s.Roles.Cameras...),
		Axes:     append([]string(nil), s.Roles.Axes...),
		Elements: append([]string(nil), s.Roles.Elements...),
		Lights:   append([]string(nil), s.Roles.Lights...),
	}
	for n, e := range s.nodes {
		c.nodes[n] = e.clone()
	}
	for n, cam := range s.cameras {
		cc := *cam
		cc.Element = *cam.Element.clone()
		c.cameras[n] = &cc
	}
	for n, l := range s.lights {
		lc := *l
		lc.Element = *l.Element.clone()
		c.lights[n] = &lc
	}
	return c
}

// WorldLocation returns a node's world-space origin.
func (s *Scene) WorldLocation(name string) (geom.Vector3, error) {
	e := s.node(name)
	if e == nil {
		return geom.Vector3{}, fmt.Errorf("%q: %w", name, ErrUnknownNode)
	}
	return e.world.Location(), nil
}

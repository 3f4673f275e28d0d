package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/sdg/internal/geom"
)

const maxFileSize = 16 * 1024 * 1024

// File is the on-disk scene description. A file may hold several scenes;
// one is chosen by name.
type File struct {
	Scenes []SceneSpec `json:"scenes" yaml:"scenes"`
}

// SceneSpec describes one scene.
type SceneSpec struct {
	Name    string     `json:"name" yaml:"name"`
	Objects []NodeSpec `json:"objects" yaml:"objects"`
}

// NodeSpec describes one node. Rotation is in degrees.
type NodeSpec struct {
	Name      string       `json:"name" yaml:"name"`
	Type      string       `json:"type" yaml:"type"` // empty, mesh, camera, light
	Parent    string       `json:"parent,omitempty" yaml:"parent,omitempty"`
	Location  []float64    `json:"location,omitempty" yaml:"location,omitempty"`
	Rotation  []float64    `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Scale     []float64    `json:"scale,omitempty" yaml:"scale,omitempty"`
	Vertices  [][3]float64 `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	Primitive *Primitive   `json:"primitive,omitempty" yaml:"primitive,omitempty"`
	FOVDeg    float64      `json:"fov_deg,omitempty" yaml:"fov_deg,omitempty"`
	Energy    float64      `json:"energy,omitempty" yaml:"energy,omitempty"`
}

// Primitive generates mesh vertices instead of listing them.
type Primitive struct {
	Kind string  `json:"kind" yaml:"kind"`
	Size float64 `json:"size" yaml:"size"`
}

// defaultFOVDeg matches a 50mm lens on a 36mm sensor.
const defaultFOVDeg = 39.6

// LoadFile reads a .json, .yaml or .yml scene file and builds the scene
// called name, or the first scene when name is empty.
func LoadFile(path, name string) (*Scene, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("scene file must have .json, .yaml or .yml extension, got: %s", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scene file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("scene file too large: %d bytes (max %d bytes)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var f File
	if ext == ".json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene file %s: %w", path, err)
	}
	return f.Build(name)
}

// Build constructs the named scene, or the first when name is empty.
func (f File) Build(name string) (*Scene, error) {
	if len(f.Scenes) == 0 {
		return nil, errors.New("scene file has no scenes")
	}
	spec := &f.Scenes[0]
	if name != "" {
		spec = nil
		for i := range f.Scenes {
			if f.Scenes[i].Name == name {
				spec = &f.Scenes[i]
				break
			}
		}
		if spec == nil {
			return nil, fmt.Errorf("scene %q: %w", name, ErrUnknownNode)
		}
	}
	return spec.Build()
}

// Build constructs the scene and resolves world transforms.
func (sp SceneSpec) Build() (*Scene, error) {
	s := New(sp.Name)
	for _, n := range sp.Objects {
		e, err := n.element()
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		switch n.Type {
		case "", "empty", "mesh":
			err = s.AddElement(e)
		case "camera":
			fov := n.FOVDeg
			if fov == 0 {
				fov = defaultFOVDeg
			}
			err = s.AddCamera(&Camera{Element: *e, FOV: geom.DegToRad(fov)})
		case "light":
			err = s.AddLight(&Light{Element: *e, Energy: n.Energy})
		default:
			err = fmt.Errorf("node %q: unsupported type %q", n.Name, n.Type)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.Resolve(); err != nil {
		return nil, err
	}
	return s, nil
}

func (n NodeSpec) element() (*Element, error) {
	e := NewElement(n.Name)
	e.Parent = n.Parent

	var err error
	if e.Location, err = vec(n.Location, geom.Vector3{}); err != nil {
		return nil, fmt.Errorf("location: %w", err)
	}
	rot, err := vec(n.Rotation, geom.Vector3{})
	if err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	e.SetRotationDegrees(rot)
	if e.Scale, err = vec(n.Scale, geom.Vector3{X: 1, Y: 1, Z: 1}); err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}

	switch {
	case n.Primitive != nil && len(n.Vertices) > 0:
		return nil, errors.New("vertices and primitive are mutually exclusive")
	case n.Primitive != nil:
		if e.Mesh, err = primitive(n.Primitive.Kind, n.Primitive.Size); err != nil {
			return nil, err
		}
	case len(n.Vertices) > 0:
		e.Mesh = make([]geom.Vector3, len(n.Vertices))
		for i, v := range n.Vertices {
			e.Mesh[i] = geom.Vector3{X: v[0], Y: v[1], Z: v[2]}
		}
	}
	return e, nil
}

func vec(v []float64, def geom.Vector3) (geom.Vector3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return geom.Vector3{X: v[0], Y: v[1], Z: v[2]}, nil
	default:
		return geom.Vector3{}, fmt.Errorf("expected 3 components, got %d", len(v))
	}
}

package sweep

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/google/uuid"
)

// Snapshot is one point of the sweep. Angles are degrees.
type Snapshot struct {
	ID           string  `json:"id"`
	Yaw          float64 `json:"yaw"`
	Roll         float64 `json:"roll"`
	CameraHeight float64 `json:"camera_height"`
	LightEnergy  float64 `json:"light_energy"`
}

// Limits is an inclusive [min, max] pair.
type Limits [2]int

// Plan describes a sweep.
type Plan struct {
	Name               string
	Step               int
	YawLimits          Limits
	RollLimits         Limits
	CameraHeightLimits Limits
	LightEnergyLimits  Limits
}

// Validate checks the step and that every range is non-empty.
func (p Plan) Validate() error {
	if p.Step <= 0 {
		return fmt.Errorf("sweep %q: step must be positive, got %d", p.Name, p.Step)
	}
	for _, l := range []struct {
		name string
		lim  Limits
	}{
		{"yaw", p.YawLimits},
		{"roll", p.RollLimits},
		{"camera_height", p.CameraHeightLimits},
		{"light_energy", p.LightEnergyLimits},
	} {
		if l.lim[0] > l.lim[1] {
			return fmt.Errorf("sweep %q: %s limits [%d, %d] are empty", p.Name, l.name, l.lim[0], l.lim[1])
		}
	}
	return nil
}

// Size returns the number of snapshots the plan produces.
func (p Plan) Size() int {
	n := 1
	for _, l := range []Limits{p.YawLimits, p.RollLimits, p.CameraHeightLimits, p.LightEnergyLimits} {
		n *= len(GenerateIntRange(l[0], l[1], p.Step))
	}
	return n
}

// Snapshots expands the plan, nesting yaw outermost then roll, camera
// height and light energy. IDs are random UUIDs drawn from a source seeded
// with seed so a rerun yields the same IDs.
func (p Plan) Snapshots(seed int64) ([]Snapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	combos, err := Product(
		GenerateIntRange(p.YawLimits[0], p.YawLimits[1], p.Step),
		GenerateIntRange(p.RollLimits[0], p.RollLimits[1], p.Step),
		GenerateIntRange(p.CameraHeightLimits[0], p.CameraHeightLimits[1], p.Step),
		GenerateIntRange(p.LightEnergyLimits[0], p.LightEnergyLimits[1], p.Step),
	)
	if err != nil {
		return nil, fmt.Errorf("sweep %q: %w", p.Name, err)
	}
	if len(combos) == 0 {
		return nil, errors.New("sweep produced no snapshots")
	}

	ids := NewIDSource(seed)
	out := make([]Snapshot, len(combos))
	for i, c := range combos {
		id, err := ids.Next()
		if err != nil {
			return nil, err
		}
		out[i] = Snapshot{
			ID:           id,
			Yaw:          float64(c[0]),
			Roll:         float64(c[1]),
			CameraHeight: float64(c[2]),
			LightEnergy:  float64(c[3]),
		}
	}
	return out, nil
}

// IDSource yields reproducible UUIDv4 strings.
type IDSource struct {
	r io.Reader
}

// NewIDSource returns a source seeded with seed.
func NewIDSource(seed int64) *IDSource {
	return &IDSource{r: rand.New(rand.NewSource(seed))}
}

// Next returns the next id.
func (s *IDSource) Next() (string, error) {
	id, err := uuid.NewRandomFromReader(s.r)
	if err != nil {
		return "", fmt.Errorf("generating snapshot id: %w", err)
	}
	return id.String(), nil
}

package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/credence/internal/simulation"
	"github.com/MikeSquared-Agency/credence/internal/trajectory"
)

var ErrUnknownKind = errors.New("unknown trajectory kind")

// File is the on-disk scenario definition.
//
//	scenarios:
//	  - name: Slow Burn
//	    threat: {kind: escalating, max: 70, rate: 0.2}
//	    institution: {kind: delayed, delay: 7}
type File struct {
	Scenarios []Spec `yaml:"scenarios" json:"scenarios"`
}

// Spec describes one scenario declaratively.
type Spec struct {
	Name        string           `yaml:"name" json:"name"`
	Threat      ThreatSpec       `yaml:"threat" json:"threat"`
	Institution *InstitutionSpec `yaml:"institution,omitempty" json:"institution,omitempty"`
}

// ThreatSpec selects a threat trajectory. Zero parameters take the
// trajectory's defaults.
type ThreatSpec struct {
	Kind      string  `yaml:"kind" json:"kind"` // constant | low | high | shock | escalating
	Value     float64 `yaml:"value,omitempty" json:"value,omitempty"`
	ShockTime int     `yaml:"shock_time,omitempty" json:"shock_time,omitempty"`
	Intensity float64 `yaml:"intensity,omitempty" json:"intensity,omitempty"`
	DecayRate float64 `yaml:"decay_rate,omitempty" json:"decay_rate,omitempty"`
	Max       float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Rate      float64 `yaml:"rate,omitempty" json:"rate,omitempty"`
}

// InstitutionSpec selects how the institution follows the threat.
type InstitutionSpec struct {
	Kind  string `yaml:"kind" json:"kind"` // responsive | delayed | absent
	Delay int    `yaml:"delay,omitempty" json:"delay,omitempty"`
}

// Validate rejects non-finite values and negative rates. Zero still means
// "use the default".
func (t ThreatSpec) Validate() error {
	for name, v := range map[string]float64{
		"value":      t.Value,
		"intensity":  t.Intensity,
		"decay_rate": t.DecayRate,
		"max":        t.Max,
		"rate":       t.Rate,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: threat %s is not finite", simulation.ErrInvalidConfiguration, name)
		}
	}
	if t.DecayRate < 0 {
		return fmt.Errorf("%w: threat decay_rate must be positive, got %v", simulation.ErrInvalidConfiguration, t.DecayRate)
	}
	if t.Rate < 0 {
		return fmt.Errorf("%w: threat rate must be non-negative, got %v", simulation.ErrInvalidConfiguration, t.Rate)
	}
	if t.ShockTime < 0 {
		return fmt.Errorf("%w: threat shock_time must be non-negative, got %d", simulation.ErrInvalidConfiguration, t.ShockTime)
	}
	return nil
}

// Trajectory builds the threat trajectory described by t.
func (t ThreatSpec) Trajectory() (trajectory.Trajectory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(t.Kind) {
	case "constant":
		return trajectory.Constant(t.Value), nil
	case "low", "":
		return trajectory.LowThreat(), nil
	case "high":
		return trajectory.HighThreat(), nil
	case "shock":
		d := trajectory.DefaultShockEvent()
		if t.ShockTime > 0 {
			d.ShockTime = t.ShockTime
		}
		if t.Intensity != 0 {
			d.Intensity = t.Intensity
		}
		if t.DecayRate > 0 {
			d.DecayRate = t.DecayRate
		}
		return d, nil
	case "escalating":
		d := trajectory.DefaultEscalating()
		if t.Max > 0 {
			d.MaxThreat = t.Max
		}
		if t.Rate > 0 {
			d.Rate = t.Rate
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: threat %q", ErrUnknownKind, t.Kind)
	}
}

func (i *InstitutionSpec) Validate() error {
	if i != nil && i.Delay < 0 {
		return fmt.Errorf("%w: institution delay must be non-negative, got %d", simulation.ErrInvalidConfiguration, i.Delay)
	}
	return nil
}

// Func returns the institution builder described by i. A nil spec is responsive.
func (i *InstitutionSpec) Func() (InstitutionFunc, error) {
	if i == nil {
		return Responsive, nil
	}
	if err := i.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(i.Kind) {
	case "responsive", "":
		return Responsive, nil
	case "delayed":
		delay := i.Delay
		if delay <= 0 {
			delay = trajectory.DefaultDelay
		}
		return Delayed(delay), nil
	case "absent":
		return Absent, nil
	default:
		return nil, fmt.Errorf("%w: institution %q", ErrUnknownKind, i.Kind)
	}
}

// Build turns specs into an ordered Set.
func Build(specs []Spec) (*Set, error) {
	set := &Set{}
	for _, sp := range specs {
		threat, err := sp.Threat.Trajectory()
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sp.Name, err)
		}
		inst, err := sp.Institution.Func()
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sp.Name, err)
		}
		if err := set.Add(Scenario{Name: sp.Name, Threat: threat, Institution: inst}); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// LoadFile reads a YAML scenario file. The YAML sequence order is the
// comparison order.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoScenarios)
	}
	return Build(f.Scenarios)
}
